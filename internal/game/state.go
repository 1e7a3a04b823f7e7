package game

import (
	"encoding/json"
	"fmt"
)

// PublicState is one full snapshot of a game as every participant sees
// it. The broadcast channel delivers complete snapshots, never diffs.
type PublicState struct {
	GameID             string         `json:"gameId"`
	GameCode           string         `json:"gameCode"`
	GameStatus         GameStatus     `json:"gameStatus"`
	TotalRounds        int            `json:"totalRounds"`
	CurrentRoundNumber int            `json:"currentRoundNumber"`
	Players            []Player       `json:"players"`
	CurrentRoundStatus RoundStatus    `json:"currentRoundStatus,omitempty"`
	LastRoundGuessName string         `json:"lastRoundGuessName,omitempty"`
	// LastRoundScoreDelta maps player id to the score change of the most
	// recently resolved round. Only populated during REVEAL and FINISHED.
	LastRoundScoreDelta map[string]int `json:"lastRoundScoreDelta,omitempty"`
}

// MyState is the private view returned by the per-participant fetch: the
// public snapshot overlaid with fields only the requester may see.
type MyState struct {
	PublicState
	Me          Player      `json:"me"`
	MyChit      ChitType    `json:"myChit,omitempty"`
	RoundStatus RoundStatus `json:"roundStatus,omitempty"`
}

// Clone returns a copy that shares no mutable memory with the receiver.
func (s PublicState) Clone() PublicState {
	cloned := s
	if s.Players != nil {
		cloned.Players = append([]Player(nil), s.Players...)
	}
	if s.LastRoundScoreDelta != nil {
		delta := make(map[string]int, len(s.LastRoundScoreDelta))
		for id, points := range s.LastRoundScoreDelta {
			delta[id] = points
		}
		cloned.LastRoundScoreDelta = delta
	}
	return cloned
}

// Clone returns a copy that shares no mutable memory with the receiver.
func (s MyState) Clone() MyState {
	cloned := s
	cloned.PublicState = s.PublicState.Clone()
	return cloned
}

// DecodeSnapshot parses a broadcast payload into a typed snapshot. The
// transport boundary is the only place raw bytes are accepted; anything
// that decodes here is safe for the rest of the client to consume.
func DecodeSnapshot(data []byte) (PublicState, error) {
	var snap PublicState
	if err := json.Unmarshal(data, &snap); err != nil {
		return PublicState{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.GameID == "" {
		return PublicState{}, fmt.Errorf("decode snapshot: missing gameId")
	}
	if !snap.GameStatus.Known() {
		return PublicState{}, fmt.Errorf("decode snapshot: unknown gameStatus %q", snap.GameStatus)
	}
	return snap, nil
}
