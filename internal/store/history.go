package store

import "github.com/dvanwesh/ramsita-game/internal/game"

// HistoryEntry is one resolved round's score outcome, derived from a
// REVEAL snapshot. Entries are appended once per round and never change.
type HistoryEntry struct {
	RoundNumber int
	Deltas      map[string]int
	Totals      map[string]int
}

// appendRound folds one broadcast snapshot into the ledger. A snapshot
// qualifies only when it reveals a resolved round (REVEAL status, a
// score delta, a round number) and that round is not yet recorded.
// The bool reports whether an entry was appended.
//
// Duplicate deliveries of the same REVEAL snapshot, including
// reconnection replays, are ignored, which keeps the ledger idempotent
// under the transport's at-least-once behavior.
func appendRound(ledger []HistoryEntry, snap game.PublicState) ([]HistoryEntry, bool) {
	if snap.GameStatus != game.StatusReveal {
		return ledger, false
	}
	if snap.LastRoundScoreDelta == nil || snap.CurrentRoundNumber <= 0 {
		return ledger, false
	}
	for _, entry := range ledger {
		if entry.RoundNumber == snap.CurrentRoundNumber {
			return ledger, false
		}
	}

	deltas := make(map[string]int, len(snap.LastRoundScoreDelta))
	for id, points := range snap.LastRoundScoreDelta {
		deltas[id] = points
	}
	totals := make(map[string]int, len(snap.Players))
	for _, player := range snap.Players {
		totals[player.ID] = player.TotalScore
	}

	return append(ledger, HistoryEntry{
		RoundNumber: snap.CurrentRoundNumber,
		Deltas:      deltas,
		Totals:      totals,
	}), true
}

func cloneHistory(ledger []HistoryEntry) []HistoryEntry {
	if ledger == nil {
		return nil
	}
	cloned := make([]HistoryEntry, len(ledger))
	for i, entry := range ledger {
		copied := HistoryEntry{RoundNumber: entry.RoundNumber}
		if entry.Deltas != nil {
			copied.Deltas = make(map[string]int, len(entry.Deltas))
			for id, points := range entry.Deltas {
				copied.Deltas[id] = points
			}
		}
		if entry.Totals != nil {
			copied.Totals = make(map[string]int, len(entry.Totals))
			for id, points := range entry.Totals {
				copied.Totals[id] = points
			}
		}
		cloned[i] = copied
	}
	return cloned
}
