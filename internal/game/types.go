package game

// GameStatus is the server-owned lifecycle of a game. The client carries
// it through to consumers and never drives transitions itself.
type GameStatus string

const (
	StatusLobby    GameStatus = "LOBBY"
	StatusInRound  GameStatus = "IN_ROUND"
	StatusReveal   GameStatus = "REVEAL"
	StatusFinished GameStatus = "FINISHED"
)

// Known reports whether the status is one the wire contract defines.
func (s GameStatus) Known() bool {
	switch s {
	case StatusLobby, StatusInRound, StatusReveal, StatusFinished:
		return true
	default:
		return false
	}
}

// RoundStatus is the server-owned phase of the active round.
type RoundStatus string

const (
	RoundDistributing     RoundStatus = "DISTRIBUTING"
	RoundWaitingForRamudu RoundStatus = "WAITING_FOR_RAMUDU"
	RoundCompleted        RoundStatus = "COMPLETED"
)

// ChitType identifies the secret role a player draws each round.
type ChitType string

const (
	ChitRamudu     ChitType = "RAMUDU"
	ChitSita       ChitType = "SITA"
	ChitBharata    ChitType = "BHARATA"
	ChitShatrughna ChitType = "SHATRUGHNA"
	ChitHanuman    ChitType = "HANUMAN"
)

// BasePoints returns the guaranteed points a chit awards its holder when
// the round resolves in their favor. Zero for unknown chits.
func (c ChitType) BasePoints() int {
	switch c {
	case ChitRamudu:
		return 500
	case ChitSita:
		return 0
	case ChitBharata:
		return 200
	case ChitShatrughna:
		return 100
	case ChitHanuman:
		return 400
	default:
		return 0
	}
}

// Player is the public summary of one participant.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Host       bool   `json:"host"`
	TotalScore int    `json:"totalScore"`
}
