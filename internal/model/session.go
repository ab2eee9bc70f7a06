package model

import "time"

// GameKind identifies which of the party games a session runs
type GameKind string

const (
	GameKindOne GameKind = "game1"
	GameKindTwo GameKind = "game2"
)

// KnownGameKinds is the set of game kinds the server accepts
var KnownGameKinds = map[GameKind]bool{
	GameKindOne: true,
	GameKindTwo: true,
}

// SessionCode is the 4-digit code players use to join a session
type SessionCode string

// Step is a session's lifecycle phase. Steps only ever move forward.
type Step int

const (
	StepLobby     Step = 0 // collecting players and questions
	StepAnswering Step = 1 // players answering each other's questions
	StepResults   Step = 2 // terminal, aggregated results visible
)

// String returns a human-readable step name
func (s Step) String() string {
	switch s {
	case StepLobby:
		return "lobby"
	case StepAnswering:
		return "answering"
	case StepResults:
		return "results"
	default:
		return "unknown"
	}
}

// Session is one running game instance, identified by kind + code
type Session struct {
	GameKind  GameKind
	Code      SessionCode
	Step      Step
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomKey is the broadcast target for a session's realtime updates
type RoomKey string

// Room returns the broadcast room key for a (kind, code) pair
func Room(kind GameKind, code SessionCode) RoomKey {
	return RoomKey(string(kind) + "-" + string(code))
}

// RoomKey returns the session's broadcast room key
func (s *Session) RoomKey() RoomKey {
	return Room(s.GameKind, s.Code)
}
