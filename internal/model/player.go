package model

import (
	"strings"
	"time"
)

// UserID is the stable identifier issued by the identity service.
// It is never shown to other players.
type UserID string

// PublicID is the random identifier a player exposes to the rest of the
// session, decoupled from the stable user identity.
type PublicID string

// Player is a session participant. Answers maps another player's PublicID
// to this player's answer for that player's question.
type Player struct {
	UserID   UserID
	PublicID PublicID
	JoinedAt time.Time
	Question string
	Answers  map[PublicID]string
}

// HasQuestion reports whether the player has submitted a non-blank question
func (p *Player) HasQuestion() bool {
	return strings.TrimSpace(p.Question) != ""
}

// MergeAnswers applies an answer set per-key last-write-wins. Partial
// submissions across multiple calls accumulate.
func (p *Player) MergeAnswers(answers map[PublicID]string) {
	if p.Answers == nil {
		p.Answers = make(map[PublicID]string, len(answers))
	}
	for k, v := range answers {
		p.Answers[k] = v
	}
}

// PlayerView is the per-player snapshot broadcast to clients. Pseudo comes
// from the identity profile; the stable UserID is deliberately absent.
type PlayerView struct {
	PublicID PublicID            `json:"publicId"`
	Pseudo   string              `json:"pseudo"`
	Question string              `json:"question"`
	Answers  map[PublicID]string `json:"answers"`
}
