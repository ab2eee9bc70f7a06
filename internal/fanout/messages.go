package fanout

import "github.com/enzo-projet/zogames/internal/model"

// Outbound message types
const (
	TypeFullState    = "fullState"
	TypeChangeNotice = "changeNotice"
)

// FullState is the composite snapshot pushed to a room after a mutation and
// to a subscriber right after it subscribes
type FullState struct {
	Type     string             `json:"type"`
	GameKind model.GameKind     `json:"gameKind"`
	Code     model.SessionCode  `json:"code"`
	Step     model.Step         `json:"step"`
	Players  []model.PlayerView `json:"players"`
}

// ChangeNotice tells subscribers the session changed and they should
// re-fetch, without carrying the payload inline. Used when the change
// originated outside this process.
type ChangeNotice struct {
	Type     string            `json:"type"`
	GameKind model.GameKind    `json:"gameKind"`
	Code     model.SessionCode `json:"code"`
}
