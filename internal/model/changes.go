package model

// ChangeKind classifies a store-level document change
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// SessionChange notifies that a session document changed
type SessionChange struct {
	Kind     ChangeKind  `json:"kind"`
	GameKind GameKind    `json:"gameKind"`
	Code     SessionCode `json:"code"`
}

// PlayerChange notifies that a player document changed
type PlayerChange struct {
	Kind     ChangeKind  `json:"kind"`
	GameKind GameKind    `json:"gameKind"`
	Code     SessionCode `json:"code"`
	UserID   UserID      `json:"userId"`
}

// SessionChangeHandler receives session change notifications
type SessionChangeHandler func(SessionChange)

// PlayerChangeHandler receives player change notifications
type PlayerChangeHandler func(PlayerChange)
