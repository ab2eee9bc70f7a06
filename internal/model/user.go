package model

import "time"

// User is an account known to the identity service
type User struct {
	ID        UserID
	Pseudo    string
	Email     string // empty for guests
	IsGuest   bool
	CreatedAt time.Time
}

// Credential stores a registered user's login secret, indexed by email
type Credential struct {
	UserID       UserID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
