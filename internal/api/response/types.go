package response

import (
	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/services/identity"
)

// Grant is the response to signup, login and guest creation
type Grant struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Pseudo string `json:"pseudo"`
}

// GrantFromService converts an issued credential to its response form
func GrantFromService(g *identity.Grant) Grant {
	return Grant{
		Token:  string(g.Token),
		UserID: string(g.UserID),
		Pseudo: g.User.Pseudo,
	}
}

// Profile is the authenticated user's own view of their account
type Profile struct {
	UserID  string `json:"userId"`
	Pseudo  string `json:"pseudo"`
	Email   string `json:"email,omitempty"`
	IsGuest bool   `json:"isGuest"`
}

// ProfileFromModel converts a user to its response form
func ProfileFromModel(u *model.User) Profile {
	return Profile{
		UserID:  string(u.ID),
		Pseudo:  u.Pseudo,
		Email:   u.Email,
		IsGuest: u.IsGuest,
	}
}
