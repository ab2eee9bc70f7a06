package storage

import (
	"context"

	"github.com/enzo-projet/zogames/internal/model"
)

// Store defines the interface for session persistence. Sessions are keyed by
// (game kind, code); players are individually-keyed documents under their
// session, so concurrent writes for different players never conflict.
type Store interface {
	// Session operations.
	// CreateSession is a conditional create: it fails with
	// model.ErrSessionExists when a session for (kind, code) is present,
	// so code reservation is atomic at the store.
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, kind model.GameKind, code model.SessionCode) (*model.Session, error)

	// AdvanceStep moves a session's step from `from` to `to` as a
	// compare-and-set. A session already at `to` is a successful no-op,
	// which makes duplicate automatic transitions harmless. Any other
	// current step fails with model.ErrInvalidTransition and leaves the
	// stored session untouched.
	AdvanceStep(ctx context.Context, kind model.GameKind, code model.SessionCode, from, to model.Step) error

	// Player operations
	SavePlayer(ctx context.Context, kind model.GameKind, code model.SessionCode, player *model.Player) error
	GetPlayer(ctx context.Context, kind model.GameKind, code model.SessionCode, userID model.UserID) (*model.Player, error)
	ListPlayers(ctx context.Context, kind model.GameKind, code model.SessionCode) ([]*model.Player, error)

	// User operations (identity profiles and login credentials)
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	SaveCredential(ctx context.Context, cred *model.Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error)
}

// ChangeFeed exposes store-level change notifications. Handlers are
// registered once at startup; the fanout layer holds them so writes the
// gateway did not originate still reach connected clients. Handlers must not
// block.
type ChangeFeed interface {
	OnSessionChanged(h model.SessionChangeHandler)
	OnPlayerChanged(h model.PlayerChangeHandler)
}
