package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/enzo-projet/zogames/internal/dependencies/clock"
	"github.com/enzo-projet/zogames/internal/dependencies/random"
	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/storage"
)

const (
	// CodeLength is the length of generated session codes
	CodeLength = 4
	// PublicIDLength is the length of generated player public ids
	PublicIDLength = 6

	// codeAttempts bounds generation retries; with 10^4 codes per kind a
	// handful of retries is plenty until the space is nearly full
	codeAttempts = 50
)

// ErrCodeSpaceExhausted means code generation kept colliding; practically
// this only happens when almost every code of a kind is taken
var ErrCodeSpaceExhausted = errors.New("could not allocate a session code")

// Controller creates and looks up sessions and enforces join eligibility
type Controller struct {
	storage storage.Store
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new session registry
func NewController(store storage.Store, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		storage: store,
		clock:   clk,
		random:  rnd,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// CreateSession creates a session with a fresh collision-free code and
// inserts the creator as its first player
func (c *Controller) CreateSession(ctx context.Context, kind model.GameKind, userID model.UserID) (*model.Session, error) {
	if !model.KnownGameKinds[kind] {
		return nil, model.ErrInvalidGameKind
	}

	now := c.clock.Now()

	// The store's conditional create reserves the code atomically, so a
	// collision simply means another session got there first: draw again.
	var session *model.Session
	for attempt := 0; ; attempt++ {
		if attempt >= codeAttempts {
			return nil, ErrCodeSpaceExhausted
		}

		session = &model.Session{
			GameKind:  kind,
			Code:      model.SessionCode(c.random.Digits(CodeLength)),
			Step:      model.StepLobby,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := c.storage.CreateSession(ctx, session)
		if err == nil {
			break
		}
		if !errors.Is(err, model.ErrSessionExists) {
			return nil, err
		}
	}

	creator := &model.Player{
		UserID:   userID,
		PublicID: model.PublicID(c.random.Digits(PublicIDLength)),
		JoinedAt: now,
	}
	if err := c.storage.SavePlayer(ctx, kind, session.Code, creator); err != nil {
		return nil, err
	}

	c.logger.Info("session created",
		slog.String("game_kind", string(kind)),
		slog.String("code", string(session.Code)),
		slog.String("user_id", string(userID)),
	)

	return session, nil
}

// GetSession retrieves a session by kind and code
func (c *Controller) GetSession(ctx context.Context, kind model.GameKind, code model.SessionCode) (*model.Session, error) {
	return c.storage.GetSession(ctx, kind, code)
}

// JoinSession adds a player to a session still in its lobby step. Re-joining
// is idempotent: an existing player keeps their question, answers and public
// id; only the join time is refreshed.
func (c *Controller) JoinSession(ctx context.Context, kind model.GameKind, code model.SessionCode, userID model.UserID) (*model.Session, error) {
	session, err := c.storage.GetSession(ctx, kind, code)
	if err != nil {
		return nil, err
	}

	if session.Step != model.StepLobby {
		return nil, model.ErrSessionAlreadyStarted
	}

	player, err := c.storage.GetPlayer(ctx, kind, code, userID)
	if err != nil {
		if !errors.Is(err, model.ErrPlayerNotFound) {
			return nil, err
		}
		player = &model.Player{UserID: userID}
	}

	if player.PublicID == "" {
		player.PublicID = model.PublicID(c.random.Digits(PublicIDLength))
	}
	player.JoinedAt = c.clock.Now()

	if err := c.storage.SavePlayer(ctx, kind, code, player); err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("game_kind", string(kind)),
		slog.String("code", string(code)),
		slog.String("user_id", string(userID)),
	)

	return session, nil
}

// IsMember reports whether the user is a player of the session
func (c *Controller) IsMember(ctx context.Context, kind model.GameKind, code model.SessionCode, userID model.UserID) (bool, error) {
	_, err := c.storage.GetPlayer(ctx, kind, code, userID)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
