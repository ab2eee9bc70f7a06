package game

import (
	"context"
	"log/slog"

	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/storage"
)

// Controller owns the session step lifecycle:
// Lobby (0) -> Answering (1) -> Results (2), terminal at Results.
// The step only gates which operations are admitted; it carries no other
// meaning in the core.
type Controller struct {
	storage storage.Store
	logger  *slog.Logger
}

// NewController creates a new state machine controller
func NewController(store storage.Store, logger *slog.Logger) *Controller {
	return &Controller{
		storage: store,
		logger:  logger.With(slog.String("component", "game")),
	}
}

// AdvanceToAnswering moves a lobby session to the answering step. Every
// current player must have submitted a non-blank question.
func (c *Controller) AdvanceToAnswering(ctx context.Context, kind model.GameKind, code model.SessionCode) error {
	session, err := c.storage.GetSession(ctx, kind, code)
	if err != nil {
		return err
	}
	if session.Step != model.StepLobby {
		return model.ErrInvalidTransition
	}

	players, err := c.storage.ListPlayers(ctx, kind, code)
	if err != nil {
		return err
	}
	for _, p := range players {
		if !p.HasQuestion() {
			return model.ErrIncompleteSubmissions
		}
	}

	if err := c.storage.AdvanceStep(ctx, kind, code, model.StepLobby, model.StepAnswering); err != nil {
		return err
	}

	c.logger.Info("session advanced to answering",
		slog.String("game_kind", string(kind)),
		slog.String("code", string(code)),
		slog.Int("player_count", len(players)),
	)
	return nil
}

// AdvanceToResults moves an answering session to results. Only the
// submission ledger's completion check calls this; clients cannot request
// it. A session already at results is a no-op, so duplicate triggers from
// concurrent evaluators are harmless.
func (c *Controller) AdvanceToResults(ctx context.Context, kind model.GameKind, code model.SessionCode) error {
	if err := c.storage.AdvanceStep(ctx, kind, code, model.StepAnswering, model.StepResults); err != nil {
		return err
	}

	c.logger.Info("session advanced to results",
		slog.String("game_kind", string(kind)),
		slog.String("code", string(code)),
	)
	return nil
}

// RequireStep fails with ErrInvalidTransition unless the session is at the
// wanted step. Used to gate submissions.
func (c *Controller) RequireStep(ctx context.Context, kind model.GameKind, code model.SessionCode, want model.Step) error {
	session, err := c.storage.GetSession(ctx, kind, code)
	if err != nil {
		return err
	}
	if session.Step != want {
		return model.ErrInvalidTransition
	}
	return nil
}
