package submission

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/services/game"
	"github.com/enzo-projet/zogames/internal/storage"
)

// Controller records each player's question and answer set and detects when
// every player has answered
type Controller struct {
	storage storage.Store
	game    *game.Controller
	logger  *slog.Logger
}

// NewController creates a new submission controller
func NewController(store storage.Store, gameController *game.Controller, logger *slog.Logger) *Controller {
	return &Controller{
		storage: store,
		game:    gameController,
		logger:  logger.With(slog.String("component", "submission")),
	}
}

// SubmitQuestion records a player's question while the session is in its
// lobby step. Resubmitting overwrites: last write wins.
func (c *Controller) SubmitQuestion(ctx context.Context, kind model.GameKind, code model.SessionCode, userID model.UserID, text string) error {
	if strings.TrimSpace(text) == "" {
		return model.ErrEmptyQuestion
	}

	if err := c.game.RequireStep(ctx, kind, code, model.StepLobby); err != nil {
		return err
	}

	player, err := c.storage.GetPlayer(ctx, kind, code, userID)
	if err != nil {
		return err
	}

	player.Question = text
	if err := c.storage.SavePlayer(ctx, kind, code, player); err != nil {
		return err
	}

	c.logger.Info("question submitted",
		slog.String("game_kind", string(kind)),
		slog.String("code", string(code)),
		slog.String("user_id", string(userID)),
	)
	return nil
}

// SubmitAnswers merges an answer set into the player's answers while the
// session is answering. Each key is last-write-wins, so partial submissions
// across several calls accumulate and retransmissions are idempotent. After
// the merge commits the completion check runs against a fresh read of every
// player.
func (c *Controller) SubmitAnswers(ctx context.Context, kind model.GameKind, code model.SessionCode, userID model.UserID, answers map[model.PublicID]string) error {
	if err := c.game.RequireStep(ctx, kind, code, model.StepAnswering); err != nil {
		return err
	}

	player, err := c.storage.GetPlayer(ctx, kind, code, userID)
	if err != nil {
		return err
	}

	player.MergeAnswers(answers)
	if err := c.storage.SavePlayer(ctx, kind, code, player); err != nil {
		return err
	}

	c.logger.Info("answers submitted",
		slog.String("game_kind", string(kind)),
		slog.String("code", string(code)),
		slog.String("user_id", string(userID)),
		slog.Int("answer_count", len(player.Answers)),
	)

	return c.checkCompletion(ctx, kind, code)
}

// checkCompletion re-reads all players and advances the session to results
// once every player's answer count has reached the player count. The count
// includes a player's answer to their own question. The advance is a no-op
// when a concurrent evaluator already triggered it.
func (c *Controller) checkCompletion(ctx context.Context, kind model.GameKind, code model.SessionCode) error {
	players, err := c.storage.ListPlayers(ctx, kind, code)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return nil
	}

	for _, p := range players {
		if len(p.Answers) < len(players) {
			return nil
		}
	}

	err = c.game.AdvanceToResults(ctx, kind, code)
	if err != nil && errors.Is(err, model.ErrInvalidTransition) {
		// Session moved on between the read and the advance
		return nil
	}
	return err
}
