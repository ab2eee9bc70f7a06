package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/enzo-projet/zogames/internal/fanout"
	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/services/game"
	"github.com/enzo-projet/zogames/internal/services/identity"
	"github.com/enzo-projet/zogames/internal/services/registry"
	"github.com/enzo-projet/zogames/internal/services/submission"
)

// Gateway accepts bidirectional per-player connections, multiplexes their
// requests into the core and relays outbound broadcasts. It holds no game
// logic of its own.
type Gateway struct {
	upgrader   websocket.Upgrader
	identity   *identity.Service
	registry   *registry.Controller
	game       *game.Controller
	submission *submission.Controller
	fanout     *fanout.Fanout
	logger     *slog.Logger
}

// New creates a new Gateway
func New(
	identityService *identity.Service,
	registryController *registry.Controller,
	gameController *game.Controller,
	submissionController *submission.Controller,
	fan *fanout.Fanout,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		identity:   identityService,
		registry:   registryController,
		game:       gameController,
		submission: submissionController,
		fanout:     fan,
		logger:     logger.With(slog.String("component", "gateway")),
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := newClient(conn)
	go c.writePump()
	g.readPump(r.Context(), c)
}

// readPump reads frames until the peer disconnects or a fatal request
// forces a close. A dropped connection only removes its room subscription;
// it never rolls back accepted mutations.
func (g *Gateway) readPump(ctx context.Context, c *client) {
	defer func() {
		g.fanout.Unsubscribe(c)
		c.close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(g.nextReadDeadline())
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(g.nextReadDeadline())
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			// Malformed frames indicate a broken or hostile peer
			g.logger.Warn("malformed frame, closing connection", slog.Any("error", err))
			return
		}

		if !g.dispatch(ctx, c, req) {
			return
		}
	}
}

func (g *Gateway) nextReadDeadline() time.Time {
	return time.Now().Add(pongWait)
}

// dispatch handles one request. It reports false when the connection must
// close.
func (g *Gateway) dispatch(ctx context.Context, c *client, req Request) bool {
	if req.Type == RequestSubscribe {
		// The subscribe handshake carries no credential
		if err := g.fanout.Subscribe(ctx, c, req.GameKind, req.Code); err != nil {
			g.sendError(c, err)
		}
		return true
	}

	userID, err := g.identity.Verify(identity.Token(req.Token))
	if err != nil {
		g.logger.Warn("credential rejected, closing connection", slog.String("type", req.Type))
		return false
	}

	switch req.Type {
	case RequestCreate:
		session, err := g.registry.CreateSession(ctx, req.GameKind, userID)
		if err != nil {
			return g.reportError(c, err)
		}
		// Subscribing delivers the snapshot carrying the new code
		if err := g.fanout.Subscribe(ctx, c, session.GameKind, session.Code); err != nil {
			return g.reportError(c, err)
		}
		return g.publish(ctx, c, session.GameKind, session.Code)

	case RequestJoin:
		session, err := g.registry.JoinSession(ctx, req.GameKind, req.Code, userID)
		if err != nil {
			return g.reportError(c, err)
		}
		if err := g.fanout.Subscribe(ctx, c, session.GameKind, session.Code); err != nil {
			return g.reportError(c, err)
		}
		return g.publish(ctx, c, session.GameKind, session.Code)

	case RequestQuestion:
		if ok := g.requireMember(ctx, c, req, userID); !ok {
			return false
		}
		if err := g.submission.SubmitQuestion(ctx, req.GameKind, req.Code, userID, req.Text); err != nil {
			return g.reportError(c, err)
		}
		return g.publish(ctx, c, req.GameKind, req.Code)

	case RequestAnswers:
		if ok := g.requireMember(ctx, c, req, userID); !ok {
			return false
		}
		if err := g.submission.SubmitAnswers(ctx, req.GameKind, req.Code, userID, req.Answers); err != nil {
			return g.reportError(c, err)
		}
		return g.publish(ctx, c, req.GameKind, req.Code)

	case RequestStart:
		if ok := g.requireMember(ctx, c, req, userID); !ok {
			return false
		}
		if err := g.game.AdvanceToAnswering(ctx, req.GameKind, req.Code); err != nil {
			return g.reportError(c, err)
		}
		return g.publish(ctx, c, req.GameKind, req.Code)

	default:
		g.logger.Warn("unknown request type, closing connection", slog.String("type", req.Type))
		return false
	}
}

// requireMember closes the connection when the user addresses a session
// they are not part of. A forged room/session pair is not retryable.
func (g *Gateway) requireMember(ctx context.Context, c *client, req Request, userID model.UserID) bool {
	member, err := g.registry.IsMember(ctx, req.GameKind, req.Code, userID)
	if err != nil {
		return g.reportError(c, err)
	}
	if !member {
		g.logger.Warn("non-member request, closing connection",
			slog.String("game_kind", string(req.GameKind)),
			slog.String("code", string(req.Code)),
		)
		return false
	}
	return true
}

// publish pushes the authoritative snapshot to the owning room after an
// accepted mutation
func (g *Gateway) publish(ctx context.Context, c *client, kind model.GameKind, code model.SessionCode) bool {
	if err := g.fanout.PublishFullState(ctx, kind, code); err != nil {
		return g.reportError(c, err)
	}
	return true
}

// reportError sends a structured operation error, or closes the connection
// for credential/membership failures
func (g *Gateway) reportError(c *client, err error) bool {
	if isFatal(err) {
		g.logger.Warn("fatal request error, closing connection", slog.Any("error", err))
		return false
	}
	g.sendError(c, err)
	return true
}

func (g *Gateway) sendError(c *client, err error) {
	data, marshalErr := json.Marshal(operationError(err))
	if marshalErr != nil {
		return
	}
	_ = c.Send(data)
}
