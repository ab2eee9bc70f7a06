package fanout

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/storage"
)

// Subscriber is a connection that can receive room broadcasts. Send must not
// block; it reports false when the message was dropped (e.g. a full buffer),
// which never aborts the broadcast to the rest of the room.
type Subscriber interface {
	Send(message []byte) bool
}

// ProfileLookup resolves a user's display name for view assembly
type ProfileLookup interface {
	Pseudo(ctx context.Context, userID model.UserID) (string, error)
}

// Fanout owns the explicit mapping from room key to subscribed connections
// and re-broadcasts authoritative state after every accepted mutation or
// external change notification.
type Fanout struct {
	storage  storage.Store
	profiles ProfileLookup
	logger   *slog.Logger

	mu    sync.RWMutex
	rooms map[model.RoomKey]map[Subscriber]struct{}
	bySub map[Subscriber]model.RoomKey
}

// New creates a new Fanout
func New(store storage.Store, profiles ProfileLookup, logger *slog.Logger) *Fanout {
	return &Fanout{
		storage:  store,
		profiles: profiles,
		logger:   logger.With(slog.String("component", "fanout")),
		rooms:    make(map[model.RoomKey]map[Subscriber]struct{}),
		bySub:    make(map[Subscriber]model.RoomKey),
	}
}

// Register hooks the fanout into a store change feed. Feed events carry no
// payload origin, so they publish the light change notice; clients re-fetch.
func (f *Fanout) Register(feed storage.ChangeFeed) {
	feed.OnSessionChanged(func(change model.SessionChange) {
		f.PublishDelta(change.GameKind, change.Code)
	})
	feed.OnPlayerChanged(func(change model.PlayerChange) {
		f.PublishDelta(change.GameKind, change.Code)
	})
}

// Subscribe registers a connection against a room, replacing any prior
// subscription, and immediately sends it a full snapshot so late joiners and
// reconnecting clients don't wait for the next mutation.
func (f *Fanout) Subscribe(ctx context.Context, sub Subscriber, kind model.GameKind, code model.SessionCode) error {
	snapshot, err := f.Snapshot(ctx, kind, code)
	if err != nil {
		return err
	}

	room := model.Room(kind, code)

	f.mu.Lock()
	if prior, ok := f.bySub[sub]; ok {
		delete(f.rooms[prior], sub)
		if len(f.rooms[prior]) == 0 {
			delete(f.rooms, prior)
		}
	}
	if f.rooms[room] == nil {
		f.rooms[room] = make(map[Subscriber]struct{})
	}
	f.rooms[room][sub] = struct{}{}
	f.bySub[sub] = room
	total := len(f.rooms[room])
	f.mu.Unlock()

	f.logger.Info("subscriber joined room",
		slog.String("room", string(room)),
		slog.Int("total_subscribers", total),
	)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if !sub.Send(data) {
		f.logger.Warn("initial snapshot dropped", slog.String("room", string(room)))
	}
	return nil
}

// Unsubscribe removes a connection's room membership. Called on disconnect;
// accepted mutations are never rolled back.
func (f *Fanout) Unsubscribe(sub Subscriber) {
	f.mu.Lock()
	room, ok := f.bySub[sub]
	if ok {
		delete(f.bySub, sub)
		delete(f.rooms[room], sub)
		if len(f.rooms[room]) == 0 {
			delete(f.rooms, room)
		}
	}
	f.mu.Unlock()

	if ok {
		f.logger.Info("subscriber left room", slog.String("room", string(room)))
	}
}

// RoomSize returns the number of subscribers in a room
func (f *Fanout) RoomSize(kind model.GameKind, code model.SessionCode) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms[model.Room(kind, code)])
}

// PublishFullState reads current session and player state and pushes a
// single composite message to every connection in the room
func (f *Fanout) PublishFullState(ctx context.Context, kind model.GameKind, code model.SessionCode) error {
	snapshot, err := f.Snapshot(ctx, kind, code)
	if err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	f.broadcast(model.Room(kind, code), data)
	return nil
}

// PublishDelta pushes a light re-fetch notice to every connection in the
// room, avoiding duplicate large payloads when change events coalesce
func (f *Fanout) PublishDelta(kind model.GameKind, code model.SessionCode) {
	data, err := json.Marshal(ChangeNotice{
		Type:     TypeChangeNotice,
		GameKind: kind,
		Code:     code,
	})
	if err != nil {
		return
	}
	f.broadcast(model.Room(kind, code), data)
}

// Snapshot assembles the session's public view: step plus one PlayerView per
// player, pseudos resolved through the profile lookup
func (f *Fanout) Snapshot(ctx context.Context, kind model.GameKind, code model.SessionCode) (*FullState, error) {
	session, err := f.storage.GetSession(ctx, kind, code)
	if err != nil {
		return nil, err
	}

	players, err := f.storage.ListPlayers(ctx, kind, code)
	if err != nil {
		return nil, err
	}

	// Stable ordering for clients: join time, then public id
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].PublicID < players[j].PublicID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})

	views := make([]model.PlayerView, 0, len(players))
	for _, p := range players {
		pseudo, err := f.profiles.Pseudo(ctx, p.UserID)
		if err != nil {
			// A missing profile must not hide the player from the room
			f.logger.Warn("pseudo lookup failed",
				slog.String("user_id", string(p.UserID)),
				slog.Any("error", err),
			)
		}
		views = append(views, model.PlayerView{
			PublicID: p.PublicID,
			Pseudo:   pseudo,
			Question: p.Question,
			Answers:  p.Answers,
		})
	}

	return &FullState{
		Type:     TypeFullState,
		GameKind: session.GameKind,
		Code:     session.Code,
		Step:     session.Step,
		Players:  views,
	}, nil
}

func (f *Fanout) broadcast(room model.RoomKey, data []byte) {
	f.mu.RLock()
	subs := make([]Subscriber, 0, len(f.rooms[room]))
	for sub := range f.rooms[room] {
		subs = append(subs, sub)
	}
	f.mu.RUnlock()

	dropped := 0
	for _, sub := range subs {
		if !sub.Send(data) {
			dropped++
		}
	}
	if dropped > 0 {
		f.logger.Warn("broadcast partial failure",
			slog.String("room", string(room)),
			slog.Int("sent", len(subs)-dropped),
			slog.Int("dropped", dropped),
		)
	}
}
