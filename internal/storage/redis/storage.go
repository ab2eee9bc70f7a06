package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/storage"
)

// advanceRetries bounds optimistic retries when a watched step transition
// races another writer
const advanceRetries = 5

// Storage is a Redis-backed implementation of the store interface. Change
// feed events travel over pub/sub, so writes from any process reach every
// registered handler.
type Storage struct {
	client *redis.Client
	cfg    Config

	pubsub *redis.PubSub
	done   chan struct{}

	handlerMu       sync.RWMutex
	sessionHandlers []model.SessionChangeHandler
	playerHandlers  []model.PlayerChangeHandler
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return newStorage(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return newStorage(client, cfg)
}

func newStorage(client *redis.Client, cfg Config) *Storage {
	s := &Storage{
		client: client,
		cfg:    cfg,
		pubsub: client.Subscribe(context.Background(), sessionChangeChannel, playerChangeChannel),
		done:   make(chan struct{}),
	}
	go s.runFeed()
	return s
}

// Close stops the change feed and closes the Redis connection
func (s *Storage) Close() error {
	close(s.done)
	_ = s.pubsub.Close()
	return s.client.Close()
}

// Ensure Storage implements the interfaces
var (
	_ storage.Store      = (*Storage)(nil)
	_ storage.ChangeFeed = (*Storage)(nil)
)

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Conditional create: the code is reserved atomically, no
	// generate-then-check race
	ok, err := s.client.SetNX(ctx, sessionKey(session.GameKind, session.Code), data, s.cfg.SessionTTL).Result()
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return model.ErrSessionExists
	}

	s.publishSessionChange(ctx, model.SessionChange{
		Kind:     model.ChangeAdded,
		GameKind: session.GameKind,
		Code:     session.Code,
	})
	return nil
}

func (s *Storage) GetSession(ctx context.Context, kind model.GameKind, code model.SessionCode) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(kind, code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, storeErr(err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) AdvanceStep(ctx context.Context, kind model.GameKind, code model.SessionCode, from, to model.Step) error {
	key := sessionKey(kind, code)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrSessionNotFound
			}
			return err
		}

		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return err
		}

		if session.Step == to {
			// Duplicate trigger from a concurrent evaluator
			return nil
		}
		if session.Step != from {
			return model.ErrInvalidTransition
		}

		session.Step = to
		updated, err := json.Marshal(&session)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < advanceRetries; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) || errors.Is(err, model.ErrInvalidTransition) {
			return err
		}
		return storeErr(err)
	}

	s.publishSessionChange(ctx, model.SessionChange{
		Kind:     model.ChangeModified,
		GameKind: kind,
		Code:     code,
	})
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, kind model.GameKind, code model.SessionCode, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pKey := playerKey(kind, code, player.UserID)
	indexKey := playerIndexKey(kind, code)

	existed, err := s.client.Exists(ctx, pKey).Result()
	if err != nil {
		return storeErr(err)
	}

	// Pipeline keeps the player doc and the session's player index in step
	pipe := s.client.Pipeline()
	pipe.Set(ctx, pKey, data, s.cfg.SessionTTL)
	pipe.SAdd(ctx, indexKey, string(player.UserID))
	pipe.Expire(ctx, indexKey, s.cfg.SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr(err)
	}

	changeKind := model.ChangeAdded
	if existed > 0 {
		changeKind = model.ChangeModified
	}
	s.publishPlayerChange(ctx, model.PlayerChange{
		Kind:     changeKind,
		GameKind: kind,
		Code:     code,
		UserID:   player.UserID,
	})
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, kind model.GameKind, code model.SessionCode, userID model.UserID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(kind, code, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, storeErr(err)
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, kind model.GameKind, code model.SessionCode) ([]*model.Player, error) {
	userIDs, err := s.client.SMembers(ctx, playerIndexKey(kind, code)).Result()
	if err != nil {
		return nil, storeErr(err)
	}

	players := make([]*model.Player, 0, len(userIDs))
	for _, id := range userIDs {
		player, err := s.GetPlayer(ctx, kind, code, model.UserID(id))
		if err != nil {
			if errors.Is(err, model.ErrPlayerNotFound) {
				// Index entry outlived an expired player doc
				continue
			}
			return nil, err
		}
		players = append(players, player)
	}
	return players, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	var ttl time.Duration
	if user.IsGuest {
		ttl = s.cfg.GuestUserTTL
	}
	return storeErr(s.client.Set(ctx, userKey(user.ID), data, ttl).Err())
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, storeErr(err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	// Pipeline for atomic save + email index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, credentialKey(cred.UserID), data, 0)
	pipe.Set(ctx, emailIndexKey(cred.Email), string(cred.UserID), 0)
	_, err = pipe.Exec(ctx)
	return storeErr(err)
}

func (s *Storage) GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error) {
	userIDStr, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, storeErr(err)
	}

	data, err := s.client.Get(ctx, credentialKey(model.UserID(userIDStr))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, storeErr(err)
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// Change feed

func (s *Storage) OnSessionChanged(h model.SessionChangeHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.sessionHandlers = append(s.sessionHandlers, h)
}

func (s *Storage) OnPlayerChanged(h model.PlayerChangeHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.playerHandlers = append(s.playerHandlers, h)
}

// runFeed dispatches pub/sub change events to registered handlers until the
// storage is closed
func (s *Storage) runFeed() {
	ch := s.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.dispatch(msg)
		case <-s.done:
			return
		}
	}
}

func (s *Storage) dispatch(msg *redis.Message) {
	switch msg.Channel {
	case sessionChangeChannel:
		var change model.SessionChange
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			return
		}
		s.handlerMu.RLock()
		handlers := s.sessionHandlers
		s.handlerMu.RUnlock()
		for _, h := range handlers {
			h(change)
		}
	case playerChangeChannel:
		var change model.PlayerChange
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			return
		}
		s.handlerMu.RLock()
		handlers := s.playerHandlers
		s.handlerMu.RUnlock()
		for _, h := range handlers {
			h(change)
		}
	}
}

// publishSessionChange emits a change event; delivery is best-effort, the
// write itself has already committed
func (s *Storage) publishSessionChange(ctx context.Context, change model.SessionChange) {
	data, err := json.Marshal(change)
	if err != nil {
		return
	}
	_ = s.client.Publish(ctx, sessionChangeChannel, data).Err()
}

func (s *Storage) publishPlayerChange(ctx context.Context, change model.PlayerChange) {
	data, err := json.Marshal(change)
	if err != nil {
		return
	}
	_ = s.client.Publish(ctx, playerChangeChannel, data).Err()
}

// storeErr wraps infrastructure failures so callers can classify them
// without knowing the backend
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(model.ErrStoreUnavailable, err)
}
