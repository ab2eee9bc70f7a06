package memory

import (
	"context"
	"sync"

	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/storage"
)

// Storage is an in-memory implementation of the store interface. Change
// handlers fire synchronously after a write commits, outside the lock, so
// they may read back through the store.
type Storage struct {
	mu sync.RWMutex

	sessions   map[sessionKey]*model.Session
	players    map[sessionKey]map[model.UserID]*model.Player
	users      map[model.UserID]*model.User
	creds      map[model.UserID]*model.Credential
	emailIndex map[string]model.UserID

	handlerMu       sync.RWMutex
	sessionHandlers []model.SessionChangeHandler
	playerHandlers  []model.PlayerChangeHandler
}

type sessionKey struct {
	kind model.GameKind
	code model.SessionCode
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions:   make(map[sessionKey]*model.Session),
		players:    make(map[sessionKey]map[model.UserID]*model.Player),
		users:      make(map[model.UserID]*model.User),
		creds:      make(map[model.UserID]*model.Credential),
		emailIndex: make(map[string]model.UserID),
	}
}

// Ensure Storage implements the interfaces
var (
	_ storage.Store      = (*Storage)(nil)
	_ storage.ChangeFeed = (*Storage)(nil)
)

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	key := sessionKey{kind: session.GameKind, code: session.Code}

	s.mu.Lock()
	if _, ok := s.sessions[key]; ok {
		s.mu.Unlock()
		return model.ErrSessionExists
	}
	s.sessions[key] = session
	s.mu.Unlock()

	s.notifySession(model.SessionChange{
		Kind:     model.ChangeAdded,
		GameKind: session.GameKind,
		Code:     session.Code,
	})
	return nil
}

func (s *Storage) GetSession(ctx context.Context, kind model.GameKind, code model.SessionCode) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionKey{kind: kind, code: code}]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *Storage) AdvanceStep(ctx context.Context, kind model.GameKind, code model.SessionCode, from, to model.Step) error {
	key := sessionKey{kind: kind, code: code}

	s.mu.Lock()
	session, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return model.ErrSessionNotFound
	}
	if session.Step == to {
		// Duplicate trigger from a concurrent evaluator
		s.mu.Unlock()
		return nil
	}
	if session.Step != from {
		s.mu.Unlock()
		return model.ErrInvalidTransition
	}
	session.Step = to
	s.mu.Unlock()

	s.notifySession(model.SessionChange{
		Kind:     model.ChangeModified,
		GameKind: kind,
		Code:     code,
	})
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, kind model.GameKind, code model.SessionCode, player *model.Player) error {
	key := sessionKey{kind: kind, code: code}

	s.mu.Lock()
	sessionPlayers, ok := s.players[key]
	if !ok {
		sessionPlayers = make(map[model.UserID]*model.Player)
		s.players[key] = sessionPlayers
	}
	_, existed := sessionPlayers[player.UserID]
	sessionPlayers[player.UserID] = player
	s.mu.Unlock()

	changeKind := model.ChangeAdded
	if existed {
		changeKind = model.ChangeModified
	}
	s.notifyPlayer(model.PlayerChange{
		Kind:     changeKind,
		GameKind: kind,
		Code:     code,
		UserID:   player.UserID,
	})
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, kind model.GameKind, code model.SessionCode, userID model.UserID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[sessionKey{kind: kind, code: code}][userID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return copyPlayer(player), nil
}

func (s *Storage) ListPlayers(ctx context.Context, kind model.GameKind, code model.SessionCode) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionPlayers := s.players[sessionKey{kind: kind, code: code}]
	players := make([]*model.Player, 0, len(sessionPlayers))
	for _, p := range sessionPlayers {
		players = append(players, copyPlayer(p))
	}
	return players, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.UserID] = cred
	s.emailIndex[cred.Email] = cred.UserID
	return nil
}

func (s *Storage) GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cred, ok := s.creds[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return cred, nil
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

func (s *Storage) notifySession(change model.SessionChange) {
	s.handlerMu.RLock()
	handlers := s.sessionHandlers
	s.handlerMu.RUnlock()
	for _, h := range handlers {
		h(change)
	}
}

func (s *Storage) notifyPlayer(change model.PlayerChange) {
	s.handlerMu.RLock()
	handlers := s.playerHandlers
	s.handlerMu.RUnlock()
	for _, h := range handlers {
		h(change)
	}
}

// copyPlayer returns a copy detached from stored state, so callers can merge
// answer maps without racing other readers.
func copyPlayer(p *model.Player) *model.Player {
	copied := *p
	if p.Answers != nil {
		copied.Answers = make(map[model.PublicID]string, len(p.Answers))
		for k, v := range p.Answers {
			copied.Answers[k] = v
		}
	}
	return &copied
}
