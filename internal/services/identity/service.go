package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/enzo-projet/zogames/internal/dependencies/clock"
	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
)

// Token is an opaque credential handed to clients. Verifying it yields the
// stable user id; nothing else on the wire carries identity.
type Token string

// Grant is an issued credential with its resolved user
type Grant struct {
	Token     Token
	UserID    model.UserID
	User      model.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Config holds configuration for the identity service
type Config struct {
	TokenDuration time.Duration
}

// DefaultConfig returns default identity configuration
func DefaultConfig() Config {
	return Config{
		TokenDuration: 24 * time.Hour,
	}
}

// Service issues and verifies credentials and owns user profiles
type Service struct {
	storage storage.Store
	clock   clock.Clock
	logger  *slog.Logger

	mu     sync.RWMutex
	grants map[Token]*Grant

	tokenDuration time.Duration
}

// New creates a new identity service
func New(store storage.Store, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = DefaultConfig().TokenDuration
	}
	return &Service{
		storage:       store,
		clock:         clk,
		logger:        logger.With(slog.String("component", "identity")),
		grants:        make(map[Token]*Grant),
		tokenDuration: cfg.TokenDuration,
	}
}

// CreateGuest creates an anonymous user and issues a credential
func (s *Service) CreateGuest(ctx context.Context, pseudo string) (*Grant, error) {
	now := s.clock.Now()
	user := &model.User{
		ID:        model.UserID(generateID("u_")),
		Pseudo:    pseudo,
		IsGuest:   true,
		CreatedAt: now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("guest created", slog.String("user_id", string(user.ID)))
	return s.issue(user), nil
}

// Signup registers a user account and issues a credential
func (s *Service) Signup(ctx context.Context, email, password, pseudo string) (*Grant, error) {
	_, err := s.storage.GetCredentialByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &model.User{
		ID:        model.UserID(generateID("u_")),
		Pseudo:    pseudo,
		Email:     email,
		CreatedAt: now,
	}
	cred := &model.Credential{
		UserID:       user.ID,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.storage.SaveCredential(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", string(user.ID)))
	return s.issue(user), nil
}

// Login authenticates a registered user and issues a credential
func (s *Service) Login(ctx context.Context, email, password string) (*Grant, error) {
	cred, err := s.storage.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.storage.GetUser(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}

	return s.issue(user), nil
}

// Verify maps a credential to the stable user id. Unknown or expired tokens
// fail with model.ErrUnauthorized.
func (s *Service) Verify(token Token) (model.UserID, error) {
	s.mu.RLock()
	grant, ok := s.grants[token]
	s.mu.RUnlock()

	if !ok {
		return "", model.ErrUnauthorized
	}

	if s.clock.Now().After(grant.ExpiresAt) {
		s.mu.Lock()
		delete(s.grants, token)
		s.mu.Unlock()
		return "", model.ErrUnauthorized
	}

	return grant.UserID, nil
}

// Revoke invalidates a credential
func (s *Service) Revoke(token Token) {
	s.mu.Lock()
	delete(s.grants, token)
	s.mu.Unlock()
}

// GetUser returns the user for a verified credential
func (s *Service) GetUser(ctx context.Context, token Token) (*model.User, error) {
	userID, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.storage.GetUser(ctx, userID)
}

// Pseudo returns a user's display name for view assembly
func (s *Service) Pseudo(ctx context.Context, userID model.UserID) (string, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Pseudo, nil
}

// CleanExpiredGrants removes expired credentials (call periodically)
func (s *Service) CleanExpiredGrants() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, grant := range s.grants {
		if now.After(grant.ExpiresAt) {
			delete(s.grants, token)
		}
	}
}

// issue creates a fresh credential for a user
func (s *Service) issue(user *model.User) *Grant {
	now := s.clock.Now()
	grant := &Grant{
		Token:     Token(generateID("t_")),
		UserID:    user.ID,
		User:      *user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenDuration),
	}

	s.mu.Lock()
	s.grants[grant.Token] = grant
	s.mu.Unlock()

	return grant
}

// generateID generates a random ID with a prefix
func generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
