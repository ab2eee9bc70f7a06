package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/enzo-projet/zogames/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour
	cfg.GuestUserTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newSession(kind model.GameKind, code model.SessionCode) *model.Session {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &model.Session{
		GameKind:  kind,
		Code:      code,
		Step:      model.StepLobby,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Session tests

func (s *StorageSuite) TestCreateAndGetSession() {
	err := s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821"))
	s.Require().NoError(err)

	session, err := s.storage.GetSession(s.ctx, model.GameKindOne, "4821")
	s.Require().NoError(err)
	s.Equal(model.GameKindOne, session.GameKind)
	s.Equal(model.SessionCode("4821"), session.Code)
	s.Equal(model.StepLobby, session.Step)
}

func (s *StorageSuite) TestCreateSessionIsConditional() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))

	err := s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821"))
	s.ErrorIs(err, model.ErrSessionExists)
}

func (s *StorageSuite) TestCreateSessionDistinctKinds() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindTwo, "4821")))
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, model.GameKindOne, "9999")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSessionExpires() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.ctx, model.GameKindOne, "4821")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestAdvanceStep() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))

	err := s.storage.AdvanceStep(s.ctx, model.GameKindOne, "4821", model.StepLobby, model.StepAnswering)
	s.Require().NoError(err)

	session, err := s.storage.GetSession(s.ctx, model.GameKindOne, "4821")
	s.Require().NoError(err)
	s.Equal(model.StepAnswering, session.Step)
}

func (s *StorageSuite) TestAdvanceStepKeepsTTL() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))
	s.Require().NoError(s.storage.AdvanceStep(s.ctx, model.GameKindOne, "4821", model.StepLobby, model.StepAnswering))

	// The transition rewrite must not strip the key's expiry
	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.ctx, model.GameKindOne, "4821")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestAdvanceStepWrongFrom() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))

	err := s.storage.AdvanceStep(s.ctx, model.GameKindOne, "4821", model.StepAnswering, model.StepResults)
	s.ErrorIs(err, model.ErrInvalidTransition)
}

func (s *StorageSuite) TestAdvanceStepAlreadyAtTarget() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))
	s.Require().NoError(s.storage.AdvanceStep(s.ctx, model.GameKindOne, "4821", model.StepLobby, model.StepAnswering))

	err := s.storage.AdvanceStep(s.ctx, model.GameKindOne, "4821", model.StepLobby, model.StepAnswering)
	s.Require().NoError(err)
}

func (s *StorageSuite) TestAdvanceStepNotFound() {
	err := s.storage.AdvanceStep(s.ctx, model.GameKindOne, "9999", model.StepLobby, model.StepAnswering)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		UserID:   "user-1",
		PublicID: "111111",
		JoinedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Question: "colour?",
		Answers:  map[model.PublicID]string{"222222": "red"},
	}

	err := s.storage.SavePlayer(s.ctx, model.GameKindOne, "4821", player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, model.GameKindOne, "4821", "user-1")
	s.Require().NoError(err)
	s.Equal(model.PublicID("111111"), retrieved.PublicID)
	s.Equal("colour?", retrieved.Question)
	s.Equal("red", retrieved.Answers["222222"])
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, model.GameKindOne, "4821", "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestListPlayers() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, model.GameKindOne, "4821",
		&model.Player{UserID: "user-1", PublicID: "111111"}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, model.GameKindOne, "4821",
		&model.Player{UserID: "user-2", PublicID: "222222"}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, model.GameKindTwo, "4821",
		&model.Player{UserID: "user-3", PublicID: "333333"}))

	players, err := s.storage.ListPlayers(s.ctx, model.GameKindOne, "4821")
	s.Require().NoError(err)
	s.Len(players, 2)
}

func (s *StorageSuite) TestListPlayersEmpty() {
	players, err := s.storage.ListPlayers(s.ctx, model.GameKindOne, "4821")
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *StorageSuite) TestListPlayersSkipsExpiredDocs() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, model.GameKindOne, "4821",
		&model.Player{UserID: "user-1", PublicID: "111111"}))

	// Drop the player doc but leave the index entry behind
	s.mini.Del(playerKey(model.GameKindOne, "4821", "user-1"))

	players, err := s.storage.ListPlayers(s.ctx, model.GameKindOne, "4821")
	s.Require().NoError(err)
	s.Empty(players)
}

// User tests

func (s *StorageSuite) TestSaveAndGetUser() {
	user := &model.User{ID: "user-1", Pseudo: "alice"}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	retrieved, err := s.storage.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("alice", retrieved.Pseudo)
}

func (s *StorageSuite) TestGuestUserExpires() {
	user := &model.User{ID: "guest-1", Pseudo: "visitor", IsGuest: true}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetUser(s.ctx, "guest-1")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestRegisteredUserDoesNotExpire() {
	user := &model.User{ID: "user-1", Pseudo: "alice"}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
}

func (s *StorageSuite) TestSaveAndGetCredential() {
	cred := &model.Credential{
		UserID:       "user-1",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}
	s.Require().NoError(s.storage.SaveCredential(s.ctx, cred))

	retrieved, err := s.storage.GetCredentialByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), retrieved.UserID)
	s.Equal("hash", retrieved.PasswordHash)
}

func (s *StorageSuite) TestGetCredentialByEmailNotFound() {
	_, err := s.storage.GetCredentialByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Change feed tests

func (s *StorageSuite) TestSessionChangeFeed() {
	var mu sync.Mutex
	var changes []model.SessionChange
	s.storage.OnSessionChanged(func(c model.SessionChange) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))
	s.Require().NoError(s.storage.AdvanceStep(s.ctx, model.GameKindOne, "4821", model.StepLobby, model.StepAnswering))

	// Pub/sub delivery is asynchronous
	s.Require().Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	s.Equal(model.ChangeAdded, changes[0].Kind)
	s.Equal(model.SessionCode("4821"), changes[0].Code)
	s.Equal(model.ChangeModified, changes[1].Kind)
}

func (s *StorageSuite) TestPlayerChangeFeed() {
	var mu sync.Mutex
	var changes []model.PlayerChange
	s.storage.OnPlayerChanged(func(c model.PlayerChange) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	player := &model.Player{UserID: "user-1", PublicID: "111111"}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, model.GameKindOne, "4821", player))

	player.Question = "colour?"
	s.Require().NoError(s.storage.SavePlayer(s.ctx, model.GameKindOne, "4821", player))

	s.Require().Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	s.Equal(model.ChangeAdded, changes[0].Kind)
	s.Equal(model.UserID("user-1"), changes[0].UserID)
	s.Equal(model.ChangeModified, changes[1].Kind)
}

func (s *StorageSuite) TestChangeFeedReachesOtherStorage() {
	// A second storage on the same backend sees writes made through the first
	other := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), s.storage.cfg)
	defer func() { _ = other.Close() }()

	var mu sync.Mutex
	var changes []model.SessionChange
	other.OnSessionChanged(func(c model.SessionChange) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	s.Require().NoError(s.storage.CreateSession(s.ctx, s.newSession(model.GameKindOne, "4821")))

	s.Require().Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
