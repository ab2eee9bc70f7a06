package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/enzo-projet/zogames/internal/dependencies/mocks"
	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/storage/memory"
	"github.com/enzo-projet/zogames/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

// Guest tests

func (s *ServiceSuite) TestCreateGuest() {
	grant, err := s.service.CreateGuest(s.ctx, "visitor")
	s.Require().NoError(err)

	s.NotEmpty(grant.Token)
	s.NotEmpty(grant.UserID)
	s.True(grant.User.IsGuest)
	s.Equal("visitor", grant.User.Pseudo)

	user, err := s.storage.GetUser(s.ctx, grant.UserID)
	s.Require().NoError(err)
	s.Equal("visitor", user.Pseudo)
}

func (s *ServiceSuite) TestGuestsGetDistinctIdentities() {
	a, err := s.service.CreateGuest(s.ctx, "visitor")
	s.Require().NoError(err)
	b, err := s.service.CreateGuest(s.ctx, "visitor")
	s.Require().NoError(err)

	s.NotEqual(a.UserID, b.UserID)
	s.NotEqual(a.Token, b.Token)
}

// Signup and login tests

func (s *ServiceSuite) TestSignupAndLogin() {
	signup, err := s.service.Signup(s.ctx, "alice@example.com", "s3cret", "alice")
	s.Require().NoError(err)
	s.False(signup.User.IsGuest)
	s.Equal("alice@example.com", signup.User.Email)

	login, err := s.service.Login(s.ctx, "alice@example.com", "s3cret")
	s.Require().NoError(err)
	s.Equal(signup.UserID, login.UserID)
	s.NotEqual(signup.Token, login.Token)
}

func (s *ServiceSuite) TestSignupDuplicateEmail() {
	_, err := s.service.Signup(s.ctx, "alice@example.com", "s3cret", "alice")
	s.Require().NoError(err)

	_, err = s.service.Signup(s.ctx, "alice@example.com", "other", "alice2")
	s.Require().ErrorIs(err, ErrEmailExists)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	_, err := s.service.Signup(s.ctx, "alice@example.com", "s3cret", "alice")
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "alice@example.com", "wrong")
	s.Require().ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownEmail() {
	_, err := s.service.Login(s.ctx, "nobody@example.com", "s3cret")
	s.Require().ErrorIs(err, ErrInvalidCredentials)
}

// Verify tests

func (s *ServiceSuite) TestVerify() {
	grant, err := s.service.CreateGuest(s.ctx, "visitor")
	s.Require().NoError(err)

	userID, err := s.service.Verify(grant.Token)
	s.Require().NoError(err)
	s.Equal(grant.UserID, userID)
}

func (s *ServiceSuite) TestVerifyUnknownToken() {
	_, err := s.service.Verify("t_bogus")
	s.Require().ErrorIs(err, model.ErrUnauthorized)
}

func (s *ServiceSuite) TestVerifyExpiredToken() {
	grant, err := s.service.CreateGuest(s.ctx, "visitor")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)

	_, err = s.service.Verify(grant.Token)
	s.Require().ErrorIs(err, model.ErrUnauthorized)
}

func (s *ServiceSuite) TestRevoke() {
	grant, err := s.service.CreateGuest(s.ctx, "visitor")
	s.Require().NoError(err)

	s.service.Revoke(grant.Token)

	_, err = s.service.Verify(grant.Token)
	s.Require().ErrorIs(err, model.ErrUnauthorized)
}

// Profile tests

func (s *ServiceSuite) TestGetUser() {
	grant, err := s.service.CreateGuest(s.ctx, "visitor")
	s.Require().NoError(err)

	user, err := s.service.GetUser(s.ctx, grant.Token)
	s.Require().NoError(err)
	s.Equal(grant.UserID, user.ID)
	s.Equal("visitor", user.Pseudo)
}

func (s *ServiceSuite) TestPseudo() {
	grant, err := s.service.CreateGuest(s.ctx, "visitor")
	s.Require().NoError(err)

	pseudo, err := s.service.Pseudo(s.ctx, grant.UserID)
	s.Require().NoError(err)
	s.Equal("visitor", pseudo)

	_, err = s.service.Pseudo(s.ctx, "unknown")
	s.Require().ErrorIs(err, model.ErrUserNotFound)
}

// Housekeeping

func (s *ServiceSuite) TestCleanExpiredGrants() {
	old, err := s.service.CreateGuest(s.ctx, "early")
	s.Require().NoError(err)

	s.clock.Advance(23 * time.Hour)
	fresh, err := s.service.CreateGuest(s.ctx, "late")
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)
	s.service.CleanExpiredGrants()

	_, err = s.service.Verify(old.Token)
	s.Require().ErrorIs(err, model.ErrUnauthorized)

	_, err = s.service.Verify(fresh.Token)
	s.Require().NoError(err)
}
