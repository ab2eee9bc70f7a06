package submission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/services/game"
	"github.com/enzo-projet/zogames/internal/storage/memory"
	"github.com/enzo-projet/zogames/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	logger := testutil.NopLogger()
	gameController := game.NewController(s.storage, logger)
	s.controller = NewController(s.storage, gameController, logger)
	s.ctx = context.Background()
}

func (s *ControllerSuite) createSession() model.SessionCode {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	session := &model.Session{
		GameKind:  model.GameKindOne,
		Code:      "4821",
		Step:      model.StepLobby,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.storage.CreateSession(s.ctx, session))
	return session.Code
}

func (s *ControllerSuite) addPlayer(code model.SessionCode, userID model.UserID, publicID model.PublicID) {
	player := &model.Player{
		UserID:   userID,
		PublicID: publicID,
		JoinedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, model.GameKindOne, code, player))
}

func (s *ControllerSuite) advanceToAnswering(code model.SessionCode) {
	s.Require().NoError(s.storage.AdvanceStep(s.ctx, model.GameKindOne, code, model.StepLobby, model.StepAnswering))
}

func (s *ControllerSuite) sessionStep(code model.SessionCode) model.Step {
	session, err := s.storage.GetSession(s.ctx, model.GameKindOne, code)
	s.Require().NoError(err)
	return session.Step
}

// SubmitQuestion tests

func (s *ControllerSuite) TestSubmitQuestionSucceeds() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")

	err := s.controller.SubmitQuestion(s.ctx, model.GameKindOne, code, "user-1", "favourite colour?")
	s.Require().NoError(err)

	player, err := s.storage.GetPlayer(s.ctx, model.GameKindOne, code, "user-1")
	s.Require().NoError(err)
	s.Equal("favourite colour?", player.Question)
}

func (s *ControllerSuite) TestSubmitQuestionOverwrites() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")

	s.Require().NoError(s.controller.SubmitQuestion(s.ctx, model.GameKindOne, code, "user-1", "first"))
	s.Require().NoError(s.controller.SubmitQuestion(s.ctx, model.GameKindOne, code, "user-1", "second"))

	player, err := s.storage.GetPlayer(s.ctx, model.GameKindOne, code, "user-1")
	s.Require().NoError(err)
	s.Equal("second", player.Question)
}

func (s *ControllerSuite) TestSubmitQuestionRejectsBlank() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")

	err := s.controller.SubmitQuestion(s.ctx, model.GameKindOne, code, "user-1", "   ")
	s.Require().ErrorIs(err, model.ErrEmptyQuestion)
}

func (s *ControllerSuite) TestSubmitQuestionRefusedAfterLobby() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")
	s.advanceToAnswering(code)

	err := s.controller.SubmitQuestion(s.ctx, model.GameKindOne, code, "user-1", "too late")
	s.Require().ErrorIs(err, model.ErrInvalidTransition)
}

func (s *ControllerSuite) TestSubmitQuestionNonMember() {
	code := s.createSession()

	err := s.controller.SubmitQuestion(s.ctx, model.GameKindOne, code, "stranger", "hello?")
	s.Require().ErrorIs(err, model.ErrPlayerNotFound)
}

// SubmitAnswers tests

func (s *ControllerSuite) TestSubmitAnswersMerges() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")
	s.addPlayer(code, "user-2", "222222")
	s.advanceToAnswering(code)

	err := s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"222222": "red"})
	s.Require().NoError(err)

	err = s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"111111": "blue"})
	s.Require().NoError(err)

	player, err := s.storage.GetPlayer(s.ctx, model.GameKindOne, code, "user-1")
	s.Require().NoError(err)
	s.Equal("red", player.Answers["222222"])
	s.Equal("blue", player.Answers["111111"])
}

func (s *ControllerSuite) TestSubmitAnswersLastWriteWinsPerKey() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")
	s.addPlayer(code, "user-2", "222222")
	s.advanceToAnswering(code)

	s.Require().NoError(s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"222222": "red"}))
	s.Require().NoError(s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"222222": "green"}))

	player, err := s.storage.GetPlayer(s.ctx, model.GameKindOne, code, "user-1")
	s.Require().NoError(err)
	s.Equal("green", player.Answers["222222"])
	s.Len(player.Answers, 1)
}

func (s *ControllerSuite) TestSubmitAnswersRefusedInLobby() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")

	err := s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"111111": "blue"})
	s.Require().ErrorIs(err, model.ErrInvalidTransition)
}

// Completion tests

func (s *ControllerSuite) TestCompletionRequiresEveryPlayer() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")
	s.addPlayer(code, "user-2", "222222")
	s.advanceToAnswering(code)

	// user-1 completes; user-2 has answered nothing
	err := s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"111111": "blue", "222222": "red"})
	s.Require().NoError(err)
	s.Equal(model.StepAnswering, s.sessionStep(code))

	// user-2 completes: both predicates hold, step moves to results
	err = s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-2",
		map[model.PublicID]string{"111111": "cat", "222222": "dog"})
	s.Require().NoError(err)
	s.Equal(model.StepResults, s.sessionStep(code))
}

func (s *ControllerSuite) TestCompletionCountsSelfAnswer() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")
	s.addPlayer(code, "user-2", "222222")
	s.advanceToAnswering(code)

	// Answering only the other player is 1 of 2: not complete
	s.Require().NoError(s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"222222": "red"}))
	s.Require().NoError(s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-2",
		map[model.PublicID]string{"111111": "cat"}))
	s.Equal(model.StepAnswering, s.sessionStep(code))

	// The self-answer is what closes each player's set
	s.Require().NoError(s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"111111": "blue"}))
	s.Equal(model.StepAnswering, s.sessionStep(code))

	s.Require().NoError(s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-2",
		map[model.PublicID]string{"222222": "dog"}))
	s.Equal(model.StepResults, s.sessionStep(code))
}

func (s *ControllerSuite) TestCompletionSinglePlayer() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")
	s.advanceToAnswering(code)

	err := s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1",
		map[model.PublicID]string{"111111": "blue"})
	s.Require().NoError(err)
	s.Equal(model.StepResults, s.sessionStep(code))
}

func (s *ControllerSuite) TestRetransmissionAfterResultsIsRefused() {
	code := s.createSession()
	s.addPlayer(code, "user-1", "111111")
	s.advanceToAnswering(code)

	answers := map[model.PublicID]string{"111111": "blue"}
	s.Require().NoError(s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1", answers))
	s.Equal(model.StepResults, s.sessionStep(code))

	// The session has moved on; a duplicate of the same frame is rejected
	// by the step gate, not by the completion check
	err := s.controller.SubmitAnswers(s.ctx, model.GameKindOne, code, "user-1", answers)
	s.Require().ErrorIs(err, model.ErrInvalidTransition)
}
