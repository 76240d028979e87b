package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/brainiak-app/brainiak-core/models"
	"github.com/brainiak-app/brainiak-core/rating"
	"github.com/brainiak-app/brainiak-core/realtime"
	"github.com/brainiak-app/brainiak-core/repositories"
)

const (
	// QuestionsPerGame is the fixed quiz length for every head-to-head game.
	QuestionsPerGame = 5

	answerBasePoints   = 2
	answerSpeedBonus   = 1
	speedBonusCutoffMS = 5000
)

// matchCompleter settles a tournament match when its game room completes.
// Implemented by TournamentService; wired after construction to avoid a
// constructor cycle. The returned events carry their target room and are
// published by the caller once the settlement transaction commits.
type matchCompleter interface {
	CompleteMatchFromGame(ctx context.Context, exec repositories.SQLExecutor, room *models.GameRoom) ([]realtime.Event, error)
}

type SubmitAnswerRequest struct {
	QuestionIndex  int                 `json:"question_index"`
	SelectedOption models.AnswerOption `json:"selected_option"`
	TimeTakenMS    int                 `json:"time_taken_ms"`
}

type AnswerResult struct {
	Correct           bool `json:"correct"`
	PointsEarned      int  `json:"points_earned"`
	BothAnswered      bool `json:"both_answered"`
	NextQuestionIndex int  `json:"next_question_index"`
}

// GameView is a game room plus its questions, safe to send to players: the
// correct options never serialize.
type GameView struct {
	Room      *models.GameRoom  `json:"room"`
	Questions []models.Question `json:"questions"`
}

// GameResult is the settled outcome. The deltas are zero for tournament
// games, which settle through the tournament's own completion path.
type GameResult struct {
	Room         *models.GameRoom `json:"room"`
	Player1Delta int              `json:"player1_delta"`
	Player2Delta int              `json:"player2_delta"`
}

type GameService struct {
	tx           repositories.TxManager
	gameRoomRepo repositories.GameRoomRepository
	answerRepo   repositories.AnswerRepository
	questionRepo repositories.QuestionRepository
	userRepo     repositories.UserRepository
	hub          *realtime.Hub
	logger       *slog.Logger

	tournaments matchCompleter
}

func NewGameService(
	tx repositories.TxManager,
	gameRoomRepo repositories.GameRoomRepository,
	answerRepo repositories.AnswerRepository,
	questionRepo repositories.QuestionRepository,
	userRepo repositories.UserRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		tx:           tx,
		gameRoomRepo: gameRoomRepo,
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		userRepo:     userRepo,
		hub:          hub,
		logger:       logger,
	}
}

// SetMatchCompleter wires tournament settlement in after both services exist.
func (s *GameService) SetMatchCompleter(mc matchCompleter) {
	s.tournaments = mc
}

func (s *GameService) GetGame(ctx context.Context, userID, roomID string) (*GameView, error) {
	view := &GameView{}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := s.gameRoomRepo.GetByID(ctx, exec, roomID)
		if err != nil {
			return err
		}
		if !room.HasPlayer(userID) {
			return ErrNotGamePlayer
		}
		questions, err := s.questionRepo.ListByIDs(ctx, exec, room.Questions)
		if err != nil {
			return err
		}
		view.Room = room
		view.Questions = questions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// FindCurrentGame lands a reconnecting player back in their newest unfinished
// game, if any.
func (s *GameService) FindCurrentGame(ctx context.Context, userID string) (*models.GameRoom, error) {
	var room *models.GameRoom
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		room, err = s.gameRoomRepo.FindLatestForPlayer(ctx, exec, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// StartGame flips the room from waiting to active. Both players call it on
// entering the game screen; the first call wins and later calls are no-ops.
func (s *GameService) StartGame(ctx context.Context, userID, roomID string) (*models.GameRoom, error) {
	var room *models.GameRoom
	var started bool
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		found, err := s.gameRoomRepo.GetByID(ctx, exec, roomID)
		if err != nil {
			return err
		}
		if !found.HasPlayer(userID) {
			return ErrNotGamePlayer
		}
		if found.Status == models.GameCompleted {
			return ErrGameNotActive
		}
		if found.Status == models.GameActive {
			room = found
			return nil
		}

		started, err = s.gameRoomRepo.Start(ctx, exec, roomID)
		if err != nil {
			return err
		}
		room, err = s.gameRoomRepo.GetByID(ctx, exec, roomID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if started {
		s.hub.BroadcastToRoom(realtime.GameRoom(roomID), realtime.Event{
			Type:    realtime.EventGameStarted,
			Payload: room,
		})
	}
	return room, nil
}

// SubmitAnswer records one player's answer to the current question, credits
// the score and, once both players have answered, advances the shared cursor.
func (s *GameService) SubmitAnswer(ctx context.Context, userID, roomID string, req SubmitAnswerRequest) (*AnswerResult, error) {
	result := &AnswerResult{}
	var advanced bool
	var room *models.GameRoom
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		// Row lock: both players answering the same question must serialize,
		// or each sees only their own answer and the cursor never advances.
		room, err = s.gameRoomRepo.GetByIDForUpdate(ctx, exec, roomID)
		if err != nil {
			return err
		}
		if !room.HasPlayer(userID) {
			return ErrNotGamePlayer
		}
		if room.Status != models.GameActive {
			return ErrGameNotActive
		}
		if req.QuestionIndex != room.CurrentQuestionIndex {
			return ErrValidation
		}
		if req.QuestionIndex < 0 || req.QuestionIndex >= len(room.Questions) {
			return ErrValidation
		}

		questions, err := s.questionRepo.ListByIDs(ctx, exec, []string{room.Questions[req.QuestionIndex]})
		if err != nil {
			return err
		}
		question := questions[0]

		correct := question.CorrectOption == req.SelectedOption
		points := 0
		if correct {
			points = answerBasePoints
			if req.TimeTakenMS < speedBonusCutoffMS {
				points += answerSpeedBonus
			}
		}

		answer := &models.GameAnswer{
			ID:             uuid.NewString(),
			GameRoomID:     roomID,
			PlayerID:       userID,
			QuestionIndex:  req.QuestionIndex,
			SelectedOption: req.SelectedOption,
			Correct:        correct,
			TimeTakenMS:    req.TimeTakenMS,
			PointsEarned:   points,
		}
		if err := s.answerRepo.Create(ctx, exec, answer); err != nil {
			if errors.Is(err, repositories.ErrAnswerExists) {
				return ErrAlreadyAnswered
			}
			return err
		}

		if correct {
			isPlayer1 := room.Player1ID == userID
			score := room.Player2Score + points
			if isPlayer1 {
				score = room.Player1Score + points
			}
			if err := s.gameRoomRepo.UpdateScore(ctx, exec, roomID, isPlayer1, score); err != nil {
				return err
			}
			if isPlayer1 {
				room.Player1Score = score
			} else {
				room.Player2Score = score
			}
		}

		count, err := s.answerRepo.CountForQuestion(ctx, exec, roomID, req.QuestionIndex)
		if err != nil {
			return err
		}
		result.Correct = correct
		result.PointsEarned = points
		result.BothAnswered = count >= 2
		result.NextQuestionIndex = room.CurrentQuestionIndex

		if result.BothAnswered && req.QuestionIndex+1 < len(room.Questions) {
			next := req.QuestionIndex + 1
			if err := s.gameRoomRepo.AdvanceQuestion(ctx, exec, roomID, next); err != nil {
				return err
			}
			result.NextQuestionIndex = next
			room.CurrentQuestionIndex = next
			advanced = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(realtime.GameRoom(roomID), realtime.Event{
		Type:    realtime.EventScoreUpdated,
		Payload: room,
	})
	if advanced {
		s.hub.BroadcastToRoom(realtime.GameRoom(roomID), realtime.Event{
			Type:    realtime.EventQuestionAdvanced,
			Payload: map[string]int{"question_index": result.NextQuestionIndex},
		})
	}
	return result, nil
}

// EndGame settles the room. Exactly one of the two players' reports performs
// the settlement; the other returns the already-settled result. Duel games
// adjust both profiles through the tier math; tournament games settle into
// the bracket instead.
func (s *GameService) EndGame(ctx context.Context, userID, roomID string) (*GameResult, error) {
	result := &GameResult{}
	var settled bool
	var tournamentEvents []realtime.Event
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Locked read, so the winner is computed from settled scores rather
		// than racing a late answer.
		room, err := s.gameRoomRepo.GetByIDForUpdate(ctx, exec, roomID)
		if err != nil {
			return err
		}
		if !room.HasPlayer(userID) {
			return ErrNotGamePlayer
		}
		if room.Status == models.GameCompleted {
			result.Room = room
			return nil
		}
		if room.Status != models.GameActive {
			return ErrGameNotActive
		}

		var winnerID *string
		switch {
		case room.Player1Score > room.Player2Score:
			winnerID = &room.Player1ID
		case room.Player2Score > room.Player1Score:
			winnerID = &room.Player2ID
		}

		completed, err := s.gameRoomRepo.Complete(ctx, exec, roomID, winnerID)
		if err != nil {
			return err
		}
		if !completed {
			room, err = s.gameRoomRepo.GetByID(ctx, exec, roomID)
			if err != nil {
				return err
			}
			result.Room = room
			return nil
		}

		room.Status = models.GameCompleted
		room.WinnerID = winnerID
		result.Room = room
		settled = true

		if room.TournamentMatchID != nil {
			if s.tournaments == nil {
				return errors.New("tournament settlement is not wired")
			}
			tournamentEvents, err = s.tournaments.CompleteMatchFromGame(ctx, exec, room)
			return err
		}
		return s.settleProfiles(ctx, exec, room, result)
	})
	if err != nil {
		return nil, err
	}

	if settled {
		s.hub.BroadcastToRoom(realtime.GameRoom(roomID), realtime.Event{
			Type:    realtime.EventGameCompleted,
			Payload: result,
		})
		// Tournament broadcasts wait for the commit above; subscribers must
		// never see a standings update the database later rolls back.
		for _, e := range tournamentEvents {
			s.hub.BroadcastToRoom(e.Room, e)
		}
		s.logger.Info("game completed", "game_room_id", roomID, "winner_id", result.Room.WinnerID)
	}
	return result, nil
}

func (s *GameService) settleProfiles(ctx context.Context, exec repositories.SQLExecutor, room *models.GameRoom, result *GameResult) error {
	outcome := rating.Draw
	if room.WinnerID != nil {
		if *room.WinnerID == room.Player1ID {
			outcome = rating.Player1Wins
		} else {
			outcome = rating.Player2Wins
		}
	}

	delta1, delta2 := rating.PointsDelta(room.Player1Tier, room.Player2Tier, outcome)
	result.Player1Delta = delta1
	result.Player2Delta = delta2

	if err := s.applyProfileDelta(ctx, exec, room.Player1ID, delta1, outcome == rating.Player1Wins, outcome == rating.Player2Wins); err != nil {
		return err
	}
	return s.applyProfileDelta(ctx, exec, room.Player2ID, delta2, outcome == rating.Player2Wins, outcome == rating.Player1Wins)
}

func (s *GameService) applyProfileDelta(ctx context.Context, exec repositories.SQLExecutor, userID string, delta int, won, lost bool) error {
	user, err := s.userRepo.GetByID(ctx, exec, userID)
	if err != nil {
		return err
	}

	user.TotalPoints = rating.ApplyDelta(user.TotalPoints, delta)
	user.Tier = rating.TierForPoints(user.TotalPoints)
	user.GamesPlayed++
	if won {
		user.GamesWon++
	}
	if lost {
		user.GamesLost++
	}
	user.WinRate = float64(user.GamesWon) / float64(user.GamesPlayed)

	return s.userRepo.ApplyGameResult(ctx, exec, user)
}
