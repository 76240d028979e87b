package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brainiak-app/brainiak-core/models"
	"github.com/brainiak-app/brainiak-core/rating"
	"github.com/brainiak-app/brainiak-core/realtime"
	"github.com/brainiak-app/brainiak-core/repositories"
)

type JoinQueueRequest struct {
	GameMode     models.GameMode `json:"game_mode"`
	Subject      string          `json:"subject"`
	Duration     int             `json:"duration"`
	SelectedTier *int            `json:"selected_tier,omitempty"`
}

// MatchState is the queue position as the requesting user sees it. GameRoom
// is non-nil once the entry is matched.
type MatchState struct {
	Entry    *models.QueueEntry `json:"entry"`
	GameRoom *models.GameRoom   `json:"game_room,omitempty"`
}

type MatchmakingService struct {
	tx           repositories.TxManager
	queueRepo    repositories.QueueRepository
	userRepo     repositories.UserRepository
	gameRoomRepo repositories.GameRoomRepository
	questionRepo repositories.QuestionRepository
	hub          *realtime.Hub
	logger       *slog.Logger
}

func NewMatchmakingService(
	tx repositories.TxManager,
	queueRepo repositories.QueueRepository,
	userRepo repositories.UserRepository,
	gameRoomRepo repositories.GameRoomRepository,
	questionRepo repositories.QuestionRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) *MatchmakingService {
	return &MatchmakingService{
		tx:           tx,
		queueRepo:    queueRepo,
		userRepo:     userRepo,
		gameRoomRepo: gameRoomRepo,
		questionRepo: questionRepo,
		hub:          hub,
		logger:       logger,
	}
}

// JoinQueue enqueues the user and immediately tries to pair them with the
// oldest compatible waiting entry. Any previous entry of the user, whatever
// its status, is replaced. Pairing runs in its own transaction and its
// failures are swallowed: the caller stays queued and a later joiner picks
// them up, instead of being evicted by a glitch in opponent search.
func (s *MatchmakingService) JoinQueue(ctx context.Context, userID string, req JoinQueueRequest) (*MatchState, error) {
	if req.GameMode != models.ModeClassic && req.GameMode != models.ModeControl {
		return nil, ErrInvalidGameMode
	}
	if !models.IsValidSubject(req.Subject) {
		return nil, ErrInvalidSubject
	}
	if !models.IsValidDuration(req.Duration) {
		return nil, ErrInvalidDuration
	}

	state := &MatchState{}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		user, err := s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			return err
		}

		selectedTier := req.SelectedTier
		if req.GameMode == models.ModeControl {
			if selectedTier == nil || !rating.CanSelectTier(user.Tier, *selectedTier) {
				return ErrInvalidTier
			}
		} else {
			selectedTier = nil
		}

		// Rejoin replaces whatever entry the user left behind.
		if err := s.queueRepo.DeleteByUser(ctx, exec, userID); err != nil {
			return err
		}

		entry := &models.QueueEntry{
			ID:           userID,
			UserID:       userID,
			Username:     user.Username,
			Tier:         user.Tier,
			GameMode:     req.GameMode,
			Subject:      req.Subject,
			Duration:     req.Duration,
			SelectedTier: selectedTier,
			Status:       models.QueueWaiting,
		}
		if err := s.queueRepo.Create(ctx, exec, entry); err != nil {
			return err
		}
		state.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		opponent, err := s.queueRepo.ClaimWaitingOpponent(ctx, exec, state.Entry)
		if err != nil {
			if errors.Is(err, repositories.ErrQueueEntryNotFound) {
				return nil
			}
			return err
		}
		room, err := s.pair(ctx, exec, state.Entry, opponent)
		if err != nil {
			return err
		}
		state.GameRoom = room
		return nil
	})
	if err != nil {
		s.logger.Warn("queue pairing attempt failed", "user_id", userID, "error", err)
	}

	if state.GameRoom != nil {
		s.hub.BroadcastToRoom(realtime.QueueRoom(state.Entry.UserID), realtime.Event{
			Type:    realtime.EventMatchFound,
			Payload: state.GameRoom,
		})
		if state.Entry.MatchedWith != nil {
			s.hub.BroadcastToRoom(realtime.QueueRoom(*state.Entry.MatchedWith), realtime.Event{
				Type:    realtime.EventMatchFound,
				Payload: state.GameRoom,
			})
		}
		s.logger.Info("match found",
			"user_id", state.Entry.UserID,
			"opponent_id", state.Entry.MatchedWith,
			"game_room_id", state.GameRoom.ID,
		)
	}
	return state, nil
}

// pair marks both entries matched, opponent first, and creates the shared
// game room.
func (s *MatchmakingService) pair(ctx context.Context, exec repositories.SQLExecutor, entry, opponent *models.QueueEntry) (*models.GameRoom, error) {
	// Two simultaneous joiners can each claim the other and then update the
	// same two rows in opposite order. Postgres aborts one transaction as the
	// deadlock victim; the survivor completes the match and the victim's
	// pairing attempt is swallowed by JoinQueue, leaving CheckMatch or the
	// queue broadcast to deliver the result.
	if err := s.queueRepo.MarkMatched(ctx, exec, opponent.ID, entry.UserID); err != nil {
		return nil, err
	}
	if err := s.queueRepo.MarkMatched(ctx, exec, entry.ID, opponent.UserID); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.ListRandomBySubject(ctx, exec, entry.Subject, QuestionsPerGame)
	if err != nil {
		return nil, err
	}
	if len(questions) < QuestionsPerGame {
		return nil, fmt.Errorf("%w: subject %s has %d", ErrNoQuestions, entry.Subject, len(questions))
	}
	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	room := &models.GameRoom{
		ID:          uuid.NewString(),
		GameMode:    entry.GameMode,
		Subject:     entry.Subject,
		Duration:    entry.Duration,
		Player1ID:   opponent.UserID,
		Player2ID:   entry.UserID,
		Player1Tier: opponent.Tier,
		Player2Tier: entry.Tier,
		Questions:   questionIDs,
		Status:      models.GameWaiting,
	}
	if err := s.gameRoomRepo.Create(ctx, exec, room); err != nil {
		return nil, err
	}
	entry.Status = models.QueueMatched
	entry.MatchedWith = &opponent.UserID
	return room, nil
}

// LeaveQueue cancels the user's waiting entry. Leaving an entry that already
// reached a terminal state is a no-op, so repeated leaves never error; only a
// user with no entry at all gets ErrNotInQueue.
func (s *MatchmakingService) LeaveQueue(ctx context.Context, userID string) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		err := s.queueRepo.MarkCancelled(ctx, exec, userID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrQueueEntryNotFound) {
			return err
		}
		if _, getErr := s.queueRepo.GetByID(ctx, exec, userID); getErr != nil {
			if errors.Is(getErr, repositories.ErrQueueEntryNotFound) {
				return ErrNotInQueue
			}
			return getErr
		}
		return nil
	})
}

// CheckMatch reports the current state of the user's entry. For a matched
// entry it also resolves the game room both players share.
func (s *MatchmakingService) CheckMatch(ctx context.Context, userID string) (*MatchState, error) {
	state := &MatchState{}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		entry, err := s.queueRepo.GetByID(ctx, exec, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrQueueEntryNotFound) {
				return ErrNotInQueue
			}
			return err
		}
		state.Entry = entry

		if entry.Status != models.QueueMatched {
			return nil
		}
		room, err := s.gameRoomRepo.FindLatestForPlayer(ctx, exec, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrGameRoomNotFound) {
				return nil
			}
			return err
		}
		state.GameRoom = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// ExpireStaleEntries flips waiting entries older than the TTL to expired and
// notifies the affected users. Called by the sweeper job.
func (s *MatchmakingService) ExpireStaleEntries(ctx context.Context, ttl time.Duration) error {
	var expired []string
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		userIDs, err := s.queueRepo.ExpireOlderThan(ctx, exec, time.Now().Add(-ttl))
		if err != nil {
			return err
		}
		expired = userIDs
		return nil
	})
	if err != nil {
		return err
	}

	for _, userID := range expired {
		s.hub.BroadcastToRoom(realtime.QueueRoom(userID), realtime.Event{
			Type: realtime.EventQueueExpired,
		})
	}
	if len(expired) > 0 {
		s.logger.Info("expired stale queue entries", "count", len(expired))
	}
	return nil
}
