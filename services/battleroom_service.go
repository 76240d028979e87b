package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/brainiak-app/brainiak-core/models"
	"github.com/brainiak-app/brainiak-core/realtime"
	"github.com/brainiak-app/brainiak-core/repositories"
)

// inviteCodeAttempts bounds the regenerate-on-collision loop when creating a
// room. With a 32^6 code space collisions are vanishingly rare.
const inviteCodeAttempts = 5

type CreateBattleRoomRequest struct {
	Subject  string `json:"subject"`
	Duration int    `json:"duration"`
}

// BattleStart is the authoritative outcome of a start request: the battle
// room after the transition and the game room both players must enter.
type BattleStart struct {
	Room     *models.BattleRoom `json:"room"`
	GameRoom *models.GameRoom   `json:"game_room"`
}

type BattleRoomService struct {
	tx           repositories.TxManager
	roomRepo     repositories.BattleRoomRepository
	userRepo     repositories.UserRepository
	gameRoomRepo repositories.GameRoomRepository
	questionRepo repositories.QuestionRepository
	hub          *realtime.Hub
	logger       *slog.Logger
}

func NewBattleRoomService(
	tx repositories.TxManager,
	roomRepo repositories.BattleRoomRepository,
	userRepo repositories.UserRepository,
	gameRoomRepo repositories.GameRoomRepository,
	questionRepo repositories.QuestionRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) *BattleRoomService {
	return &BattleRoomService{
		tx:           tx,
		roomRepo:     roomRepo,
		userRepo:     userRepo,
		gameRoomRepo: gameRoomRepo,
		questionRepo: questionRepo,
		hub:          hub,
		logger:       logger,
	}
}

func (s *BattleRoomService) CreateRoom(ctx context.Context, userID string, req CreateBattleRoomRequest) (*models.BattleRoom, error) {
	if !models.IsValidSubject(req.Subject) {
		return nil, ErrInvalidSubject
	}
	if !models.IsValidDuration(req.Duration) {
		return nil, ErrInvalidDuration
	}

	var room *models.BattleRoom
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		user, err := s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			return err
		}

		for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
			code, err := generateInviteCode()
			if err != nil {
				return err
			}
			candidate := &models.BattleRoom{
				ID:           uuid.NewString(),
				InviteCode:   code,
				HostID:       user.ID,
				HostUsername: user.Username,
				HostTier:     user.Tier,
				Subject:      req.Subject,
				Duration:     req.Duration,
				Status:       models.BattleWaiting,
			}
			err = s.roomRepo.Create(ctx, exec, candidate)
			if err == nil {
				room = candidate
				return nil
			}
			if !errors.Is(err, repositories.ErrInviteCodeTaken) {
				return err
			}
		}
		return fmt.Errorf("failed to allocate a unique invite code after %d attempts", inviteCodeAttempts)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("battle room created", "room_id", room.ID, "host_id", userID)
	return room, nil
}

func (s *BattleRoomService) GetRoom(ctx context.Context, roomID string) (*models.BattleRoom, error) {
	var room *models.BattleRoom
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		room, err = s.roomRepo.GetByID(ctx, exec, roomID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// JoinRoom seats the caller as the opponent of the room behind the invite
// code. Codes are stored uppercased, so the lookup is case-insensitive.
// Re-joining a room the caller already occupies returns the room unchanged.
func (s *BattleRoomService) JoinRoom(ctx context.Context, userID string, inviteCode string) (*models.BattleRoom, error) {
	inviteCode = strings.ToUpper(strings.TrimSpace(inviteCode))

	var room *models.BattleRoom
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		found, err := s.roomRepo.GetByInviteCode(ctx, exec, inviteCode)
		if err != nil {
			return err
		}

		if err := checkJoinable(found, userID); err != nil {
			if errors.Is(err, errAlreadySeated) {
				room = found
				return nil
			}
			return err
		}

		user, err := s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			return err
		}

		if err := s.roomRepo.SetOpponent(ctx, exec, found.ID, user.ID, user.Username, user.Tier); err != nil {
			// Lost a race for the seat; re-read for the real refusal reason.
			if errors.Is(err, repositories.ErrBattleRoomNotFound) {
				current, readErr := s.roomRepo.GetByID(ctx, exec, found.ID)
				if readErr != nil {
					return readErr
				}
				if joinErr := checkJoinable(current, userID); joinErr != nil {
					return joinErr
				}
				return ErrRoomFull
			}
			return err
		}

		room, err = s.roomRepo.GetByID(ctx, exec, found.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(realtime.BattleRoom(room.ID), realtime.Event{
		Type:    realtime.EventOpponentJoined,
		Payload: room,
	})
	return room, nil
}

var errAlreadySeated = errors.New("already seated")

func checkJoinable(room *models.BattleRoom, userID string) error {
	switch room.Status {
	case models.BattleCancelled:
		return ErrRoomCancelled
	case models.BattleStarting, models.BattleActive:
		return ErrRoomAlreadyStarted
	}
	if room.HostID == userID {
		return ErrSelfJoin
	}
	if room.OpponentID != nil {
		if *room.OpponentID == userID {
			return errAlreadySeated
		}
		return ErrRoomFull
	}
	return nil
}

func (s *BattleRoomService) SetReady(ctx context.Context, userID, roomID string, ready bool) (*models.BattleRoom, error) {
	var room *models.BattleRoom
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		found, err := s.roomRepo.GetByID(ctx, exec, roomID)
		if err != nil {
			return err
		}
		switch found.Status {
		case models.BattleCancelled:
			return ErrRoomCancelled
		case models.BattleStarting, models.BattleActive:
			return ErrRoomAlreadyStarted
		}

		isHost := found.HostID == userID
		isOpponent := found.OpponentID != nil && *found.OpponentID == userID
		if !isHost && !isOpponent {
			return ErrNotRoomMember
		}

		if err := s.roomRepo.SetReady(ctx, exec, roomID, isHost, ready); err != nil {
			return err
		}
		room, err = s.roomRepo.GetByID(ctx, exec, roomID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(realtime.BattleRoom(room.ID), realtime.Event{
		Type:    realtime.EventReadyChanged,
		Payload: room,
	})
	return room, nil
}

// StartGame moves the room into play once both seats are ready. The call is
// idempotent: whichever player's request claims the transition creates the
// game room, and every later call returns the same one.
func (s *BattleRoomService) StartGame(ctx context.Context, userID, roomID string) (*BattleStart, error) {
	result := &BattleStart{}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := s.roomRepo.GetByID(ctx, exec, roomID)
		if err != nil {
			return err
		}

		isHost := room.HostID == userID
		isOpponent := room.OpponentID != nil && *room.OpponentID == userID
		if !isHost && !isOpponent {
			return ErrNotRoomMember
		}

		switch room.Status {
		case models.BattleCancelled:
			return ErrRoomCancelled
		case models.BattleActive:
			return s.loadStarted(ctx, exec, room, result)
		}
		if room.OpponentID == nil {
			return ErrOpponentMissing
		}
		if !room.HostReady || !room.OpponentReady {
			return ErrNotBothReady
		}

		claimed, err := s.roomRepo.ClaimStart(ctx, exec, roomID)
		if err != nil {
			return err
		}
		if !claimed {
			current, err := s.roomRepo.GetByID(ctx, exec, roomID)
			if err != nil {
				return err
			}
			if current.Status == models.BattleActive {
				return s.loadStarted(ctx, exec, current, result)
			}
			return ErrRoomAlreadyStarted
		}

		questions, err := s.questionRepo.ListRandomBySubject(ctx, exec, room.Subject, QuestionsPerGame)
		if err != nil {
			return err
		}
		if len(questions) < QuestionsPerGame {
			return fmt.Errorf("%w: subject %s has %d", ErrNoQuestions, room.Subject, len(questions))
		}
		questionIDs := make([]string, len(questions))
		for i, q := range questions {
			questionIDs[i] = q.ID
		}

		gameRoom := &models.GameRoom{
			ID:          uuid.NewString(),
			GameMode:    models.ModeBattle,
			Subject:     room.Subject,
			Duration:    room.Duration,
			Player1ID:   room.HostID,
			Player2ID:   *room.OpponentID,
			Player1Tier: room.HostTier,
			Player2Tier: *room.OpponentTier,
			Questions:   questionIDs,
			Status:      models.GameWaiting,
		}
		if err := s.gameRoomRepo.Create(ctx, exec, gameRoom); err != nil {
			return err
		}
		if err := s.roomRepo.Activate(ctx, exec, roomID, gameRoom.ID); err != nil {
			return err
		}

		room.Status = models.BattleActive
		room.GameRoomID = &gameRoom.ID
		result.Room = room
		result.GameRoom = gameRoom
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(realtime.BattleRoom(roomID), realtime.Event{
		Type:    realtime.EventBattleStarted,
		Payload: result,
	})
	s.logger.Info("battle started", "room_id", roomID, "game_room_id", result.GameRoom.ID)
	return result, nil
}

func (s *BattleRoomService) loadStarted(ctx context.Context, exec repositories.SQLExecutor, room *models.BattleRoom, result *BattleStart) error {
	if room.GameRoomID == nil {
		return ErrRoomAlreadyStarted
	}
	gameRoom, err := s.gameRoomRepo.GetByID(ctx, exec, *room.GameRoomID)
	if err != nil {
		return err
	}
	result.Room = room
	result.GameRoom = gameRoom
	return nil
}

// CancelRoom closes a waiting room. Host only; cancelling twice is a no-op.
func (s *BattleRoomService) CancelRoom(ctx context.Context, userID, roomID string) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := s.roomRepo.GetByID(ctx, exec, roomID)
		if err != nil {
			return err
		}
		if room.HostID != userID {
			return ErrNotRoomHost
		}
		switch room.Status {
		case models.BattleCancelled:
			return nil
		case models.BattleStarting, models.BattleActive:
			return ErrRoomAlreadyStarted
		}
		return s.roomRepo.Cancel(ctx, exec, roomID)
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastToRoom(realtime.BattleRoom(roomID), realtime.Event{
		Type: realtime.EventRoomCancelled,
	})
	return nil
}
