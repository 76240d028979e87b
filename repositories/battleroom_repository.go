package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/brainiak-app/brainiak-core/models"
)

var (
	ErrBattleRoomNotFound = errors.New("battle room not found")
	ErrInviteCodeTaken    = errors.New("invite code already in use")
)

type BattleRoomRepository interface {
	Create(ctx context.Context, exec SQLExecutor, room *models.BattleRoom) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.BattleRoom, error)
	GetByInviteCode(ctx context.Context, exec SQLExecutor, code string) (*models.BattleRoom, error)
	SetOpponent(ctx context.Context, exec SQLExecutor, id string, opponentID, opponentUsername string, opponentTier int) error
	SetReady(ctx context.Context, exec SQLExecutor, id string, host bool, ready bool) error
	ClaimStart(ctx context.Context, exec SQLExecutor, id string) (bool, error)
	Activate(ctx context.Context, exec SQLExecutor, id string, gameRoomID string) error
	Cancel(ctx context.Context, exec SQLExecutor, id string) error
}

type PostgresBattleRoomRepository struct{}

func NewPostgresBattleRoomRepository() *PostgresBattleRoomRepository {
	return &PostgresBattleRoomRepository{}
}

const battleRoomColumns = `id, invite_code, host_id, host_username, host_tier,
		opponent_id, opponent_username, opponent_tier, subject, duration,
		status, host_ready, opponent_ready, game_room_id, created_at, updated_at`

func (r *PostgresBattleRoomRepository) Create(ctx context.Context, exec SQLExecutor, room *models.BattleRoom) error {
	query := `
		INSERT INTO battle_rooms (id, invite_code, host_id, host_username, host_tier, subject, duration, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		room.ID, room.InviteCode, room.HostID, room.HostUsername, room.HostTier,
		room.Subject, room.Duration, room.Status,
	).Scan(&room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "battle_rooms_invite_code_open_key" {
			return ErrInviteCodeTaken
		}
		return fmt.Errorf("failed to create battle room: %w", err)
	}
	return nil
}

func (r *PostgresBattleRoomRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.BattleRoom, error) {
	query := `SELECT ` + battleRoomColumns + ` FROM battle_rooms WHERE id = $1`
	return scanBattleRoom(exec.QueryRowContext(ctx, query, id))
}

// GetByInviteCode returns the most recent room carrying the code. A partial
// unique index keeps the code unique among open rooms, but cancelled rooms may
// share it, so the newest row is the one the code currently refers to.
func (r *PostgresBattleRoomRepository) GetByInviteCode(ctx context.Context, exec SQLExecutor, code string) (*models.BattleRoom, error) {
	query := `SELECT ` + battleRoomColumns + `
		FROM battle_rooms
		WHERE invite_code = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return scanBattleRoom(exec.QueryRowContext(ctx, query, code))
}

// SetOpponent seats a guest in a waiting room. The opponent_id IS NULL guard
// means only the first joiner wins; a second concurrent joiner affects zero
// rows and gets ErrBattleRoomNotFound to re-read and report the real state.
func (r *PostgresBattleRoomRepository) SetOpponent(ctx context.Context, exec SQLExecutor, id string, opponentID, opponentUsername string, opponentTier int) error {
	query := `
		UPDATE battle_rooms
		SET opponent_id = $1, opponent_username = $2, opponent_tier = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5 AND opponent_id IS NULL`

	result, err := exec.ExecContext(ctx, query, opponentID, opponentUsername, opponentTier, id, models.BattleWaiting)
	if err != nil {
		return fmt.Errorf("failed to set opponent on battle room %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrBattleRoomNotFound)
}

func (r *PostgresBattleRoomRepository) SetReady(ctx context.Context, exec SQLExecutor, id string, host bool, ready bool) error {
	column := "opponent_ready"
	if host {
		column = "host_ready"
	}
	query := fmt.Sprintf(`
		UPDATE battle_rooms
		SET %s = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`, column)

	result, err := exec.ExecContext(ctx, query, ready, id, models.BattleWaiting)
	if err != nil {
		return fmt.Errorf("failed to set ready on battle room %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrBattleRoomNotFound)
}

// ClaimStart atomically moves the room from waiting to starting. Exactly one
// of two concurrent start calls claims it; the other sees false and reuses the
// game room id written by the winner.
func (r *PostgresBattleRoomRepository) ClaimStart(ctx context.Context, exec SQLExecutor, id string) (bool, error) {
	query := `
		UPDATE battle_rooms
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND game_room_id IS NULL`

	result, err := exec.ExecContext(ctx, query, models.BattleStarting, id, models.BattleWaiting)
	if err != nil {
		return false, fmt.Errorf("failed to claim start of battle room %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *PostgresBattleRoomRepository) Activate(ctx context.Context, exec SQLExecutor, id string, gameRoomID string) error {
	query := `
		UPDATE battle_rooms
		SET status = $1, game_room_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := exec.ExecContext(ctx, query, models.BattleActive, gameRoomID, id, models.BattleStarting)
	if err != nil {
		return fmt.Errorf("failed to activate battle room %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrBattleRoomNotFound)
}

func (r *PostgresBattleRoomRepository) Cancel(ctx context.Context, exec SQLExecutor, id string) error {
	query := `
		UPDATE battle_rooms
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, models.BattleCancelled, id, models.BattleWaiting)
	if err != nil {
		return fmt.Errorf("failed to cancel battle room %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrBattleRoomNotFound)
}

func scanBattleRoom(row *sql.Row) (*models.BattleRoom, error) {
	var b models.BattleRoom
	err := row.Scan(
		&b.ID, &b.InviteCode, &b.HostID, &b.HostUsername, &b.HostTier,
		&b.OpponentID, &b.OpponentUsername, &b.OpponentTier, &b.Subject, &b.Duration,
		&b.Status, &b.HostReady, &b.OpponentReady, &b.GameRoomID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBattleRoomNotFound
		}
		return nil, fmt.Errorf("failed to get battle room: %w", err)
	}
	return &b, nil
}
