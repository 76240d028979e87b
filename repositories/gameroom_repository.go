package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/brainiak-app/brainiak-core/models"
)

var ErrGameRoomNotFound = errors.New("game room not found")

type GameRoomRepository interface {
	Create(ctx context.Context, exec SQLExecutor, room *models.GameRoom) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.GameRoom, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.GameRoom, error)
	FindLatestForPlayer(ctx context.Context, exec SQLExecutor, userID string) (*models.GameRoom, error)
	SetQuestions(ctx context.Context, exec SQLExecutor, id string, questionIDs []string) error
	Start(ctx context.Context, exec SQLExecutor, id string) (bool, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id string, player1 bool, score int) error
	AdvanceQuestion(ctx context.Context, exec SQLExecutor, id string, index int) error
	Complete(ctx context.Context, exec SQLExecutor, id string, winnerID *string) (bool, error)
}

type PostgresGameRoomRepository struct{}

func NewPostgresGameRoomRepository() *PostgresGameRoomRepository {
	return &PostgresGameRoomRepository{}
}

const gameRoomColumns = `id, game_mode, subject, duration, player1_id, player2_id,
		player1_tier, player2_tier, player1_score, player2_score, questions,
		current_question_index, status, winner_id, tournament_id, tournament_match_id,
		start_time, end_time, created_at`

func (r *PostgresGameRoomRepository) Create(ctx context.Context, exec SQLExecutor, room *models.GameRoom) error {
	query := `
		INSERT INTO game_rooms (id, game_mode, subject, duration, player1_id, player2_id,
			player1_tier, player2_tier, questions, status, tournament_id, tournament_match_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		room.ID, room.GameMode, room.Subject, room.Duration, room.Player1ID, room.Player2ID,
		room.Player1Tier, room.Player2Tier, pq.Array(room.Questions), room.Status,
		room.TournamentID, room.TournamentMatchID,
	).Scan(&room.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game room: %w", err)
	}
	return nil
}

func (r *PostgresGameRoomRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.GameRoom, error) {
	query := `SELECT ` + gameRoomColumns + ` FROM game_rooms WHERE id = $1`
	return scanGameRoom(exec.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate locks the room row for the rest of the transaction, so
// both players' concurrent submissions and end reports serialize.
func (r *PostgresGameRoomRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.GameRoom, error) {
	query := `SELECT ` + gameRoomColumns + ` FROM game_rooms WHERE id = $1 FOR UPDATE`
	return scanGameRoom(exec.QueryRowContext(ctx, query, id))
}

// FindLatestForPlayer returns the newest non-completed game the user sits in.
// Used by reconnect flows to land a player back in their running game.
func (r *PostgresGameRoomRepository) FindLatestForPlayer(ctx context.Context, exec SQLExecutor, userID string) (*models.GameRoom, error) {
	query := `SELECT ` + gameRoomColumns + `
		FROM game_rooms
		WHERE (player1_id = $1 OR player2_id = $1) AND status <> $2
		ORDER BY created_at DESC
		LIMIT 1`
	return scanGameRoom(exec.QueryRowContext(ctx, query, userID, models.GameCompleted))
}

func (r *PostgresGameRoomRepository) SetQuestions(ctx context.Context, exec SQLExecutor, id string, questionIDs []string) error {
	query := `UPDATE game_rooms SET questions = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, pq.Array(questionIDs), id)
	if err != nil {
		return fmt.Errorf("failed to set questions on game room %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameRoomNotFound)
}

// Start flips the room to active and stamps start_time. Returns false when
// another caller started it first.
func (r *PostgresGameRoomRepository) Start(ctx context.Context, exec SQLExecutor, id string) (bool, error) {
	query := `
		UPDATE game_rooms
		SET status = $1, start_time = $2
		WHERE id = $3 AND status = $4`

	result, err := exec.ExecContext(ctx, query, models.GameActive, time.Now(), id, models.GameWaiting)
	if err != nil {
		return false, fmt.Errorf("failed to start game room %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *PostgresGameRoomRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id string, player1 bool, score int) error {
	column := "player2_score"
	if player1 {
		column = "player1_score"
	}
	query := fmt.Sprintf(`UPDATE game_rooms SET %s = $1 WHERE id = $2 AND status = $3`, column)

	result, err := exec.ExecContext(ctx, query, score, id, models.GameActive)
	if err != nil {
		return fmt.Errorf("failed to update score on game room %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameRoomNotFound)
}

// AdvanceQuestion moves the shared cursor forward. The index guard makes the
// transition idempotent when both players report the same advance.
func (r *PostgresGameRoomRepository) AdvanceQuestion(ctx context.Context, exec SQLExecutor, id string, index int) error {
	query := `
		UPDATE game_rooms
		SET current_question_index = $1
		WHERE id = $2 AND status = $3 AND current_question_index < $1`

	if _, err := exec.ExecContext(ctx, query, index, id, models.GameActive); err != nil {
		return fmt.Errorf("failed to advance question on game room %s: %w", id, err)
	}
	return nil
}

// Complete settles the room exactly once. Returns false when the room was
// already completed, so duplicate end-of-game reports never settle twice.
func (r *PostgresGameRoomRepository) Complete(ctx context.Context, exec SQLExecutor, id string, winnerID *string) (bool, error) {
	query := `
		UPDATE game_rooms
		SET status = $1, winner_id = $2, end_time = $3
		WHERE id = $4 AND status = $5`

	result, err := exec.ExecContext(ctx, query, models.GameCompleted, winnerID, time.Now(), id, models.GameActive)
	if err != nil {
		return false, fmt.Errorf("failed to complete game room %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func scanGameRoom(row *sql.Row) (*models.GameRoom, error) {
	var g models.GameRoom
	var questions pq.StringArray
	err := row.Scan(
		&g.ID, &g.GameMode, &g.Subject, &g.Duration, &g.Player1ID, &g.Player2ID,
		&g.Player1Tier, &g.Player2Tier, &g.Player1Score, &g.Player2Score, &questions,
		&g.CurrentQuestionIndex, &g.Status, &g.WinnerID, &g.TournamentID, &g.TournamentMatchID,
		&g.StartTime, &g.EndTime, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameRoomNotFound
		}
		return nil, fmt.Errorf("failed to get game room: %w", err)
	}
	g.Questions = questions
	return &g, nil
}
