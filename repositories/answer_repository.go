package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brainiak-app/brainiak-core/models"
)

var (
	ErrAnswerNotFound = errors.New("answer not found")
	ErrAnswerExists   = errors.New("answer already submitted")
)

type AnswerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, answer *models.GameAnswer) error
	Get(ctx context.Context, exec SQLExecutor, gameRoomID, playerID string, questionIndex int) (*models.GameAnswer, error)
	CountForQuestion(ctx context.Context, exec SQLExecutor, gameRoomID string, questionIndex int) (int, error)
	ListByGame(ctx context.Context, exec SQLExecutor, gameRoomID string) ([]models.GameAnswer, error)
}

type PostgresAnswerRepository struct{}

func NewPostgresAnswerRepository() *PostgresAnswerRepository {
	return &PostgresAnswerRepository{}
}

func (r *PostgresAnswerRepository) Create(ctx context.Context, exec SQLExecutor, answer *models.GameAnswer) error {
	query := `
		INSERT INTO game_answers (id, game_room_id, player_id, question_index,
			selected_option, correct, time_taken_ms, points_earned, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (game_room_id, player_id, question_index) DO NOTHING
		RETURNING answered_at`

	err := exec.QueryRowContext(ctx, query,
		answer.ID, answer.GameRoomID, answer.PlayerID, answer.QuestionIndex,
		answer.SelectedOption, answer.Correct, answer.TimeTakenMS, answer.PointsEarned,
	).Scan(&answer.AnsweredAt)
	if err != nil {
		// DO NOTHING swallows the conflicting row, so a duplicate submission
		// surfaces as ErrNoRows here.
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAnswerExists
		}
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

func (r *PostgresAnswerRepository) Get(ctx context.Context, exec SQLExecutor, gameRoomID, playerID string, questionIndex int) (*models.GameAnswer, error) {
	query := `
		SELECT id, game_room_id, player_id, question_index, selected_option, correct, time_taken_ms, points_earned, answered_at
		FROM game_answers
		WHERE game_room_id = $1 AND player_id = $2 AND question_index = $3`

	var a models.GameAnswer
	err := exec.QueryRowContext(ctx, query, gameRoomID, playerID, questionIndex).Scan(
		&a.ID, &a.GameRoomID, &a.PlayerID, &a.QuestionIndex,
		&a.SelectedOption, &a.Correct, &a.TimeTakenMS, &a.PointsEarned, &a.AnsweredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return &a, nil
}

func (r *PostgresAnswerRepository) CountForQuestion(ctx context.Context, exec SQLExecutor, gameRoomID string, questionIndex int) (int, error) {
	query := `SELECT COUNT(*) FROM game_answers WHERE game_room_id = $1 AND question_index = $2`

	var count int
	if err := exec.QueryRowContext(ctx, query, gameRoomID, questionIndex).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return count, nil
}

func (r *PostgresAnswerRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameRoomID string) ([]models.GameAnswer, error) {
	query := `
		SELECT id, game_room_id, player_id, question_index, selected_option, correct, time_taken_ms, points_earned, answered_at
		FROM game_answers
		WHERE game_room_id = $1
		ORDER BY question_index ASC, answered_at ASC`

	rows, err := exec.QueryContext(ctx, query, gameRoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers for game %s: %w", gameRoomID, err)
	}
	defer rows.Close()

	var answers []models.GameAnswer
	for rows.Next() {
		var a models.GameAnswer
		if err := rows.Scan(
			&a.ID, &a.GameRoomID, &a.PlayerID, &a.QuestionIndex,
			&a.SelectedOption, &a.Correct, &a.TimeTakenMS, &a.PointsEarned, &a.AnsweredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan answer row: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
