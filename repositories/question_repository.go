package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/brainiak-app/brainiak-core/models"
)

var ErrQuestionNotFound = errors.New("question not found")

type QuestionRepository interface {
	ListRandomBySubject(ctx context.Context, exec SQLExecutor, subject string, count int) ([]models.Question, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []string) ([]models.Question, error)
}

type PostgresQuestionRepository struct{}

func NewPostgresQuestionRepository() *PostgresQuestionRepository {
	return &PostgresQuestionRepository{}
}

const questionColumns = `id, subject, text, option_a, option_b, option_c, option_d, correct_option`

func (r *PostgresQuestionRepository) ListRandomBySubject(ctx context.Context, exec SQLExecutor, subject string, count int) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions
		WHERE subject = $1
		ORDER BY random()
		LIMIT $2`

	rows, err := exec.QueryContext(ctx, query, subject, count)
	if err != nil {
		return nil, fmt.Errorf("failed to list random questions for subject %s: %w", subject, err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// ListByIDs returns the questions in the same order as the input ids.
func (r *PostgresQuestionRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []string) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ANY($1)`
	rows, err := exec.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list questions by ids: %w", err)
	}
	defer rows.Close()

	fetched, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Question, len(fetched))
	for _, q := range fetched {
		byID[q.ID] = q
	}

	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
		}
		ordered = append(ordered, q)
	}
	return ordered, nil
}

func scanQuestions(rows *sql.Rows) ([]models.Question, error) {
	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(
			&q.ID, &q.Subject, &q.Text,
			&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
