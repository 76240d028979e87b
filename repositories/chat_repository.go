package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brainiak-app/brainiak-core/models"
)

type ChatRepository interface {
	Create(ctx context.Context, exec SQLExecutor, message *models.TournamentChatMessage) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string, limit int) ([]models.TournamentChatMessage, error)
	LastMessageTime(ctx context.Context, exec SQLExecutor, tournamentID, userID string) (*time.Time, error)
}

type PostgresChatRepository struct{}

func NewPostgresChatRepository() *PostgresChatRepository {
	return &PostgresChatRepository{}
}

func (r *PostgresChatRepository) Create(ctx context.Context, exec SQLExecutor, message *models.TournamentChatMessage) error {
	query := `
		INSERT INTO tournament_chat_messages (id, tournament_id, user_id, username, message, sent_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING sent_at`

	err := exec.QueryRowContext(ctx, query,
		message.ID, message.TournamentID, message.UserID, message.Username, message.Message,
	).Scan(&message.SentAt)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// ListByTournament returns the newest messages in chronological order.
func (r *PostgresChatRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string, limit int) ([]models.TournamentChatMessage, error) {
	query := `
		SELECT id, tournament_id, user_id, username, message, sent_at
		FROM (
			SELECT id, tournament_id, user_id, username, message, sent_at
			FROM tournament_chat_messages
			WHERE tournament_id = $1
			ORDER BY sent_at DESC
			LIMIT $2
		) recent
		ORDER BY sent_at ASC`

	rows, err := exec.QueryContext(ctx, query, tournamentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.TournamentChatMessage
	for rows.Next() {
		var m models.TournamentChatMessage
		if err := rows.Scan(&m.ID, &m.TournamentID, &m.UserID, &m.Username, &m.Message, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *PostgresChatRepository) LastMessageTime(ctx context.Context, exec SQLExecutor, tournamentID, userID string) (*time.Time, error) {
	query := `
		SELECT MAX(sent_at)
		FROM tournament_chat_messages
		WHERE tournament_id = $1 AND user_id = $2`

	var last sql.NullTime
	if err := exec.QueryRowContext(ctx, query, tournamentID, userID).Scan(&last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last chat message time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}
