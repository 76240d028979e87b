package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brainiak-app/brainiak-core/models"
)

var ErrQueueEntryNotFound = errors.New("queue entry not found")

type QueueRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.QueueEntry) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.QueueEntry, error)
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID string) error
	MarkMatched(ctx context.Context, exec SQLExecutor, id string, matchedWith string) error
	MarkCancelled(ctx context.Context, exec SQLExecutor, id string) error
	ClaimWaitingOpponent(ctx context.Context, exec SQLExecutor, entry *models.QueueEntry) (*models.QueueEntry, error)
	ExpireOlderThan(ctx context.Context, exec SQLExecutor, cutoff time.Time) ([]string, error)
}

type PostgresQueueRepository struct{}

func NewPostgresQueueRepository() *PostgresQueueRepository {
	return &PostgresQueueRepository{}
}

const queueColumns = `id, user_id, username, tier, game_mode, subject, duration,
		selected_tier, status, matched_with, joined_at`

func (r *PostgresQueueRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.QueueEntry) error {
	query := `
		INSERT INTO queue_entries (id, user_id, username, tier, game_mode, subject, duration, selected_tier, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING joined_at`

	err := exec.QueryRowContext(ctx, query,
		entry.ID, entry.UserID, entry.Username, entry.Tier,
		entry.GameMode, entry.Subject, entry.Duration, entry.SelectedTier, entry.Status,
	).Scan(&entry.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}
	return nil
}

func (r *PostgresQueueRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_entries WHERE id = $1`
	return scanQueueEntry(exec.QueryRowContext(ctx, query, id))
}

// DeleteByUser removes every entry belonging to the user, including orphans
// left behind by interrupted sessions. Deleting nothing is not an error.
func (r *PostgresQueueRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID string) error {
	query := `DELETE FROM queue_entries WHERE user_id = $1`
	if _, err := exec.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete queue entries for user %s: %w", userID, err)
	}
	return nil
}

// MarkMatched flips a waiting entry to matched. The status guard makes the
// transition lose cleanly against a concurrent cancel or expiry.
func (r *PostgresQueueRepository) MarkMatched(ctx context.Context, exec SQLExecutor, id string, matchedWith string) error {
	query := `
		UPDATE queue_entries
		SET status = $1, matched_with = $2
		WHERE id = $3 AND status = $4`

	result, err := exec.ExecContext(ctx, query, models.QueueMatched, matchedWith, id, models.QueueWaiting)
	if err != nil {
		return fmt.Errorf("failed to mark queue entry %s matched: %w", id, err)
	}
	return checkAffectedRows(result, ErrQueueEntryNotFound)
}

func (r *PostgresQueueRepository) MarkCancelled(ctx context.Context, exec SQLExecutor, id string) error {
	query := `
		UPDATE queue_entries
		SET status = $1
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, models.QueueCancelled, id, models.QueueWaiting)
	if err != nil {
		return fmt.Errorf("failed to cancel queue entry %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrQueueEntryNotFound)
}

// ClaimWaitingOpponent locks the oldest compatible waiting entry so the caller
// can pair against it. SKIP LOCKED keeps two concurrent joiners from fighting
// over the same row; each claims a different opponent or none.
func (r *PostgresQueueRepository) ClaimWaitingOpponent(ctx context.Context, exec SQLExecutor, entry *models.QueueEntry) (*models.QueueEntry, error) {
	query := `SELECT ` + queueColumns + `
		FROM queue_entries
		WHERE status = $1 AND game_mode = $2 AND subject = $3 AND duration = $4 AND user_id <> $5
		ORDER BY joined_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	return scanQueueEntry(exec.QueryRowContext(ctx, query,
		models.QueueWaiting, entry.GameMode, entry.Subject, entry.Duration, entry.UserID,
	))
}

// ExpireOlderThan flips waiting entries older than the cutoff to expired and
// returns the affected user ids so the sweeper can notify them.
func (r *PostgresQueueRepository) ExpireOlderThan(ctx context.Context, exec SQLExecutor, cutoff time.Time) ([]string, error) {
	query := `
		UPDATE queue_entries
		SET status = $1
		WHERE status = $2 AND joined_at < $3
		RETURNING user_id`

	rows, err := exec.QueryContext(ctx, query, models.QueueExpired, models.QueueWaiting, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to expire queue entries: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan expired entry: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, rows.Err()
}

func scanQueueEntry(row *sql.Row) (*models.QueueEntry, error) {
	var e models.QueueEntry
	err := row.Scan(
		&e.ID, &e.UserID, &e.Username, &e.Tier, &e.GameMode, &e.Subject, &e.Duration,
		&e.SelectedTier, &e.Status, &e.MatchedWith, &e.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQueueEntryNotFound
		}
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	return &e, nil
}
