package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/brainiak-app/brainiak-core/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, status *models.TournamentStatus, nameQuery string, limit, offset int) ([]*models.Tournament, error)
	ListByParticipant(ctx context.Context, exec SQLExecutor, userID string, limit int) ([]*models.Tournament, error)
	Activate(ctx context.Context, exec SQLExecutor, id string) error
	Complete(ctx context.Context, exec SQLExecutor, id string, winnerID *string) error
	Cancel(ctx context.Context, exec SQLExecutor, id string) error
}

type PostgresTournamentRepository struct{}

func NewPostgresTournamentRepository() *PostgresTournamentRepository {
	return &PostgresTournamentRepository{}
}

const tournamentColumns = `id, name, creator_id, creator_username, status, subjects,
		duration, entry_limit, winner_id, started_at, completed_at, created_at, updated_at`

func (r *PostgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, name, creator_id, creator_username, status, subjects, duration, entry_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		tournament.ID, tournament.Name, tournament.CreatorID, tournament.CreatorUsername,
		tournament.Status, pq.Array(tournament.Subjects), tournament.Duration, tournament.EntryLimit,
	).Scan(&tournament.CreatedAt, &tournament.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *PostgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return scanTournament(exec.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate locks the tournament row for the rest of the transaction.
// Every mutation of the aggregate (join, leave, start, match transitions) goes
// through this lock, which serialises them without advisory locks.
func (r *PostgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return scanTournament(exec.QueryRowContext(ctx, query, id))
}

func (r *PostgresTournamentRepository) List(ctx context.Context, exec SQLExecutor, status *models.TournamentStatus, nameQuery string, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *status)
		argPos++
	}
	if nameQuery != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argPos)
		args = append(args, "%"+nameQuery+"%")
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	return scanTournaments(rows)
}

func (r *PostgresTournamentRepository) ListByParticipant(ctx context.Context, exec SQLExecutor, userID string, limit int) ([]*models.Tournament, error) {
	query := `
		SELECT t.id, t.name, t.creator_id, t.creator_username, t.status, t.subjects,
			t.duration, t.entry_limit, t.winner_id, t.started_at, t.completed_at, t.created_at, t.updated_at
		FROM tournaments t
		JOIN tournament_participants p ON p.tournament_id = t.id
		WHERE p.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2`

	rows, err := exec.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments for user %s: %w", userID, err)
	}
	defer rows.Close()

	return scanTournaments(rows)
}

func (r *PostgresTournamentRepository) Activate(ctx context.Context, exec SQLExecutor, id string) error {
	query := `
		UPDATE tournaments
		SET status = $1, started_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, models.TournamentActive, id, models.TournamentWaiting)
	if err != nil {
		return fmt.Errorf("failed to activate tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *PostgresTournamentRepository) Complete(ctx context.Context, exec SQLExecutor, id string, winnerID *string) error {
	query := `
		UPDATE tournaments
		SET status = $1, winner_id = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := exec.ExecContext(ctx, query, models.TournamentCompleted, winnerID, id, models.TournamentActive)
	if err != nil {
		return fmt.Errorf("failed to complete tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *PostgresTournamentRepository) Cancel(ctx context.Context, exec SQLExecutor, id string) error {
	query := `
		UPDATE tournaments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, models.TournamentCancelled, id, models.TournamentWaiting)
	if err != nil {
		return fmt.Errorf("failed to cancel tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func scanTournament(row *sql.Row) (*models.Tournament, error) {
	var t models.Tournament
	var subjects pq.StringArray
	err := row.Scan(
		&t.ID, &t.Name, &t.CreatorID, &t.CreatorUsername, &t.Status, &subjects,
		&t.Duration, &t.EntryLimit, &t.WinnerID, &t.StartedAt, &t.CompletedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	t.Subjects = subjects
	return &t, nil
}

func scanTournaments(rows *sql.Rows) ([]*models.Tournament, error) {
	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		var subjects pq.StringArray
		if err := rows.Scan(
			&t.ID, &t.Name, &t.CreatorID, &t.CreatorUsername, &t.Status, &subjects,
			&t.Duration, &t.EntryLimit, &t.WinnerID, &t.StartedAt, &t.CompletedAt,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		t.Subjects = subjects
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}
