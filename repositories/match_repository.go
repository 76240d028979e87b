package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brainiak-app/brainiak-core/models"
)

var ErrMatchNotFound = errors.New("tournament match not found")

type MatchRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, matches []models.TournamentMatch) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.TournamentMatch, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.TournamentMatch, error)
	Activate(ctx context.Context, exec SQLExecutor, id string, gameRoomID string) (bool, error)
	SetGameRoom(ctx context.Context, exec SQLExecutor, id string, gameRoomID string) error
	Complete(ctx context.Context, exec SQLExecutor, id string, winnerID *string, player1Score, player2Score int) (bool, error)
	CountPending(ctx context.Context, exec SQLExecutor, tournamentID string) (int, error)
}

type PostgresMatchRepository struct{}

func NewPostgresMatchRepository() *PostgresMatchRepository {
	return &PostgresMatchRepository{}
}

const matchColumns = `id, tournament_id, seq, player1_id, player2_id, game_room_id,
		winner_id, player1_score, player2_score, status, completed_at`

func (r *PostgresMatchRepository) BatchCreate(ctx context.Context, exec SQLExecutor, matches []models.TournamentMatch) error {
	query := `
		INSERT INTO tournament_matches (id, tournament_id, seq, player1_id, player2_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for i := range matches {
		m := &matches[i]
		if _, err := exec.ExecContext(ctx, query, m.ID, m.TournamentID, m.Seq, m.Player1ID, m.Player2ID, m.Status); err != nil {
			return fmt.Errorf("failed to create match %s: %w", m.ID, err)
		}
	}
	return nil
}

func (r *PostgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.TournamentMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE id = $1`
	return scanMatch(exec.QueryRowContext(ctx, query, id))
}

func (r *PostgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.TournamentMatch, error) {
	query := `SELECT ` + matchColumns + `
		FROM tournament_matches
		WHERE tournament_id = $1
		ORDER BY seq ASC`

	rows, err := exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []models.TournamentMatch
	for rows.Next() {
		var m models.TournamentMatch
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.Seq, &m.Player1ID, &m.Player2ID, &m.GameRoomID,
			&m.WinnerID, &m.Player1Score, &m.Player2Score, &m.Status, &m.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Activate flips a pending match to active and binds its game room. Returns
// false when the match was already activated or completed.
func (r *PostgresMatchRepository) Activate(ctx context.Context, exec SQLExecutor, id string, gameRoomID string) (bool, error) {
	query := `
		UPDATE tournament_matches
		SET status = $1, game_room_id = $2
		WHERE id = $3 AND status = $4`

	result, err := exec.ExecContext(ctx, query, models.MatchActive, gameRoomID, id, models.MatchPending)
	if err != nil {
		return false, fmt.Errorf("failed to activate match %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

// SetGameRoom rebinds the game room of an active match. Used when a session
// was lost and had to be regenerated.
func (r *PostgresMatchRepository) SetGameRoom(ctx context.Context, exec SQLExecutor, id string, gameRoomID string) error {
	query := `
		UPDATE tournament_matches
		SET game_room_id = $1
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, gameRoomID, id, models.MatchActive)
	if err != nil {
		return fmt.Errorf("failed to set game room for match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// Complete records the result exactly once; a second completion report affects
// zero rows and returns false.
func (r *PostgresMatchRepository) Complete(ctx context.Context, exec SQLExecutor, id string, winnerID *string, player1Score, player2Score int) (bool, error) {
	query := `
		UPDATE tournament_matches
		SET status = $1, winner_id = $2, player1_score = $3, player2_score = $4, completed_at = NOW()
		WHERE id = $5 AND status = $6`

	result, err := exec.ExecContext(ctx, query, models.MatchCompleted, winnerID, player1Score, player2Score, id, models.MatchActive)
	if err != nil {
		return false, fmt.Errorf("failed to complete match %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *PostgresMatchRepository) CountPending(ctx context.Context, exec SQLExecutor, tournamentID string) (int, error) {
	query := `SELECT COUNT(*) FROM tournament_matches WHERE tournament_id = $1 AND status <> $2`

	var count int
	if err := exec.QueryRowContext(ctx, query, tournamentID, models.MatchCompleted).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unfinished matches: %w", err)
	}
	return count, nil
}

func scanMatch(row *sql.Row) (*models.TournamentMatch, error) {
	var m models.TournamentMatch
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Seq, &m.Player1ID, &m.Player2ID, &m.GameRoomID,
		&m.WinnerID, &m.Player1Score, &m.Player2Score, &m.Status, &m.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &m, nil
}
