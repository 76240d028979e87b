package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/brainiak-app/brainiak-core/models"
)

var ErrStandingNotFound = errors.New("standing not found")

type StandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []models.TournamentStanding) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.TournamentStanding, error)
	ApplyResult(ctx context.Context, exec SQLExecutor, tournamentID, userID string, points, wins, losses, draws int) error
}

type PostgresStandingRepository struct{}

func NewPostgresStandingRepository() *PostgresStandingRepository {
	return &PostgresStandingRepository{}
}

func (r *PostgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []models.TournamentStanding) error {
	query := `
		INSERT INTO tournament_standings (tournament_id, user_id, username, points, wins, losses, draws)
		VALUES ($1, $2, $3, 0, 0, 0, 0)`

	for i := range standings {
		s := &standings[i]
		if _, err := exec.ExecContext(ctx, query, s.TournamentID, s.UserID, s.Username); err != nil {
			return fmt.Errorf("failed to create standing for %s: %w", s.UserID, err)
		}
	}
	return nil
}

// ListByTournament orders by points, then wins, then username so ranks are
// stable under ties.
func (r *PostgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.TournamentStanding, error) {
	query := `
		SELECT tournament_id, user_id, username, points, wins, losses, draws
		FROM tournament_standings
		WHERE tournament_id = $1
		ORDER BY points DESC, wins DESC, username ASC`

	rows, err := exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	defer rows.Close()

	var standings []models.TournamentStanding
	for rows.Next() {
		var s models.TournamentStanding
		if err := rows.Scan(&s.TournamentID, &s.UserID, &s.Username, &s.Points, &s.Wins, &s.Losses, &s.Draws); err != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", err)
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

// ApplyResult increments the counters in place; the deltas come from one
// completed match.
func (r *PostgresStandingRepository) ApplyResult(ctx context.Context, exec SQLExecutor, tournamentID, userID string, points, wins, losses, draws int) error {
	query := `
		UPDATE tournament_standings
		SET points = points + $1, wins = wins + $2, losses = losses + $3, draws = draws + $4
		WHERE tournament_id = $5 AND user_id = $6`

	result, err := exec.ExecContext(ctx, query, points, wins, losses, draws, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to apply result to standing: %w", err)
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}
