package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/brainiak-app/brainiak-core/models"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadyParticipant  = errors.New("user already joined this tournament")
)

type ParticipantRepository interface {
	Add(ctx context.Context, exec SQLExecutor, participant *models.TournamentParticipant) error
	Remove(ctx context.Context, exec SQLExecutor, tournamentID, userID string) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.TournamentParticipant, error)
	Exists(ctx context.Context, exec SQLExecutor, tournamentID, userID string) (bool, error)
}

type PostgresParticipantRepository struct{}

func NewPostgresParticipantRepository() *PostgresParticipantRepository {
	return &PostgresParticipantRepository{}
}

func (r *PostgresParticipantRepository) Add(ctx context.Context, exec SQLExecutor, participant *models.TournamentParticipant) error {
	query := `
		INSERT INTO tournament_participants (tournament_id, user_id, username, tier, avatar_url, joined_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING joined_at`

	err := exec.QueryRowContext(ctx, query,
		participant.TournamentID, participant.UserID, participant.Username,
		participant.Tier, participant.AvatarURL,
	).Scan(&participant.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrAlreadyParticipant
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *PostgresParticipantRepository) Remove(ctx context.Context, exec SQLExecutor, tournamentID, userID string) error {
	query := `DELETE FROM tournament_participants WHERE tournament_id = $1 AND user_id = $2`
	result, err := exec.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *PostgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.TournamentParticipant, error) {
	query := `
		SELECT tournament_id, user_id, username, tier, avatar_url, joined_at
		FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY joined_at ASC`

	rows, err := exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []models.TournamentParticipant
	for rows.Next() {
		var p models.TournamentParticipant
		if err := rows.Scan(&p.TournamentID, &p.UserID, &p.Username, &p.Tier, &p.AvatarURL, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *PostgresParticipantRepository) Exists(ctx context.Context, exec SQLExecutor, tournamentID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tournament_participants WHERE tournament_id = $1 AND user_id = $2)`

	var exists bool
	if err := exec.QueryRowContext(ctx, query, tournamentID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}
