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

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrUsernameExists     = errors.New("user with this username already exists")
	errUserCreateConflict = errors.New("user conflict")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.User, error)
	GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error)
	UpdateAvatarKey(ctx context.Context, exec SQLExecutor, id string, avatarKey string) error
	ApplyGameResult(ctx context.Context, exec SQLExecutor, user *models.User) error
	ListTopByPoints(ctx context.Context, exec SQLExecutor, limit, offset int) ([]models.User, error)
}

type PostgresUserRepository struct{}

func NewPostgresUserRepository() *PostgresUserRepository {
	return &PostgresUserRepository{}
}

const userColumns = `id, username, email, password_hash, total_points, tier,
		games_played, games_won, games_lost, win_rate, avatar_key,
		created_at, updated_at, last_played_at`

func (r *PostgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, total_points, tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.TotalPoints, user.Tier,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrEmailExists
			case "users_username_key":
				return ErrUsernameExists
			}
			return errUserCreateConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(exec.QueryRowContext(ctx, query, id))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(exec.QueryRowContext(ctx, query, email))
}

func (r *PostgresUserRepository) UpdateAvatarKey(ctx context.Context, exec SQLExecutor, id string, avatarKey string) error {
	query := `UPDATE users SET avatar_key = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar key for user %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// ApplyGameResult persists the post-settlement profile fields computed by the
// service: points, tier, counters and win rate.
func (r *PostgresUserRepository) ApplyGameResult(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		UPDATE users
		SET total_points = $1, tier = $2, games_played = $3, games_won = $4,
			games_lost = $5, win_rate = $6, last_played_at = $7, updated_at = NOW()
		WHERE id = $8`

	result, err := exec.ExecContext(ctx, query,
		user.TotalPoints, user.Tier, user.GamesPlayed, user.GamesWon,
		user.GamesLost, user.WinRate, time.Now(), user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to apply game result for user %s: %w", user.ID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *PostgresUserRepository) ListTopByPoints(ctx context.Context, exec SQLExecutor, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		ORDER BY total_points DESC, username ASC
		LIMIT $1 OFFSET $2`

	rows, err := exec.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by points: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TotalPoints, &u.Tier,
			&u.GamesPlayed, &u.GamesWon, &u.GamesLost, &u.WinRate, &u.AvatarKey,
			&u.CreatedAt, &u.UpdatedAt, &u.LastPlayedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TotalPoints, &u.Tier,
		&u.GamesPlayed, &u.GamesWon, &u.GamesLost, &u.WinRate, &u.AvatarKey,
		&u.CreatedAt, &u.UpdatedAt, &u.LastPlayedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
