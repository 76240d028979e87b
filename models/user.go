package models

import "time"

// User is a registered player profile. Points, tier and the win/loss counters
// are maintained by game settlement, never written directly by handlers.
type User struct {
	ID           string     `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	TotalPoints  int        `json:"total_points" db:"total_points"`
	Tier         int        `json:"tier" db:"tier"`
	GamesPlayed  int        `json:"games_played" db:"games_played"`
	GamesWon     int        `json:"games_won" db:"games_won"`
	GamesLost    int        `json:"games_lost" db:"games_lost"`
	WinRate      float64    `json:"win_rate" db:"win_rate"`
	AvatarKey    *string    `json:"-" db:"avatar_key"`
	AvatarURL    *string    `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastPlayedAt *time.Time `json:"last_played_at,omitempty" db:"last_played_at"`
}
