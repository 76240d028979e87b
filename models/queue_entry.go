package models

import "time"

// GameMode selects how an opponent is found.
type GameMode string

const (
	ModeClassic GameMode = "classic"
	ModeControl GameMode = "control"
	ModeBattle  GameMode = "battle"
)

// QueueStatus follows waiting -> matched | cancelled | expired. The three
// right-hand statuses are terminal; an entry is never mutated after reaching
// one of them.
type QueueStatus string

const (
	QueueWaiting   QueueStatus = "waiting"
	QueueMatched   QueueStatus = "matched"
	QueueCancelled QueueStatus = "cancelled"
	QueueExpired   QueueStatus = "expired"
)

func (s QueueStatus) Terminal() bool {
	return s != QueueWaiting
}

// QueueEntry is one waiting-for-match request. Its id equals the requesting
// user's id, which bounds each user to a single live entry and makes
// delete-then-create on rejoin safe.
type QueueEntry struct {
	ID           string      `json:"id" db:"id"`
	UserID       string      `json:"user_id" db:"user_id"`
	Username     string      `json:"username" db:"username"`
	Tier         int         `json:"tier" db:"tier"`
	GameMode     GameMode    `json:"game_mode" db:"game_mode"`
	Subject      string      `json:"subject" db:"subject"`
	Duration     int         `json:"duration" db:"duration"`
	SelectedTier *int        `json:"selected_tier,omitempty" db:"selected_tier"`
	Status       QueueStatus `json:"status" db:"status"`
	MatchedWith  *string     `json:"matched_with,omitempty" db:"matched_with"`
	JoinedAt     time.Time   `json:"joined_at" db:"joined_at"`
}
