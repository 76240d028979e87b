package models

import "time"

type TournamentStatus string

const (
	TournamentWaiting   TournamentStatus = "waiting"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCancelled TournamentStatus = "cancelled"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
)

// TournamentEntryLimit is fixed: every tournament is a 6-player single
// round robin, 15 matches.
const TournamentEntryLimit = 6

// Tournament is the aggregate root. Participants, matches, standings and chat
// live in their own tables and are attached by the service layer.
type Tournament struct {
	ID              string           `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	CreatorID       string           `json:"creator_id" db:"creator_id"`
	CreatorUsername string           `json:"creator_username" db:"creator_username"`
	Status          TournamentStatus `json:"status" db:"status"`
	Subjects        []string         `json:"subjects" db:"-"`
	Duration        int              `json:"duration" db:"duration"`
	EntryLimit      int              `json:"entry_limit" db:"entry_limit"`
	WinnerID        *string          `json:"winner_id,omitempty" db:"winner_id"`
	StartedAt       *time.Time       `json:"started_at,omitempty" db:"started_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`

	Participants []TournamentParticipant `json:"participants,omitempty" db:"-"`
	Matches      []TournamentMatch       `json:"matches,omitempty" db:"-"`
	Standings    []TournamentStanding    `json:"standings,omitempty" db:"-"`
	ChatMessages []TournamentChatMessage `json:"chat_messages,omitempty" db:"-"`
}

type TournamentParticipant struct {
	TournamentID string    `json:"-" db:"tournament_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Tier         int       `json:"tier" db:"tier"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	JoinedAt     time.Time `json:"joined_at" db:"joined_at"`
}

// TournamentMatch is one round-robin pairing. Seq is the generation order and
// drives sequential activation: the lowest pending Seq is always next. A nil
// WinnerID on a completed match denotes a draw.
type TournamentMatch struct {
	ID           string      `json:"id" db:"id"`
	TournamentID string      `json:"-" db:"tournament_id"`
	Seq          int         `json:"seq" db:"seq"`
	Player1ID    string      `json:"player1_id" db:"player1_id"`
	Player2ID    string      `json:"player2_id" db:"player2_id"`
	GameRoomID   *string     `json:"game_room_id,omitempty" db:"game_room_id"`
	WinnerID     *string     `json:"winner_id,omitempty" db:"winner_id"`
	Player1Score int         `json:"player1_score" db:"player1_score"`
	Player2Score int         `json:"player2_score" db:"player2_score"`
	Status       MatchStatus `json:"status" db:"status"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}

func (m *TournamentMatch) HasPlayer(userID string) bool {
	return m.Player1ID == userID || m.Player2ID == userID
}

type TournamentStanding struct {
	TournamentID string `json:"-" db:"tournament_id"`
	UserID       string `json:"user_id" db:"user_id"`
	Username     string `json:"username" db:"username"`
	Points       int    `json:"points" db:"points"`
	Wins         int    `json:"wins" db:"wins"`
	Losses       int    `json:"losses" db:"losses"`
	Draws        int    `json:"draws" db:"draws"`
}

type TournamentChatMessage struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"-" db:"tournament_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Message      string    `json:"message" db:"message"`
	SentAt       time.Time `json:"sent_at" db:"sent_at"`
}
