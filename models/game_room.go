package models

import "time"

type GameRoomStatus string

const (
	GameWaiting   GameRoomStatus = "waiting"
	GameActive    GameRoomStatus = "active"
	GameCompleted GameRoomStatus = "completed"
)

// GameRoom is the live quiz session shared by every flow: quick match, battle
// room and tournament match. Questions holds the ordered question ids; a
// tournament match room starts with an empty list, filled when the session
// starts.
type GameRoom struct {
	ID                   string         `json:"id" db:"id"`
	GameMode             GameMode       `json:"game_mode" db:"game_mode"`
	Subject              string         `json:"subject" db:"subject"`
	Duration             int            `json:"duration" db:"duration"`
	Player1ID            string         `json:"player1_id" db:"player1_id"`
	Player2ID            string         `json:"player2_id" db:"player2_id"`
	Player1Tier          int            `json:"player1_tier" db:"player1_tier"`
	Player2Tier          int            `json:"player2_tier" db:"player2_tier"`
	Player1Score         int            `json:"player1_score" db:"player1_score"`
	Player2Score         int            `json:"player2_score" db:"player2_score"`
	Questions            []string       `json:"questions" db:"-"`
	CurrentQuestionIndex int            `json:"current_question_index" db:"current_question_index"`
	Status               GameRoomStatus `json:"status" db:"status"`
	WinnerID             *string        `json:"winner_id,omitempty" db:"winner_id"`
	TournamentID         *string        `json:"tournament_id,omitempty" db:"tournament_id"`
	TournamentMatchID    *string        `json:"tournament_match_id,omitempty" db:"tournament_match_id"`
	StartTime            *time.Time     `json:"start_time,omitempty" db:"start_time"`
	EndTime              *time.Time     `json:"end_time,omitempty" db:"end_time"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
}

func (g *GameRoom) HasPlayer(userID string) bool {
	return g.Player1ID == userID || g.Player2ID == userID
}

// GameAnswer is a single submitted answer within a game.
type GameAnswer struct {
	ID             string       `json:"id" db:"id"`
	GameRoomID     string       `json:"game_room_id" db:"game_room_id"`
	PlayerID       string       `json:"player_id" db:"player_id"`
	QuestionIndex  int          `json:"question_index" db:"question_index"`
	SelectedOption AnswerOption `json:"selected_option" db:"selected_option"`
	Correct        bool         `json:"correct" db:"correct"`
	TimeTakenMS    int          `json:"time_taken_ms" db:"time_taken_ms"`
	PointsEarned   int          `json:"points_earned" db:"points_earned"`
	AnsweredAt     time.Time    `json:"answered_at" db:"answered_at"`
}
