package models

import "time"

type BattleRoomStatus string

const (
	BattleWaiting   BattleRoomStatus = "waiting"
	BattleStarting  BattleRoomStatus = "starting"
	BattleActive    BattleRoomStatus = "active"
	BattleCancelled BattleRoomStatus = "cancelled"
)

func (s BattleRoomStatus) Terminal() bool {
	return s == BattleActive || s == BattleCancelled
}

// BattleRoom is a private two-player pre-game lobby gated by an invite code.
// Opponent fields populate at most once; GameRoomID is set exactly once, when
// both ready flags are true.
type BattleRoom struct {
	ID               string           `json:"id" db:"id"`
	InviteCode       string           `json:"invite_code" db:"invite_code"`
	HostID           string           `json:"host_id" db:"host_id"`
	HostUsername     string           `json:"host_username" db:"host_username"`
	HostTier         int              `json:"host_tier" db:"host_tier"`
	OpponentID       *string          `json:"opponent_id,omitempty" db:"opponent_id"`
	OpponentUsername *string          `json:"opponent_username,omitempty" db:"opponent_username"`
	OpponentTier     *int             `json:"opponent_tier,omitempty" db:"opponent_tier"`
	Subject          string           `json:"subject" db:"subject"`
	Duration         int              `json:"duration" db:"duration"`
	Status           BattleRoomStatus `json:"status" db:"status"`
	HostReady        bool             `json:"host_ready" db:"host_ready"`
	OpponentReady    bool             `json:"opponent_ready" db:"opponent_ready"`
	GameRoomID       *string          `json:"game_room_id,omitempty" db:"game_room_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}
