package realtime

// Room name builders. Each subscription target has its own namespace so a
// user id and a room id can never collide.
func QueueRoom(userID string) string            { return "queue:" + userID }
func BattleRoom(roomID string) string           { return "battle:" + roomID }
func GameRoom(roomID string) string             { return "game:" + roomID }
func TournamentRoom(tournamentID string) string { return "tournament:" + tournamentID }

// Event types pushed by the services.
const (
	EventMatchFound   = "match_found"
	EventQueueExpired = "queue_expired"

	EventOpponentJoined = "opponent_joined"
	EventReadyChanged   = "ready_changed"
	EventBattleStarted  = "battle_started"
	EventRoomCancelled  = "room_cancelled"

	EventGameStarted      = "game_started"
	EventScoreUpdated     = "score_updated"
	EventQuestionAdvanced = "question_advanced"
	EventGameCompleted    = "game_completed"

	EventParticipantJoined   = "participant_joined"
	EventParticipantLeft     = "participant_left"
	EventTournamentStarted   = "tournament_started"
	EventTournamentCancelled = "tournament_cancelled"
	EventTournamentCompleted = "tournament_completed"
	EventMatchStarted        = "match_started"
	EventMatchCompleted      = "match_completed"
	EventStandingsUpdated    = "standings_updated"
	EventChatMessage         = "chat_message"
)
