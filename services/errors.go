package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto HTTP
// status codes; everything else surfaces as a 500.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrInvalidSubject  = errors.New("unknown subject")
	ErrInvalidDuration = errors.New("unsupported duration")
	ErrInvalidGameMode = errors.New("unsupported game mode")
	ErrInvalidTier     = errors.New("selected tier is not available for this user")

	ErrNotInQueue = errors.New("user has no waiting queue entry")

	ErrRoomAlreadyStarted = errors.New("battle room has already started")
	ErrRoomCancelled      = errors.New("battle room was cancelled")
	ErrRoomFull           = errors.New("battle room already has an opponent")
	ErrSelfJoin           = errors.New("cannot join your own battle room")
	ErrNotRoomHost        = errors.New("only the host may do this")
	ErrNotRoomMember      = errors.New("user is not in this battle room")
	ErrOpponentMissing    = errors.New("battle room has no opponent yet")
	ErrNotBothReady       = errors.New("both players must be ready")

	ErrNotGamePlayer   = errors.New("user is not a player in this game")
	ErrGameNotActive   = errors.New("game is not active")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNoQuestions     = errors.New("not enough questions for this subject")

	ErrTournamentNotJoinable = errors.New("tournament is not accepting participants")
	ErrAlreadyJoined         = errors.New("user already joined this tournament")
	ErrTournamentFull        = errors.New("tournament is full")
	ErrTournamentNotActive   = errors.New("tournament is not active")
	ErrNotTournamentCreator  = errors.New("only the creator may do this")
	ErrNotParticipant        = errors.New("user is not a participant of this tournament")
	ErrAlreadyStartedLeave   = errors.New("cannot leave a tournament that has started")
	ErrCreatorCannotLeave    = errors.New("the creator cannot leave, only cancel")
	ErrMatchNotPlayable      = errors.New("match is not in a playable state")
	ErrNoPendingMatches      = errors.New("no pending matches remain")
	ErrMatchInProgress       = errors.New("another match is still in progress")

	ErrChatMessageTooLong = errors.New("chat message exceeds the length limit")
	ErrChatMessageEmpty   = errors.New("chat message is empty")
	ErrChatRateLimited    = errors.New("sending messages too quickly")
)
