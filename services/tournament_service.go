package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brainiak-app/brainiak-core/brackets"
	"github.com/brainiak-app/brainiak-core/models"
	"github.com/brainiak-app/brainiak-core/rating"
	"github.com/brainiak-app/brainiak-core/realtime"
	"github.com/brainiak-app/brainiak-core/repositories"
)

const (
	tournamentNameMinLen = 3
	tournamentNameMaxLen = 100
	chatMessageMaxLen    = 500
	chatMinInterval      = 2 * time.Second
)

type CreateTournamentRequest struct {
	Name     string   `json:"name"`
	Subjects []string `json:"subjects"`
	Duration int      `json:"duration"`
}

// MatchAssignment is what a player needs to sit down at a tournament match:
// the match row and, once started, the game room to enter.
type MatchAssignment struct {
	Match    *models.TournamentMatch `json:"match"`
	GameRoom *models.GameRoom        `json:"game_room,omitempty"`
}

type TournamentService struct {
	tx              repositories.TxManager
	db              repositories.SQLExecutor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	standingRepo    repositories.StandingRepository
	chatRepo        repositories.ChatRepository
	gameRoomRepo    repositories.GameRoomRepository
	questionRepo    repositories.QuestionRepository
	userRepo        repositories.UserRepository
	hub             *realtime.Hub
	logger          *slog.Logger
}

func NewTournamentService(
	tx repositories.TxManager,
	db repositories.SQLExecutor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	chatRepo repositories.ChatRepository,
	gameRoomRepo repositories.GameRoomRepository,
	questionRepo repositories.QuestionRepository,
	userRepo repositories.UserRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		tx:              tx,
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		standingRepo:    standingRepo,
		chatRepo:        chatRepo,
		gameRoomRepo:    gameRoomRepo,
		questionRepo:    questionRepo,
		userRepo:        userRepo,
		hub:             hub,
		logger:          logger,
	}
}

// CreateTournament opens a 6-player round-robin lobby. The creator is
// enrolled as the first participant.
func (s *TournamentService) CreateTournament(ctx context.Context, userID string, req CreateTournamentRequest) (*models.Tournament, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < tournamentNameMinLen || len(name) > tournamentNameMaxLen {
		return nil, fmt.Errorf("%w: tournament name must be %d-%d characters", ErrValidation, tournamentNameMinLen, tournamentNameMaxLen)
	}
	if len(req.Subjects) == 0 {
		return nil, ErrInvalidSubject
	}
	for _, subject := range req.Subjects {
		if !models.IsValidSubject(subject) {
			return nil, ErrInvalidSubject
		}
	}
	if !models.IsValidDuration(req.Duration) {
		return nil, ErrInvalidDuration
	}

	var tournament *models.Tournament
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		user, err := s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			return err
		}

		tournament = &models.Tournament{
			ID:              uuid.NewString(),
			Name:            name,
			CreatorID:       user.ID,
			CreatorUsername: user.Username,
			Status:          models.TournamentWaiting,
			Subjects:        req.Subjects,
			Duration:        req.Duration,
			EntryLimit:      models.TournamentEntryLimit,
		}
		if err := s.tournamentRepo.Create(ctx, exec, tournament); err != nil {
			return err
		}

		creator := &models.TournamentParticipant{
			TournamentID: tournament.ID,
			UserID:       user.ID,
			Username:     user.Username,
			Tier:         user.Tier,
			AvatarURL:    user.AvatarURL,
		}
		if err := s.participantRepo.Add(ctx, exec, creator); err != nil {
			return err
		}
		tournament.Participants = []models.TournamentParticipant{*creator}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament created", "tournament_id", tournament.ID, "creator_id", userID)
	return tournament, nil
}

// GetTournament loads the full aggregate. The four child collections load in
// parallel once the root row is read.
func (s *TournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gctx, s.db, id)
		if err != nil {
			return err
		}
		tournament.Participants = participants
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, s.db, id)
		if err != nil {
			return err
		}
		tournament.Matches = matches
		return nil
	})
	g.Go(func() error {
		standings, err := s.standingRepo.ListByTournament(gctx, s.db, id)
		if err != nil {
			return err
		}
		tournament.Standings = standings
		return nil
	})
	g.Go(func() error {
		messages, err := s.chatRepo.ListByTournament(gctx, s.db, id, 100)
		if err != nil {
			return err
		}
		tournament.ChatMessages = messages
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context, status *models.TournamentStatus, nameQuery string, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.tournamentRepo.List(ctx, s.db, status, nameQuery, limit, offset)
}

func (s *TournamentService) ListUserTournaments(ctx context.Context, userID string, limit int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.tournamentRepo.ListByParticipant(ctx, s.db, userID, limit)
}

// JoinTournament adds the user to a waiting lobby. The row lock on the
// tournament serialises concurrent joins, so the roster can never exceed the
// entry limit. Filling the last seat generates the round-robin schedule,
// zeroed standings, and the first match's game room in the same transaction.
func (s *TournamentService) JoinTournament(ctx context.Context, userID, tournamentID string) (*models.TournamentParticipant, error) {
	var participant *models.TournamentParticipant
	var opened *MatchAssignment
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.TournamentWaiting {
			return ErrTournamentNotJoinable
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if len(participants) >= tournament.EntryLimit {
			return ErrTournamentFull
		}

		user, err := s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			return err
		}

		participant = &models.TournamentParticipant{
			TournamentID: tournamentID,
			UserID:       user.ID,
			Username:     user.Username,
			Tier:         user.Tier,
			AvatarURL:    user.AvatarURL,
		}
		if err := s.participantRepo.Add(ctx, exec, participant); err != nil {
			if errors.Is(err, repositories.ErrAlreadyParticipant) {
				return ErrAlreadyJoined
			}
			return err
		}

		participants = append(participants, *participant)
		if len(participants) == tournament.EntryLimit {
			opened, err = s.activate(ctx, exec, tournament, participants)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.Event{
		Type:    realtime.EventParticipantJoined,
		Payload: participant,
	})
	if opened != nil {
		s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.Event{
			Type:    realtime.EventTournamentStarted,
			Payload: map[string]string{"tournament_id": tournamentID},
		})
		s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.Event{
			Type:    realtime.EventMatchStarted,
			Payload: opened,
		})
		s.logger.Info("tournament started", "tournament_id", tournamentID)
	}
	return participant, nil
}

// activate runs when the final seat fills: it creates the 15-match schedule
// and zeroed standings, flips the tournament to active, and starts the first
// match.
func (s *TournamentService) activate(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, participants []models.TournamentParticipant) (*MatchAssignment, error) {
	matches, err := brackets.RoundRobin(tournament.ID, participants)
	if err != nil {
		return nil, err
	}
	if err := s.matchRepo.BatchCreate(ctx, exec, matches); err != nil {
		return nil, err
	}
	standings := brackets.InitialStandings(tournament.ID, participants)
	if err := s.standingRepo.BatchCreate(ctx, exec, standings); err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.Activate(ctx, exec, tournament.ID); err != nil {
		return nil, err
	}

	first := &matches[0]
	room, err := s.createMatchRoom(ctx, exec, tournament, first)
	if err != nil {
		return nil, err
	}
	activated, err := s.matchRepo.Activate(ctx, exec, first.ID, room.ID)
	if err != nil {
		return nil, err
	}
	if !activated {
		return nil, ErrMatchInProgress
	}
	first.Status = models.MatchActive
	first.GameRoomID = &room.ID
	return &MatchAssignment{Match: first, GameRoom: room}, nil
}

// LeaveTournament removes the user from a waiting lobby. The creator cannot
// leave their own tournament, only cancel it.
func (s *TournamentService) LeaveTournament(ctx context.Context, userID, tournamentID string) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.TournamentWaiting {
			return ErrAlreadyStartedLeave
		}
		if tournament.CreatorID == userID {
			return ErrCreatorCannotLeave
		}

		if err := s.participantRepo.Remove(ctx, exec, tournamentID, userID); err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrNotParticipant
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.Event{
		Type:    realtime.EventParticipantLeft,
		Payload: map[string]string{"user_id": userID},
	})
	return nil
}

// CancelTournament closes a waiting lobby. Creator only; cancelling an
// already-cancelled tournament is a no-op.
func (s *TournamentService) CancelTournament(ctx context.Context, userID, tournamentID string) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.CreatorID != userID {
			return ErrNotTournamentCreator
		}
		switch tournament.Status {
		case models.TournamentCancelled:
			return nil
		case models.TournamentWaiting:
			return s.tournamentRepo.Cancel(ctx, exec, tournamentID)
		default:
			return ErrTournamentNotJoinable
		}
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.Event{
		Type: realtime.EventTournamentCancelled,
	})
	return nil
}

// StartNextMatch activates the lowest-seq pending match and creates its game
// room. If a match is already running, that match is returned instead, so the
// call is safe to repeat from any participant's client.
func (s *TournamentService) StartNextMatch(ctx context.Context, userID, tournamentID string) (*MatchAssignment, error) {
	assignment := &MatchAssignment{}
	var started bool
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.TournamentActive {
			return ErrTournamentNotActive
		}

		isParticipant, err := s.participantRepo.Exists(ctx, exec, tournamentID, userID)
		if err != nil {
			return err
		}
		if !isParticipant {
			return ErrNotParticipant
		}

		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		for i := range matches {
			if matches[i].Status == models.MatchActive {
				return s.loadAssignment(ctx, exec, &matches[i], assignment)
			}
		}

		var next *models.TournamentMatch
		for i := range matches {
			if matches[i].Status == models.MatchPending {
				next = &matches[i]
				break
			}
		}
		if next == nil {
			return ErrNoPendingMatches
		}

		room, err := s.createMatchRoom(ctx, exec, tournament, next)
		if err != nil {
			return err
		}
		activated, err := s.matchRepo.Activate(ctx, exec, next.ID, room.ID)
		if err != nil {
			return err
		}
		if !activated {
			return ErrMatchInProgress
		}

		next.Status = models.MatchActive
		next.GameRoomID = &room.ID
		assignment.Match = next
		assignment.GameRoom = room
		started = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if started {
		s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.Event{
			Type:    realtime.EventMatchStarted,
			Payload: assignment,
		})
		s.logger.Info("tournament match started",
			"tournament_id", tournamentID,
			"match_id", assignment.Match.ID,
			"game_room_id", assignment.GameRoom.ID,
		)
	}
	return assignment, nil
}

// createMatchRoom builds the game room for a match. Subjects rotate through
// the tournament's subject list by match sequence.
func (s *TournamentService) createMatchRoom(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, match *models.TournamentMatch) (*models.GameRoom, error) {
	subject := tournament.Subjects[(match.Seq-1)%len(tournament.Subjects)]

	questions, err := s.questionRepo.ListRandomBySubject(ctx, exec, subject, QuestionsPerGame)
	if err != nil {
		return nil, err
	}
	if len(questions) < QuestionsPerGame {
		return nil, fmt.Errorf("%w: subject %s has %d", ErrNoQuestions, subject, len(questions))
	}
	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	player1, err := s.userRepo.GetByID(ctx, exec, match.Player1ID)
	if err != nil {
		return nil, err
	}
	player2, err := s.userRepo.GetByID(ctx, exec, match.Player2ID)
	if err != nil {
		return nil, err
	}

	room := &models.GameRoom{
		ID:                uuid.NewString(),
		GameMode:          models.ModeClassic,
		Subject:           subject,
		Duration:          tournament.Duration,
		Player1ID:         match.Player1ID,
		Player2ID:         match.Player2ID,
		Player1Tier:       player1.Tier,
		Player2Tier:       player2.Tier,
		Questions:         questionIDs,
		Status:            models.GameWaiting,
		TournamentID:      &tournament.ID,
		TournamentMatchID: &match.ID,
	}
	if err := s.gameRoomRepo.Create(ctx, exec, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *TournamentService) loadAssignment(ctx context.Context, exec repositories.SQLExecutor, match *models.TournamentMatch, assignment *MatchAssignment) error {
	assignment.Match = match
	if match.GameRoomID == nil {
		return nil
	}
	room, err := s.gameRoomRepo.GetByID(ctx, exec, *match.GameRoomID)
	if err != nil {
		return err
	}
	assignment.GameRoom = room
	return nil
}

// ResumeMatch returns the running match the user belongs to, with its game
// room, so a reconnecting player can rejoin mid-game. An active match whose
// room was lost gets a fresh one; repeating the call returns the same room.
func (s *TournamentService) ResumeMatch(ctx context.Context, userID, tournamentID string) (*MatchAssignment, error) {
	assignment := &MatchAssignment{}
	var regenerated bool
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		for i := range matches {
			m := &matches[i]
			if m.Status != models.MatchActive || !m.HasPlayer(userID) {
				continue
			}
			if m.GameRoomID != nil {
				return s.loadAssignment(ctx, exec, m, assignment)
			}

			room, err := s.createMatchRoom(ctx, exec, tournament, m)
			if err != nil {
				return err
			}
			if err := s.matchRepo.SetGameRoom(ctx, exec, m.ID, room.ID); err != nil {
				return err
			}
			m.GameRoomID = &room.ID
			assignment.Match = m
			assignment.GameRoom = room
			regenerated = true
			return nil
		}
		return ErrMatchNotPlayable
	})
	if err != nil {
		return nil, err
	}

	if regenerated {
		s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.Event{
			Type:    realtime.EventMatchStarted,
			Payload: assignment,
		})
		s.logger.Info("tournament match room regenerated",
			"tournament_id", tournamentID, "match_id", assignment.Match.ID)
	}
	return assignment, nil
}

// GetPlayerNextMatch returns the user's earliest unfinished match, active
// before pending. Nil game room means the match has not started yet.
func (s *TournamentService) GetPlayerNextMatch(ctx context.Context, userID, tournamentID string) (*MatchAssignment, error) {
	assignment := &MatchAssignment{}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		isParticipant, err := s.participantRepo.Exists(ctx, exec, tournamentID, userID)
		if err != nil {
			return err
		}
		if !isParticipant {
			return ErrNotParticipant
		}

		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		for i := range matches {
			m := &matches[i]
			if m.Status != models.MatchCompleted && m.HasPlayer(userID) {
				return s.loadAssignment(ctx, exec, m, assignment)
			}
		}
		return ErrNoPendingMatches
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// CompleteMatchFromGame settles a tournament match from its finished game
// room: records the result, updates the standings of both players and their
// profiles, and completes the tournament when the last match is done. Runs
// inside the game settlement transaction, so it returns the tournament
// broadcasts for the caller to publish after commit instead of pushing them
// while the transaction is still open.
func (s *TournamentService) CompleteMatchFromGame(ctx context.Context, exec repositories.SQLExecutor, room *models.GameRoom) ([]realtime.Event, error) {
	if room.TournamentID == nil || room.TournamentMatchID == nil {
		return nil, ErrMatchNotPlayable
	}
	tournamentID := *room.TournamentID

	// Lock the aggregate so concurrent match completions and reads of the
	// standings serialise.
	if _, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID); err != nil {
		return nil, err
	}

	match, err := s.matchRepo.GetByID(ctx, exec, *room.TournamentMatchID)
	if err != nil {
		return nil, err
	}

	completed, err := s.matchRepo.Complete(ctx, exec, match.ID, room.WinnerID, room.Player1Score, room.Player2Score)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, nil
	}

	if err := s.applyStandings(ctx, exec, tournamentID, match, room.WinnerID, room.Player1Score, room.Player2Score); err != nil {
		return nil, err
	}
	if err := s.settleMatchProfiles(ctx, exec, room); err != nil {
		return nil, err
	}

	match.Status = models.MatchCompleted
	match.WinnerID = room.WinnerID
	match.Player1Score = room.Player1Score
	match.Player2Score = room.Player2Score

	events := []realtime.Event{{
		Type:    realtime.EventMatchCompleted,
		Room:    realtime.TournamentRoom(tournamentID),
		Payload: match,
	}}

	standings, err := s.standingRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	events = append(events, realtime.Event{
		Type:    realtime.EventStandingsUpdated,
		Room:    realtime.TournamentRoom(tournamentID),
		Payload: standings,
	})

	pending, err := s.matchRepo.CountPending(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return events, nil
	}

	var winnerID *string
	if len(standings) > 0 {
		winnerID = &standings[0].UserID
	}
	if err := s.tournamentRepo.Complete(ctx, exec, tournamentID, winnerID); err != nil {
		return nil, err
	}

	events = append(events, realtime.Event{
		Type:    realtime.EventTournamentCompleted,
		Room:    realtime.TournamentRoom(tournamentID),
		Payload: map[string]interface{}{"winner_id": winnerID, "standings": standings},
	})
	s.logger.Info("tournament completed", "tournament_id", tournamentID, "winner_id", winnerID)
	return events, nil
}

// applyStandings credits each player their match score as standing points and
// bumps the win/loss/draw counters.
func (s *TournamentService) applyStandings(ctx context.Context, exec repositories.SQLExecutor, tournamentID string, match *models.TournamentMatch, winnerID *string, score1, score2 int) error {
	if winnerID == nil {
		if err := s.standingRepo.ApplyResult(ctx, exec, tournamentID, match.Player1ID, score1, 0, 0, 1); err != nil {
			return err
		}
		return s.standingRepo.ApplyResult(ctx, exec, tournamentID, match.Player2ID, score2, 0, 0, 1)
	}

	winnerScore, loserID, loserScore := score1, match.Player2ID, score2
	if *winnerID == match.Player2ID {
		winnerScore, loserID, loserScore = score2, match.Player1ID, score1
	}
	if err := s.standingRepo.ApplyResult(ctx, exec, tournamentID, *winnerID, winnerScore, 1, 0, 0); err != nil {
		return err
	}
	return s.standingRepo.ApplyResult(ctx, exec, tournamentID, loserID, loserScore, 0, 1, 0)
}

// settleMatchProfiles applies the same tier math duels use, so tournament
// games count toward a player's rank.
func (s *TournamentService) settleMatchProfiles(ctx context.Context, exec repositories.SQLExecutor, room *models.GameRoom) error {
	outcome := rating.Draw
	if room.WinnerID != nil {
		if *room.WinnerID == room.Player1ID {
			outcome = rating.Player1Wins
		} else {
			outcome = rating.Player2Wins
		}
	}
	delta1, delta2 := rating.PointsDelta(room.Player1Tier, room.Player2Tier, outcome)

	if err := s.applyProfileDelta(ctx, exec, room.Player1ID, delta1, outcome == rating.Player1Wins, outcome == rating.Player2Wins); err != nil {
		return err
	}
	return s.applyProfileDelta(ctx, exec, room.Player2ID, delta2, outcome == rating.Player2Wins, outcome == rating.Player1Wins)
}

func (s *TournamentService) applyProfileDelta(ctx context.Context, exec repositories.SQLExecutor, userID string, delta int, won, lost bool) error {
	user, err := s.userRepo.GetByID(ctx, exec, userID)
	if err != nil {
		return err
	}
	user.TotalPoints = rating.ApplyDelta(user.TotalPoints, delta)
	user.Tier = rating.TierForPoints(user.TotalPoints)
	user.GamesPlayed++
	if won {
		user.GamesWon++
	}
	if lost {
		user.GamesLost++
	}
	user.WinRate = float64(user.GamesWon) / float64(user.GamesPlayed)
	return s.userRepo.ApplyGameResult(ctx, exec, user)
}

// SendChatMessage posts to the tournament lobby chat. Participants only, with
// a short per-sender cooldown.
func (s *TournamentService) SendChatMessage(ctx context.Context, userID, tournamentID, text string) (*models.TournamentChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrChatMessageEmpty
	}
	if len(text) > chatMessageMaxLen {
		return nil, ErrChatMessageTooLong
	}

	var message *models.TournamentChatMessage
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID); err != nil {
			return err
		}
		isParticipant, err := s.participantRepo.Exists(ctx, exec, tournamentID, userID)
		if err != nil {
			return err
		}
		if !isParticipant {
			return ErrNotParticipant
		}

		last, err := s.chatRepo.LastMessageTime(ctx, exec, tournamentID, userID)
		if err != nil {
			return err
		}
		if last != nil && time.Since(*last) < chatMinInterval {
			return ErrChatRateLimited
		}

		user, err := s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			return err
		}
		message = &models.TournamentChatMessage{
			ID:           uuid.NewString(),
			TournamentID: tournamentID,
			UserID:       userID,
			Username:     user.Username,
			Message:      text,
		}
		return s.chatRepo.Create(ctx, exec, message)
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.Event{
		Type:    realtime.EventChatMessage,
		Payload: message,
	})
	return message, nil
}
