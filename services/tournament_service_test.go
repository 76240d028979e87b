package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainiak-app/brainiak-core/models"
	"github.com/brainiak-app/brainiak-core/realtime"
)

type tournamentFixture struct {
	svc       *TournamentService
	games     *GameService
	users     *fakeUserRepo
	gameRooms *fakeGameRoomRepo
	matches   *fakeMatchRepo
	standings *fakeStandingRepo
}

func newTournamentFixture(t *testing.T) *tournamentFixture {
	t.Helper()
	users := newFakeUserRepo()
	parts := newFakeParticipantRepo()
	tournaments := newFakeTournamentRepo(parts)
	matches := newFakeMatchRepo()
	standings := newFakeStandingRepo()
	chat := newFakeChatRepo()
	gameRooms := newFakeGameRoomRepo()
	answers := newFakeAnswerRepo()
	questions := newFakeQuestionRepo()
	questions.seed("geography", 20)
	questions.seed("maths", 20)

	hub := testHub()
	logger := testLogger()
	svc := NewTournamentService(fakeTx{}, nil, tournaments, parts, matches, standings, chat, gameRooms, questions, users, hub, logger)
	games := NewGameService(fakeTx{}, gameRooms, answers, questions, users, hub, logger)
	games.SetMatchCompleter(svc)

	return &tournamentFixture{svc: svc, games: games, users: users, gameRooms: gameRooms, matches: matches, standings: standings}
}

func (f *tournamentFixture) seedPlayers(n int) []string {
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("u%d", i+1)
		f.users.seed(id, fmt.Sprintf("player%d", i+1), 0)
		ids[i] = id
	}
	return ids
}

// fullLobby creates a tournament by u1 and fills it to the entry limit.
func (f *tournamentFixture) fullLobby(t *testing.T) (*models.Tournament, []string) {
	t.Helper()
	ctx := context.Background()
	players := f.seedPlayers(models.TournamentEntryLimit)

	tournament, err := f.svc.CreateTournament(ctx, players[0], CreateTournamentRequest{
		Name:     "friday night quiz",
		Subjects: []string{"geography", "maths"},
		Duration: 300,
	})
	require.NoError(t, err)

	for _, p := range players[1:] {
		_, err := f.svc.JoinTournament(ctx, p, tournament.ID)
		require.NoError(t, err)
	}
	return tournament, players
}

func TestCreateTournament(t *testing.T) {
	f := newTournamentFixture(t)
	f.users.seed("u1", "alice", 0)

	tournament, err := f.svc.CreateTournament(context.Background(), "u1", CreateTournamentRequest{
		Name:     "  my cup  ",
		Subjects: []string{"geography"},
		Duration: 600,
	})
	require.NoError(t, err)
	assert.Equal(t, "my cup", tournament.Name)
	assert.Equal(t, models.TournamentWaiting, tournament.Status)
	assert.Equal(t, models.TournamentEntryLimit, tournament.EntryLimit)
	require.Len(t, tournament.Participants, 1, "creator enrols automatically")
	assert.Equal(t, "u1", tournament.Participants[0].UserID)
}

func TestCreateTournamentValidation(t *testing.T) {
	f := newTournamentFixture(t)
	f.users.seed("u1", "alice", 0)
	ctx := context.Background()

	_, err := f.svc.CreateTournament(ctx, "u1", CreateTournamentRequest{Name: "", Subjects: []string{"maths"}, Duration: 300})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateTournament(ctx, "u1", CreateTournamentRequest{Name: " ab ", Subjects: []string{"maths"}, Duration: 300})
	assert.ErrorIs(t, err, ErrValidation, "trimmed name shorter than 3 characters")

	_, err = f.svc.CreateTournament(ctx, "u1", CreateTournamentRequest{Name: strings.Repeat("x", 101), Subjects: []string{"maths"}, Duration: 300})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateTournament(ctx, "u1", CreateTournamentRequest{Name: "cup", Subjects: nil, Duration: 300})
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, err = f.svc.CreateTournament(ctx, "u1", CreateTournamentRequest{Name: "cup", Subjects: []string{"astrology"}, Duration: 300})
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, err = f.svc.CreateTournament(ctx, "u1", CreateTournamentRequest{Name: "cup", Subjects: []string{"maths"}, Duration: 7})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestJoinTournamentAfterStart(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, players := f.fullLobby(t)
	ctx := context.Background()

	// The sixth join flipped the tournament to active.
	f.users.seed("u7", "late", 0)
	_, err := f.svc.JoinTournament(ctx, "u7", tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotJoinable)

	_, err = f.svc.JoinTournament(ctx, players[1], tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotJoinable)
}

func TestJoinTournamentDuplicate(t *testing.T) {
	f := newTournamentFixture(t)
	players := f.seedPlayers(3)
	ctx := context.Background()

	tournament, err := f.svc.CreateTournament(ctx, players[0], CreateTournamentRequest{Name: "cup", Subjects: []string{"maths"}, Duration: 300})
	require.NoError(t, err)

	_, err = f.svc.JoinTournament(ctx, players[1], tournament.ID)
	require.NoError(t, err)
	_, err = f.svc.JoinTournament(ctx, players[1], tournament.ID)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = f.svc.JoinTournament(ctx, players[0], tournament.ID)
	assert.ErrorIs(t, err, ErrAlreadyJoined, "the creator is already in")
}

func TestLeaveTournament(t *testing.T) {
	f := newTournamentFixture(t)
	players := f.seedPlayers(3)
	ctx := context.Background()

	tournament, err := f.svc.CreateTournament(ctx, players[0], CreateTournamentRequest{Name: "cup", Subjects: []string{"maths"}, Duration: 300})
	require.NoError(t, err)
	_, err = f.svc.JoinTournament(ctx, players[1], tournament.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.LeaveTournament(ctx, players[0], tournament.ID), ErrCreatorCannotLeave)
	assert.ErrorIs(t, f.svc.LeaveTournament(ctx, players[2], tournament.ID), ErrNotParticipant)
	require.NoError(t, f.svc.LeaveTournament(ctx, players[1], tournament.ID))

	// The freed seat is joinable again.
	_, err = f.svc.JoinTournament(ctx, players[1], tournament.ID)
	require.NoError(t, err)
}

func TestCancelTournament(t *testing.T) {
	f := newTournamentFixture(t)
	players := f.seedPlayers(2)
	ctx := context.Background()

	tournament, err := f.svc.CreateTournament(ctx, players[0], CreateTournamentRequest{Name: "cup", Subjects: []string{"maths"}, Duration: 300})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.CancelTournament(ctx, players[1], tournament.ID), ErrNotTournamentCreator)
	require.NoError(t, f.svc.CancelTournament(ctx, players[0], tournament.ID))
	require.NoError(t, f.svc.CancelTournament(ctx, players[0], tournament.ID), "cancel is idempotent")

	_, err = f.svc.JoinTournament(ctx, players[1], tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotJoinable)
}

func TestSixthJoinStartsTournament(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, _ := f.fullLobby(t)
	ctx := context.Background()

	full, err := f.svc.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentActive, full.Status)
	require.Len(t, full.Matches, 15, "6-player round robin")
	require.Len(t, full.Standings, 6)
	for _, s := range full.Standings {
		assert.Zero(t, s.Points)
	}

	// The first match opens immediately with its game room.
	first := full.Matches[0]
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, models.MatchActive, first.Status)
	require.NotNil(t, first.GameRoomID)
	room, err := f.gameRooms.GetByID(ctx, nil, *first.GameRoomID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, *room.TournamentID)
	assert.Equal(t, "geography", room.Subject, "subjects rotate from the first")
	for _, m := range full.Matches[1:] {
		assert.Equal(t, models.MatchPending, m.Status)
	}
}

func TestStartNextMatch(t *testing.T) {
	f := newTournamentFixture(t)
	players := f.seedPlayers(3)
	ctx := context.Background()

	waiting, err := f.svc.CreateTournament(ctx, players[0], CreateTournamentRequest{Name: "cup", Subjects: []string{"maths"}, Duration: 300})
	require.NoError(t, err)
	_, err = f.svc.StartNextMatch(ctx, players[0], waiting.ID)
	assert.ErrorIs(t, err, ErrTournamentNotActive)

	f2 := newTournamentFixture(t)
	tournament, started := f2.fullLobby(t)

	f2.users.seed("outsider", "eve", 0)
	_, err = f2.svc.StartNextMatch(ctx, "outsider", tournament.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	// Match 1 is already running; repeated calls return it instead of
	// opening a second one.
	assignment, err := f2.svc.StartNextMatch(ctx, started[0], tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, assignment.Match.Seq)
	assert.Equal(t, models.MatchActive, assignment.Match.Status)
	require.NotNil(t, assignment.GameRoom)
	assert.Equal(t, assignment.Match.ID, *assignment.GameRoom.TournamentMatchID)

	again, err := f2.svc.StartNextMatch(ctx, started[1], tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.Match.ID, again.Match.ID)
	assert.Equal(t, assignment.GameRoom.ID, again.GameRoom.ID)
}

// playMatch runs the active match to completion with player1 winning.
func (f *tournamentFixture) playMatch(t *testing.T, tournamentID, caller string) *MatchAssignment {
	t.Helper()
	ctx := context.Background()

	assignment, err := f.svc.StartNextMatch(ctx, caller, tournamentID)
	require.NoError(t, err)
	roomID := assignment.GameRoom.ID

	_, err = f.games.StartGame(ctx, assignment.Match.Player1ID, roomID)
	require.NoError(t, err)
	require.NoError(t, f.gameRooms.UpdateScore(ctx, nil, roomID, true, 30))
	require.NoError(t, f.gameRooms.UpdateScore(ctx, nil, roomID, false, 10))

	_, err = f.games.EndGame(ctx, assignment.Match.Player1ID, roomID)
	require.NoError(t, err)
	return assignment
}

func TestCompleteMatchUpdatesStandingsAndProfiles(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, players := f.fullLobby(t)
	ctx := context.Background()

	assignment := f.playMatch(t, tournament.ID, players[0])

	match, err := f.matches.GetByID(ctx, nil, assignment.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, match.Status)
	require.NotNil(t, match.WinnerID)
	assert.Equal(t, match.Player1ID, *match.WinnerID)
	assert.Equal(t, 30, match.Player1Score)
	assert.Equal(t, 10, match.Player2Score)

	// Each side is credited their match score as standing points.
	standings, err := f.standings.ListByTournament(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, match.Player1ID, standings[0].UserID)
	assert.Equal(t, 30, standings[0].Points)
	assert.Equal(t, 1, standings[0].Wins)

	// Profiles settle through the same tier math as duels.
	winner, err := f.users.GetByID(ctx, nil, match.Player1ID)
	require.NoError(t, err)
	assert.Equal(t, 20, winner.TotalPoints)
	assert.Equal(t, 1, winner.GamesWon)
}

func TestMatchSettlementReturnsBroadcasts(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, players := f.fullLobby(t)
	ctx := context.Background()

	settle := func(assignment *MatchAssignment) []realtime.Event {
		room, err := f.gameRooms.GetByID(ctx, nil, assignment.GameRoom.ID)
		require.NoError(t, err)
		room.Status = models.GameCompleted
		room.WinnerID = &room.Player1ID
		room.Player1Score = 30
		room.Player2Score = 10
		events, err := f.svc.CompleteMatchFromGame(ctx, nil, room)
		require.NoError(t, err)
		return events
	}

	first, err := f.svc.StartNextMatch(ctx, players[0], tournament.ID)
	require.NoError(t, err)

	// Settlement hands its broadcasts back instead of pushing them itself, so
	// the caller can publish after the surrounding transaction commits.
	events := settle(first)
	require.Len(t, events, 2)
	assert.Equal(t, realtime.EventMatchCompleted, events[0].Type)
	assert.Equal(t, realtime.EventStandingsUpdated, events[1].Type)
	for _, e := range events {
		assert.Equal(t, realtime.TournamentRoom(tournament.ID), e.Room, "each event names its target room")
	}

	// A duplicate settlement report produces nothing to broadcast.
	again, err := f.svc.CompleteMatchFromGame(ctx, nil, first.GameRoom)
	require.NoError(t, err)
	assert.Empty(t, again)

	for i := 0; i < 13; i++ {
		f.playMatch(t, tournament.ID, players[0])
	}
	last, err := f.svc.StartNextMatch(ctx, players[0], tournament.ID)
	require.NoError(t, err)

	events = settle(last)
	require.Len(t, events, 3, "the last match adds the tournament completion broadcast")
	assert.Equal(t, realtime.EventTournamentCompleted, events[2].Type)
}

func TestTournamentRunsToCompletion(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, players := f.fullLobby(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		f.playMatch(t, tournament.ID, players[0])
	}

	_, err := f.svc.StartNextMatch(ctx, players[0], tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotActive, "the last completion closed the tournament")

	final, err := f.svc.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentCompleted, final.Status)
	assert.NotNil(t, final.CompletedAt)

	// Player1 of every pairing won 30-10, so u1 swept all five matches and
	// each later seed collected one fewer win's worth of points.
	require.NotNil(t, final.WinnerID)
	assert.Equal(t, "u1", *final.WinnerID)
	require.Len(t, final.Standings, 6)
	assert.Equal(t, "u1", final.Standings[0].UserID)
	assert.Equal(t, 150, final.Standings[0].Points)
	assert.Equal(t, 5, final.Standings[0].Wins)
	assert.Equal(t, "u6", final.Standings[5].UserID)
	assert.Equal(t, 50, final.Standings[5].Points)
	assert.Equal(t, 5, final.Standings[5].Losses)

	totalWins := 0
	for _, s := range final.Standings {
		totalWins += s.Wins
	}
	assert.Equal(t, 15, totalWins, "every match produced exactly one winner")
}

func TestGetPlayerNextMatchAndResume(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, players := f.fullLobby(t)
	ctx := context.Background()

	next, err := f.svc.GetPlayerNextMatch(ctx, players[0], tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Match.Seq)
	require.NotNil(t, next.GameRoom, "the opening match is already running")

	// u6 sits out match 1; their next match is a pending one without a room.
	lastSeat, err := f.svc.GetPlayerNextMatch(ctx, "u6", tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, lastSeat.Match.Status)
	assert.Nil(t, lastSeat.GameRoom)

	resumed, err := f.svc.ResumeMatch(ctx, next.Match.Player1ID, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, next.Match.ID, resumed.Match.ID)
	require.NotNil(t, resumed.GameRoom)

	// Match 1 is u1 vs u2; u6 has nothing to resume.
	_, err = f.svc.ResumeMatch(ctx, "u6", tournament.ID)
	assert.ErrorIs(t, err, ErrMatchNotPlayable)

	f.users.seed("outsider", "eve", 0)
	_, err = f.svc.GetPlayerNextMatch(ctx, "outsider", tournament.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestResumeMatchRegeneratesLostRoom(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, _ := f.fullLobby(t)
	ctx := context.Background()

	next, err := f.svc.GetPlayerNextMatch(ctx, "u1", tournament.ID)
	require.NoError(t, err)
	lostRoomID := next.GameRoom.ID
	f.matches.clearGameRoom(next.Match.ID)

	resumed, err := f.svc.ResumeMatch(ctx, "u1", tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, resumed.GameRoom)
	assert.NotEqual(t, lostRoomID, resumed.GameRoom.ID, "a fresh room replaces the lost one")
	assert.Equal(t, next.Match.ID, resumed.Match.ID)
	assert.Equal(t, models.MatchActive, resumed.Match.Status)

	again, err := f.svc.ResumeMatch(ctx, "u2", tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, resumed.GameRoom.ID, again.GameRoom.ID, "regeneration happens once")
}

func TestSendChatMessage(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, players := f.fullLobby(t)
	ctx := context.Background()

	msg, err := f.svc.SendChatMessage(ctx, players[1], tournament.ID, "  good luck all  ")
	require.NoError(t, err)
	assert.Equal(t, "good luck all", msg.Message)
	assert.Equal(t, "player2", msg.Username)

	_, err = f.svc.SendChatMessage(ctx, players[1], tournament.ID, "again")
	assert.ErrorIs(t, err, ErrChatRateLimited)

	_, err = f.svc.SendChatMessage(ctx, players[2], tournament.ID, "   ")
	assert.ErrorIs(t, err, ErrChatMessageEmpty)

	_, err = f.svc.SendChatMessage(ctx, players[2], tournament.ID, strings.Repeat("a", 501))
	assert.ErrorIs(t, err, ErrChatMessageTooLong)

	f.users.seed("outsider", "eve", 0)
	_, err = f.svc.SendChatMessage(ctx, "outsider", tournament.ID, "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestGetTournamentAggregate(t *testing.T) {
	f := newTournamentFixture(t)
	tournament, players := f.fullLobby(t)
	ctx := context.Background()

	_, err := f.svc.SendChatMessage(ctx, players[0], tournament.ID, "hello")
	require.NoError(t, err)

	full, err := f.svc.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, full.Participants, 6)
	assert.Len(t, full.Matches, 15)
	assert.Len(t, full.Standings, 6)
	require.Len(t, full.ChatMessages, 1)
	assert.Equal(t, "hello", full.ChatMessages[0].Message)
}
