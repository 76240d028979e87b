package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brainiak-app/brainiak-core/models"
	"github.com/brainiak-app/brainiak-core/rating"
	"github.com/brainiak-app/brainiak-core/realtime"
	"github.com/brainiak-app/brainiak-core/repositories"
)

// fakeTx satisfies TxManager without a database. The fakes below ignore the
// executor, so passing nil through is fine.
type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHub() *realtime.Hub {
	return realtime.NewHub(testLogger())
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User)}
}

func (r *fakeUserRepo) seed(id, username string, points int) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := models.User{
		ID:          id,
		Username:    username,
		Email:       username + "@example.com",
		TotalPoints: points,
		Tier:        rating.TierForPoints(points),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.users[id] = u
	return &u
}

func (r *fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrEmailExists
		}
		if existing.Username == user.Username {
			return repositories.ErrUsernameExists
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, exec repositories.SQLExecutor, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateAvatarKey(ctx context.Context, exec repositories.SQLExecutor, id string, avatarKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = &avatarKey
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) ApplyGameResult(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) ListTopByPoints(ctx context.Context, exec repositories.SQLExecutor, limit, offset int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].TotalPoints != users[j].TotalPoints {
			return users[i].TotalPoints > users[j].TotalPoints
		}
		return users[i].Username < users[j].Username
	})
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// --- questions ---

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions []models.Question
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{}
}

// seed adds n questions for the subject, all with correct option A.
func (r *fakeQuestionRepo) seed(subject string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < n; i++ {
		r.questions = append(r.questions, models.Question{
			ID:            fmt.Sprintf("q-%s-%d", subject, i),
			Subject:       subject,
			Text:          fmt.Sprintf("question %d about %s", i, subject),
			OptionA:       "right",
			OptionB:       "wrong",
			OptionC:       "wrong",
			OptionD:       "wrong",
			CorrectOption: models.OptionA,
		})
	}
}

func (r *fakeQuestionRepo) ListRandomBySubject(ctx context.Context, exec repositories.SQLExecutor, subject string, count int) ([]models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Question
	for _, q := range r.questions {
		if q.Subject == subject {
			out = append(out, q)
			if len(out) == count {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) ListByIDs(ctx context.Context, exec repositories.SQLExecutor, ids []string) ([]models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID := make(map[string]models.Question, len(r.questions))
	for _, q := range r.questions {
		byID[q.ID] = q
	}
	out := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, repositories.ErrQuestionNotFound
		}
		out = append(out, q)
	}
	return out, nil
}

// --- queue ---

type fakeQueueRepo struct {
	mu      sync.Mutex
	entries map[string]models.QueueEntry

	// matchErr fails the next MarkMatched call, standing in for an aborted
	// pairing transaction.
	matchErr error
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{entries: make(map[string]models.QueueEntry)}
}

func (r *fakeQueueRepo) Create(ctx context.Context, exec repositories.SQLExecutor, entry *models.QueueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now()
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *fakeQueueRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, repositories.ErrQueueEntryNotFound
	}
	return &e, nil
}

func (r *fakeQueueRepo) DeleteByUser(ctx context.Context, exec repositories.SQLExecutor, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.UserID == userID {
			delete(r.entries, id)
		}
	}
	return nil
}

func (r *fakeQueueRepo) MarkMatched(ctx context.Context, exec repositories.SQLExecutor, id string, matchedWith string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.matchErr != nil {
		err := r.matchErr
		r.matchErr = nil
		return err
	}
	e, ok := r.entries[id]
	if !ok || e.Status != models.QueueWaiting {
		return repositories.ErrQueueEntryNotFound
	}
	e.Status = models.QueueMatched
	e.MatchedWith = &matchedWith
	r.entries[id] = e
	return nil
}

func (r *fakeQueueRepo) MarkCancelled(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.Status != models.QueueWaiting {
		return repositories.ErrQueueEntryNotFound
	}
	e.Status = models.QueueCancelled
	r.entries[id] = e
	return nil
}

func (r *fakeQueueRepo) ClaimWaitingOpponent(ctx context.Context, exec repositories.SQLExecutor, entry *models.QueueEntry) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.QueueEntry
	for id := range r.entries {
		e := r.entries[id]
		if e.Status != models.QueueWaiting || e.UserID == entry.UserID {
			continue
		}
		if e.GameMode != entry.GameMode || e.Subject != entry.Subject || e.Duration != entry.Duration {
			continue
		}
		if best == nil || e.JoinedAt.Before(best.JoinedAt) {
			copied := e
			best = &copied
		}
	}
	if best == nil {
		return nil, repositories.ErrQueueEntryNotFound
	}
	return best, nil
}

func (r *fakeQueueRepo) ExpireOlderThan(ctx context.Context, exec repositories.SQLExecutor, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var userIDs []string
	for id, e := range r.entries {
		if e.Status == models.QueueWaiting && e.JoinedAt.Before(cutoff) {
			e.Status = models.QueueExpired
			r.entries[id] = e
			userIDs = append(userIDs, e.UserID)
		}
	}
	return userIDs, nil
}

// --- battle rooms ---

type fakeBattleRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]models.BattleRoom
}

func newFakeBattleRoomRepo() *fakeBattleRoomRepo {
	return &fakeBattleRoomRepo{rooms: make(map[string]models.BattleRoom)}
}

func (r *fakeBattleRoomRepo) Create(ctx context.Context, exec repositories.SQLExecutor, room *models.BattleRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rooms {
		if existing.InviteCode == room.InviteCode && !existing.Status.Terminal() {
			return repositories.ErrInviteCodeTaken
		}
	}
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	r.rooms[room.ID] = *room
	return nil
}

func (r *fakeBattleRoomRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.BattleRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, repositories.ErrBattleRoomNotFound
	}
	return &room, nil
}

func (r *fakeBattleRoomRepo) GetByInviteCode(ctx context.Context, exec repositories.SQLExecutor, code string) (*models.BattleRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *models.BattleRoom
	for id := range r.rooms {
		room := r.rooms[id]
		if room.InviteCode != code {
			continue
		}
		if newest == nil || room.CreatedAt.After(newest.CreatedAt) {
			copied := room
			newest = &copied
		}
	}
	if newest == nil {
		return nil, repositories.ErrBattleRoomNotFound
	}
	return newest, nil
}

func (r *fakeBattleRoomRepo) SetOpponent(ctx context.Context, exec repositories.SQLExecutor, id string, opponentID, opponentUsername string, opponentTier int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != models.BattleWaiting || room.OpponentID != nil {
		return repositories.ErrBattleRoomNotFound
	}
	room.OpponentID = &opponentID
	room.OpponentUsername = &opponentUsername
	room.OpponentTier = &opponentTier
	r.rooms[id] = room
	return nil
}

func (r *fakeBattleRoomRepo) SetReady(ctx context.Context, exec repositories.SQLExecutor, id string, host bool, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != models.BattleWaiting {
		return repositories.ErrBattleRoomNotFound
	}
	if host {
		room.HostReady = ready
	} else {
		room.OpponentReady = ready
	}
	r.rooms[id] = room
	return nil
}

func (r *fakeBattleRoomRepo) ClaimStart(ctx context.Context, exec repositories.SQLExecutor, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != models.BattleWaiting || room.GameRoomID != nil {
		return false, nil
	}
	room.Status = models.BattleStarting
	r.rooms[id] = room
	return true, nil
}

func (r *fakeBattleRoomRepo) Activate(ctx context.Context, exec repositories.SQLExecutor, id string, gameRoomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != models.BattleStarting {
		return repositories.ErrBattleRoomNotFound
	}
	room.Status = models.BattleActive
	room.GameRoomID = &gameRoomID
	r.rooms[id] = room
	return nil
}

func (r *fakeBattleRoomRepo) Cancel(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != models.BattleWaiting {
		return repositories.ErrBattleRoomNotFound
	}
	room.Status = models.BattleCancelled
	r.rooms[id] = room
	return nil
}

// --- game rooms ---

type fakeGameRoomRepo struct {
	mu          sync.Mutex
	rooms       map[string]models.GameRoom
	order       []string
	lockedReads int
}

func newFakeGameRoomRepo() *fakeGameRoomRepo {
	return &fakeGameRoomRepo{rooms: make(map[string]models.GameRoom)}
}

func (r *fakeGameRoomRepo) Create(ctx context.Context, exec repositories.SQLExecutor, room *models.GameRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room.CreatedAt = time.Now()
	r.rooms[room.ID] = *room
	r.order = append(r.order, room.ID)
	return nil
}

func (r *fakeGameRoomRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.GameRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, repositories.ErrGameRoomNotFound
	}
	return &room, nil
}

func (r *fakeGameRoomRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.GameRoom, error) {
	r.mu.Lock()
	r.lockedReads++
	r.mu.Unlock()
	return r.GetByID(ctx, exec, id)
}

func (r *fakeGameRoomRepo) FindLatestForPlayer(ctx context.Context, exec repositories.SQLExecutor, userID string) (*models.GameRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		room := r.rooms[r.order[i]]
		if room.Status != models.GameCompleted && (room.Player1ID == userID || room.Player2ID == userID) {
			return &room, nil
		}
	}
	return nil, repositories.ErrGameRoomNotFound
}

func (r *fakeGameRoomRepo) SetQuestions(ctx context.Context, exec repositories.SQLExecutor, id string, questionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return repositories.ErrGameRoomNotFound
	}
	room.Questions = questionIDs
	r.rooms[id] = room
	return nil
}

func (r *fakeGameRoomRepo) Start(ctx context.Context, exec repositories.SQLExecutor, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != models.GameWaiting {
		return false, nil
	}
	now := time.Now()
	room.Status = models.GameActive
	room.StartTime = &now
	r.rooms[id] = room
	return true, nil
}

func (r *fakeGameRoomRepo) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, id string, player1 bool, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != models.GameActive {
		return repositories.ErrGameRoomNotFound
	}
	if player1 {
		room.Player1Score = score
	} else {
		room.Player2Score = score
	}
	r.rooms[id] = room
	return nil
}

func (r *fakeGameRoomRepo) AdvanceQuestion(ctx context.Context, exec repositories.SQLExecutor, id string, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return repositories.ErrGameRoomNotFound
	}
	if room.Status == models.GameActive && room.CurrentQuestionIndex < index {
		room.CurrentQuestionIndex = index
		r.rooms[id] = room
	}
	return nil
}

func (r *fakeGameRoomRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id string, winnerID *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != models.GameActive {
		return false, nil
	}
	now := time.Now()
	room.Status = models.GameCompleted
	room.WinnerID = winnerID
	room.EndTime = &now
	r.rooms[id] = room
	return true, nil
}

// --- answers ---

type fakeAnswerRepo struct {
	mu      sync.Mutex
	answers map[string]models.GameAnswer
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: make(map[string]models.GameAnswer)}
}

func answerKey(gameRoomID, playerID string, questionIndex int) string {
	return fmt.Sprintf("%s|%s|%d", gameRoomID, playerID, questionIndex)
}

func (r *fakeAnswerRepo) Create(ctx context.Context, exec repositories.SQLExecutor, answer *models.GameAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := answerKey(answer.GameRoomID, answer.PlayerID, answer.QuestionIndex)
	if _, ok := r.answers[key]; ok {
		return repositories.ErrAnswerExists
	}
	answer.AnsweredAt = time.Now()
	r.answers[key] = *answer
	return nil
}

func (r *fakeAnswerRepo) Get(ctx context.Context, exec repositories.SQLExecutor, gameRoomID, playerID string, questionIndex int) (*models.GameAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[answerKey(gameRoomID, playerID, questionIndex)]
	if !ok {
		return nil, repositories.ErrAnswerNotFound
	}
	return &a, nil
}

func (r *fakeAnswerRepo) CountForQuestion(ctx context.Context, exec repositories.SQLExecutor, gameRoomID string, questionIndex int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, a := range r.answers {
		if a.GameRoomID == gameRoomID && a.QuestionIndex == questionIndex {
			count++
		}
	}
	return count, nil
}

func (r *fakeAnswerRepo) ListByGame(ctx context.Context, exec repositories.SQLExecutor, gameRoomID string) ([]models.GameAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GameAnswer
	for _, a := range r.answers {
		if a.GameRoomID == gameRoomID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

// --- tournaments ---

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[string]models.Tournament
	parts       *fakeParticipantRepo
}

func newFakeTournamentRepo(parts *fakeParticipantRepo) *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[string]models.Tournament), parts: parts}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament.CreatedAt = time.Now()
	tournament.UpdatedAt = tournament.CreatedAt
	stored := *tournament
	stored.Participants = nil
	stored.Matches = nil
	stored.Standings = nil
	stored.ChatMessages = nil
	r.tournaments[tournament.ID] = stored
	return nil
}

func (r *fakeTournamentRepo) get(id string) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *fakeTournamentRepo) List(ctx context.Context, exec repositories.SQLExecutor, status *models.TournamentStatus, nameQuery string, limit, offset int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for id := range r.tournaments {
		t := r.tournaments[id]
		if status != nil && t.Status != *status {
			continue
		}
		if nameQuery != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(nameQuery)) {
			continue
		}
		copied := t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTournamentRepo) ListByParticipant(ctx context.Context, exec repositories.SQLExecutor, userID string, limit int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for id := range r.tournaments {
		joined, err := r.parts.Exists(ctx, exec, id, userID)
		if err != nil {
			return nil, err
		}
		if joined {
			t := r.tournaments[id]
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTournamentRepo) Activate(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(id)
	if err != nil || t.Status != models.TournamentWaiting {
		return repositories.ErrTournamentNotFound
	}
	now := time.Now()
	t.Status = models.TournamentActive
	t.StartedAt = &now
	r.tournaments[id] = *t
	return nil
}

func (r *fakeTournamentRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id string, winnerID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(id)
	if err != nil || t.Status != models.TournamentActive {
		return repositories.ErrTournamentNotFound
	}
	now := time.Now()
	t.Status = models.TournamentCompleted
	t.WinnerID = winnerID
	t.CompletedAt = &now
	r.tournaments[id] = *t
	return nil
}

func (r *fakeTournamentRepo) Cancel(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(id)
	if err != nil || t.Status != models.TournamentWaiting {
		return repositories.ErrTournamentNotFound
	}
	t.Status = models.TournamentCancelled
	r.tournaments[id] = *t
	return nil
}

// --- participants ---

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants []models.TournamentParticipant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{}
}

func (r *fakeParticipantRepo) Add(ctx context.Context, exec repositories.SQLExecutor, participant *models.TournamentParticipant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.TournamentID == participant.TournamentID && p.UserID == participant.UserID {
			return repositories.ErrAlreadyParticipant
		}
	}
	participant.JoinedAt = time.Now()
	r.participants = append(r.participants, *participant)
	return nil
}

func (r *fakeParticipantRepo) Remove(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.participants {
		if p.TournamentID == tournamentID && p.UserID == userID {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) ([]models.TournamentParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TournamentParticipant
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) Exists(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// --- matches ---

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches []models.TournamentMatch
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{}
}

func (r *fakeMatchRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, matches []models.TournamentMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, matches...)
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.TournamentMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) ([]models.TournamentMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TournamentMatch
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *fakeMatchRepo) Activate(ctx context.Context, exec repositories.SQLExecutor, id string, gameRoomID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.matches {
		if m.ID == id {
			if m.Status != models.MatchPending {
				return false, nil
			}
			r.matches[i].Status = models.MatchActive
			r.matches[i].GameRoomID = &gameRoomID
			return true, nil
		}
	}
	return false, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) SetGameRoom(ctx context.Context, exec repositories.SQLExecutor, id string, gameRoomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.matches {
		if m.ID == id && m.Status == models.MatchActive {
			r.matches[i].GameRoomID = &gameRoomID
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) clearGameRoom(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.matches {
		if m.ID == id {
			r.matches[i].GameRoomID = nil
		}
	}
}

func (r *fakeMatchRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id string, winnerID *string, player1Score, player2Score int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.matches {
		if m.ID == id {
			if m.Status != models.MatchActive {
				return false, nil
			}
			now := time.Now()
			r.matches[i].Status = models.MatchCompleted
			r.matches[i].WinnerID = winnerID
			r.matches[i].Player1Score = player1Score
			r.matches[i].Player2Score = player2Score
			r.matches[i].CompletedAt = &now
			return true, nil
		}
	}
	return false, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) CountPending(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Status != models.MatchCompleted {
			count++
		}
	}
	return count, nil
}

// --- standings ---

type fakeStandingRepo struct {
	mu        sync.Mutex
	standings []models.TournamentStanding
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{}
}

func (r *fakeStandingRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, standings []models.TournamentStanding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.standings = append(r.standings, standings...)
	return nil
}

func (r *fakeStandingRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) ([]models.TournamentStanding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TournamentStanding
	for _, s := range r.standings {
		if s.TournamentID == tournamentID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (r *fakeStandingRepo) ApplyResult(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID string, points, wins, losses, draws int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.standings {
		if s.TournamentID == tournamentID && s.UserID == userID {
			r.standings[i].Points += points
			r.standings[i].Wins += wins
			r.standings[i].Losses += losses
			r.standings[i].Draws += draws
			return nil
		}
	}
	return repositories.ErrStandingNotFound
}

// --- chat ---

type fakeChatRepo struct {
	mu       sync.Mutex
	messages []models.TournamentChatMessage
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{}
}

func (r *fakeChatRepo) Create(ctx context.Context, exec repositories.SQLExecutor, message *models.TournamentChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.SentAt = time.Now()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeChatRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string, limit int) ([]models.TournamentChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TournamentChatMessage
	for _, m := range r.messages {
		if m.TournamentID == tournamentID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeChatRepo) LastMessageTime(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID string) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *time.Time
	for _, m := range r.messages {
		if m.TournamentID == tournamentID && m.UserID == userID {
			t := m.SentAt
			if last == nil || t.After(*last) {
				last = &t
			}
		}
	}
	return last, nil
}
