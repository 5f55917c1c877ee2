package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/prode/events"
	"github.com/Dosada05/prode/live"
	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/repositories"
	"github.com/Dosada05/prode/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

type fakeStageRepo struct {
	repositories.StageRepository
	stages      map[string]*models.Stage
	listedWith  *bool
	expiredBets []models.Stage
}

func newFakeStageRepo(stages ...models.Stage) *fakeStageRepo {
	r := &fakeStageRepo{stages: make(map[string]*models.Stage)}
	for i := range stages {
		s := stages[i]
		r.stages[s.Slug] = &s
	}
	return r
}

func (r *fakeStageRepo) GetBySlug(_ context.Context, slug string) (*models.Stage, error) {
	s, ok := r.stages[slug]
	if !ok {
		return nil, repositories.ErrStageNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStageRepo) GetByID(_ context.Context, id int) (*models.Stage, error) {
	for _, s := range r.stages {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repositories.ErrStageNotFound
}

func (r *fakeStageRepo) List(_ context.Context, publicOnly bool) ([]models.Stage, error) {
	r.listedWith = &publicOnly
	out := make([]models.Stage, 0)
	for _, s := range r.stages {
		if publicOnly && !s.Public {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeStageRepo) Create(_ context.Context, stage *models.Stage) error {
	if _, ok := r.stages[stage.Slug]; ok {
		return repositories.ErrStageSlugConflict
	}
	stage.ID = len(r.stages) + 1
	cp := *stage
	r.stages[stage.Slug] = &cp
	return nil
}

func (r *fakeStageRepo) ListExpiredBetByUser(context.Context, int, time.Time) ([]models.Stage, error) {
	return r.expiredBets, nil
}

type fakeMatchRepo struct {
	repositories.MatchRepository
	matches map[int]*models.Match
	results map[int][2]*int
}

func newFakeMatchRepo(matches ...models.Match) *fakeMatchRepo {
	r := &fakeMatchRepo{matches: make(map[int]*models.Match), results: make(map[int][2]*int)}
	for i := range matches {
		m := matches[i]
		r.matches[m.ID] = &m
	}
	return r
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepo) ListByStage(_ context.Context, stageID int, _ repositories.MatchFilter, _ time.Time, _ time.Duration) ([]models.Match, error) {
	out := make([]models.Match, 0)
	for _, m := range r.matches {
		if m.StageID != nil && *m.StageID == stageID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) SetResult(_ context.Context, id int, goalsHome, goalsAway *int) error {
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	r.results[id] = [2]*int{goalsHome, goalsAway}
	return nil
}

type fakeBetRepo struct {
	repositories.BetRepository
	mu          sync.Mutex
	ranking     []models.Bet
	byStage     map[int][]models.Bet
	existing    map[int]*models.Bet
	createErr   error
	rankingHits int
	created     []models.Bet
	updated     []models.Bet
	lookupExecs []repositories.SQLExecutor
	// hold: первый ListForRanking берет снимок, сообщает в loaded и ждет release
	hold *rankingHold
}

type rankingHold struct {
	loaded  chan struct{}
	release chan struct{}
	once    sync.Once
}

func newRankingHold() *rankingHold {
	return &rankingHold{loaded: make(chan struct{}), release: make(chan struct{})}
}

func (r *fakeBetRepo) setRanking(bets []models.Bet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranking = bets
}

func (r *fakeBetRepo) ListForRanking(_ context.Context, stageID *int) ([]models.Bet, error) {
	r.mu.Lock()
	r.rankingHits++
	snapshot := r.ranking
	hold := r.hold
	r.mu.Unlock()

	if hold != nil {
		first := false
		hold.once.Do(func() { first = true })
		if first {
			close(hold.loaded)
			<-hold.release
		}
	}

	if stageID == nil {
		return snapshot, nil
	}
	out := make([]models.Bet, 0)
	for _, b := range snapshot {
		if b.Match != nil && b.Match.StageID != nil && *b.Match.StageID == *stageID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBetRepo) ListByUserAndStage(_ context.Context, _ int, stageID int) ([]models.Bet, error) {
	bets := r.byStage[stageID]
	out := make([]models.Bet, len(bets))
	copy(out, bets)
	return out, nil
}

func (r *fakeBetRepo) ListByStage(_ context.Context, stageID int) ([]models.Bet, error) {
	return r.ListByUserAndStage(context.Background(), 0, stageID)
}

func (r *fakeBetRepo) GetByUserAndMatch(_ context.Context, exec repositories.SQLExecutor, _ int, matchID int) (*models.Bet, error) {
	r.lookupExecs = append(r.lookupExecs, exec)
	if b, ok := r.existing[matchID]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, repositories.ErrBetNotFound
}

func (r *fakeBetRepo) Create(_ context.Context, _ repositories.SQLExecutor, bet *models.Bet) error {
	if r.createErr != nil {
		return r.createErr
	}
	bet.ID = 100 + len(r.created)
	r.created = append(r.created, *bet)
	return nil
}

func (r *fakeBetRepo) Update(_ context.Context, _ repositories.SQLExecutor, bet *models.Bet) error {
	r.updated = append(r.updated, *bet)
	return nil
}

type fakeUserRepo struct {
	repositories.UserRepository
	users     map[string]*models.User
	avatarKey *string
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.Username]; ok {
		return repositories.ErrUserUsernameConflict
	}
	user.ID = len(r.users) + 1
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(_ context.Context, _ int, key *string) error {
	r.avatarKey = key
	return nil
}

type fakeUploader struct {
	uploaded []string
	deleted  []string
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, _ io.Reader) (*storage.UploadResult, error) {
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakePublisher struct {
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeBroadcaster struct {
	messages []live.Message
}

func (b *fakeBroadcaster) BroadcastToStage(_ string, msg live.Message) {
	b.messages = append(b.messages, msg)
}

// finishedBet builds a bet on a finished match of the given stage.
func finishedBet(username string, stageID, matchID int, winner models.Outcome, gh, ga, rh, ra int) models.Bet {
	return models.Bet{
		Username:  username,
		MatchID:   matchID,
		Winner:    winner,
		GoalsHome: gh,
		GoalsAway: ga,
		Match: &models.Match{
			ID:        matchID,
			StageID:   intPtr(stageID),
			GoalsHome: intPtr(rh),
			GoalsAway: intPtr(ra),
		},
	}
}
