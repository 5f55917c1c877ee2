package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/prode/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRankingCache struct {
	mu            sync.Mutex
	stored        map[string]models.Ranking
	generation    int64
	invalidated   int
	invalidateErr error
}

func (c *fakeRankingCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *fakeRankingCache) Get(_ context.Context, key string) (models.Ranking, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.stored[key]
	return r, ok, nil
}

func (c *fakeRankingCache) Set(_ context.Context, key string, ranking models.Ranking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[key] = ranking
	return nil
}

func (c *fakeRankingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.invalidated++
	c.generation++
	return nil
}

func (c *fakeRankingCache) failInvalidate(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateErr = err
}

func rankingBets() []models.Bet {
	return []models.Bet{
		// ana: exact score + winner in stage 1
		finishedBet("ana", 1, 10, models.OutcomeHomeWin, 2, 1, 2, 1),
		// beto: winner only in stage 1, exact in stage 2
		finishedBet("beto", 1, 10, models.OutcomeHomeWin, 1, 0, 2, 1),
		finishedBet("beto", 2, 20, models.OutcomeAwayWin, 0, 3, 1, 2),
		// carla: only pending bets
		{Username: "carla", MatchID: 30, Winner: models.OutcomeDraw, Match: &models.Match{ID: 30, StageID: intPtr(2)}},
	}
}

func TestRankingService_GlobalRanking(t *testing.T) {
	repo := &fakeBetRepo{ranking: rankingBets()}
	svc := NewRankingService(repo, nil, discardLogger())

	ranking, err := svc.GlobalRanking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Ranking{
		{Username: "ana", Points: 4},
		{Username: "beto", Points: 2},
		{Username: "carla", Points: 0},
	}, ranking)
}

func TestRankingService_StageRanking(t *testing.T) {
	repo := &fakeBetRepo{ranking: rankingBets()}
	svc := NewRankingService(repo, nil, discardLogger())

	ranking, err := svc.StageRanking(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.Ranking{
		{Username: "beto", Points: 1},
		{Username: "carla", Points: 0},
	}, ranking)
}

func TestRankingService_MemoisedPerRequest(t *testing.T) {
	repo := &fakeBetRepo{ranking: rankingBets()}
	svc := NewRankingService(repo, nil, discardLogger())
	ctx := WithRankingMemo(context.Background(), NewRankingMemo())

	_, err := svc.GlobalRanking(ctx)
	require.NoError(t, err)
	_, _, err = svc.Position(ctx, "beto")
	require.NoError(t, err)
	_, err = svc.Winners(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.rankingHits)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.GlobalRanking(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.rankingHits)

	// без мемо в контексте каждый вызов идет в базу
	_, err = svc.GlobalRanking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, repo.rankingHits)
}

func TestRankingService_CrossRequestCache(t *testing.T) {
	repo := &fakeBetRepo{ranking: rankingBets()}
	rc := &fakeRankingCache{stored: make(map[string]models.Ranking)}
	svc := NewRankingService(repo, rc, discardLogger())

	_, err := svc.GlobalRanking(context.Background())
	require.NoError(t, err)
	_, err = svc.GlobalRanking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.rankingHits)

	require.NoError(t, svc.Invalidate(context.Background()))
	assert.Equal(t, 1, rc.invalidated)

	_, err = svc.GlobalRanking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.rankingHits)
}

func TestRankingService_ResultDuringComputationIsNotCached(t *testing.T) {
	pending := []models.Bet{
		{Username: "ana", MatchID: 10, Winner: models.OutcomeHomeWin, GoalsHome: 2, GoalsAway: 1,
			Match: &models.Match{ID: 10, StageID: intPtr(1)}},
	}
	repo := &fakeBetRepo{ranking: pending, hold: newRankingHold()}
	rc := &fakeRankingCache{stored: make(map[string]models.Ranking)}
	svc := NewRankingService(repo, rc, discardLogger())

	done := make(chan models.Ranking, 1)
	go func() {
		ranking, err := svc.GlobalRanking(context.Background())
		assert.NoError(t, err)
		done <- ranking
	}()

	select {
	case <-repo.hold.loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("ranking computation did not start")
	}

	// пока первый запрос считает по старому снимку, вносится результат 2-1
	repo.setRanking([]models.Bet{finishedBet("ana", 1, 10, models.OutcomeHomeWin, 2, 1, 2, 1)})
	require.NoError(t, svc.Invalidate(context.Background()))
	close(repo.hold.release)

	select {
	case stale := <-done:
		assert.Equal(t, models.Ranking{{Username: "ana", Points: 0}}, stale)
	case <-time.After(2 * time.Second):
		t.Fatal("ranking computation did not finish")
	}

	ranking, err := svc.GlobalRanking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Ranking{{Username: "ana", Points: 4}}, ranking)
}

func TestRankingService_FailedInvalidationBypassesCache(t *testing.T) {
	repo := &fakeBetRepo{ranking: rankingBets()}
	rc := &fakeRankingCache{stored: make(map[string]models.Ranking)}
	svc := NewRankingService(repo, rc, discardLogger())
	ctx := context.Background()

	_, err := svc.GlobalRanking(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.rankingHits)

	rc.failInvalidate(errors.New("redis: connection refused"))
	assert.Error(t, svc.Invalidate(ctx))

	// кэш не читается, пока инвалидация не пройдет
	_, err = svc.GlobalRanking(ctx)
	require.NoError(t, err)
	_, err = svc.GlobalRanking(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.rankingHits)

	rc.failInvalidate(nil)
	_, err = svc.GlobalRanking(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, repo.rankingHits)
	assert.Equal(t, 1, rc.invalidated)

	_, err = svc.GlobalRanking(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, repo.rankingHits)
}

func TestRankingService_Position(t *testing.T) {
	svc := NewRankingService(&fakeBetRepo{ranking: rankingBets()}, nil, discardLogger())

	pos, ok, err := svc.Position(context.Background(), "beto")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, pos)

	_, ok, err = svc.Position(context.Background(), "nadie")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRankingService_WinnersAndTotal(t *testing.T) {
	bets := []models.Bet{
		finishedBet("beto", 1, 10, models.OutcomeDraw, 0, 0, 0, 0),
		finishedBet("ana", 2, 20, models.OutcomeHomeWin, 3, 1, 3, 1),
		{Username: "carla", MatchID: 30, Winner: models.OutcomeDraw, Match: &models.Match{ID: 30}},
	}
	svc := NewRankingService(&fakeBetRepo{ranking: bets}, nil, discardLogger())

	winners, err := svc.Winners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "beto"}, winners)

	total, err := svc.UserTotal(context.Background(), "carla")
	require.NoError(t, err)
	assert.Zero(t, total)

	total, err = svc.UserTotal(context.Background(), "beto")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestRankingService_EmptyRanking(t *testing.T) {
	svc := NewRankingService(&fakeBetRepo{}, nil, discardLogger())

	winners, err := svc.Winners(context.Background())
	require.NoError(t, err)
	assert.Empty(t, winners)
}
