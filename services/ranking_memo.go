package services

import (
	"context"
	"sync"

	"github.com/Dosada05/prode/models"
)

type rankingMemoKey struct{}

// RankingMemo запоминает рейтинги в пределах одного запроса.
// Между запросами ничего не переживает.
type RankingMemo struct {
	mu       sync.Mutex
	rankings map[string]models.Ranking
}

func NewRankingMemo() *RankingMemo {
	return &RankingMemo{rankings: make(map[string]models.Ranking)}
}

func WithRankingMemo(ctx context.Context, memo *RankingMemo) context.Context {
	return context.WithValue(ctx, rankingMemoKey{}, memo)
}

// RankingMemoFromContext returns nil when the context carries no memo.
func RankingMemoFromContext(ctx context.Context) *RankingMemo {
	memo, _ := ctx.Value(rankingMemoKey{}).(*RankingMemo)
	return memo
}

// getOrLoad holds the lock while loading so concurrent callers in one
// request share a single computation.
func (m *RankingMemo) getOrLoad(key string, load func() (models.Ranking, error)) (models.Ranking, error) {
	if m == nil {
		return load()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rankings[key]; ok {
		return r, nil
	}
	r, err := load()
	if err != nil {
		return nil, err
	}
	m.rankings[key] = r
	return r, nil
}

func (m *RankingMemo) reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.rankings = make(map[string]models.Ranking)
	m.mu.Unlock()
}
