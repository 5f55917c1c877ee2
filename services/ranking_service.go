package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Dosada05/prode/cache"
	"github.com/Dosada05/prode/metrics"
	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/repositories"
	"github.com/Dosada05/prode/scoring"
)

// RankingCache: межзапросный кэш рейтингов (Redis). Может отсутствовать.
// Ключи берутся из cache.Key с поколением, прочитанным до расчета.
type RankingCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) (models.Ranking, bool, error)
	Set(ctx context.Context, key string, ranking models.Ranking) error
	Invalidate(ctx context.Context) error
}

type RankingService interface {
	GlobalRanking(ctx context.Context) (models.Ranking, error)
	StageRanking(ctx context.Context, stageID int) (models.Ranking, error)
	// Position is the 1-based place in the global ranking; false when the user has no bets.
	Position(ctx context.Context, username string) (int, bool, error)
	Winners(ctx context.Context) ([]string, error)
	UserTotal(ctx context.Context, username string) (int, error)
	// Invalidate must be called after any result or bet change.
	Invalidate(ctx context.Context) error
}

type rankingService struct {
	betRepo repositories.BetRepository
	cache   RankingCache
	logger  *slog.Logger
	// bypass: последняя инвалидация не прошла, кэшу верить нельзя
	bypass atomic.Bool
}

func NewRankingService(betRepo repositories.BetRepository, rankingCache RankingCache, logger *slog.Logger) RankingService {
	return &rankingService{
		betRepo: betRepo,
		cache:   rankingCache,
		logger:  logger,
	}
}

func (s *rankingService) GlobalRanking(ctx context.Context) (models.Ranking, error) {
	return s.ranking(ctx, nil)
}

func (s *rankingService) StageRanking(ctx context.Context, stageID int) (models.Ranking, error) {
	return s.ranking(ctx, &stageID)
}

func (s *rankingService) ranking(ctx context.Context, stageID *int) (models.Ranking, error) {
	return RankingMemoFromContext(ctx).getOrLoad(cache.Scope(stageID), func() (models.Ranking, error) {
		if !s.cacheUsable(ctx) {
			return s.compute(ctx, stageID)
		}

		gen, err := s.cache.Generation(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "ranking cache generation read failed", slog.Any("error", err))
			return s.compute(ctx, stageID)
		}
		key := cache.Key(gen, stageID)

		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "ranking cache read failed", slog.String("key", key), slog.Any("error", err))
		} else if ok {
			metrics.CacheHits.Inc()
			return cached, nil
		}
		metrics.CacheMisses.Inc()

		ranking, err := s.compute(ctx, stageID)
		if err != nil {
			return nil, err
		}

		// Если за время расчета прошла инвалидация, запись ляжет под старое
		// поколение и читаться уже не будет.
		if err := s.cache.Set(ctx, key, ranking); err != nil {
			s.logger.WarnContext(ctx, "ranking cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return ranking, nil
	})
}

// cacheUsable reports whether the cross-request cache may be read. After a
// failed invalidation it retries once per load and stays off until one succeeds.
func (s *rankingService) cacheUsable(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	if !s.bypass.Load() {
		return true
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return false
	}
	s.bypass.Store(false)
	s.logger.InfoContext(ctx, "ranking cache re-enabled after successful invalidation")
	return true
}

func (s *rankingService) compute(ctx context.Context, stageID *int) (models.Ranking, error) {
	start := time.Now()
	scope := metrics.ScopeGlobal
	filter := scoring.AllStages()
	if stageID != nil {
		scope = metrics.ScopeStage
		filter = scoring.OnlyStage(*stageID)
	}
	defer metrics.ObserveRanking(scope, start)

	bets, err := s.betRepo.ListForRanking(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bets for %s ranking: %w", scope, err)
	}
	return scoring.Aggregate(bets, filter), nil
}

func (s *rankingService) Position(ctx context.Context, username string) (int, bool, error) {
	ranking, err := s.GlobalRanking(ctx)
	if err != nil {
		return 0, false, err
	}
	pos, ok := scoring.Position(ranking, username)
	return pos, ok, nil
}

func (s *rankingService) Winners(ctx context.Context) ([]string, error) {
	ranking, err := s.GlobalRanking(ctx)
	if err != nil {
		return nil, err
	}
	return scoring.Winners(ranking), nil
}

// UserTotal is the user's global score; bets on unfinished matches add nothing.
func (s *rankingService) UserTotal(ctx context.Context, username string) (int, error) {
	ranking, err := s.GlobalRanking(ctx)
	if err != nil {
		return 0, err
	}
	pos, ok := scoring.Position(ranking, username)
	if !ok {
		return 0, nil
	}
	return ranking[pos-1].Points, nil
}

func (s *rankingService) Invalidate(ctx context.Context) error {
	RankingMemoFromContext(ctx).reset()
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.bypass.Store(true)
		return fmt.Errorf("failed to invalidate ranking cache: %w", err)
	}
	s.bypass.Store(false)
	return nil
}
