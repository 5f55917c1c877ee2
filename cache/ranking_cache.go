package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dosada05/prode/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "prode:ranking:"
	generationKey = keyPrefix + "gen"
)

func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	return rdb, nil
}

// RankingCache хранит посчитанные рейтинги между запросами.
// Ключи включают поколение: Invalidate увеличивает счетчик, и рейтинги,
// записанные под старым поколением, больше никто не читает (их убирает TTL).
type RankingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRankingCache(rdb *redis.Client, ttl time.Duration) *RankingCache {
	return &RankingCache{rdb: rdb, ttl: ttl}
}

// Scope names a ranking independently of the cache generation:
// "global" for a nil stage, "stage:N" otherwise.
func Scope(stageID *int) string {
	if stageID == nil {
		return "global"
	}
	return "stage:" + strconv.Itoa(*stageID)
}

// Key returns the cache key of a ranking scope under the given generation.
func Key(generation int64, stageID *int) string {
	return keyPrefix + "g" + strconv.FormatInt(generation, 10) + ":" + Scope(stageID)
}

// Generation returns the current cache generation, 0 before the first Invalidate.
func (c *RankingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ranking generation: %w", err)
	}
	return gen, nil
}

func (c *RankingCache) Get(ctx context.Context, key string) (models.Ranking, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ranking models.Ranking
	if err := json.Unmarshal(b, &ranking); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached ranking %s: %w", key, err)
	}
	return ranking, true, nil
}

func (c *RankingCache) Set(ctx context.Context, key string, ranking models.Ranking) error {
	b, err := json.Marshal(ranking)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Invalidate starts a new generation, so every ranking cached so far is dropped.
func (c *RankingCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump ranking generation: %w", err)
	}
	return nil
}
