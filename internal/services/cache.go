package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/pkg/names"
)

var ErrCacheMiss = errors.New("key not found")

// Cache is the subset of CacheService the cached providers need.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{
		client: client,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// Ping is used by the readiness probe.
func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Cache key generators
func PlayerStatsCacheKey(player string) string {
	return "stats:" + strings.ReplaceAll(names.Normalize(player), " ", "-")
}

// CachedStatsProvider serves game logs from redis and falls back to the
// underlying provider on a miss. Cache failures degrade to direct reads.
type CachedStatsProvider struct {
	next   projection.PlayerStatsProvider
	cache  Cache
	ttl    time.Duration
	logger *logrus.Logger
}

var _ projection.PlayerStatsProvider = (*CachedStatsProvider)(nil)

func NewCachedStatsProvider(next projection.PlayerStatsProvider, cache Cache, ttl time.Duration, logger *logrus.Logger) *CachedStatsProvider {
	return &CachedStatsProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

type cachedStats struct {
	Limit   int                     `json:"limit"`
	Records []projection.StatRecord `json:"records"`
}

func (p *CachedStatsProvider) RecentStats(ctx context.Context, player string, limit int) ([]projection.StatRecord, error) {
	key := PlayerStatsCacheKey(player)

	var hit cachedStats
	err := p.cache.Get(ctx, key, &hit)
	switch {
	case err == nil && hit.Limit >= limit:
		if len(hit.Records) > limit {
			return hit.Records[:limit], nil
		}
		return hit.Records, nil
	case err != nil && !errors.Is(err, ErrCacheMiss):
		p.logger.WithError(err).WithField("player", player).Warn("Stats cache read failed")
	}

	records, err := p.next.RecentStats(ctx, player, limit)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, cachedStats{Limit: limit, Records: records}, p.ttl); err != nil {
		p.logger.WithError(err).WithField("player", player).Warn("Stats cache write failed")
	}
	return records, nil
}

// Invalidate drops cached logs for players whose box scores changed.
func (p *CachedStatsProvider) Invalidate(ctx context.Context, players ...string) error {
	keys := make([]string, len(players))
	for i, player := range players {
		keys[i] = PlayerStatsCacheKey(player)
	}
	return p.cache.Delete(ctx, keys...)
}
