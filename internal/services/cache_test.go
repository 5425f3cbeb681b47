package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/prop-projections/internal/providers"
)

func TestPlayerStatsCacheKey(t *testing.T) {
	assert.Equal(t, "stats:luka-doncic", PlayerStatsCacheKey("Luka Dončić"))
	assert.Equal(t, PlayerStatsCacheKey("Jaren Jackson Jr."), PlayerStatsCacheKey("jaren jackson"))
}

func TestCachedStatsProviderHit(t *testing.T) {
	cache := &MockCache{}
	next := &MockStatsProvider{}
	provider := NewCachedStatsProvider(next, cache, time.Hour, quietLogger())

	cache.On("Get", mock.Anything, "stats:lebron-james", mock.Anything).Return(nil, func(dest interface{}) {
		*dest.(*cachedStats) = cachedStats{Limit: 15, Records: gameLogs(12, 25)}
	})

	records, err := provider.RecentStats(context.Background(), "LeBron James", 10)
	require.NoError(t, err)
	assert.Len(t, records, 10)
	next.AssertNotCalled(t, "RecentStats", mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedStatsProviderMiss(t *testing.T) {
	cache := &MockCache{}
	next := &MockStatsProvider{}
	provider := NewCachedStatsProvider(next, cache, time.Hour, quietLogger())

	cache.On("Get", mock.Anything, "stats:lebron-james", mock.Anything).Return(ErrCacheMiss, nil)
	next.On("RecentStats", mock.Anything, "LeBron James", 15).Return(gameLogs(8, 25), nil)
	cache.On("Set", mock.Anything, "stats:lebron-james", mock.MatchedBy(func(v cachedStats) bool {
		return v.Limit == 15 && len(v.Records) == 8
	}), time.Hour).Return(nil)

	records, err := provider.RecentStats(context.Background(), "LeBron James", 15)
	require.NoError(t, err)
	assert.Len(t, records, 8)
	cache.AssertExpectations(t)
}

func TestCachedStatsProviderSmallerCachedLimit(t *testing.T) {
	cache := &MockCache{}
	next := &MockStatsProvider{}
	provider := NewCachedStatsProvider(next, cache, time.Hour, quietLogger())

	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, func(dest interface{}) {
		*dest.(*cachedStats) = cachedStats{Limit: 5, Records: gameLogs(5, 25)}
	})
	next.On("RecentStats", mock.Anything, "LeBron James", 15).Return(gameLogs(15, 25), nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	records, err := provider.RecentStats(context.Background(), "LeBron James", 15)
	require.NoError(t, err)
	assert.Len(t, records, 15)
}

func TestCachedStatsProviderDegradesOnCacheError(t *testing.T) {
	cache := &MockCache{}
	next := &MockStatsProvider{}
	provider := NewCachedStatsProvider(next, cache, time.Hour, quietLogger())

	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("dial tcp: refused"), nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("dial tcp: refused"))
	next.On("RecentStats", mock.Anything, "LeBron James", 15).Return(gameLogs(3, 25), nil)

	records, err := provider.RecentStats(context.Background(), "LeBron James", 15)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	next.On("RecentStats", mock.Anything, "Broken", 15).Return(nil, errors.New("db down"))
	_, err = provider.RecentStats(context.Background(), "Broken", 15)
	assert.Error(t, err)
}

func TestCachedStatsProviderInvalidate(t *testing.T) {
	cache := &MockCache{}
	provider := NewCachedStatsProvider(&MockStatsProvider{}, cache, time.Hour, quietLogger())

	cache.On("Delete", mock.Anything, []string{"stats:lebron-james", "stats:anthony-davis"}).Return(nil)
	require.NoError(t, provider.Invalidate(context.Background(), "LeBron James", "Anthony Davis"))
	cache.AssertExpectations(t)
}

func TestCircuitBreakerTripsPerProvider(t *testing.T) {
	cb := NewCircuitBreakerService(2, time.Minute, quietLogger())
	failing := func() (interface{}, error) { return nil, errors.New("upstream 500") }

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(providers.ESPN, failing)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.GetState(providers.ESPN))

	_, err := cb.Execute(providers.ESPN, func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	got, err := cb.Execute(providers.PrizePicks, func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, gobreaker.StateClosed, cb.GetState(providers.PrizePicks))

	statuses := cb.Statuses()
	assert.Equal(t, "open", statuses[providers.ESPN].State)
	assert.Equal(t, "closed", statuses[providers.OddsAPI].State)

	got, err = cb.Execute("unknown", func() (interface{}, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}
