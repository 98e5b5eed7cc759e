package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/metrics"
	"github.com/evamind/gateway/internal/gateway/ratelimit"
	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type brokenCounter struct{}

func (brokenCounter) Check(context.Context, string, int, time.Duration) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("connection refused")
}

func TestRateLimitBoundary(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	rl := service.NewRateLimitService(ratelimit.NewMemory().WithClock(clock.Now), 0)
	p := domain.Principal{ClientID: "c1", RateLimitPerMinute: 60}

	for i := 1; i <= 60; i++ {
		require.NoError(t, rl.Allow(ctx, p), "call %d", i)
		clock.Advance(500 * time.Millisecond)
	}

	before := testutil.ToFloat64(metrics.RateLimited)
	err := rl.Allow(ctx, p)
	require.ErrorIs(t, err, service.ErrRateLimited)
	var rle *service.RateLimitedError
	require.True(t, errors.As(err, &rle))
	require.Equal(t, 60, rle.Limit)
	require.Equal(t, 30*time.Second, rle.RetryAfter)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimited))

	clock.Advance(time.Minute)
	require.NoError(t, rl.Allow(ctx, p))
}

func TestRateLimitFailsOpen(t *testing.T) {
	rl := service.NewRateLimitService(brokenCounter{}, time.Minute)
	before := testutil.ToFloat64(metrics.RateLimitErrors)

	require.NoError(t, rl.Allow(context.Background(), domain.Principal{ClientID: "c1", RateLimitPerMinute: 1}))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitErrors))
}
