package ratelimit_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/ratelimit"
	"github.com/evamind/gateway/internal/gateway/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func check(t *testing.T, c ratelimit.Counter, id string, limit int) ratelimit.Decision {
	t.Helper()
	d, err := c.Check(context.Background(), id, limit, time.Minute)
	require.NoError(t, err)
	return d
}

func TestMemoryInclusiveBoundary(t *testing.T) {
	clk := newClock()
	m := ratelimit.NewMemory().WithClock(clk.now)

	for i := 1; i <= 3; i++ {
		d := check(t, m, "c1", 3)
		require.True(t, d.Allowed, "call %d", i)
		require.Equal(t, i, d.Count)
		clk.advance(10 * time.Second)
	}

	// The fourth call sees count == limit and is rejected.
	d := check(t, m, "c1", 3)
	require.False(t, d.Allowed)
	require.Equal(t, 3, d.Count)
	// oldest at t0, now t0+30s, window 60s
	require.Equal(t, 30*time.Second, d.RetryAfter)

	// Other clients are unaffected.
	require.True(t, check(t, m, "c2", 3).Allowed)
}

func TestMemoryWindowSlides(t *testing.T) {
	clk := newClock()
	m := ratelimit.NewMemory().WithClock(clk.now)

	require.True(t, check(t, m, "c1", 1).Allowed)
	require.False(t, check(t, m, "c1", 1).Allowed)

	clk.advance(59*time.Second + 500*time.Millisecond)
	d := check(t, m, "c1", 1)
	require.False(t, d.Allowed)
	require.Equal(t, time.Second, d.RetryAfter, "rounded up to a whole second")

	clk.advance(time.Second)
	require.True(t, check(t, m, "c1", 1).Allowed)
}

func TestMemoryZeroLimit(t *testing.T) {
	m := ratelimit.NewMemory()
	d := check(t, m, "c1", 0)
	require.False(t, d.Allowed)
	require.Equal(t, time.Minute, d.RetryAfter)
}

func TestMemorySweep(t *testing.T) {
	clk := newClock()
	m := ratelimit.NewMemory().WithClock(clk.now)

	check(t, m, "c1", 5)
	check(t, m, "c2", 5)
	require.Equal(t, 2, m.Len())
	require.Zero(t, m.Sweep())

	clk.advance(2 * time.Minute)
	require.Equal(t, 2, m.Sweep())
	require.Zero(t, m.Len())
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Clients().CreateClient(ctx, domain.Client{
		ID: "c1", Name: "c1", SecretHash: "h", Scopes: []string{"read:patients"},
		RateLimitPerMinute: 2, Active: true, Approved: true,
	}))

	l := ratelimit.NewLedger(s.RequestLogs())
	appendLog := func(status int, admitted bool) {
		require.NoError(t, s.RequestLogs().AppendRequestLog(ctx, domain.RequestLogEntry{
			ClientID: "c1", Method: http.MethodGet, Endpoint: "/api/v1/patients/1",
			StatusCode: status, Admitted: admitted,
		}))
	}

	d := check(t, l, "c1", 2)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Count)

	appendLog(http.StatusOK, true)
	appendLog(http.StatusTooManyRequests, false)
	appendLog(http.StatusForbidden, false)
	require.True(t, check(t, l, "c1", 2).Allowed, "rejected calls are not counted")

	appendLog(http.StatusBadGateway, true)
	d = check(t, l, "c1", 2)
	require.False(t, d.Allowed)
	require.Equal(t, 2, d.Count)
	require.GreaterOrEqual(t, d.RetryAfter, time.Second)
	require.LessOrEqual(t, d.RetryAfter, time.Minute)
}
