package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/internal/gateway/store/drivers/sqlite"
	"github.com/evamind/gateway/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store   *sqlite.Store
	clock   *fakeClock
	tokens  *service.TokenService
	clients *service.ClientService
}

func newFixture(t *testing.T, cacheTTL time.Duration) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	keys, err := jwtx.NewSecretSet([]byte("test-signing-secret-0123456789abcdef"))
	require.NoError(t, err)

	clock := newFakeClock()
	tokens := service.NewTokenService(st, keys, service.TokenOptions{
		Issuer:         "https://gateway.test",
		TTL:            time.Hour,
		StatusCacheTTL: cacheTTL,
		Now:            clock.Now,
	})

	return &fixture{
		store:   st,
		clock:   clock,
		tokens:  tokens,
		clients: &service.ClientService{Store: st, Tokens: tokens},
	}
}

// seedClient registers an approved client and returns it with its secret.
func (f *fixture) seedClient(t *testing.T, limit int, scopes ...string) (domain.Client, string) {
	t.Helper()
	c, secret, err := f.clients.CreateClient(context.Background(), service.NewClient{
		Name:               "test client",
		Scopes:             scopes,
		RateLimitPerMinute: limit,
		Approved:           true,
	})
	require.NoError(t, err)
	return c, secret
}
