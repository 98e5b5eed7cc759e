package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestClientService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	c, secret, err := f.clients.CreateClient(ctx, service.NewClient{Name: "reporting", Scopes: []string{"read:patients"}})
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.True(t, c.Active)
	require.False(t, c.Approved)
	require.Equal(t, domain.DefaultRateLimitPerMinute, c.RateLimitPerMinute)
	require.NoError(t, cryptox.VerifySecret(secret, c.SecretHash))

	list, err := f.clients.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	t.Run("update", func(t *testing.T) {
		updated, err := f.clients.UpdateClient(ctx, c.ID, domain.ClientUpdate{
			Approved:           ptr(true),
			Scopes:             []string{"read:patients", "export:data"},
			RateLimitPerMinute: ptr(120),
		})
		require.NoError(t, err)
		require.True(t, updated.Approved)
		require.Equal(t, 120, updated.RateLimitPerMinute)
		require.ElementsMatch(t, []string{"read:patients", "export:data"}, updated.Scopes)
	})

	t.Run("empty update", func(t *testing.T) {
		_, err := f.clients.UpdateClient(ctx, c.ID, domain.ClientUpdate{})
		require.ErrorIs(t, err, service.ErrEmptyUpdate)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := f.clients.UpdateClient(ctx, "missing", domain.ClientUpdate{Active: ptr(false)})
		require.ErrorIs(t, err, service.ErrNotFound)

		_, err = f.clients.RecentRequests(ctx, "missing", 10)
		require.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("recent requests", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, f.store.RequestLogs().AppendRequestLog(ctx, domain.RequestLogEntry{
				ClientID: c.ID, Method: http.MethodGet, Endpoint: "/api/v1/patients/1", StatusCode: 200,
			}))
		}
		entries, err := f.clients.RecentRequests(ctx, c.ID, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
	})
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	t.Run("disabled without a token", func(t *testing.T) {
		b := &service.BootstrapService{Clients: f.clients}
		_, _, err := b.Bootstrap(ctx, "", "admin")
		require.ErrorIs(t, err, service.ErrBootstrapUnauthorized)
	})

	b := &service.BootstrapService{Clients: f.clients, Token: "let-me-in"}

	_, _, err := b.Bootstrap(ctx, "wrong", "admin")
	require.ErrorIs(t, err, service.ErrBootstrapUnauthorized)

	c, secret, err := b.Bootstrap(ctx, "let-me-in", "")
	require.NoError(t, err)
	require.Equal(t, "admin", c.Name)
	require.ElementsMatch(t, service.AdminScopes, c.Scopes)
	require.True(t, c.Authorized())

	tok, err := f.tokens.Issue(ctx, c.ID, secret, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, service.AdminScopes, tok.Scopes)

	_, _, err = b.Bootstrap(ctx, "let-me-in", "again")
	require.ErrorIs(t, err, service.ErrBootstrapAlready)
}
