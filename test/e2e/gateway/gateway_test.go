package gateway_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/evamind/gateway/internal/gateway/app"
	"github.com/evamind/gateway/pkg/gatewaysdk"
	"github.com/stretchr/testify/require"
)

func TestGatewayFlowSQLite(t *testing.T) {
	base := startGateway(t, nil)
	runGatewayFlow(t, base)
}

func TestGatewayFlowMemoryLimiter(t *testing.T) {
	base := startGateway(t, func(c *app.Config) {
		c.RateLimitBackend = app.BackendMemory
		c.StatusCacheTTL = 5 * time.Second
	})
	runGatewayFlow(t, base)
}

func TestGatewayFlowPostgresRedis(t *testing.T) {
	dsn := startPostgres(t)
	redisAddr := startRedis(t)

	base := startGateway(t, func(c *app.Config) {
		c.DatabaseURL = dsn
		c.RateLimitBackend = app.BackendRedis
		c.RedisAddr = redisAddr
	})
	runGatewayFlow(t, base)
}

func requireAPIError(t *testing.T, err error, status int, code string) *gatewaysdk.APIError {
	t.Helper()
	var apiErr *gatewaysdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

// runGatewayFlow drives a fresh gateway through the SDK: bootstrap, client
// registration, proxied calls up to the rate limit, revocation and
// deactivation.
func runGatewayFlow(t *testing.T, base string) {
	ctx := t.Context()

	health, err := gatewaysdk.New(base, "", "").Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "healthy", health.Status)

	admin, err := gatewaysdk.Bootstrap(ctx, nil, base, bootstrapToken, "e2e-admin")
	require.NoError(t, err)
	require.NotEmpty(t, admin.ClientSecret)

	_, err = gatewaysdk.Bootstrap(ctx, nil, base, bootstrapToken, "again")
	requireAPIError(t, err, http.StatusConflict, gatewaysdk.ErrorCodeConflict)

	adminClient := gatewaysdk.New(base, admin.ClientID, admin.ClientSecret)

	partnerCreds, err := adminClient.CreateClient(ctx, gatewaysdk.CreateClientRequest{
		Name:               "partner",
		Scopes:             []string{"read:patients", "export:data"},
		RateLimitPerMinute: 5,
		Approved:           true,
	})
	require.NoError(t, err)

	partner := gatewaysdk.New(base, partnerCreds.ClientID, partnerCreds.ClientSecret)

	t.Run("rate limit", func(t *testing.T) {
		for range 5 {
			body, err := partner.GetPatient(ctx, "p1")
			require.NoError(t, err)
			require.JSONEq(t, `{"path":"/serialize/patient/p1"}`, string(body))
		}

		_, err := partner.ExportLGPD(ctx, "p1")
		apiErr := requireAPIError(t, err, http.StatusTooManyRequests, gatewaysdk.ErrorCodeRateLimitExceeded)
		require.Positive(t, apiErr.RetryAfter)
	})

	t.Run("ledger", func(t *testing.T) {
		entries, err := adminClient.ClientRequests(ctx, partnerCreds.ClientID, 20)
		require.NoError(t, err)
		require.Len(t, entries, 6)
		require.Equal(t, http.StatusTooManyRequests, entries[0].StatusCode)
		require.False(t, entries[0].Admitted)
		require.True(t, entries[1].Admitted)
	})

	// scope checks run before the rate limit
	t.Run("scope enforcement", func(t *testing.T) {
		_, err := adminClient.GetPatient(ctx, "p1")
		requireAPIError(t, err, http.StatusForbidden, gatewaysdk.ErrorCodeInsufficientScope)

		_, err = partner.ListClients(ctx)
		requireAPIError(t, err, http.StatusForbidden, gatewaysdk.ErrorCodeInsufficientScope)
	})

	t.Run("revocation", func(t *testing.T) {
		second := gatewaysdk.New(base, partnerCreds.ClientID, partnerCreds.ClientSecret)
		tok, err := second.Token(ctx)
		require.NoError(t, err)
		require.NoError(t, second.Revoke(ctx, tok.AccessToken))

		// the SDK keeps using its cached, now revoked token
		_, err = second.GetPatient(ctx, "p1")
		requireAPIError(t, err, http.StatusUnauthorized, gatewaysdk.ErrorCodeInvalidToken)
	})

	t.Run("deactivation", func(t *testing.T) {
		inactive := false
		_, err := adminClient.UpdateClient(ctx, partnerCreds.ClientID, gatewaysdk.UpdateClientRequest{Active: &inactive})
		require.NoError(t, err)

		_, err = partner.GetPatient(ctx, "p1")
		requireAPIError(t, err, http.StatusForbidden, gatewaysdk.ErrorCodeAccessDenied)

		_, err = gatewaysdk.New(base, partnerCreds.ClientID, partnerCreds.ClientSecret).Token(ctx)
		requireAPIError(t, err, http.StatusForbidden, gatewaysdk.ErrorCodeUnauthorizedClient)
	})
}
