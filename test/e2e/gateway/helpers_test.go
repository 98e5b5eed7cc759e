package gateway_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/evamind/gateway/internal/gateway/app"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Helpers for the gateway end-to-end tests: a fake resource service, the
 * gateway application itself and, outside -short mode, real PostgreSQL and
 * Redis containers behind it.
 */

const bootstrapToken = "e2e-bootstrap-token-12345"

// startResourceService runs a fake downstream that answers every path with
// a small JSON document.
func startResourceService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// startGateway builds the full application from cfg and serves it.
func startGateway(t *testing.T, mutate func(*app.Config)) string {
	t.Helper()

	downstream := startResourceService(t)
	cfg := app.Config{
		Env:                    "test",
		LogLevel:               "warn",
		LogFormat:              "text",
		Port:                   8080,
		ShutdownGracePeriod:    5 * time.Second,
		HousekeepingInterval:   time.Minute,
		Issuer:                 "https://gateway.e2e",
		SigningSecret:          "e2e-signing-secret-0123456789abcdef",
		TokenTTL:               time.Hour,
		DownstreamURL:          downstream.URL,
		DownstreamTimeout:      2 * time.Second,
		DownstreamRetryBackoff: 10 * time.Millisecond,
		HealthProbeTimeout:     time.Second,
		DatabaseURL:            filepath.Join(t.TempDir(), "gateway.db"),
		RateLimitBackend:       app.BackendLedger,
		RateLimitWindow:        time.Minute,
		AuditBuffer:            0,
		BootstrapToken:         bootstrapToken,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = application.Shutdown()
	})
	return srv.URL
}

// startContainer runs req and returns host:port of its lowest exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func startPostgres(t *testing.T) string {
	t.Helper()
	hostPort := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "gateway",
			"POSTGRES_PASSWORD": "gateway",
			"POSTGRES_DB":       "gateway",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})
	return fmt.Sprintf("postgres://gateway:gateway@%s/gateway?sslmode=disable", hostPort)
}

func startRedis(t *testing.T) string {
	t.Helper()
	return startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	})
}
