package gatewaysdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evamind/gateway/pkg/gatewaysdk"
	"github.com/evamind/gateway/pkg/httpx"
	"github.com/stretchr/testify/require"
)

// fakeGateway mimics the token endpoint and one resource route.
func fakeGateway(t *testing.T, tokenCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client-1" || secret != "s3cret" {
			gatewaysdk.ErrInvalidClient.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, gatewaysdk.TokenResponse{
			AccessToken: "tok-1", TokenType: "Bearer", ExpiresIn: 3600, Scope: r.FormValue("scope"),
		})
	})

	mux.HandleFunc("GET /api/v1/patients/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			gatewaysdk.ErrInvalidToken.WriteError(w)
			return
		}
		switch r.PathValue("id") {
		case "missing":
			gatewaysdk.ErrNotFound.WriteError(w)
		case "busy":
			gatewaysdk.ErrRateLimitExceeded.WithRetryAfter(17 * time.Second).WriteError(w)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"` + r.PathValue("id") + `"}`))
		}
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, gatewaysdk.HealthResponse{Status: "degraded", Local: "healthy", Downstream: "unhealthy"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientResourceCalls(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := fakeGateway(t, &tokenCalls)
	ctx := context.Background()

	c := gatewaysdk.New(srv.URL+"/", "client-1", "s3cret", gatewaysdk.WithScopes("read:patients"))

	body, err := c.GetPatient(ctx, "42")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"42"}`, string(body))

	_, err = c.GetPatient(ctx, "43")
	require.NoError(t, err)
	require.EqualValues(t, 1, tokenCalls.Load(), "token is reused until it expires")

	tok, err := c.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok.AccessToken)

	t.Run("not found", func(t *testing.T) {
		_, err := c.GetPatient(ctx, "missing")
		var apiErr *gatewaysdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		require.Equal(t, gatewaysdk.ErrorCodeNotFound, apiErr.Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		_, err := c.GetPatient(ctx, "busy")
		var apiErr *gatewaysdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, gatewaysdk.ErrorCodeRateLimitExceeded, apiErr.Code)
		require.Equal(t, 17*time.Second, apiErr.RetryAfter)
	})
}

func TestClientBadCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := fakeGateway(t, &tokenCalls)

	c := gatewaysdk.New(srv.URL, "client-1", "wrong")
	_, err := c.GetPatient(context.Background(), "42")

	var apiErr *gatewaysdk.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, gatewaysdk.ErrorCodeInvalidClient, apiErr.Code)
}

func TestClientHealth(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := fakeGateway(t, &tokenCalls)

	h, err := gatewaysdk.New(srv.URL, "client-1", "s3cret").Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "degraded", h.Status)
	require.Equal(t, "unhealthy", h.Downstream)
	require.Zero(t, tokenCalls.Load())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	gatewaysdk.ErrRateLimitExceeded.WithRetryAfter(30 * time.Second).WriteError(rec)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "30", rec.Header().Get("Retry-After"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"rate_limit_exceeded","error_description":"rate limit exceeded"}`, rec.Body.String())

	// The shared value is not mutated.
	require.Zero(t, gatewaysdk.ErrRateLimitExceeded.RetryAfter)
}
