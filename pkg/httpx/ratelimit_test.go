package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/evamind/gateway/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func fromIP(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":40000"
	return req
}

func TestIPKeyExtractor(t *testing.T) {
	req := fromIP("192.168.1.1")
	require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))

	req.Header.Set("X-Real-IP", "203.0.113.2")
	require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
	require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
}

func TestClientCredentialKeyExtractor(t *testing.T) {
	t.Run("basic auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
		req.SetBasicAuth("client-a", "secret")
		require.Equal(t, "client-a", httpx.ClientCredentialKeyExtractor(req))
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"client_id": {"client-b"}}
		req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		require.Equal(t, "client-b", httpx.ClientCredentialKeyExtractor(req))

		// The body stays available to the handler through r.Form.
		require.Equal(t, "client-b", req.PostFormValue("client_id"))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	extract := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.FormFieldKeyExtractor("client_id"))

	req := httptest.NewRequest(http.MethodGet, "/?client_id=abc", nil)
	req.RemoteAddr = "10.0.0.1:1"
	require.Equal(t, "10.0.0.1:abc", extract(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	require.Equal(t, "10.0.0.1", extract(req))
}

func TestRateLimiter(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}

	t.Run("blocks after burst", func(t *testing.T) {
		h := httpx.RateLimitByIP(cfg)(okHandler())
		for i := range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, fromIP("192.168.1.1"))
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, fromIP("192.168.1.1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, fromIP("192.168.1.2"))
		require.Equal(t, http.StatusOK, rec.Code, "other keys are independent")
	})

	t.Run("empty key is allowed", func(t *testing.T) {
		h := httpx.RateLimitMiddleware(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
			func(*http.Request) string { return "" })(okHandler())
		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, fromIP("10.0.0.1"))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("sweep drops idle buckets only", func(t *testing.T) {
		rl := httpx.NewRateLimiter(cfg, httpx.IPKeyExtractor)
		h := rl.Middleware()(okHandler())

		h.ServeHTTP(httptest.NewRecorder(), fromIP("10.0.0.1"))
		require.Equal(t, 1, rl.Len())
		require.Equal(t, 0, rl.Sweep(), "a bucket that just spent a token is kept")
		require.Equal(t, 1, rl.Len())
	})
}

func TestParseRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_TEST_REQUESTS", "7")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
	t.Setenv("RATELIMIT_TEST_BURST", "-1")

	got := httpx.ParseRateLimitFromEnv("TEST", httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 2})
	require.Equal(t, 7, got.RequestsPerWindow)
	require.Equal(t, 30*time.Second, got.Window)
	require.Equal(t, 2, got.Burst)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("outer"), nil, mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer a b", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, ok := httpx.BearerToken(req)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
