package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/metrics"
	"github.com/evamind/gateway/internal/gateway/ratelimit"
	"github.com/evamind/gateway/pkg/slogx"
)

// DefaultRateLimitWindow is the trailing window per-minute limits apply to.
const DefaultRateLimitWindow = time.Minute

// RateLimitService applies each client's per-window limit.
type RateLimitService struct {
	Counter ratelimit.Counter
	Window  time.Duration
}

func NewRateLimitService(counter ratelimit.Counter, window time.Duration) *RateLimitService {
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &RateLimitService{Counter: counter, Window: window}
}

// Allow returns a *RateLimitedError when p has used up its window. Counter
// failures let the call through: an unavailable counter must not take the
// whole gateway down with it.
func (s *RateLimitService) Allow(ctx context.Context, p domain.Principal) error {
	d, err := s.Counter.Check(ctx, p.ClientID, p.RateLimitPerMinute, s.Window)
	if err != nil {
		metrics.RateLimitErrors.Inc()
		slogx.FromContext(ctx).Warn("rate limit check failed, allowing request",
			slog.String("client_id", p.ClientID), slog.Any("error", err))
		return nil
	}
	if d.Allowed {
		return nil
	}

	metrics.RateLimited.Inc()
	slogx.FromContext(ctx).Warn("rate limit exceeded",
		slog.String("client_id", p.ClientID),
		slog.Int("count", d.Count),
		slog.Int("limit", d.Limit),
		slog.Duration("retry_after", d.RetryAfter),
	)
	return &RateLimitedError{Limit: d.Limit, RetryAfter: d.RetryAfter}
}
