// Package ratelimit implements the per-client sliding-window counters the
// gateway consults before proxying a call.
//
// Every backend uses the same rule: a call is rejected when the number of
// counted calls in the trailing window is already >= the client's limit.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Decision is the outcome of a limit check.
type Decision struct {
	Allowed    bool
	Count      int // calls counted in the window, including this one when allowed
	Limit      int
	RetryAfter time.Duration // zero when allowed
}

// Counter decides whether one more call fits in a client's window.
type Counter interface {
	Check(ctx context.Context, clientID string, limit int, window time.Duration) (Decision, error)
}

// retryAfter is the time until the oldest counted call leaves the window,
// rounded up to whole seconds and never below one second. With nothing
// counted (a zero limit) the whole window is reported.
func retryAfter(count int, oldest, now time.Time, window time.Duration) time.Duration {
	wait := window
	if count > 0 && !oldest.IsZero() {
		wait = oldest.Add(window).Sub(now)
	}
	secs := math.Ceil(wait.Seconds())
	return time.Duration(max(secs, 1)) * time.Second
}

func deny(count, limit int, oldest, now time.Time, window time.Duration) Decision {
	return Decision{
		Allowed:    false,
		Count:      count,
		Limit:      limit,
		RetryAfter: retryAfter(count, oldest, now, window),
	}
}
