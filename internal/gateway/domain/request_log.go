package domain

import "time"

// RequestLogEntry is one resolved call through the gateway. Entries are
// append-only and double as the rate-limit counting source.
type RequestLogEntry struct {
	ID         string
	ClientID   string // empty when the caller never authenticated
	Method     string
	Endpoint   string
	StatusCode int
	Admitted   bool // passed the rate limiter; only admitted calls count toward the limit
	Latency    time.Duration
	CreatedAt  time.Time
}

// RequestWindow summarises a client's admitted requests in a trailing window
// as seen by the store's clock.
type RequestWindow struct {
	Count  int
	Oldest time.Time // zero when Count is 0
	Now    time.Time
}
