package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Failure taxonomy of the authorization core. Every member maps to one
// stable HTTP status in the transport layer.
var (
	ErrInvalidCredentials    = errors.New("invalid_credentials")
	ErrTokenMalformed        = errors.New("token_malformed")
	ErrTokenExpired          = errors.New("token_expired")
	ErrTokenRevoked          = errors.New("token_revoked")
	ErrClientNotAuthorized   = errors.New("client_not_authorized")
	ErrInsufficientScope     = errors.New("insufficient_scope")
	ErrRateLimited           = errors.New("rate_limited")
	ErrNotFound              = errors.New("not_found")
	ErrDownstreamUnavailable = errors.New("downstream_unavailable")
	ErrDownstream            = errors.New("downstream_error")

	// ErrDownstreamTooLarge is a 2xx answer too big to relay in full.
	ErrDownstreamTooLarge = fmt.Errorf("%w: response too large", ErrDownstream)

	// ErrInvalidScope is returned by the token endpoint when the requested
	// scopes share nothing with the client's grant.
	ErrInvalidScope = errors.New("invalid_scope")
)

// InsufficientScopeError lists the scopes a caller was missing. The list is
// for logs only and never reaches the response body.
type InsufficientScopeError struct {
	Missing []string
}

func (e *InsufficientScopeError) Error() string {
	return "insufficient_scope: missing " + strings.Join(e.Missing, " ")
}

func (e *InsufficientScopeError) Is(target error) bool { return target == ErrInsufficientScope }

// RateLimitedError carries the retry hint for a throttled client.
type RateLimitedError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate_limited: limit %d/window, retry after %s", e.Limit, e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// DownstreamError is a non-2xx answer from the resource service other than
// 404. Body is kept for diagnostics.
type DownstreamError struct {
	Status int
	Body   []byte
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("downstream_error: status %d", e.Status)
}

func (e *DownstreamError) Is(target error) bool { return target == ErrDownstream }
