package domain

import (
	"slices"
	"time"
)

// DefaultRateLimitPerMinute applies to clients created without an explicit limit.
const DefaultRateLimitPerMinute = 60

// Client is an API consumer allowed to use the client-credentials grant.
type Client struct {
	ID                 string
	Name               string
	SecretHash         string
	Scopes             []string
	RateLimitPerMinute int
	Active             bool
	Approved           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Authorized reports whether the client may obtain and use tokens.
func (c Client) Authorized() bool { return c.Active && c.Approved }

// HasScope reports whether scope is granted to the client.
func (c Client) HasScope(scope string) bool { return slices.Contains(c.Scopes, scope) }

// ClientUpdate is a partial update applied by administrators. Nil fields
// are left unchanged.
type ClientUpdate struct {
	Active             *bool
	Approved           *bool
	Scopes             []string
	RateLimitPerMinute *int
}

// IsEmpty reports whether the update changes nothing.
func (u ClientUpdate) IsEmpty() bool {
	return u.Active == nil && u.Approved == nil && u.Scopes == nil && u.RateLimitPerMinute == nil
}
