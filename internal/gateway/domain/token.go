package domain

import "time"

// Token is the persisted record of an issued access token. ID is the JWT
// "jti" claim; the signed string itself is never stored.
type Token struct {
	ID        string
	ClientID  string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// IssuedToken is what the token endpoint hands back to a client.
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	ExpiresAt   time.Time
	Scopes      []string
}

// Principal is the authenticated caller behind a validated token.
type Principal struct {
	ClientID           string
	TokenID            string
	Scopes             []string
	RateLimitPerMinute int
	ExpiresAt          time.Time
}
