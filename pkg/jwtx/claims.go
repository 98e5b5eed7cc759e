package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the validity window of an access token.
const DefaultAccessTokenTTL = time.Hour

// Claims are the access-token claims minted for API clients. The token ID
// ("jti") is the key of the persisted token record.
type Claims struct {
	jwt.RegisteredClaims

	// ClientID duplicates the subject for consumers that read it by name.
	ClientID string `json:"client_id"`

	// Scopes is the scope snapshot taken at issuance.
	Scopes []string `json:"scopes"`
}

// NewAccessClaims builds claims for clientID valid from now until now+ttl.
func NewAccessClaims(
	jti, clientID string,
	scopes []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ClientID: clientID,
		Scopes:   scopes,
	}
}

// ValidateIssuer checks iss when expected is non-empty.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" || c.Issuer == expected {
		return nil
	}
	return ErrIssuer
}

// ValidateTimes checks exp and nbf against now, allowing leeway for skew.
// A token without exp is rejected.
func (c *Claims) ValidateTimes(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
