package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is anything that can turn Claims into a compact JWT.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// HS256Signer signs with the active secret of a SecretSet.
type HS256Signer struct {
	keys *SecretSet
}

// NewSignerHS256 returns a Signer backed by keys.
func NewSignerHS256(keys *SecretSet) *HS256Signer {
	return &HS256Signer{keys: keys}
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (s *HS256Signer) KID() string {
	kid, _ := s.keys.Active()
	return kid
}

// Sign serialises claims and stamps the kid header.
func (s *HS256Signer) Sign(c Claims) (string, error) {
	kid, secret := s.keys.Active()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	tok.Header["kid"] = kid

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}
