package jwtx

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"
)

var (
	ErrNoKey      = errors.New("jwtx: key not found")
	ErrWeakSecret = errors.New("jwtx: signing secret too short")
)

// MinSecretLength is the shortest accepted HMAC secret in bytes.
const MinSecretLength = 16

// SecretSet holds the HMAC secrets a gateway signs and verifies with. One
// secret is active for signing; previous secrets stay valid for
// verification until tokens signed with them have expired.
type SecretSet struct {
	mu      sync.RWMutex
	active  string
	secrets map[string][]byte
}

// NewSecretSet builds a set signing with active and also accepting previous.
func NewSecretSet(active []byte, previous ...[]byte) (*SecretSet, error) {
	s := &SecretSet{secrets: make(map[string][]byte, len(previous)+1)}

	if len(active) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	s.active = KeyID(active)
	s.secrets[s.active] = active

	for _, p := range previous {
		if len(p) < MinSecretLength {
			return nil, ErrWeakSecret
		}
		s.secrets[KeyID(p)] = p
	}
	return s, nil
}

// KeyID derives the "kid" header value from a secret without revealing it.
func KeyID(secret []byte) string {
	sum := sha256.Sum256(secret)
	return base64.RawURLEncoding.EncodeToString(sum[:9])
}

// Active returns the signing secret and its kid.
func (s *SecretSet) Active() (string, []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.secrets[s.active]
}

// Get returns the secret registered under kid.
func (s *SecretSet) Get(kid string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if secret, ok := s.secrets[kid]; ok {
		return secret, nil
	}
	return nil, ErrNoKey
}

// Len reports how many secrets are accepted for verification.
func (s *SecretSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.secrets)
}
