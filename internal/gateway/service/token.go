package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/evamind/gateway/internal/gateway/cache"
	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/metrics"
	"github.com/evamind/gateway/internal/gateway/store"
	"github.com/evamind/gateway/pkg/cryptox"
	"github.com/evamind/gateway/pkg/idx"
	"github.com/evamind/gateway/pkg/jwtx"
	"github.com/evamind/gateway/pkg/slogx"
)

// MaxStatusCacheTTL bounds how stale a cached revocation or client status
// may be.
const MaxStatusCacheTTL = 5 * time.Second

// TokenOptions configures a TokenService.
type TokenOptions struct {
	Issuer string
	TTL    time.Duration

	// StatusCacheTTL enables the read-through cache for revocation and
	// client status. Zero disables it; values above MaxStatusCacheTTL are
	// clamped.
	StatusCacheTTL time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// TokenService issues and validates client-credential access tokens.
type TokenService struct {
	Store    store.Store
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration

	now     func() time.Time
	revoked *cache.MemoryCache[bool]
	clients *cache.MemoryCache[domain.Client]
}

// NewTokenService wires a signer and verifier over keys.
func NewTokenService(st store.Store, keys *jwtx.SecretSet, opts TokenOptions) *TokenService {
	if opts.TTL <= 0 {
		opts.TTL = jwtx.DefaultAccessTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cacheTTL := min(max(opts.StatusCacheTTL, 0), MaxStatusCacheTTL)

	return &TokenService{
		Store:  st,
		Signer: jwtx.NewSignerHS256(keys),
		Verifier: jwtx.NewVerifierHS256(keys, jwtx.VerifyOptions{
			Issuer: opts.Issuer,
			Now:    opts.Now,
		}),
		Issuer:  opts.Issuer,
		TTL:     opts.TTL,
		now:     opts.Now,
		revoked: cache.NewMemoryCache[bool](cacheTTL).WithClock(opts.Now),
		clients: cache.NewMemoryCache[domain.Client](cacheTTL).WithClock(opts.Now),
	}
}

// AuthenticateClient checks a client id and secret. Unknown ids and wrong
// secrets fail identically with ErrInvalidCredentials, and unknown ids still
// pay for one hash comparison.
func (s *TokenService) AuthenticateClient(ctx context.Context, clientID, secret string) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.BurnVerification(secret)
			l.Info("client authentication failed", slog.String("client_id", clientID), slog.String("reason", "unknown_client"))
			return domain.Client{}, ErrInvalidCredentials
		}
		return domain.Client{}, err
	}

	if err := cryptox.VerifySecret(secret, client.SecretHash); err != nil {
		l.Info("client authentication failed", slog.String("client_id", clientID), slog.Any("error", err))
		return domain.Client{}, ErrInvalidCredentials
	}
	return client, nil
}

// Issue authenticates the client and mints a signed token whose scopes are
// a snapshot of the client's grant, narrowed to requested when given.
func (s *TokenService) Issue(ctx context.Context, clientID, secret string, requested []string) (domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	client, err := s.AuthenticateClient(ctx, clientID, secret)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		}
		return domain.IssuedToken{}, err
	}
	if !client.Authorized() {
		metrics.AuthFailures.WithLabelValues("client_not_authorized").Inc()
		l.Warn("token refused for inactive client", slog.String("client_id", clientID))
		return domain.IssuedToken{}, ErrClientNotAuthorized
	}

	scopes := slices.Clone(client.Scopes)
	if len(requested) > 0 {
		scopes = intersect(requested, client.Scopes)
		if len(scopes) == 0 {
			return domain.IssuedToken{}, ErrInvalidScope
		}
	}

	now := s.now().UTC().Truncate(time.Second)
	jti := idx.NewAt(now).String()
	claims := jwtx.NewAccessClaims(jti, client.ID, scopes, s.TTL, s.Issuer, now)

	signed, err := s.Signer.Sign(claims)
	if err != nil {
		l.Error("failed to sign access token", slog.Any("error", err))
		return domain.IssuedToken{}, err
	}

	err = s.Store.Tokens().CreateToken(ctx, domain.Token{
		ID:        jti,
		ClientID:  client.ID,
		Scopes:    scopes,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.TTL),
	})
	if err != nil {
		l.Error("failed to persist token", slog.Any("error", err))
		return domain.IssuedToken{}, err
	}

	metrics.TokensIssued.Inc()
	l.Info("token issued", slog.String("client_id", client.ID), slog.String("jti", jti))

	return domain.IssuedToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   s.TTL,
		ExpiresAt:   now.Add(s.TTL),
		Scopes:      scopes,
	}, nil
}

// Validate resolves a bearer token to its principal. Checks run in a fixed
// order so that each failure has exactly one reason: signature, expiry,
// revocation, then client status.
func (s *TokenService) Validate(ctx context.Context, raw string) (domain.Principal, error) {
	claims, err := s.Verifier.Verify(raw)
	switch {
	case err == nil:
	case errors.Is(err, jwtx.ErrExpired):
		return domain.Principal{}, ErrTokenExpired
	default:
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrTokenRevoked
		}
		return domain.Principal{}, err
	}
	if revoked {
		return domain.Principal{}, ErrTokenRevoked
	}

	client, err := s.client(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrClientNotAuthorized
		}
		return domain.Principal{}, err
	}
	if !client.Authorized() {
		return domain.Principal{}, ErrClientNotAuthorized
	}

	p := domain.Principal{
		ClientID:           client.ID,
		TokenID:            claims.ID,
		Scopes:             claims.Scopes,
		RateLimitPerMinute: client.RateLimitPerMinute,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// RevokeOwned revokes raw on behalf of clientID. Following RFC 7009 the
// outcome is the same whether the token was valid, expired, unknown or
// owned by another client.
func (s *TokenService) RevokeOwned(ctx context.Context, clientID, raw string) error {
	claims, err := s.Verifier.Verify(raw)
	if err != nil || claims.Subject != clientID {
		return nil
	}

	if err := s.Store.Tokens().RevokeToken(ctx, claims.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	s.InvalidateToken(claims.ID)
	slogx.FromContext(ctx).Info("token revoked by owner", slog.String("client_id", clientID), slog.String("jti", claims.ID))
	return nil
}

// Revoke marks any token as revoked by id.
func (s *TokenService) Revoke(ctx context.Context, tokenID string) error {
	id, err := idx.Parse(tokenID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.Store.Tokens().RevokeToken(ctx, id.String()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.InvalidateToken(id.String())
	slogx.FromContext(ctx).Info("token revoked", slog.String("jti", id.String()))
	return nil
}

// InvalidateToken drops a cached revocation status.
func (s *TokenService) InvalidateToken(id string) { s.revoked.Delete(id) }

// InvalidateClient drops a cached client record.
func (s *TokenService) InvalidateClient(id string) { s.clients.Delete(id) }

// Sweep evicts expired cache entries.
func (s *TokenService) Sweep() int {
	return s.revoked.Sweep() + s.clients.Sweep()
}

func (s *TokenService) isRevoked(ctx context.Context, id string) (bool, error) {
	return s.revoked.GetOrLoad(ctx, id, func(ctx context.Context) (bool, error) {
		return s.Store.Tokens().IsRevoked(ctx, id)
	})
}

func (s *TokenService) client(ctx context.Context, id string) (domain.Client, error) {
	return s.clients.GetOrLoad(ctx, id, func(ctx context.Context) (domain.Client, error) {
		return s.Store.Clients().GetClientByID(ctx, id)
	})
}

// intersect keeps the entries of want present in have, in want's order.
func intersect(want, have []string) []string {
	var out []string
	for _, w := range want {
		if slices.Contains(have, w) && !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	return out
}
