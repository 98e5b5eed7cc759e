package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/store"
	"github.com/evamind/gateway/pkg/cryptox"
	"github.com/evamind/gateway/pkg/idx"
	"github.com/evamind/gateway/pkg/slogx"
)

var (
	ErrClientExists = errors.New("client already exists")
	ErrEmptyUpdate  = errors.New("update changes nothing")
)

// DefaultRequestHistory is how many ledger entries RecentRequests returns
// when no limit is given.
const DefaultRequestHistory = 50

// NewClient describes a client to register.
type NewClient struct {
	Name               string
	Scopes             []string
	RateLimitPerMinute int
	// Approved clients can obtain tokens immediately. New clients are
	// always active.
	Approved bool
}

// ClientService is the administrative side of the credential store.
type ClientService struct {
	Store  store.Store
	Tokens *TokenService
}

// CreateClient registers a client with a generated secret. The plaintext
// secret is returned once and only its hash is stored.
func (s *ClientService) CreateClient(ctx context.Context, in NewClient) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate client secret", slog.Any("error", err))
		return domain.Client{}, "", err
	}
	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		l.Error("failed to hash client secret", slog.Any("error", err))
		return domain.Client{}, "", err
	}

	limit := in.RateLimitPerMinute
	if limit <= 0 {
		limit = domain.DefaultRateLimitPerMinute
	}

	c := domain.Client{
		ID:                 idx.New().String(),
		Name:               in.Name,
		SecretHash:         hash,
		Scopes:             in.Scopes,
		RateLimitPerMinute: limit,
		Active:             true,
		Approved:           in.Approved,
	}
	if err := s.Store.Clients().CreateClient(ctx, c); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Client{}, "", ErrClientExists
		}
		l.Error("failed to create client", slog.Any("error", err))
		return domain.Client{}, "", err
	}
	// Timestamps are assigned by the database.
	if stored, err := s.Store.Clients().GetClientByID(ctx, c.ID); err == nil {
		c = stored
	}

	l.Info("client created", slog.String("client_id", c.ID), slog.String("name", c.Name))
	return c, secret, nil
}

func (s *ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx)
}

// UpdateClient applies u. Deactivation and scope changes take effect on the
// client's next validated call.
func (s *ClientService) UpdateClient(ctx context.Context, id string, u domain.ClientUpdate) (domain.Client, error) {
	if u.IsEmpty() {
		return domain.Client{}, ErrEmptyUpdate
	}

	c, err := s.Store.Clients().UpdateClient(ctx, id, u)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrNotFound
		}
		return domain.Client{}, err
	}
	if s.Tokens != nil {
		s.Tokens.InvalidateClient(id)
	}

	slogx.FromContext(ctx).Info("client updated",
		slog.String("client_id", id),
		slog.Bool("active", c.Active),
		slog.Bool("approved", c.Approved),
	)
	return c, nil
}

// RecentRequests returns the newest ledger entries for a client.
func (s *ClientService) RecentRequests(ctx context.Context, id string, limit int) ([]domain.RequestLogEntry, error) {
	if _, err := s.Store.Clients().GetClientByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRequestHistory
	}
	return s.Store.RequestLogs().ListRequestLogs(ctx, id, limit)
}
