package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/pkg/cryptox"
	"github.com/evamind/gateway/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// AdminScopes are granted to the bootstrap client.
var AdminScopes = []string{"admin:read", "admin:write"}

type BootstrapService struct {
	Clients *ClientService
	Token   string // pre-configured bootstrap token; empty disables bootstrap
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Clients.Store.Clients().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the first administrative client. It only works while
// the credential store is empty.
func (s *BootstrapService) Bootstrap(ctx context.Context, token, name string) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	if s.Token == "" || !cryptox.EqualStrings(token, s.Token) {
		l.Warn("unauthorized bootstrap attempt")
		return domain.Client{}, "", ErrBootstrapUnauthorized
	}

	done, err := s.IsBootstrapped(ctx)
	if err != nil {
		return domain.Client{}, "", err
	}
	if done {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.Client{}, "", ErrBootstrapAlready
	}

	if name == "" {
		name = "admin"
	}
	c, secret, err := s.Clients.CreateClient(ctx, NewClient{
		Name:     name,
		Scopes:   AdminScopes,
		Approved: true,
	})
	if err != nil {
		return domain.Client{}, "", err
	}

	l.Info("gateway bootstrapped", slog.String("client_id", c.ID))
	return c, secret, nil
}
