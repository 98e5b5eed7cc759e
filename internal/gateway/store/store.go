package store

import (
	"context"
	"errors"
	"time"

	"github.com/evamind/gateway/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrInvalidRecord is returned when a persisted row fails validation on
	// its way out of the database.
	ErrInvalidRecord = errors.New("store: invalid record")
)

// Store is the root data access interface, implemented by the sqlite and
// postgres drivers. Every operation the gateway performs is a single-row
// read, insert or flag update, so no transaction API is exposed.
type Store interface {
	Clients() Clients
	Tokens() Tokens
	RequestLogs() RequestLogs

	ApplyMigrations() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}

// Clients is the credential store.
type Clients interface {
	// GetClientByID fetches a client for issuance and validation.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients, newest first.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts c. ErrAlreadyExists on duplicate id.
	CreateClient(ctx context.Context, c domain.Client) error

	// UpdateClient applies the non-nil fields of u and bumps updated_at.
	UpdateClient(ctx context.Context, id string, u domain.ClientUpdate) (domain.Client, error)

	// IsEmpty reports whether no client exists yet.
	IsEmpty(ctx context.Context) (bool, error)
}

// Tokens is the token store.
type Tokens interface {
	// CreateToken persists an issued token record.
	CreateToken(ctx context.Context, t domain.Token) error

	// GetToken returns the record for a jti.
	GetToken(ctx context.Context, id string) (domain.Token, error)

	// IsRevoked reports the revoked flag of a jti. ErrNotFound if unknown.
	IsRevoked(ctx context.Context, id string) (bool, error)

	// RevokeToken sets revoked=true. Revoking twice is not an error.
	RevokeToken(ctx context.Context, id string) error
}

// RequestLogs is the append-only request ledger.
type RequestLogs interface {
	// AppendRequestLog inserts e. The timestamp is assigned by the database.
	AppendRequestLog(ctx context.Context, e domain.RequestLogEntry) error

	// RequestWindow counts the client's admitted entries newer than
	// now-window, where now is read from the database clock. Calls turned
	// away before or by the rate limiter are not counted.
	RequestWindow(ctx context.Context, clientID string, window time.Duration) (domain.RequestWindow, error)

	// ListRequestLogs returns up to limit entries for a client, newest first.
	ListRequestLogs(ctx context.Context, clientID string, limit int) ([]domain.RequestLogEntry, error)
}
