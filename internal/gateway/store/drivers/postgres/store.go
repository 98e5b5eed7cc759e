package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evamind/gateway/internal/gateway/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// nowMillis is the database clock in Unix milliseconds.
const nowMillis = `floor(extract(epoch FROM clock_timestamp()) * 1000)::bigint`

// Store is the PostgreSQL driver backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Options tune the connection pool. Zero values keep pgx defaults.
type Options struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// NewStore connects to dsn and verifies the connection.
func NewStore(ctx context.Context, dsn string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool exposes the underlying pool for metrics collection.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Clients() store.Clients         { return &clientsRepo{pool: s.pool} }
func (s *Store) Tokens() store.Tokens           { return &tokensRepo{pool: s.pool} }
func (s *Store) RequestLogs() store.RequestLogs { return &requestLogsRepo{pool: s.pool} }

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrAlreadyExists
	}
	return err
}

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func joinScopes(scopes []string) string {
	return strings.Join(splitAndFilter(strings.Join(scopes, " ")), " ")
}

func splitAndFilter(s string) []string {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return nil
	}

	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if _, ok := seen[part]; !ok {
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func invalid(kind, id, reason string) error {
	return fmt.Errorf("%w: %s %q: %s", store.ErrInvalidRecord, kind, id, reason)
}
