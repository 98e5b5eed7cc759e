package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type clientsRepo struct {
	pool *pgxpool.Pool
}

const clientColumns = `id, name, secret_hash, scopes, rate_limit_per_minute, active, approved, created_at, updated_at`

func scanClient(row pgx.Row) (domain.Client, error) {
	var (
		c                    domain.Client
		scopes               string
		createdAt, updatedAt int64
	)
	err := row.Scan(&c.ID, &c.Name, &c.SecretHash, &scopes, &c.RateLimitPerMinute, &c.Active, &c.Approved, &createdAt, &updatedAt)
	if err != nil {
		return domain.Client{}, err
	}

	switch {
	case c.ID == "":
		return domain.Client{}, invalid("client", c.ID, "empty id")
	case c.SecretHash == "":
		return domain.Client{}, invalid("client", c.ID, "empty secret hash")
	case c.RateLimitPerMinute < 0:
		return domain.Client{}, invalid("client", c.ID, "negative rate limit")
	}

	c.Scopes = splitAndFilter(scopes)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, name, secret_hash, scopes, rate_limit_per_minute, active, approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.SecretHash, joinScopes(c.Scopes), c.RateLimitPerMinute, c.Active, c.Approved,
	)
	return mapConstraint(err)
}

func (r *clientsRepo) UpdateClient(ctx context.Context, id string, u domain.ClientUpdate) (domain.Client, error) {
	sets := []string{`updated_at = ` + nowMillis}
	var args []any
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Active != nil {
		add("active", *u.Active)
	}
	if u.Approved != nil {
		add("approved", *u.Approved)
	}
	if u.Scopes != nil {
		add("scopes", joinScopes(u.Scopes))
	}
	if u.RateLimitPerMinute != nil {
		add("rate_limit_per_minute", *u.RateLimitPerMinute)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE clients SET %s WHERE id = $%d RETURNING `+clientColumns, strings.Join(sets, ", "), len(args))
	c, err := scanClient(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients)`).Scan(&exists); err != nil {
		return false, err
	}
	return !exists, nil
}
