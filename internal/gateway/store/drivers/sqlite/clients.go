package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/evamind/gateway/internal/gateway/domain"
)

type clientsRepo struct {
	db *sql.DB
}

const clientColumns = `id, name, secret_hash, scopes, rate_limit_per_minute, active, approved, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		c                    domain.Client
		scopes               string
		active, approved     bool
		createdAt, updatedAt int64
	)
	err := row.Scan(&c.ID, &c.Name, &c.SecretHash, &scopes, &c.RateLimitPerMinute, &active, &approved, &createdAt, &updatedAt)
	if err != nil {
		return domain.Client{}, err
	}

	if c.ID == "" {
		return domain.Client{}, invalid("client", c.ID, "empty id")
	}
	if c.SecretHash == "" {
		return domain.Client{}, invalid("client", c.ID, "empty secret hash")
	}
	if c.RateLimitPerMinute < 0 {
		return domain.Client{}, invalid("client", c.ID, "negative rate limit")
	}

	c.Scopes = splitAndFilter(scopes)
	c.Active = active
	c.Approved = approved
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC, id DESC`)
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
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret_hash, scopes, rate_limit_per_minute, active, approved)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.SecretHash, joinScopes(c.Scopes), c.RateLimitPerMinute,
		boolInt(c.Active), boolInt(c.Approved),
	)
	return mapConstraint(err)
}

func (r *clientsRepo) UpdateClient(ctx context.Context, id string, u domain.ClientUpdate) (domain.Client, error) {
	sets := []string{`updated_at = ` + nowMillis}
	var args []any

	if u.Active != nil {
		sets = append(sets, `active = ?`)
		args = append(args, boolInt(*u.Active))
	}
	if u.Approved != nil {
		sets = append(sets, `approved = ?`)
		args = append(args, boolInt(*u.Approved))
	}
	if u.Scopes != nil {
		sets = append(sets, `scopes = ?`)
		args = append(args, joinScopes(u.Scopes))
	}
	if u.RateLimitPerMinute != nil {
		sets = append(sets, `rate_limit_per_minute = ?`)
		args = append(args, *u.RateLimitPerMinute)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE clients SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Client{}, err
	}
	if err := requireAffected(res); err != nil {
		return domain.Client{}, err
	}
	return r.GetClientByID(ctx, id)
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM clients)`).Scan(&exists)
	if err != nil {
		return false, err
	}
	return !exists, nil
}
