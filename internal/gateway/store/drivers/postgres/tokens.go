package postgres

import (
	"context"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type tokensRepo struct {
	pool *pgxpool.Pool
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tokens (id, client_id, scopes, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.ClientID, joinScopes(t.Scopes), t.IssuedAt.UnixMilli(), t.ExpiresAt.UnixMilli(),
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetToken(ctx context.Context, id string) (domain.Token, error) {
	var (
		t                   domain.Token
		scopes              string
		issuedAt, expiresAt int64
		revokedAt           *int64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, client_id, scopes, issued_at, expires_at, revoked, revoked_at
		FROM tokens WHERE id = $1`, id,
	).Scan(&t.ID, &t.ClientID, &scopes, &issuedAt, &expiresAt, &t.Revoked, &revokedAt)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}

	if t.ClientID == "" {
		return domain.Token{}, invalid("token", t.ID, "empty client id")
	}
	if expiresAt < issuedAt {
		return domain.Token{}, invalid("token", t.ID, "expires before issuance")
	}

	t.Scopes = splitAndFilter(scopes)
	t.IssuedAt = fromMillis(issuedAt)
	t.ExpiresAt = fromMillis(expiresAt)
	if revokedAt != nil {
		at := fromMillis(*revokedAt)
		t.RevokedAt = &at
	}
	return t, nil
}

func (r *tokensRepo) IsRevoked(ctx context.Context, id string) (bool, error) {
	var revoked bool
	if err := r.pool.QueryRow(ctx, `SELECT revoked FROM tokens WHERE id = $1`, id).Scan(&revoked); err != nil {
		return false, mapNotFound(err)
	}
	return revoked, nil
}

func (r *tokensRepo) RevokeToken(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tokens
		SET revoked = TRUE, revoked_at = COALESCE(revoked_at, `+nowMillis+`)
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}
