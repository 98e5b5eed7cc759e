package sqlite

import (
	"context"
	"database/sql"

	"github.com/evamind/gateway/internal/gateway/domain"
)

type tokensRepo struct {
	db *sql.DB
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens (id, client_id, scopes, issued_at, expires_at, revoked)
		VALUES (?, ?, ?, ?, ?, 0)`,
		t.ID, t.ClientID, joinScopes(t.Scopes), t.IssuedAt.UnixMilli(), t.ExpiresAt.UnixMilli(),
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetToken(ctx context.Context, id string) (domain.Token, error) {
	var (
		t                   domain.Token
		scopes              string
		issuedAt, expiresAt int64
		revokedAt           sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, scopes, issued_at, expires_at, revoked, revoked_at
		FROM tokens WHERE id = ?`, id,
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
	t.RevokedAt = mapNullMillis(revokedAt)
	return t, nil
}

func (r *tokensRepo) IsRevoked(ctx context.Context, id string) (bool, error) {
	var revoked bool
	err := r.db.QueryRowContext(ctx, `SELECT revoked FROM tokens WHERE id = ?`, id).Scan(&revoked)
	if err != nil {
		return false, mapNotFound(err)
	}
	return revoked, nil
}

func (r *tokensRepo) RevokeToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tokens
		SET revoked = 1, revoked_at = COALESCE(revoked_at, `+nowMillis+`)
		WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
