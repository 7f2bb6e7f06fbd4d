package sqlite

import (
	"context"
	"time"
)

type revokedTokensRepo struct {
	db dbtx
}

// Put records a revocation. ON CONFLICT DO NOTHING makes concurrent
// duplicate revocations of the same jti a no-op success.
func (r *revokedTokensRepo) Put(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC())
	return mapErr(err)
}

func (r *revokedTokensRepo) Exists(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti).Scan(&count)
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

func (r *revokedTokensRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at <= ?`, time.Now().UTC())
	return mapErr(err)
}
