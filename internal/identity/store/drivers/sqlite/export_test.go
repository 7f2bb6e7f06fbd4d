package sqlite

import "context"

// RevokedTokenRows reports how many ledger rows exist for a jti. Test-only,
// so assertions can see row multiplicity where Exists only reports presence.
func (s *Store) RevokedTokenRows(ctx context.Context, jti string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti).Scan(&n)
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
