package sqlite

import (
	"context"
	"database/sql"

	"github.com/jb-labs/identity/internal/identity/domain"
)

type permissionsRepo struct {
	db dbtx
}

func (r *permissionsRepo) GetPermissionByName(ctx context.Context, name string) (domain.Permission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM permissions WHERE name = ?`, name)

	var p domain.Permission
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
		return domain.Permission{}, mapErr(err)
	}
	return p, nil
}

func (r *permissionsRepo) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return perms, nil
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO permissions (id, name, description) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.Description)
	return mapErr(err)
}

func (r *permissionsRepo) DeletePermission(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE name = ?`, name)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}
