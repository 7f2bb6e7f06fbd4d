package sqlite

import (
	"context"
	"database/sql"

	"github.com/jb-labs/identity/internal/identity/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE name = ?`, name)

	var role domain.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return domain.Role{}, mapErr(err)
	}

	perms, err := loadRolePermissions(ctx, r.db, role.ID)
	if err != nil {
		return domain.Role{}, mapErr(err)
	}
	role.Permissions = perms
	return role, nil
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}

	for i := range roles {
		roles[i].Permissions, err = loadRolePermissions(ctx, r.db, roles[i].ID)
		if err != nil {
			return nil, mapErr(err)
		}
	}
	return roles, nil
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, description) VALUES (?, ?, ?)`,
		role.ID, role.Name, role.Description)
	if err != nil {
		return mapErr(err)
	}

	for _, perm := range role.Permissions {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)`,
			role.ID, perm.ID); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (r *rolesRepo) DeleteRole(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE name = ?`, name)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

func loadRolePermissions(ctx context.Context, db dbtx, roleID string) ([]domain.Permission, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description, p.created_at
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ?
		 ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
