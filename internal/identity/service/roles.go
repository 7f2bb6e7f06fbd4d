package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/pkg/idx"
)

// RoleService manages roles and their permission grants.
type RoleService struct {
	Store store.Store
}

// CreateRoleParams carries a new role definition. Permissions are referenced
// by name and must already exist.
type CreateRoleParams struct {
	Name        string
	Description string
	Permissions []string
}

func (s *RoleService) Create(ctx context.Context, params CreateRoleParams) (domain.Role, error) {
	var created domain.Role

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		role := domain.Role{
			ID:          idx.New().String(),
			Name:        params.Name,
			Description: params.Description,
		}

		for _, name := range params.Permissions {
			perm, err := tx.Permissions().GetPermissionByName(ctx, name)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrPermissionNotFound
				}
				return fmt.Errorf("load permission %q: %w", name, err)
			}
			role.Permissions = append(role.Permissions, perm)
		}

		if err := tx.Roles().CreateRole(ctx, role); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrRoleExists
			}
			return fmt.Errorf("create role: %w", err)
		}
		created = role
		return nil
	})
	if err != nil {
		return domain.Role{}, err
	}
	return created, nil
}

func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.Store.Roles().ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *RoleService) Delete(ctx context.Context, name string) error {
	if err := s.Store.Roles().DeleteRole(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}
