package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/pkg/idx"
)

// PermissionService manages the permission catalogue.
type PermissionService struct {
	Store store.Store
}

func (s *PermissionService) Create(ctx context.Context, name, description string) (domain.Permission, error) {
	perm := domain.Permission{
		ID:          idx.New().String(),
		Name:        name,
		Description: description,
	}
	if err := s.Store.Permissions().CreatePermission(ctx, perm); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Permission{}, ErrPermissionExists
		}
		return domain.Permission{}, fmt.Errorf("create permission: %w", err)
	}
	return perm, nil
}

func (s *PermissionService) List(ctx context.Context) ([]domain.Permission, error) {
	perms, err := s.Store.Permissions().ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

func (s *PermissionService) Delete(ctx context.Context, name string) error {
	if err := s.Store.Permissions().DeletePermission(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPermissionNotFound
		}
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}
