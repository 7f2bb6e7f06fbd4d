package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/pkg/cryptox"
	"github.com/jb-labs/identity/pkg/idx"
	"github.com/jb-labs/identity/pkg/slogx"
)

// Default credentials seeded on first start. The admin password must be
// rotated immediately; EnsureDefaults logs a warning every time it creates
// the account.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin"
)

// BootstrapService seeds the built-in roles and the initial admin account on
// an empty database.
type BootstrapService struct {
	Store store.Store

	// AdminPassword overrides DefaultAdminPassword when set.
	AdminPassword string
}

// EnsureDefaults is idempotent: the USER and ADMIN roles are created if
// missing, and the admin account only when no users exist at all.
func (s *BootstrapService) EnsureDefaults(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	var adminRole domain.Role

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if _, err = ensureRole(ctx, tx, domain.RoleUser, "Default role for registered users"); err != nil {
			return err
		}
		adminRole, err = ensureRole(ctx, tx, domain.RoleAdmin, "Full administrative access")
		return err
	})
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check users: %w", err)
	}
	if !empty {
		return nil
	}

	password := s.AdminPassword
	if password == "" {
		password = DefaultAdminPassword
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := domain.User{
		ID:           idx.New().String(),
		Username:     DefaultAdminUsername,
		PasswordHash: hash,
		Roles:        []domain.Role{adminRole},
	}
	if err := s.Store.Users().CreateUser(ctx, admin); err != nil {
		// A concurrent replica may have won the race; that's fine.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create admin user: %w", err)
	}

	if s.AdminPassword == "" {
		l.Warn("created admin user with the default password, change it immediately",
			slog.String("username", DefaultAdminUsername))
	} else {
		l.Info("created admin user", slog.String("username", DefaultAdminUsername))
	}
	return nil
}

func ensureRole(ctx context.Context, tx store.Tx, name, description string) (domain.Role, error) {
	role, err := tx.Roles().GetRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Role{}, err
	}

	role = domain.Role{
		ID:          idx.New().String(),
		Name:        name,
		Description: description,
	}
	if err := tx.Roles().CreateRole(ctx, role); err != nil {
		return domain.Role{}, err
	}
	return role, nil
}
