package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/pkg/cryptox"
	"github.com/jb-labs/identity/pkg/idx"
	"github.com/jb-labs/identity/pkg/slogx"
)

const (
	MinUsernameLen = 4
	MinPasswordLen = 8
)

// UserService manages user accounts and their role memberships.
type UserService struct {
	Store store.Store
}

// CreateUserParams carries the fields accepted at registration.
type CreateUserParams struct {
	Username    string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
}

// UpdateUserParams carries the mutable user fields. Password is only
// rehashed when non-empty; Roles (role names) replaces membership when
// non-nil.
type UpdateUserParams struct {
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Roles       []string
}

// Register creates a new account with the default USER role.
func (s *UserService) Register(ctx context.Context, params CreateUserParams) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if len(params.Username) < MinUsernameLen {
		return domain.User{}, ErrUsernameInvalid
	}
	if len(params.Password) < MinPasswordLen {
		return domain.User{}, ErrPasswordInvalid
	}

	hash, err := cryptox.HashPassword(params.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     params.Username,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		DateOfBirth:  params.DateOfBirth,
	}

	// New accounts always start with the default role. A missing USER role
	// means bootstrap never ran; registration proceeds without membership.
	defaultRole, err := s.Store.Roles().GetRoleByName(ctx, domain.RoleUser)
	switch {
	case err == nil:
		user.Roles = []domain.Role{defaultRole}
	case errors.Is(err, store.ErrNotFound):
		l.Warn("default role missing, registering user without roles",
			slog.String("role", domain.RoleUser))
	default:
		return domain.User{}, fmt.Errorf("load default role: %w", err)
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	l.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update rewrites a user's mutable fields. Role name resolution and the
// write happen in one transaction so a bad role name leaves the user
// untouched.
func (s *UserService) Update(ctx context.Context, id string, params UpdateUserParams) (domain.User, error) {
	var updated domain.User

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}

		if params.Password != "" {
			if len(params.Password) < MinPasswordLen {
				return ErrPasswordInvalid
			}
			hash, err := cryptox.HashPassword(params.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user.PasswordHash = hash
		}

		user.FirstName = params.FirstName
		user.LastName = params.LastName
		user.DateOfBirth = params.DateOfBirth

		if params.Roles != nil {
			roles := make([]domain.Role, 0, len(params.Roles))
			for _, name := range params.Roles {
				role, err := tx.Roles().GetRoleByName(ctx, name)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return ErrRoleNotFound
					}
					return fmt.Errorf("load role %q: %w", name, err)
				}
				roles = append(roles, role)
			}
			user.Roles = roles
		}

		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Users().DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
