package service

import (
	"context"
	"testing"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/internal/identity/store/drivers/sqlite"
	"github.com/jb-labs/identity/pkg/cryptox"
	"github.com/jb-labs/identity/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	ctx := context.Background()
	require.NoError(t, st.Roles().CreateRole(ctx, domain.Role{
		ID:   idx.New().String(),
		Name: domain.RoleUser,
	}))
	require.NoError(t, st.Roles().CreateRole(ctx, domain.Role{
		ID:   idx.New().String(),
		Name: domain.RoleAdmin,
	}))

	return &UserService{Store: st}
}

func TestRegister(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	t.Run("assigns default role and hashes password", func(t *testing.T) {
		user, err := svc.Register(ctx, CreateUserParams{
			Username:  "alice",
			Password:  "long-enough-password",
			FirstName: "Alice",
		})
		require.NoError(t, err)
		require.NotEmpty(t, user.ID)
		require.Len(t, user.Roles, 1)
		require.Equal(t, domain.RoleUser, user.Roles[0].Name)

		require.NotEqual(t, "long-enough-password", user.PasswordHash)
		require.NoError(t, cryptox.VerifyPassword("long-enough-password", user.PasswordHash))
	})

	t.Run("short username rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, CreateUserParams{Username: "abc", Password: "long-enough-password"})
		require.ErrorIs(t, err, ErrUsernameInvalid)
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, CreateUserParams{Username: "bobby", Password: "short"})
		require.ErrorIs(t, err, ErrPasswordInvalid)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, CreateUserParams{Username: "alice", Password: "long-enough-password"})
		require.ErrorIs(t, err, ErrUserExists)
	})
}

func TestUserLookupAndDelete(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, CreateUserParams{Username: "alice", Password: "long-enough-password"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	got, err = svc.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrUserNotFound)
}

func TestUserUpdate(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, CreateUserParams{Username: "alice", Password: "long-enough-password"})
	require.NoError(t, err)

	t.Run("replaces names and roles", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, UpdateUserParams{
			FirstName: "Alicia",
			Roles:     []string{domain.RoleAdmin},
		})
		require.NoError(t, err)
		require.Equal(t, "Alicia", updated.FirstName)
		require.Len(t, updated.Roles, 1)
		require.Equal(t, domain.RoleAdmin, updated.Roles[0].Name)
	})

	t.Run("keeps password when omitted", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, UpdateUserParams{FirstName: "Alicia"})
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("long-enough-password", updated.PasswordHash))
	})

	t.Run("rehashes new password", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, UpdateUserParams{Password: "another-long-password"})
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("another-long-password", updated.PasswordHash))
	})

	t.Run("unknown role rolls everything back", func(t *testing.T) {
		_, err := svc.Update(ctx, created.ID, UpdateUserParams{
			FirstName: "ShouldNotStick",
			Roles:     []string{"NO_SUCH_ROLE"},
		})
		require.ErrorIs(t, err, ErrRoleNotFound)

		got, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotEqual(t, "ShouldNotStick", got.FirstName)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", UpdateUserParams{})
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

var _ store.Store = (*sqlite.Store)(nil)
