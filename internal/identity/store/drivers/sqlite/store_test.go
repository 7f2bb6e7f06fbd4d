package sqlite_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/internal/identity/store/drivers/sqlite"
	"github.com/jb-labs/identity/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedRole(t *testing.T, st store.Store, name string, perms ...domain.Permission) domain.Role {
	t.Helper()
	ctx := context.Background()

	for i := range perms {
		perms[i].ID = idx.New().String()
		require.NoError(t, st.Permissions().CreatePermission(ctx, perms[i]))
	}

	role := domain.Role{
		ID:          idx.New().String(),
		Name:        name,
		Permissions: perms,
	}
	require.NoError(t, st.Roles().CreateRole(ctx, role))
	return role
}

func TestUsersCRUD(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	role := seedRole(t, st, "USER")

	empty, err := st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	alice := domain.User{
		ID:           idx.New().String(),
		Username:     "alice",
		PasswordHash: "hash",
		FirstName:    "Alice",
		LastName:     "Smith",
		DateOfBirth:  &dob,
		Roles:        []domain.Role{role},
	}
	require.NoError(t, st.Users().CreateUser(ctx, alice))

	empty, err = st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)

	t.Run("get by id loads roles", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)
		require.NotNil(t, got.DateOfBirth)
		require.Equal(t, dob.Year(), got.DateOfBirth.Year())
		require.Len(t, got.Roles, 1)
		require.Equal(t, "USER", got.Roles[0].Name)
	})

	t.Run("get by username", func(t *testing.T) {
		got, err := st.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
	})

	t.Run("unknown user returns ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username returns ErrAlreadyExists", func(t *testing.T) {
		dup := domain.User{ID: idx.New().String(), Username: "alice", PasswordHash: "x"}
		require.ErrorIs(t, st.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("update replaces role membership", func(t *testing.T) {
		admin := seedRole(t, st, "ADMIN")

		got, err := st.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		got.FirstName = "Alicia"
		got.Roles = []domain.Role{admin}
		require.NoError(t, st.Users().UpdateUser(ctx, got))

		got, err = st.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "Alicia", got.FirstName)
		require.Len(t, got.Roles, 1)
		require.Equal(t, "ADMIN", got.Roles[0].Name)
	})

	t.Run("update of missing user returns ErrNotFound", func(t *testing.T) {
		err := st.Users().UpdateUser(ctx, domain.User{ID: "missing"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		users, err := st.Users().ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
	})

	t.Run("delete cascades membership", func(t *testing.T) {
		require.NoError(t, st.Users().DeleteUser(ctx, alice.ID))
		_, err := st.Users().GetUserByID(ctx, alice.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, st.Users().DeleteUser(ctx, alice.ID), store.ErrNotFound)
	})
}

func TestRolesAndPermissions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	role := seedRole(t, st, "ADMIN",
		domain.Permission{Name: "USER_WRITE", Description: "write users"},
		domain.Permission{Name: "USER_READ"},
	)

	t.Run("get role loads permissions sorted", func(t *testing.T) {
		got, err := st.Roles().GetRoleByName(ctx, "ADMIN")
		require.NoError(t, err)
		require.Equal(t, role.ID, got.ID)
		require.Len(t, got.Permissions, 2)
		require.Equal(t, "USER_READ", got.Permissions[0].Name)
		require.Equal(t, "USER_WRITE", got.Permissions[1].Name)
	})

	t.Run("duplicate role name rejected", func(t *testing.T) {
		dup := domain.Role{ID: idx.New().String(), Name: "ADMIN"}
		require.ErrorIs(t, st.Roles().CreateRole(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("duplicate permission name rejected", func(t *testing.T) {
		dup := domain.Permission{ID: idx.New().String(), Name: "USER_WRITE"}
		require.ErrorIs(t, st.Permissions().CreatePermission(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("list roles", func(t *testing.T) {
		roles, err := st.Roles().ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 1)
		require.Len(t, roles[0].Permissions, 2)
	})

	t.Run("list permissions", func(t *testing.T) {
		perms, err := st.Permissions().ListPermissions(ctx)
		require.NoError(t, err)
		require.Len(t, perms, 2)
	})

	t.Run("delete role drops grants", func(t *testing.T) {
		require.NoError(t, st.Roles().DeleteRole(ctx, "ADMIN"))
		_, err := st.Roles().GetRoleByName(ctx, "ADMIN")
		require.ErrorIs(t, err, store.ErrNotFound)

		// Permissions survive the role deletion
		perms, err := st.Permissions().ListPermissions(ctx)
		require.NoError(t, err)
		require.Len(t, perms, 2)
	})

	t.Run("delete permission", func(t *testing.T) {
		require.NoError(t, st.Permissions().DeletePermission(ctx, "USER_READ"))
		_, err := st.Permissions().GetPermissionByName(ctx, "USER_READ")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRevokedTokens(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	t.Run("put then exists", func(t *testing.T) {
		exp := time.Now().Add(time.Hour)
		require.NoError(t, st.RevokedTokens().Put(ctx, "jti-1", exp))

		revoked, err := st.RevokedTokens().Exists(ctx, "jti-1")
		require.NoError(t, err)
		require.True(t, revoked)

		revoked, err = st.RevokedTokens().Exists(ctx, "jti-unknown")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("put is idempotent", func(t *testing.T) {
		exp := time.Now().Add(time.Hour)
		require.NoError(t, st.RevokedTokens().Put(ctx, "jti-2", exp))
		require.NoError(t, st.RevokedTokens().Put(ctx, "jti-2", exp.Add(time.Minute)))

		revoked, err := st.RevokedTokens().Exists(ctx, "jti-2")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("concurrent duplicate revocations all succeed", func(t *testing.T) {
		exp := time.Now().Add(time.Hour)

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = st.RevokedTokens().Put(ctx, "jti-race", exp)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}

		revoked, err := st.RevokedTokens().Exists(ctx, "jti-race")
		require.NoError(t, err)
		require.True(t, revoked)

		// The race must collapse to a single ledger row
		rows, err := st.RevokedTokenRows(ctx, "jti-race")
		require.NoError(t, err)
		require.EqualValues(t, 1, rows)
	})

	t.Run("expired records still count until purged", func(t *testing.T) {
		require.NoError(t, st.RevokedTokens().Put(ctx, "jti-old", time.Now().Add(-time.Hour)))

		revoked, err := st.RevokedTokens().Exists(ctx, "jti-old")
		require.NoError(t, err)
		require.True(t, revoked)

		require.NoError(t, st.RevokedTokens().DeleteExpired(ctx))

		revoked, err = st.RevokedTokens().Exists(ctx, "jti-old")
		require.NoError(t, err)
		require.False(t, revoked)

		// Unexpired records survive the purge
		revoked, err = st.RevokedTokens().Exists(ctx, "jti-1")
		require.NoError(t, err)
		require.True(t, revoked)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sentinel := domain.Permission{ID: idx.New().String(), Name: "SENTINEL"}

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Permissions().CreatePermission(ctx, sentinel); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.Permissions().GetPermissionByName(ctx, "SENTINEL")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Permissions().CreatePermission(ctx, domain.Permission{
			ID:   idx.New().String(),
			Name: "COMMITTED",
		})
	})
	require.NoError(t, err)

	_, err = st.Permissions().GetPermissionByName(ctx, "COMMITTED")
	require.NoError(t, err)
}

func TestPing(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}

// A write blocked by another connection's open transaction must surface as
// ErrUnavailable, whether the driver reports busy/locked or the context
// deadline fires first while waiting on the lock.
func TestLockedDatabaseMapsToUnavailable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "identity.db")
	ctx := context.Background()

	writer, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.ApplyMigrations())

	second, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	// Hold a write lock on the first connection
	tx, err := writer.Tx(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	require.NoError(t, tx.RevokedTokens().Put(ctx, "jti-held", time.Now().Add(time.Hour)))

	shortCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	err = second.RevokedTokens().Put(shortCtx, "jti-blocked", time.Now().Add(time.Hour))
	require.ErrorIs(t, err, store.ErrUnavailable)
}
