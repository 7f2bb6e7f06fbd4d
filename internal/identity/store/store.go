package store

import (
	"context"
	"errors"
	"time"

	"github.com/jb-labs/identity/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable reports a transient I/O failure (timeout, closed
	// connection). Callers must keep it distinct from authentication
	// failures.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Roles() Roles
	Permissions() Permissions
	RevokedTokens() RevokedTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns an
	// error and committing otherwise. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user with roles and permissions loaded.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during credential verification.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Role membership is taken from u.Roles, referenced by role ID.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser rewrites the mutable fields (names, date of birth, password
	// hash) and replaces role membership with u.Roles.
	UpdateUser(ctx context.Context, u domain.User) error

	// DeleteUser cascades to user_roles (per schema).
	DeleteUser(ctx context.Context, id string) error

	// ListUsers returns all users with their roles loaded.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetRoleByName fetches a role (with permissions) by its unique name.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListRoles returns all roles with their permissions loaded.
	ListRoles(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a new role. Permission grants are taken from
	// r.Permissions, referenced by permission ID.
	CreateRole(ctx context.Context, r domain.Role) error

	// DeleteRole removes a role by name, cascading to its grants and
	// memberships.
	DeleteRole(ctx context.Context, name string) error
}

type Permissions interface {
	// GetPermissionByName fetches a permission by its unique name.
	GetPermissionByName(ctx context.Context, name string) (domain.Permission, error)

	// ListPermissions returns all permissions.
	ListPermissions(ctx context.Context) ([]domain.Permission, error)

	// CreatePermission inserts a new permission.
	CreatePermission(ctx context.Context, p domain.Permission) error

	// DeletePermission removes a permission by name, cascading to grants.
	DeletePermission(ctx context.Context, name string) error
}

// RevokedTokens is the revocation ledger. Presence of a jti invalidates the
// token; the stored expiry only bounds how long the record must be kept.
type RevokedTokens interface {
	// Put idempotently persists a revocation record. Revoking an
	// already-revoked jti is a no-op success, including under concurrent
	// duplicate calls.
	Put(ctx context.Context, jti string, expiresAt time.Time) error

	// Exists reports whether the jti has been revoked. Must observe any Put
	// that completed before it; expired-but-present records still count.
	Exists(ctx context.Context, jti string) (bool, error)

	// DeleteExpired purges records whose expiry has passed. Housekeeping
	// only; correctness never depends on it running.
	DeleteExpired(ctx context.Context) error
}
