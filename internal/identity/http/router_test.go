package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jb-labs/identity/internal/identity/service"
	"github.com/jb-labs/identity/internal/identity/store/drivers/sqlite"
	"github.com/jb-labs/identity/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type routerFixture struct {
	router *Router
	seq    int
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	bootstrap := &service.BootstrapService{Store: st}
	require.NoError(t, bootstrap.EnsureDefaults(context.Background()))

	signer, err := jwtx.NewSignerHS512(testSecret)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter("test", st, logger)
	router.AuthService = &service.AuthService{
		Store:      st,
		Signer:     signer,
		Verifier:   jwtx.NewVerifierHS512(testSecret, "jb.com"),
		Issuer:     "jb.com",
		AccessTTL:  time.Hour,
		RefreshTTL: 10 * time.Hour,
	}
	router.UserService = &service.UserService{Store: st}
	router.RoleService = &service.RoleService{Store: st}
	router.PermissionService = &service.PermissionService{Store: st}
	router.ApplyRoutes()

	return &routerFixture{router: router}
}

// do issues a request with a unique client IP so the per-IP rate limits
// never interfere with the assertions.
func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	f.seq++
	req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:9999", f.seq/250, f.seq%250)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) adminToken(t *testing.T) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/v1/auth/token", "", tokenRequest{
		Username: service.DefaultAdminUsername,
		Password: service.DefaultAdminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestTokenEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	t.Run("valid credentials issue a token", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/token", "", tokenRequest{
			Username: "admin", Password: "admin",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		var resp tokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)
		require.True(t, resp.ExpiresAt.After(time.Now()))
	})

	t.Run("wrong password returns code 1005", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/token", "", tokenRequest{
			Username: "admin", Password: "nope-nope",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var apiErr APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		require.Equal(t, 1005, apiErr.Code)
	})

	t.Run("unknown user gets the same answer", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/token", "", tokenRequest{
			Username: "mallory", Password: "whatever-pass",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", bytes.NewReader([]byte("{")))
		req.RemoteAddr = "10.9.9.9:9999"
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIntrospectEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	token := f.adminToken(t)

	rec := f.do(t, http.MethodPost, "/v1/auth/introspect", "", introspectRequest{Token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp introspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Valid)

	rec = f.do(t, http.MethodPost, "/v1/auth/introspect", "", introspectRequest{Token: "garbage"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Valid)
}

func TestRefreshAndLogoutEndpoints(t *testing.T) {
	f := newRouterFixture(t)
	token := f.adminToken(t)

	rec := f.do(t, http.MethodPost, "/v1/auth/refresh", "", refreshRequest{Token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var fresh tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fresh))
	require.NotEqual(t, token, fresh.Token)

	// The rotated-away token no longer introspects
	rec = f.do(t, http.MethodPost, "/v1/auth/introspect", "", introspectRequest{Token: token})
	var resp introspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Valid)

	// Refreshing it again is refused
	rec = f.do(t, http.MethodPost, "/v1/auth/refresh", "", refreshRequest{Token: token})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout kills the fresh one; repeating is still 204
	rec = f.do(t, http.MethodPost, "/v1/auth/logout", "", logoutRequest{Token: fresh.Token})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodPost, "/v1/auth/logout", "", logoutRequest{Token: fresh.Token})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/auth/introspect", "", introspectRequest{Token: fresh.Token})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Valid)
}

func TestUserEndpoints(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.adminToken(t)

	t.Run("registration is public", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/users", "", createUserRequest{
			Username: "alice", Password: "long-enough-password", FirstName: "Alice",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "alice", resp.Username)
		require.Len(t, resp.Roles, 1)
		require.Equal(t, "USER", resp.Roles[0].Name)
	})

	t.Run("validation errors map to numeric codes", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/users", "", createUserRequest{
			Username: "abc", Password: "long-enough-password",
		})
		var apiErr APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		require.Equal(t, 1003, apiErr.Code)

		rec = f.do(t, http.MethodPost, "/v1/users", "", createUserRequest{
			Username: "alice", Password: "long-enough-password",
		})
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		require.Equal(t, 1002, apiErr.Code)
	})

	aliceToken := func() string {
		rec := f.do(t, http.MethodPost, "/v1/auth/token", "", tokenRequest{
			Username: "alice", Password: "long-enough-password",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp tokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Token
	}()

	t.Run("listing requires the admin role", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/users", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = f.do(t, http.MethodGet, "/v1/users", aliceToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodGet, "/v1/users", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var users []userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		require.Len(t, users, 2)
	})

	t.Run("me resolves from the token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/users/me", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "alice", resp.Username)
	})

	t.Run("get by id is self or admin", func(t *testing.T) {
		var me userResponse
		rec := f.do(t, http.MethodGet, "/v1/users/me", aliceToken, nil)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))

		// Alice reads herself
		rec = f.do(t, http.MethodGet, "/v1/users/"+me.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// Admin reads alice
		rec = f.do(t, http.MethodGet, "/v1/users/"+me.ID, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// Alice cannot read the admin account
		var admins []userResponse
		rec = f.do(t, http.MethodGet, "/v1/users", admin, nil)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &admins))
		for _, u := range admins {
			if u.Username != "alice" {
				rec = f.do(t, http.MethodGet, "/v1/users/"+u.ID, aliceToken, nil)
				require.Equal(t, http.StatusForbidden, rec.Code)
			}
		}
	})

	t.Run("update and delete are admin only", func(t *testing.T) {
		var me userResponse
		rec := f.do(t, http.MethodGet, "/v1/users/me", aliceToken, nil)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))

		rec = f.do(t, http.MethodPut, "/v1/users/"+me.ID, aliceToken, updateUserRequest{FirstName: "X"})
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodPut, "/v1/users/"+me.ID, admin, updateUserRequest{
			FirstName: "Alicia",
			Roles:     []string{"USER", "ADMIN"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		require.Equal(t, "Alicia", updated.FirstName)
		require.Len(t, updated.Roles, 2)

		rec = f.do(t, http.MethodDelete, "/v1/users/"+me.ID, admin, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.do(t, http.MethodDelete, "/v1/users/"+me.ID, admin, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRoleAndPermissionEndpoints(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.adminToken(t)

	rec := f.do(t, http.MethodPost, "/v1/permissions", admin, createPermissionRequest{
		Name: "USER_WRITE", Description: "create and update users",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/roles", admin, createRoleRequest{
		Name: "MODERATOR", Permissions: []string{"USER_WRITE"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var role roleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))
	require.Equal(t, []string{"USER_WRITE"}, role.Permissions)

	rec = f.do(t, http.MethodGet, "/v1/roles", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []roleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	require.Len(t, roles, 3) // ADMIN, MODERATOR, USER

	rec = f.do(t, http.MethodGet, "/v1/permissions", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/v1/roles/MODERATOR", admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/v1/permissions/USER_WRITE", admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Unauthenticated callers get nowhere
	rec = f.do(t, http.MethodGet, "/v1/roles", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = f.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)
}
