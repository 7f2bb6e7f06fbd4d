package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/service"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/pkg/httpx"
	"github.com/jb-labs/identity/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	AuthService       *service.AuthService
	UserService       *service.UserService
	RoleService       *service.RoleService
	PermissionService *service.PermissionService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerRoles()
	r.registerPermissions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func adminScope() string {
	return service.RolePrefix + domain.RoleAdmin
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// POST /token - strict rate limit by IP (credential attempts)
	r.Mux.Handle("POST /v1/auth/token",
		httpx.Chain(http.HandlerFunc(h.HandleToken),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /introspect - resource servers poll this, moderate limit
	r.Mux.Handle("POST /v1/auth/introspect",
		httpx.Chain(http.HandlerFunc(h.HandleIntrospect),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /refresh - the presented token is its own credential, so no
	// authn middleware; strict limit to slow down guessing
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /logout - moderate rate limit
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	// POST /users - public registration, strict rate limit by IP
	r.Mux.Handle("POST /v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /users - admin only
	r.Mux.Handle("GET /v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RequireAnyScope(adminScope()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /users/me - any authenticated caller
	r.Mux.Handle("GET /v1/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// GET /users/{id} - self or admin; the handler checks ownership
	r.Mux.Handle("GET /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// PUT /users/{id} - admin only (role membership changes ride on it)
	r.Mux.Handle("PUT /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RequireAnyScope(adminScope()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// DELETE /users/{id} - admin only
	r.Mux.Handle("DELETE /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RequireAnyScope(adminScope()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RoleService: r.RoleService}

	secured := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RequireAnyScope(adminScope()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/roles", secured(h.HandleCreate))
	r.Mux.Handle("GET /v1/roles", secured(h.HandleList))
	r.Mux.Handle("DELETE /v1/roles/{name}", secured(h.HandleDelete))
}

func (r *Router) registerPermissions() {
	h := &PermissionsHandler{PermissionService: r.PermissionService}

	secured := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RequireAnyScope(adminScope()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/permissions", secured(h.HandleCreate))
	r.Mux.Handle("GET /v1/permissions", secured(h.HandleList))
	r.Mux.Handle("DELETE /v1/permissions/{name}", secured(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll these frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
