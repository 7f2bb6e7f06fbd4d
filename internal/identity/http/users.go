package http

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/service"
	"github.com/jb-labs/identity/pkg/httpx"
)

// UsersHandler serves user account management under /v1/users.
type UsersHandler struct {
	UserService *service.UserService
}

// HandleCreate serves POST /v1/users, the public registration endpoint.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	user, err := h.UserService.Register(r.Context(), service.CreateUserParams{
		Username:    req.Username,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleList serves GET /v1/users. Admin only (enforced by the router).
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet serves GET /v1/users/{id}. Callers may read their own record;
// anyone else's requires the admin role.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if user.Username != httpx.SubjectFromCtx(r.Context()) && !callerIsAdmin(r) {
		ErrUnauthorized.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleMe serves GET /v1/users/me, resolving the caller from their token.
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetByUsername(r.Context(), httpx.SubjectFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleUpdate serves PUT /v1/users/{id}. Admin only (enforced by the
// router); role membership changes ride on the same request.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	user, err := h.UserService.Update(r.Context(), r.PathValue("id"), service.UpdateUserParams{
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Roles:       req.Roles,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDelete serves DELETE /v1/users/{id}. Admin only (enforced by the
// router).
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.UserService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func callerIsAdmin(r *http.Request) bool {
	return slices.Contains(httpx.ScopesFromCtx(r.Context()), service.RolePrefix+domain.RoleAdmin)
}
