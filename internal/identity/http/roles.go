package http

import (
	"encoding/json"
	"net/http"

	"github.com/jb-labs/identity/internal/identity/service"
	"github.com/jb-labs/identity/pkg/httpx"
)

// RolesHandler serves role management under /v1/roles. All routes are admin
// only (enforced by the router).
type RolesHandler struct {
	RoleService *service.RoleService
}

func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}
	if req.Name == "" {
		ErrInvalidBody.WriteError(w)
		return
	}

	role, err := h.RoleService.Create(r.Context(), service.CreateRoleParams{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toRoleResponse(role))
}

func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RoleService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		resp = append(resp, toRoleResponse(role))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.RoleService.Delete(r.Context(), r.PathValue("name")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
