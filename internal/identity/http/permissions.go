package http

import (
	"encoding/json"
	"net/http"

	"github.com/jb-labs/identity/internal/identity/service"
	"github.com/jb-labs/identity/pkg/httpx"
)

// PermissionsHandler serves the permission catalogue under /v1/permissions.
// All routes are admin only (enforced by the router).
type PermissionsHandler struct {
	PermissionService *service.PermissionService
}

func (h *PermissionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}
	if req.Name == "" {
		ErrInvalidBody.WriteError(w)
		return
	}

	perm, err := h.PermissionService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toPermissionResponse(perm))
}

func (h *PermissionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	perms, err := h.PermissionService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		resp = append(resp, toPermissionResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *PermissionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.PermissionService.Delete(r.Context(), r.PathValue("name")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
