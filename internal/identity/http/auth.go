package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jb-labs/identity/internal/identity/service"
	"github.com/jb-labs/identity/pkg/httpx"
)

// AuthHandler serves the token lifecycle endpoints under /v1/auth.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleToken serves POST /v1/auth/token: credential exchange for a signed
// bearer token.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	issued, err := h.AuthService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// Unknown user and wrong password get the same answer here so the
		// endpoint can't be used to probe which usernames exist.
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			ErrUnauthenticated.WriteError(w)
			return
		}
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

// HandleIntrospect serves POST /v1/auth/introspect. The response is always
// 200; validity is carried in the body so resource servers get a uniform
// answer.
func (h *AuthHandler) HandleIntrospect(w http.ResponseWriter, r *http.Request) {
	var req introspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	valid := h.AuthService.Introspect(r.Context(), req.Token)
	httpx.WriteJSON(w, http.StatusOK, introspectResponse{Valid: valid})
}

// HandleRefresh serves POST /v1/auth/refresh: rotates the presented token
// for a fresh one and revokes the original.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	issued, err := h.AuthService.Refresh(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

// HandleLogout serves POST /v1/auth/logout. Always 204: revocation is best
// effort and already-dead tokens are not an error.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	h.AuthService.Logout(r.Context(), req.Token)
	w.WriteHeader(http.StatusNoContent)
}
