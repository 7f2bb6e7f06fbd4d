package http

import (
	"errors"
	"net/http"

	"github.com/jb-labs/identity/internal/identity/service"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/pkg/httpx"
)

// APIError pairs an HTTP status with a stable numeric code clients can
// switch on without parsing messages.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var (
	ErrUncategorized   = APIError{Status: http.StatusInternalServerError, Code: 9999, Message: "uncategorized error"}
	ErrUserNotFound    = APIError{Status: http.StatusNotFound, Code: 1001, Message: "user not found"}
	ErrUserExists      = APIError{Status: http.StatusBadRequest, Code: 1002, Message: "user already exists"}
	ErrUsernameInvalid = APIError{Status: http.StatusBadRequest, Code: 1003, Message: "username must be at least 4 characters"}
	ErrPasswordInvalid = APIError{Status: http.StatusBadRequest, Code: 1004, Message: "password must be at least 8 characters"}
	ErrUnauthenticated = APIError{Status: http.StatusUnauthorized, Code: 1005, Message: "unauthenticated"}
	ErrUnauthorized    = APIError{Status: http.StatusForbidden, Code: 1006, Message: "you do not have permission"}
	ErrInvalidBody     = APIError{Status: http.StatusBadRequest, Code: 1007, Message: "invalid request body"}
	ErrNotFound        = APIError{Status: http.StatusNotFound, Code: 1008, Message: "not found"}
	ErrAlreadyExists   = APIError{Status: http.StatusBadRequest, Code: 1009, Message: "already exists"}
	ErrUnavailable     = APIError{Status: http.StatusServiceUnavailable, Code: 9999, Message: "temporarily unavailable"}
)

// WriteError renders the error as a JSON body with no-cache headers.
func (e APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.Status, e)
}

// writeServiceError maps service-layer sentinel errors onto the API error
// catalogue. Transient storage failures become 503; anything unrecognized
// becomes the uncategorized 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		ErrUnauthenticated.WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		ErrUnauthorized.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		ErrUserNotFound.WriteError(w)
	case errors.Is(err, service.ErrUserExists):
		ErrUserExists.WriteError(w)
	case errors.Is(err, service.ErrUsernameInvalid):
		ErrUsernameInvalid.WriteError(w)
	case errors.Is(err, service.ErrPasswordInvalid):
		ErrPasswordInvalid.WriteError(w)
	case errors.Is(err, service.ErrRoleNotFound), errors.Is(err, service.ErrPermissionNotFound):
		ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrRoleExists), errors.Is(err, service.ErrPermissionExists):
		ErrAlreadyExists.WriteError(w)
	case errors.Is(err, store.ErrUnavailable):
		ErrUnavailable.WriteError(w)
	default:
		ErrUncategorized.WriteError(w)
	}
}
