// Package http wires the identity services to their JSON endpoints.
package http

import (
	"time"

	"github.com/jb-labs/identity/internal/identity/domain"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Valid bool `json:"valid"`
}

type refreshRequest struct {
	Token string `json:"token"`
}

type logoutRequest struct {
	Token string `json:"token"`
}

type createUserRequest struct {
	Username    string     `json:"username"`
	Password    string     `json:"password"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

type updateUserRequest struct {
	Password    string     `json:"password,omitempty"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Roles       []string   `json:"roles,omitempty"`
}

type userResponse struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	FirstName   string         `json:"first_name,omitempty"`
	LastName    string         `json:"last_name,omitempty"`
	DateOfBirth *time.Time     `json:"date_of_birth,omitempty"`
	Roles       []roleResponse `json:"roles,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type createRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

type roleResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

type createPermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type permissionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func toUserResponse(u domain.User) userResponse {
	resp := userResponse{
		ID:          u.ID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DateOfBirth: u.DateOfBirth,
		CreatedAt:   u.CreatedAt,
	}
	for _, role := range u.Roles {
		resp.Roles = append(resp.Roles, toRoleResponse(role))
	}
	return resp
}

func toRoleResponse(r domain.Role) roleResponse {
	resp := roleResponse{
		Name:        r.Name,
		Description: r.Description,
	}
	for _, p := range r.Permissions {
		resp.Permissions = append(resp.Permissions, p.Name)
	}
	return resp
}

func toPermissionResponse(p domain.Permission) permissionResponse {
	return permissionResponse{
		Name:        p.Name,
		Description: p.Description,
	}
}
