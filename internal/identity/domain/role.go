package domain

import "time"

// Predefined role names seeded at bootstrap.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type Role struct {
	ID          string
	Name        string
	Description string
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Permission struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
