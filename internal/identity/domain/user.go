package domain

import "time"

// User is an identity record. The store loads Roles (and their permissions)
// eagerly so the scope builder can walk role -> permission without further
// queries.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt encoded
	FirstName    string
	LastName     string
	DateOfBirth  *time.Time
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user holds a role with the given name.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
