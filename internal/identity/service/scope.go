package service

import (
	"strings"

	"github.com/jb-labs/identity/internal/identity/domain"
)

// RolePrefix marks role entries in a token scope so they are
// distinguishable from permission names.
const RolePrefix = "ROLE_"

// BuildScope flattens a user's role memberships into the space-delimited
// scope claim: each role contributes "ROLE_<name>" followed by the names of
// its granted permissions. An empty membership yields an empty scope.
func BuildScope(roles []domain.Role) string {
	var parts []string
	for _, role := range roles {
		parts = append(parts, RolePrefix+role.Name)
		for _, perm := range role.Permissions {
			parts = append(parts, perm.Name)
		}
	}
	return strings.Join(parts, " ")
}
