package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userauth/internal/common"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// AuthorityPrefix is prepended to a role name to form its authority.
const AuthorityPrefix = "ROLE_"

// Roles lists every defined role.
func Roles() []Role {
	return []Role{RoleUser, RoleModerator, RoleAdmin}
}

// ParseRole parses a role name case-insensitively. An unknown name yields
// an error wrapping common.ErrorValidation.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q, want one of %v", common.ErrorValidation, s, Roles())
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Authority returns "ROLE_" + role.
func (r Role) Authority() string {
	return AuthorityPrefix + string(r)
}

// Authorities returns the single-element authority set of r.
func (r Role) Authorities() AuthoritySet {
	return AuthoritySet{r.Authority()}
}

// AuthoritySet is the list of granted authority strings.
type AuthoritySet []string

func (s AuthoritySet) Contains(authority string) bool {
	for _, a := range s {
		if a == authority {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the set grants the authority of any of roles.
func (s AuthoritySet) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if s.Contains(r.Authority()) {
			return true
		}
	}
	return false
}
