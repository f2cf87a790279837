package models

import "time"

// User is a stored account.
//
// PasswordHash is a bcrypt hash and never leaves the service layer.
// PhoneNumber is nil when the user gave none; LastLogin is nil until the
// first successful login.
type User struct {
	ID                    int64
	UserName              string
	Email                 string
	PasswordHash          []byte
	FirstName             string
	LastName              string
	PhoneNumber           *string
	Role                  Role
	Enabled               bool
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
	LastLogin             *time.Time
}

// NewUser returns an enabled USER account with every account flag set.
func NewUser(userName, email string, passwordHash []byte) *User {
	return &User{
		UserName:              userName,
		Email:                 email,
		PasswordHash:          passwordHash,
		Role:                  RoleUser,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
}

// CanLogin reports whether the account state allows authentication.
func (u *User) CanLogin() bool {
	return u.Enabled && u.AccountNonExpired && u.AccountNonLocked && u.CredentialsNonExpired
}

// Authorities derives the authority set from the user's role.
func (u *User) Authorities() AuthoritySet {
	return u.Role.Authorities()
}

// Principal is an authenticated identity attached to a request.
type Principal struct {
	User        *User
	Authorities AuthoritySet
}

// NewPrincipal builds a Principal for u.
func NewPrincipal(u *User) *Principal {
	return &Principal{User: u, Authorities: u.Authorities()}
}

// HasAnyRole reports whether the principal holds one of roles.
func (p *Principal) HasAnyRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	return p.Authorities.HasAnyRole(roles...)
}
