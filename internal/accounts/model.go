// Package accounts persists credential records: username, salted password
// hash, flags and role assignments.
package accounts

import (
	"time"

	"github.com/avoronov/peopledesk/internal/roles"
)

// Account is one principal's credential record. PasswordHash and Salt
// lengths are fixed by the hashing scheme; an enabled account is never
// persisted without a password hash.
type Account struct {
	ID                 int64
	Username           string
	PasswordHash       []byte
	Salt               []byte
	Enabled            bool
	MustChangePassword bool
	Roles              []roles.Role
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasRole reports whether the account carries the named role.
func (a *Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the account's role names, for the session projection.
func (a *Account) RoleNames() []string {
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		names = append(names, r.Name)
	}
	return names
}
