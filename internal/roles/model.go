// Package roles persists the role catalog. Role names are immutable once
// created; lookup-or-create tolerates the benign race when several callers
// bootstrap the same well-known roles at startup.
package roles

// Role is a named authorization group assignable to accounts.
type Role struct {
	ID   int64
	Name string
}

// Well-known role names ensured at bootstrap.
const (
	Admin = "ROLE_ADMIN"
	User  = "ROLE_USER"
)
