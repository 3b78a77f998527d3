// Package session holds the currently authenticated principal for the
// process. The holder is constructed once at startup and passed to the
// components that need it; there is no hidden package-level instance.
package session

import "sync/atomic"

// User is the public projection of a credential record: username and role
// names only, never password material.
type User struct {
	Username string
	Roles    []string
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Context is the process-wide session holder: at most one user at a time,
// empty at startup, set on login, cleared on logout. The user reference is
// swapped atomically, so worker goroutines never observe a half-updated
// record, and every read sees the latest write.
type Context struct {
	current atomic.Pointer[User]
}

func NewContext() *Context {
	return &Context{}
}

// Set installs the user as the current principal.
func (c *Context) Set(u *User) {
	c.current.Store(u)
}

// Clear removes the current principal.
func (c *Context) Clear() {
	c.current.Store(nil)
}

// CurrentUser returns the current principal, or nil when unauthenticated.
func (c *Context) CurrentUser() *User {
	return c.current.Load()
}

// HasRole reports whether the current principal carries the named role.
// False when no user is set.
func (c *Context) HasRole(name string) bool {
	u := c.current.Load()
	if u == nil {
		return false
	}
	return u.HasRole(name)
}

// CurrentUsernameOrSystem returns the logged-in username, or "system" when
// unauthenticated, so audit and log lines always carry an actor.
func (c *Context) CurrentUsernameOrSystem() string {
	u := c.current.Load()
	if u == nil || u.Username == "" {
		return "system"
	}
	return u.Username
}
