// Package common defines shared sentinel errors and small helpers used
// across peopledesk components. Callers should use errors.Is to match the
// error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Persistence failures (connectivity, constraint violations). Wrapped
	// with the failing operation name before being surfaced.
	ErrStorage = errors.New("storage error")

	// Bad credentials. Deliberately covers unknown user, disabled account
	// and wrong password alike so callers cannot enumerate accounts.
	ErrUnauthorized = errors.New("unauthorized")

	// Input errors: blank required field, password policy violation.
	ErrValidation = errors.New("validation error")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
)
