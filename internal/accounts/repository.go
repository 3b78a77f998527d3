package accounts

import "context"

// Repository is the credential store. It does not cache: every call
// reflects persisted state at call time.
type Repository interface {
	// FindByUsername loads the record with its roles, or common.ErrNotFound.
	// Username matching is case-sensitive.
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// Save inserts the record and assigns its id.
	Save(ctx context.Context, account *Account) (*Account, error)

	// UpdatePassword atomically replaces hash, salt and the forced-change
	// flag, refreshing the updated timestamp. Unknown username yields
	// common.ErrNotFound.
	UpdatePassword(ctx context.Context, username string, newHash, newSalt []byte, mustChange bool) error

	// AssignRole links the role to the account. Assigning an already-held
	// role is a no-op.
	AssignRole(ctx context.Context, accountID, roleID int64) error
}
