package roles

import "context"

type Repository interface {
	// FindIDByName returns the role id, or common.ErrNotFound when the
	// name is unknown.
	FindIDByName(ctx context.Context, name string) (int64, error)

	// FindOrCreate returns the id of the named role, inserting it when
	// absent. A concurrent insert of the same name must not fail the call
	// or produce a duplicate row; the existing id is returned instead.
	FindOrCreate(ctx context.Context, name string) (int64, error)
}
