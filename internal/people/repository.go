package people

import "context"

// Repository is the persistence contract shared by all person kinds. Every
// implementation keeps a stable listing order: results are sorted by the
// requested column with id as the tie-breaker, so paging never skips or
// repeats rows.
type Repository[T Entity] interface {
	Save(ctx context.Context, entity T) (T, error)
	FindByID(ctx context.Context, id int64) (T, error)
	FindAll(ctx context.Context) ([]T, error)
	FindPage(ctx context.Context, page, size int, sortBy string, asc bool) ([]T, error)
	Update(ctx context.Context, entity T) (T, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}
