package people

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avoronov/peopledesk/internal/audit"
	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/logging"
)

// Service runs CRUD operations for one person kind on the database pool and
// hands results back as futures. Mutations are validated, timestamped and
// audited; reads pass straight through to the repository.
type Service[T Entity] struct {
	kind    string
	repo    Repository[T]
	pools   *dispatch.Set
	auditor *audit.Recorder
	log     logging.Logger
	now     func() time.Time
}

func NewService[T Entity](kind string, repo Repository[T], pools *dispatch.Set,
	auditor *audit.Recorder, log logging.Logger) *Service[T] {
	return &Service[T]{
		kind:    kind,
		repo:    repo,
		pools:   pools,
		auditor: auditor,
		log:     log,
		now:     time.Now,
	}
}

// storageErr keeps the repository failure readable while staying matchable
// as a storage error.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, common.ErrStorage)
}

func (s *Service[T]) wrap(op string, err error) error {
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) {
		return err
	}
	return storageErr(op, err)
}

func (s *Service[T]) action(verb string) string {
	return verb + "_" + strings.ToUpper(s.kind)
}

func (s *Service[T]) target(id int64) string {
	return fmt.Sprintf("%s:%d", s.kind, id)
}

func (s *Service[T]) Create(ctx context.Context, entity T) *dispatch.Future[T] {
	return dispatch.Submit(s.pools.DB, func() (T, error) {
		var zero T
		if err := entity.Validate(); err != nil {
			return zero, err
		}
		entity.Stamp(s.now(), true)

		saved, err := s.repo.Save(ctx, entity)
		if err != nil {
			s.log.Error(ctx, "create failed", "kind", s.kind, "error", err)
			return zero, s.wrap("create "+s.kind, err)
		}

		s.log.Info(ctx, "created", "kind", s.kind, "id", saved.EntityID())
		s.auditor.Record(ctx, s.action("CREATE"), s.target(saved.EntityID()), saved.Describe())
		return saved, nil
	})
}

func (s *Service[T]) FindByID(ctx context.Context, id int64) *dispatch.Future[T] {
	return dispatch.Submit(s.pools.DB, func() (T, error) {
		entity, err := s.repo.FindByID(ctx, id)
		if err != nil {
			var zero T
			return zero, s.wrap("find "+s.kind, err)
		}
		return entity, nil
	})
}

func (s *Service[T]) FindAll(ctx context.Context) *dispatch.Future[[]T] {
	return dispatch.Submit(s.pools.DB, func() ([]T, error) {
		list, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, s.wrap("list "+s.kind, err)
		}
		return list, nil
	})
}

func (s *Service[T]) FindPage(ctx context.Context, page, size int, sortBy string, asc bool) *dispatch.Future[[]T] {
	return dispatch.Submit(s.pools.DB, func() ([]T, error) {
		list, err := s.repo.FindPage(ctx, page, size, sortBy, asc)
		if err != nil {
			return nil, s.wrap("page "+s.kind, err)
		}
		return list, nil
	})
}

func (s *Service[T]) Update(ctx context.Context, entity T) *dispatch.Future[T] {
	return dispatch.Submit(s.pools.DB, func() (T, error) {
		var zero T
		if entity.EntityID() == 0 {
			return zero, fmt.Errorf("id is required for update: %w", common.ErrValidation)
		}
		if err := entity.Validate(); err != nil {
			return zero, err
		}
		entity.Stamp(s.now(), false)

		updated, err := s.repo.Update(ctx, entity)
		if err != nil {
			s.log.Error(ctx, "update failed", "kind", s.kind, "id", entity.EntityID(), "error", err)
			return zero, s.wrap("update "+s.kind, err)
		}

		s.log.Info(ctx, "updated", "kind", s.kind, "id", updated.EntityID())
		s.auditor.Record(ctx, s.action("UPDATE"), s.target(updated.EntityID()), updated.Describe())
		return updated, nil
	})
}

func (s *Service[T]) DeleteByID(ctx context.Context, id int64) *dispatch.Future[bool] {
	return dispatch.Submit(s.pools.DB, func() (bool, error) {
		deleted, err := s.repo.DeleteByID(ctx, id)
		if err != nil {
			s.log.Error(ctx, "delete failed", "kind", s.kind, "id", id, "error", err)
			return false, s.wrap("delete "+s.kind, err)
		}

		s.log.Info(ctx, "deleted", "kind", s.kind, "id", id, "existed", deleted)
		s.auditor.Record(ctx, s.action("DELETE"), s.target(id), fmt.Sprintf("deleted=%t", deleted))
		return deleted, nil
	})
}

func (s *Service[T]) Count(ctx context.Context) *dispatch.Future[int64] {
	return dispatch.Submit(s.pools.DB, func() (int64, error) {
		n, err := s.repo.Count(ctx)
		if err != nil {
			return 0, s.wrap("count "+s.kind, err)
		}
		return n, nil
	})
}
