package stats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/logging"
)

// AgeDistribution maps age to headcount, broken down per person kind. Ages
// outside the plausible 1..149 range are excluded from all three series.
type AgeDistribution struct {
	Persons   map[int]int64
	Employees map[int]int64
	Students  map[int]int64
}

type Repository interface {
	AgeDistribution(ctx context.Context) (*AgeDistribution, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// AgeDistribution aggregates in one pass over the persons table instead of
// loading every row and grouping in memory.
func (r *PostgresRepository) AgeDistribution(ctx context.Context) (*AgeDistribution, error) {
	query := `SELECT age,
		COUNT(*) AS persons,
		COUNT(*) FILTER (WHERE salary IS NOT NULL) AS employees,
		COUNT(*) FILTER (WHERE university IS NOT NULL) AS students
		FROM persons WHERE age > 0 AND age < 150 GROUP BY age ORDER BY age`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("age distribution: %w", err)
	}
	defer rows.Close()

	dist := &AgeDistribution{
		Persons:   map[int]int64{},
		Employees: map[int]int64{},
		Students:  map[int]int64{},
	}
	for rows.Next() {
		var age int
		var persons, employees, students int64
		if err := rows.Scan(&age, &persons, &employees, &students); err != nil {
			return nil, fmt.Errorf("scan age bucket: %w", err)
		}
		dist.Persons[age] = persons
		if employees > 0 {
			dist.Employees[age] = employees
		}
		if students > 0 {
			dist.Students[age] = students
		}
	}
	return dist, rows.Err()
}

// Service exposes the aggregation as a future so callers stay off the
// database path.
type Service struct {
	repo  Repository
	pools *dispatch.Set
	log   logging.Logger
}

func NewService(repo Repository, pools *dispatch.Set, log logging.Logger) *Service {
	return &Service{repo: repo, pools: pools, log: log}
}

func (s *Service) AgeDistribution(ctx context.Context) *dispatch.Future[*AgeDistribution] {
	return dispatch.Submit(s.pools.DB, func() (*AgeDistribution, error) {
		dist, err := s.repo.AgeDistribution(ctx)
		if err != nil {
			s.log.Error(ctx, "age distribution failed", "error", err)
			return nil, fmt.Errorf("age distribution: %v: %w", err, common.ErrStorage)
		}
		return dist, nil
	})
}
