package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avoronov/peopledesk/internal/common"
)

// uniqueViolation is the postgres SQLSTATE for duplicate key errors.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindIDByName(ctx context.Context, name string) (int64, error) {
	query := `SELECT id FROM roles WHERE name = $1`

	var id int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("find role %q: %w", name, err)
	}

	return id, nil
}

// FindOrCreate looks the role up first and inserts it on a miss. When the
// insert loses a race with a concurrent creator, the unique violation is
// swallowed and the existing row is re-queried.
func (r *PostgresRepository) FindOrCreate(ctx context.Context, name string) (int64, error) {
	id, err := r.FindIDByName(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return 0, err
	}

	query := `INSERT INTO roles (name) VALUES ($1) RETURNING id`

	err = r.db.QueryRowContext(ctx, query, name).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return r.FindIDByName(ctx, name)
		}
		return 0, fmt.Errorf("create role %q: %w", name, err)
	}

	return id, nil
}
