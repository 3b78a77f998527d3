package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/avoronov/peopledesk/internal/accounts"
	"github.com/avoronov/peopledesk/internal/migrations"
	"github.com/avoronov/peopledesk/internal/people"
	"github.com/avoronov/peopledesk/internal/roles"
	"github.com/avoronov/peopledesk/internal/stats"
)

type PostgresManager struct {
	db        *sql.DB
	accounts  accounts.Repository
	roles     roles.Repository
	persons   people.Repository[*people.Person]
	employees people.Repository[*people.Employee]
	students  people.Repository[*people.Student]
	stats     stats.Repository
}

func NewPostgresManager(ctx context.Context, dsn string) (*PostgresManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := &PostgresManager{
		db:        db,
		accounts:  accounts.NewPostgresRepository(db),
		roles:     roles.NewPostgresRepository(db),
		persons:   people.NewPostgresPersons(db),
		employees: people.NewPostgresEmployees(db),
		students:  people.NewPostgresStudents(db),
		stats:     stats.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

func (m *PostgresManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return goose.UpContext(ctx, m.db, ".")
}

func (m *PostgresManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *PostgresManager) Roles() roles.Repository {
	return m.roles
}

func (m *PostgresManager) Persons() people.Repository[*people.Person] {
	return m.persons
}

func (m *PostgresManager) Employees() people.Repository[*people.Employee] {
	return m.employees
}

func (m *PostgresManager) Students() people.Repository[*people.Student] {
	return m.students
}

func (m *PostgresManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresManager) Stats() stats.Repository {
	return m.stats
}

func (m *PostgresManager) Close() error {
	return m.db.Close()
}
