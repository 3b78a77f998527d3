package storage

import (
	"context"
	"database/sql"

	"github.com/avoronov/peopledesk/internal/accounts"
	"github.com/avoronov/peopledesk/internal/people"
	"github.com/avoronov/peopledesk/internal/roles"
	"github.com/avoronov/peopledesk/internal/stats"
)

// Manager hands out one repository per aggregate over a shared connection.
type Manager interface {
	RunMigrations(ctx context.Context) error
	Accounts() accounts.Repository
	Roles() roles.Repository
	Persons() people.Repository[*people.Person]
	Employees() people.Repository[*people.Employee]
	Students() people.Repository[*people.Student]
	Stats() stats.Repository
	Conn() *sql.DB
	Close() error
}
