package people

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avoronov/peopledesk/internal/common"
)

// All person kinds share the persons table. Employees are the rows with a
// salary, students the rows with a university; the plain persons repository
// sees everything.

const personColumns = `id, name, surname, age, date_of_birth, start_date, salary, position, university, study_year, created_at, updated_at`

var baseSortColumns = map[string]struct{}{
	"id":            {},
	"name":          {},
	"surname":       {},
	"age":           {},
	"date_of_birth": {},
	"start_date":    {},
	"created_at":    {},
	"updated_at":    {},
}

// orderClause builds a deterministic ORDER BY. Unknown sort columns fall
// back to id, and id is always appended as a tie-breaker so equal keys keep
// a stable order across pages.
func orderClause(sortBy string, asc bool, extra ...string) string {
	col := "id"
	if _, ok := baseSortColumns[sortBy]; ok {
		col = sortBy
	}
	for _, e := range extra {
		if sortBy == e {
			col = e
		}
	}
	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	if col == "id" {
		return fmt.Sprintf("ORDER BY id %s", dir)
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", col, dir)
}

func pageOffset(page, size int) (int, int, error) {
	if page < 0 || size <= 0 {
		return 0, 0, fmt.Errorf("page must be non-negative and size positive: %w", common.ErrValidation)
	}
	return size, page * size, nil
}

type scanner interface {
	Scan(dest ...any) error
}

type personRow struct {
	id          int64
	name        string
	surname     string
	age         sql.NullInt64
	dateOfBirth sql.NullTime
	startDate   sql.NullTime
	salary      sql.NullFloat64
	position    sql.NullString
	university  sql.NullString
	year        sql.NullInt64
	createdAt   sql.NullTime
	updatedAt   sql.NullTime
}

func scanPersonRow(s scanner) (personRow, error) {
	var r personRow
	err := s.Scan(&r.id, &r.name, &r.surname, &r.age, &r.dateOfBirth, &r.startDate,
		&r.salary, &r.position, &r.university, &r.year, &r.createdAt, &r.updatedAt)
	return r, err
}

func (r personRow) person() Person {
	return Person{
		ID:          r.id,
		Name:        r.name,
		Surname:     r.surname,
		Age:         int(r.age.Int64),
		DateOfBirth: r.dateOfBirth.Time,
		StartDate:   r.startDate.Time,
		CreatedAt:   r.createdAt.Time,
		UpdatedAt:   r.updatedAt.Time,
	}
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// --- persons ---

type PostgresPersons struct {
	db *sql.DB
}

func NewPostgresPersons(db *sql.DB) *PostgresPersons {
	return &PostgresPersons{db: db}
}

func (r *PostgresPersons) Save(ctx context.Context, p *Person) (*Person, error) {
	query := `INSERT INTO persons (name, surname, age, date_of_birth, start_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, p.Name, p.Surname, p.Age,
		nullDate(p.DateOfBirth), nullDate(p.StartDate), p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("save person: %w", err)
	}
	return p, nil
}

func (r *PostgresPersons) FindByID(ctx context.Context, id int64) (*Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1`

	row, err := scanPersonRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("find person %d: %w", id, err)
	}
	p := row.person()
	return &p, nil
}

func (r *PostgresPersons) FindAll(ctx context.Context) ([]*Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons ORDER BY id ASC`
	return r.queryPersons(ctx, query)
}

func (r *PostgresPersons) FindPage(ctx context.Context, page, size int, sortBy string, asc bool) ([]*Person, error) {
	limit, offset, err := pageOffset(page, size)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM persons %s LIMIT $1 OFFSET $2`,
		personColumns, orderClause(sortBy, asc))
	return r.queryPersons(ctx, query, limit, offset)
}

func (r *PostgresPersons) queryPersons(ctx context.Context, query string, args ...any) ([]*Person, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var result []*Person
	for rows.Next() {
		row, err := scanPersonRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		p := row.person()
		result = append(result, &p)
	}
	return result, rows.Err()
}

func (r *PostgresPersons) Update(ctx context.Context, p *Person) (*Person, error) {
	query := `UPDATE persons SET name = $1, surname = $2, age = $3, date_of_birth = $4,
		start_date = $5, updated_at = $6 WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query, p.Name, p.Surname, p.Age,
		nullDate(p.DateOfBirth), nullDate(p.StartDate), p.UpdatedAt, p.ID)
	if err != nil {
		return nil, fmt.Errorf("update person %d: %w", p.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (r *PostgresPersons) DeleteByID(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, id)
}

func (r *PostgresPersons) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM persons`)
}

// --- employees ---

type PostgresEmployees struct {
	db *sql.DB
}

func NewPostgresEmployees(db *sql.DB) *PostgresEmployees {
	return &PostgresEmployees{db: db}
}

func (r *PostgresEmployees) Save(ctx context.Context, e *Employee) (*Employee, error) {
	query := `INSERT INTO persons (name, surname, age, date_of_birth, start_date, salary, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, e.Name, e.Surname, e.Age,
		nullDate(e.DateOfBirth), nullDate(e.StartDate), e.Salary, e.Position,
		e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("save employee: %w", err)
	}
	return e, nil
}

func (r *PostgresEmployees) FindByID(ctx context.Context, id int64) (*Employee, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1 AND salary IS NOT NULL`

	row, err := scanPersonRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("find employee %d: %w", id, err)
	}
	return employeeFromRow(row), nil
}

func (r *PostgresEmployees) FindAll(ctx context.Context) ([]*Employee, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE salary IS NOT NULL ORDER BY id ASC`
	return r.queryEmployees(ctx, query)
}

func (r *PostgresEmployees) FindPage(ctx context.Context, page, size int, sortBy string, asc bool) ([]*Employee, error) {
	limit, offset, err := pageOffset(page, size)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE salary IS NOT NULL %s LIMIT $1 OFFSET $2`,
		personColumns, orderClause(sortBy, asc, "salary", "position"))
	return r.queryEmployees(ctx, query, limit, offset)
}

func (r *PostgresEmployees) queryEmployees(ctx context.Context, query string, args ...any) ([]*Employee, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var result []*Employee
	for rows.Next() {
		row, err := scanPersonRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		result = append(result, employeeFromRow(row))
	}
	return result, rows.Err()
}

func (r *PostgresEmployees) Update(ctx context.Context, e *Employee) (*Employee, error) {
	query := `UPDATE persons SET name = $1, surname = $2, age = $3, date_of_birth = $4,
		start_date = $5, salary = $6, position = $7, updated_at = $8 WHERE id = $9 AND salary IS NOT NULL`

	res, err := r.db.ExecContext(ctx, query, e.Name, e.Surname, e.Age,
		nullDate(e.DateOfBirth), nullDate(e.StartDate), e.Salary, e.Position, e.UpdatedAt, e.ID)
	if err != nil {
		return nil, fmt.Errorf("update employee %d: %w", e.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.ErrNotFound
	}
	return e, nil
}

func (r *PostgresEmployees) DeleteByID(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, id)
}

func (r *PostgresEmployees) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM persons WHERE salary IS NOT NULL`)
}

func employeeFromRow(row personRow) *Employee {
	return &Employee{
		Person:   row.person(),
		Salary:   row.salary.Float64,
		Position: row.position.String,
	}
}

// --- students ---

type PostgresStudents struct {
	db *sql.DB
}

func NewPostgresStudents(db *sql.DB) *PostgresStudents {
	return &PostgresStudents{db: db}
}

func (r *PostgresStudents) Save(ctx context.Context, s *Student) (*Student, error) {
	query := `INSERT INTO persons (name, surname, age, date_of_birth, start_date, university, study_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, s.Name, s.Surname, s.Age,
		nullDate(s.DateOfBirth), nullDate(s.StartDate), s.University, s.Year,
		s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("save student: %w", err)
	}
	return s, nil
}

func (r *PostgresStudents) FindByID(ctx context.Context, id int64) (*Student, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1 AND university IS NOT NULL`

	row, err := scanPersonRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("find student %d: %w", id, err)
	}
	return studentFromRow(row), nil
}

func (r *PostgresStudents) FindAll(ctx context.Context) ([]*Student, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE university IS NOT NULL ORDER BY id ASC`
	return r.queryStudents(ctx, query)
}

func (r *PostgresStudents) FindPage(ctx context.Context, page, size int, sortBy string, asc bool) ([]*Student, error) {
	limit, offset, err := pageOffset(page, size)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE university IS NOT NULL %s LIMIT $1 OFFSET $2`,
		personColumns, orderClause(sortBy, asc, "university", "study_year"))
	return r.queryStudents(ctx, query, limit, offset)
}

func (r *PostgresStudents) queryStudents(ctx context.Context, query string, args ...any) ([]*Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var result []*Student
	for rows.Next() {
		row, err := scanPersonRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		result = append(result, studentFromRow(row))
	}
	return result, rows.Err()
}

func (r *PostgresStudents) Update(ctx context.Context, s *Student) (*Student, error) {
	query := `UPDATE persons SET name = $1, surname = $2, age = $3, date_of_birth = $4,
		start_date = $5, university = $6, study_year = $7, updated_at = $8 WHERE id = $9 AND university IS NOT NULL`

	res, err := r.db.ExecContext(ctx, query, s.Name, s.Surname, s.Age,
		nullDate(s.DateOfBirth), nullDate(s.StartDate), s.University, s.Year, s.UpdatedAt, s.ID)
	if err != nil {
		return nil, fmt.Errorf("update student %d: %w", s.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.ErrNotFound
	}
	return s, nil
}

func (r *PostgresStudents) DeleteByID(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, id)
}

func (r *PostgresStudents) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM persons WHERE university IS NOT NULL`)
}

func studentFromRow(row personRow) *Student {
	return &Student{
		Person:     row.person(),
		University: row.university.String,
		Year:       int(row.year.Int64),
	}
}

// --- shared ---

func deleteByID(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete person %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete person %d: %w", id, err)
	}
	return n > 0, nil
}

func countRows(ctx context.Context, db *sql.DB, query string) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return n, nil
}
