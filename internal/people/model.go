package people

import (
	"fmt"
	"strings"
	"time"

	"github.com/avoronov/peopledesk/internal/common"
)

// Person carries the fields shared by every tracked individual. Employee and
// Student embed it and add their own columns on top.
type Person struct {
	ID          int64
	Name        string
	Surname     string
	Age         int
	DateOfBirth time.Time
	StartDate   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Entity is what the generic service and repositories operate on.
type Entity interface {
	EntityID() int64
	SetEntityID(id int64)
	Validate() error
	Stamp(now time.Time, created bool)
	Describe() string
}

func (p *Person) EntityID() int64 {
	return p.ID
}

func (p *Person) SetEntityID(id int64) {
	p.ID = id
}

// Stamp refreshes the bookkeeping timestamps. Creation sets both.
func (p *Person) Stamp(now time.Time, created bool) {
	if created {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func (p *Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name cannot be blank: %w", common.ErrValidation)
	}
	if strings.TrimSpace(p.Surname) == "" {
		return fmt.Errorf("surname cannot be blank: %w", common.ErrValidation)
	}
	if p.Age < 0 || p.Age >= 150 {
		return fmt.Errorf("age must be between 0 and 149: %w", common.ErrValidation)
	}
	return nil
}

func (p *Person) Describe() string {
	return fmt.Sprintf("name=%s surname=%s", p.Name, p.Surname)
}

type Employee struct {
	Person
	Salary   float64
	Position string
}

func (e *Employee) Validate() error {
	if err := e.Person.Validate(); err != nil {
		return err
	}
	if e.Salary < 0 {
		return fmt.Errorf("salary must be non-negative: %w", common.ErrValidation)
	}
	return nil
}

func (e *Employee) Describe() string {
	return fmt.Sprintf("position=%s salary=%.2f", e.Position, e.Salary)
}

type Student struct {
	Person
	University string
	Year       int
}

func (s *Student) Validate() error {
	if err := s.Person.Validate(); err != nil {
		return err
	}
	if s.Year < 1 {
		return fmt.Errorf("study year must be at least 1: %w", common.ErrValidation)
	}
	return nil
}

func (s *Student) Describe() string {
	return fmt.Sprintf("university=%s year=%d", s.University, s.Year)
}
