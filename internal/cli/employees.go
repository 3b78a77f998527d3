package cli

import (
	"context"
	"errors"

	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/people"
	"github.com/avoronov/peopledesk/internal/roles"
)

// requireAdmin gates mutating commands behind the admin role.
func (a *App) requireAdmin() bool {
	if !a.sess.HasRole(roles.Admin) {
		a.printf("Permission denied: %s required", roles.Admin)
		return false
	}
	return true
}

func (a *App) AddEmployee(ctx context.Context) error {
	if !a.requireAdmin() {
		return nil
	}

	e := &people.Employee{}
	var err error
	if e.Name, err = ReadLine(a.reader, "Name", a.out); err != nil {
		return err
	}
	if e.Surname, err = ReadLine(a.reader, "Surname", a.out); err != nil {
		return err
	}
	if e.Age, err = ReadInt(a.reader, "Age", a.out, 0); err != nil {
		a.printf("%s", err)
		return nil
	}
	if e.Position, err = ReadLine(a.reader, "Position", a.out); err != nil {
		return err
	}
	if e.Salary, err = ReadFloat(a.reader, "Salary", a.out); err != nil {
		a.printf("%s", err)
		return nil
	}

	saved, err := a.employees.Create(ctx, e).Result()
	if err != nil {
		a.reportError("Could not add employee", err)
		return nil
	}
	a.printf("Added employee #%d", saved.ID)
	return nil
}

func (a *App) ListEmployees(ctx context.Context) error {
	page, err := ReadInt(a.reader, "Page", a.out, 0)
	if err != nil {
		a.printf("%s", err)
		return nil
	}

	list, err := a.employees.FindPage(ctx, page, 20, "surname", true).Result()
	if err != nil {
		a.reportError("Could not list employees", err)
		return nil
	}
	if len(list) == 0 {
		a.printf("No employees on page %d", page)
		return nil
	}
	for _, e := range list {
		a.printf("#%d %s %s age=%d position=%s salary=%.2f", e.ID, e.Name, e.Surname, e.Age, e.Position, e.Salary)
	}
	return nil
}

func (a *App) UpdateEmployee(ctx context.Context) error {
	if !a.requireAdmin() {
		return nil
	}

	id, err := ReadInt(a.reader, "Employee id", a.out, 0)
	if err != nil {
		a.printf("%s", err)
		return nil
	}

	e, err := a.employees.FindByID(ctx, int64(id)).Result()
	if err != nil {
		a.reportError("Could not load employee", err)
		return nil
	}

	if name, err := ReadLine(a.reader, "Name ["+e.Name+"]", a.out); err != nil {
		return err
	} else if name != "" {
		e.Name = name
	}
	if surname, err := ReadLine(a.reader, "Surname ["+e.Surname+"]", a.out); err != nil {
		return err
	} else if surname != "" {
		e.Surname = surname
	}
	if age, err := ReadInt(a.reader, "Age", a.out, e.Age); err != nil {
		a.printf("%s", err)
		return nil
	} else {
		e.Age = age
	}
	if position, err := ReadLine(a.reader, "Position ["+e.Position+"]", a.out); err != nil {
		return err
	} else if position != "" {
		e.Position = position
	}
	if salary, err := ReadFloat(a.reader, "Salary", a.out); err != nil {
		a.printf("%s", err)
		return nil
	} else if salary != 0 {
		e.Salary = salary
	}

	if _, err := a.employees.Update(ctx, e).Result(); err != nil {
		a.reportError("Could not update employee", err)
		return nil
	}
	a.printf("Updated employee #%d", e.ID)
	return nil
}

func (a *App) DeleteEmployee(ctx context.Context) error {
	if !a.requireAdmin() {
		return nil
	}

	id, err := ReadInt(a.reader, "Employee id", a.out, 0)
	if err != nil {
		a.printf("%s", err)
		return nil
	}

	deleted, err := a.employees.DeleteByID(ctx, int64(id)).Result()
	if err != nil {
		a.reportError("Could not delete employee", err)
		return nil
	}
	if deleted {
		a.printf("Deleted employee #%d", id)
	} else {
		a.printf("No employee with id %d", id)
	}
	return nil
}

func (a *App) reportError(prefix string, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		a.printf("%s: %s", prefix, trimSentinel(err))
	case errors.Is(err, common.ErrNotFound):
		a.printf("%s: not found", prefix)
	default:
		a.printf("%s, try again later", prefix)
	}
}
