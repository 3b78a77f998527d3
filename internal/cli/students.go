package cli

import (
	"context"

	"github.com/avoronov/peopledesk/internal/people"
)

func (a *App) AddStudent(ctx context.Context) error {
	if !a.requireAdmin() {
		return nil
	}

	s := &people.Student{}
	var err error
	if s.Name, err = ReadLine(a.reader, "Name", a.out); err != nil {
		return err
	}
	if s.Surname, err = ReadLine(a.reader, "Surname", a.out); err != nil {
		return err
	}
	if s.Age, err = ReadInt(a.reader, "Age", a.out, 0); err != nil {
		a.printf("%s", err)
		return nil
	}
	if s.University, err = ReadLine(a.reader, "University", a.out); err != nil {
		return err
	}
	if s.Year, err = ReadInt(a.reader, "Study year", a.out, 1); err != nil {
		a.printf("%s", err)
		return nil
	}

	saved, err := a.students.Create(ctx, s).Result()
	if err != nil {
		a.reportError("Could not add student", err)
		return nil
	}
	a.printf("Added student #%d", saved.ID)
	return nil
}

func (a *App) ListStudents(ctx context.Context) error {
	page, err := ReadInt(a.reader, "Page", a.out, 0)
	if err != nil {
		a.printf("%s", err)
		return nil
	}

	list, err := a.students.FindPage(ctx, page, 20, "surname", true).Result()
	if err != nil {
		a.reportError("Could not list students", err)
		return nil
	}
	if len(list) == 0 {
		a.printf("No students on page %d", page)
		return nil
	}
	for _, s := range list {
		a.printf("#%d %s %s age=%d university=%s year=%d", s.ID, s.Name, s.Surname, s.Age, s.University, s.Year)
	}
	return nil
}

func (a *App) DeleteStudent(ctx context.Context) error {
	if !a.requireAdmin() {
		return nil
	}

	id, err := ReadInt(a.reader, "Student id", a.out, 0)
	if err != nil {
		a.printf("%s", err)
		return nil
	}

	deleted, err := a.students.DeleteByID(ctx, int64(id)).Result()
	if err != nil {
		a.reportError("Could not delete student", err)
		return nil
	}
	if deleted {
		a.printf("Deleted student #%d", id)
	} else {
		a.printf("No student with id %d", id)
	}
	return nil
}
