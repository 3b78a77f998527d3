package cli

import (
	"context"
	"sort"
)

func (a *App) Counts(ctx context.Context) error {
	persons := a.persons.Count(ctx)
	employees := a.employees.Count(ctx)
	students := a.students.Count(ctx)

	np, err := persons.Result()
	if err != nil {
		a.reportError("Could not count persons", err)
		return nil
	}
	ne, err := employees.Result()
	if err != nil {
		a.reportError("Could not count employees", err)
		return nil
	}
	ns, err := students.Result()
	if err != nil {
		a.reportError("Could not count students", err)
		return nil
	}

	a.printf("total=%d employees=%d students=%d", np, ne, ns)
	return nil
}

func (a *App) AgeStats(ctx context.Context) error {
	dist, err := a.stats.AgeDistribution(ctx).Result()
	if err != nil {
		a.reportError("Could not load statistics", err)
		return nil
	}

	ages := make([]int, 0, len(dist.Persons))
	for age := range dist.Persons {
		ages = append(ages, age)
	}
	sort.Ints(ages)

	if len(ages) == 0 {
		a.printf("No data")
		return nil
	}
	for _, age := range ages {
		a.printf("age %3d: total=%d employees=%d students=%d",
			age, dist.Persons[age], dist.Employees[age], dist.Students[age])
	}
	return nil
}
