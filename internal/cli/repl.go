package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avoronov/peopledesk/internal/dispatch"
)

// executor is the command surface the REPL dispatches to. App satisfies it;
// tests use a stub.
type executor interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	AddUser(ctx context.Context) error
	GrantRole(ctx context.Context) error
	AddEmployee(ctx context.Context) error
	ListEmployees(ctx context.Context) error
	UpdateEmployee(ctx context.Context) error
	DeleteEmployee(ctx context.Context) error
	AddStudent(ctx context.Context) error
	ListStudents(ctx context.Context) error
	DeleteStudent(ctx context.Context) error
	Counts(ctx context.Context) error
	AgeStats(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them. Each handler
// runs as a task on the interactive pool, the console's stand-in for a UI
// event thread; the reader goroutine only prompts again once the task is
// done. Handler errors are swallowed here; commands report their own
// failures to the user. The loop ends on EOF, context cancellation, or
// "exit".
func runREPL(ctx context.Context, a executor, statusFn func() string, ui *dispatch.Pool, scanner *bufio.Scanner, w io.Writer) {
	run := func(fn func(context.Context) error) {
		_, _ = dispatch.Submit(ui, func() (struct{}, error) {
			return struct{}{}, fn(ctx)
		}).Result()
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Fprintf(w, "pd %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Commands: whoami, adduser, grantrole, addemp, listemp, updemp, delemp, addstu, liststu, delstu, count, stats, logout, exit")
			} else {
				fmt.Fprintln(w, "Commands: login, exit")
			}
		case "login":
			run(a.Login)
		case "logout":
			run(a.Logout)
		case "whoami":
			run(a.Whoami)
		case "adduser":
			run(a.AddUser)
		case "grantrole":
			run(a.GrantRole)
		case "addemp":
			run(a.AddEmployee)
		case "listemp":
			run(a.ListEmployees)
		case "updemp":
			run(a.UpdateEmployee)
		case "delemp":
			run(a.DeleteEmployee)
		case "addstu":
			run(a.AddStudent)
		case "liststu":
			run(a.ListStudents)
		case "delstu":
			run(a.DeleteStudent)
		case "count":
			run(a.Counts)
		case "stats":
			run(a.AgeStats)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", parts[0])
		}
	}
}

// Run starts the interactive loop on stdin.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "peopledesk console (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, a.ui, scanner, a.out)
}
