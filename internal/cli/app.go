// Package cli implements the interactive console for peopledesk: login with
// forced password rotation, role-gated person management and statistics.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/avoronov/peopledesk/internal/accounts"
	"github.com/avoronov/peopledesk/internal/auth"
	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/people"
	"github.com/avoronov/peopledesk/internal/session"
	"github.com/avoronov/peopledesk/internal/stats"
)

type App struct {
	auth      *auth.Service
	sess      *session.Context
	accounts  *accounts.Service
	persons   *people.Service[*people.Person]
	employees *people.Service[*people.Employee]
	students  *people.Service[*people.Student]
	stats     *stats.Service
	ui        *dispatch.Pool
	reader    *bufio.Reader
	out       io.Writer
}

func NewApp(authSvc *auth.Service, sess *session.Context, accountSvc *accounts.Service,
	persons *people.Service[*people.Person], employees *people.Service[*people.Employee],
	students *people.Service[*people.Student], statsSvc *stats.Service,
	pools *dispatch.Set) *App {
	return &App{
		auth:      authSvc,
		sess:      sess,
		accounts:  accountSvc,
		persons:   persons,
		employees: employees,
		students:  students,
		stats:     statsSvc,
		ui:        pools.Interactive,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.sess.CurrentUser() != nil
}

func (a *App) status() string {
	if u := a.sess.CurrentUser(); u != nil {
		return fmt.Sprintf("(%s)", u.Username)
	}
	return ""
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}
