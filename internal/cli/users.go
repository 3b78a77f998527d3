package cli

import (
	"context"

	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/roles"
)

// AddUser creates an account with a forced password change, so the password
// typed by the admin is only good for the first login.
func (a *App) AddUser(ctx context.Context) error {
	if !a.requireAdmin() {
		return nil
	}

	username, err := ReadLine(a.reader, "New username", a.out)
	if err != nil {
		return err
	}
	password, err := ReadPassword("Initial password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	account, err := a.accounts.CreateAccount(ctx, username, password, true, true).Result()
	if err != nil {
		a.reportError("Could not create user", err)
		return nil
	}

	if _, err := a.accounts.AssignRole(ctx, username, roles.User).Result(); err != nil {
		a.reportError("Could not assign default role", err)
		return nil
	}

	a.printf("Created user %s (#%d), password change required on first login", account.Username, account.ID)
	return nil
}

func (a *App) GrantRole(ctx context.Context) error {
	if !a.requireAdmin() {
		return nil
	}

	username, err := ReadLine(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	role, err := ReadLine(a.reader, "Role", a.out)
	if err != nil {
		return err
	}

	if _, err := a.accounts.AssignRole(ctx, username, role).Result(); err != nil {
		a.reportError("Could not grant role", err)
		return nil
	}
	a.printf("Granted %s to %s", role, username)
	return nil
}
