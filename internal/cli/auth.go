package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/avoronov/peopledesk/internal/common"
)

// Login asks for credentials and establishes a session. When the account is
// flagged for a password change, the change dialog runs before any session
// exists, and the new password is used to log in.
func (a *App) Login(ctx context.Context) error {
	username, err := ReadLine(a.reader, "Username", a.out)
	if err != nil {
		return err
	}

	password, err := ReadPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	// The login dialog is modal, so waiting on the future here is fine.
	outcome, err := a.auth.Login(ctx, username, password).Result()
	if err != nil {
		if errors.Is(err, common.ErrStorage) {
			a.printf("Login unavailable, try again later")
		} else {
			a.printf("Login failed")
		}
		return err
	}
	if !outcome.Success {
		a.printf("Login failed")
		return nil
	}
	if outcome.RequiresPasswordChange {
		a.printf("Your password has expired and must be changed")
		return a.changePassword(ctx, username)
	}

	a.printf("Welcome, %s", username)
	return nil
}

func (a *App) changePassword(ctx context.Context, username string) error {
	newPassword, err := ReadPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	confirm, err := ReadPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	outcome, err := a.auth.CompletePasswordChange(ctx, username, newPassword, confirm).Result()
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			a.printf("Password rejected: %s", trimSentinel(err))
		} else {
			a.printf("Password change failed")
		}
		return err
	}
	if outcome.Success {
		a.printf("Password changed, welcome %s", username)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in")
		return nil
	}
	a.auth.Logout(ctx)
	a.printf("Logged out")
	return nil
}

func (a *App) Whoami(_ context.Context) error {
	u := a.sess.CurrentUser()
	if u == nil {
		a.printf("Not logged in")
		return nil
	}
	a.printf("%s roles=%s", u.Username, strings.Join(u.Roles, ","))
	return nil
}

// trimSentinel drops the wrapped sentinel suffix so users see only the
// human-readable part of a validation message.
func trimSentinel(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ":"); i > 0 {
		return msg[:i]
	}
	return msg
}
