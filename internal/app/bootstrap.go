package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/avoronov/peopledesk/internal/accounts"
	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/config"
	"github.com/avoronov/peopledesk/internal/logging"
	"github.com/avoronov/peopledesk/internal/roles"
)

// Bootstrap makes sure the built-in roles exist and that there is an admin
// account to log in with on a fresh database. The admin is created with a
// forced password change so the configured bootstrap password cannot stay
// in use.
func Bootstrap(ctx context.Context, svc *accounts.Service, roleRepo roles.Repository,
	cfg *config.Config, log logging.Logger) error {

	for _, name := range []string{roles.Admin, roles.User} {
		if _, err := roleRepo.FindOrCreate(ctx, name); err != nil {
			return fmt.Errorf("ensure role %s: %w", name, err)
		}
	}

	_, err := svc.FindByUsername(ctx, cfg.BootstrapAdminUser).Result()
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	password := []byte(cfg.BootstrapAdminPassword)
	if _, err := svc.CreateAccount(ctx, cfg.BootstrapAdminUser, password, true, true).Result(); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	for _, name := range []string{roles.Admin, roles.User} {
		if _, err := svc.AssignRole(ctx, cfg.BootstrapAdminUser, name).Result(); err != nil {
			return fmt.Errorf("assign role %s to bootstrap admin: %w", name, err)
		}
	}

	log.Info(ctx, "bootstrap admin created", "username", cfg.BootstrapAdminUser, "mustChange", true)
	return nil
}
