// Package app wires configuration, storage, worker pools and services
// together and runs the interactive console.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avoronov/peopledesk/internal/accounts"
	"github.com/avoronov/peopledesk/internal/audit"
	"github.com/avoronov/peopledesk/internal/auth"
	"github.com/avoronov/peopledesk/internal/cli"
	"github.com/avoronov/peopledesk/internal/config"
	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/logging"
	"github.com/avoronov/peopledesk/internal/passhash"
	"github.com/avoronov/peopledesk/internal/people"
	"github.com/avoronov/peopledesk/internal/session"
	"github.com/avoronov/peopledesk/internal/stats"
	"github.com/avoronov/peopledesk/internal/storage"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager storage.Manager
	pools   *dispatch.Set
	console *cli.App
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	// Logs go to stderr so they do not interleave with the console prompt.
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	manager, err := storage.NewPostgresManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	pools := dispatch.NewSet(cfg.DBWorkers, cfg.IOWorkers, cfg.QueueDepth)
	sess := session.NewContext()
	auditor := audit.NewRecorder(audit.NewSlogSink(logger), sess, pools.Background, logger)
	hasher := passhash.New(cfg.HashIterations)
	tokens := auth.NewTokenIssuer([]byte(cfg.SessionTokenSecret), cfg.SessionTokenTTL)

	authSvc := auth.NewService(manager.Accounts(), hasher, sess, pools, auditor, logger, tokens, cfg.MinPasswordLength)
	accountSvc := accounts.NewService(manager.Accounts(), manager.Roles(), hasher, pools, auditor, logger)
	persons := people.NewService[*people.Person]("person", manager.Persons(), pools, auditor, logger)
	employees := people.NewService[*people.Employee]("employee", manager.Employees(), pools, auditor, logger)
	students := people.NewService[*people.Student]("student", manager.Students(), pools, auditor, logger)
	statsSvc := stats.NewService(manager.Stats(), pools, logger)

	if err := Bootstrap(ctx, accountSvc, manager.Roles(), cfg, logger); err != nil {
		manager.Close()
		pools.Close()
		return nil, fmt.Errorf("bootstrap error: %w", err)
	}

	console := cli.NewApp(authSvc, sess, accountSvc, persons, employees, students, statsSvc, pools)

	return &App{
		config:  cfg,
		logger:  logger,
		manager: manager,
		pools:   pools,
		console: console,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "dbWorkers", app.config.DBWorkers, "ioWorkers", app.config.IOWorkers)

	app.initSignalHandler(cancelFunc)

	app.console.Run(ctx)

	// Drain in-flight tasks, including pending audit writes, before the
	// database goes away.
	app.pools.Close()
	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}

	app.logger.Info(ctx, "app stopped")
}
