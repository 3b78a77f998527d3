package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/peopledesk/internal/accounts"
	"github.com/avoronov/peopledesk/internal/audit"
	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/config"
	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/logging"
	"github.com/avoronov/peopledesk/internal/passhash"
	"github.com/avoronov/peopledesk/internal/roles"
	"github.com/avoronov/peopledesk/internal/session"
)

type memAccounts struct {
	mu       sync.Mutex
	byName   map[string]*accounts.Account
	assigned map[int64][]int64
	saves    int
}

func (m *memAccounts) FindByUsername(_ context.Context, username string) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return a, nil
}

func (m *memAccounts) Save(_ context.Context, a *accounts.Account) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	a.ID = int64(len(m.byName) + 1)
	m.byName[a.Username] = a
	return a, nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, username string, newHash, newSalt []byte, mustChange bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byName[username]
	if !ok {
		return common.ErrNotFound
	}
	a.PasswordHash = newHash
	a.Salt = newSalt
	a.MustChangePassword = mustChange
	return nil
}

func (m *memAccounts) AssignRole(_ context.Context, accountID, roleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assigned[accountID] = append(m.assigned[accountID], roleID)
	return nil
}

type memRoles struct {
	mu  sync.Mutex
	ids map[string]int64
}

func (m *memRoles) FindIDByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[name]
	if !ok {
		return 0, common.ErrNotFound
	}
	return id, nil
}

func (m *memRoles) FindOrCreate(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[name]; ok {
		return id, nil
	}
	id := int64(len(m.ids) + 1)
	m.ids[name] = id
	return id, nil
}

func bootstrapHarness(t *testing.T) (*accounts.Service, *memAccounts, *memRoles, *config.Config) {
	t.Helper()

	repo := &memAccounts{byName: map[string]*accounts.Account{}, assigned: map[int64][]int64{}}
	roleRepo := &memRoles{ids: map[string]int64{}}
	pools := dispatch.NewSet(1, 1, 4)
	t.Cleanup(pools.Close)

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	auditor := audit.NewRecorder(audit.NewSlogSink(log), session.NewContext(), pools.Background, log)
	hasher := passhash.New(passhash.DefaultIterations)
	svc := accounts.NewService(repo, roleRepo, hasher, pools, auditor, log)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	return svc, repo, roleRepo, cfg
}

func TestBootstrap_CreatesAdminWithForcedChange(t *testing.T) {
	svc, repo, roleRepo, cfg := bootstrapHarness(t)
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, Bootstrap(context.Background(), svc, roleRepo, cfg, log))

	assert.Contains(t, roleRepo.ids, roles.Admin)
	assert.Contains(t, roleRepo.ids, roles.User)

	admin := repo.byName[cfg.BootstrapAdminUser]
	require.NotNil(t, admin)
	assert.True(t, admin.Enabled)
	assert.True(t, admin.MustChangePassword, "bootstrap password must be rotated on first login")
	assert.NotEmpty(t, admin.PasswordHash)
	assert.Len(t, repo.assigned[admin.ID], 2, "admin holds both built-in roles")
}

func TestBootstrap_SecondRunIsANoOp(t *testing.T) {
	svc, repo, roleRepo, cfg := bootstrapHarness(t)
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	require.NoError(t, Bootstrap(ctx, svc, roleRepo, cfg, log))
	require.NoError(t, Bootstrap(ctx, svc, roleRepo, cfg, log))

	assert.Equal(t, 1, repo.saves, "existing admin left untouched")
}
