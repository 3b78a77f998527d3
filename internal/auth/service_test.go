package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/peopledesk/internal/accounts"
	"github.com/avoronov/peopledesk/internal/audit"
	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/logging"
	"github.com/avoronov/peopledesk/internal/passhash"
	"github.com/avoronov/peopledesk/internal/roles"
	"github.com/avoronov/peopledesk/internal/session"
)

// --- fakes ---

type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]*accounts.Account

	findErr   error
	updateErr error
	updates   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: map[string]*accounts.Account{}}
}

func (f *fakeRepo) FindByUsername(_ context.Context, username string) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) Save(_ context.Context, a *accounts.Account) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = int64(len(f.accounts) + 1)
	f.accounts[a.Username] = a
	return a, nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, username string, newHash, newSalt []byte, mustChange bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.accounts[username]
	if !ok {
		return common.ErrNotFound
	}
	a.PasswordHash = newHash
	a.Salt = newSalt
	a.MustChangePassword = mustChange
	a.UpdatedAt = time.Now()
	f.updates++
	return nil
}

func (f *fakeRepo) AssignRole(_ context.Context, accountID, roleID int64) error {
	return nil
}

type captureSink struct {
	mu   sync.Mutex
	recs []audit.Record
}

func (s *captureSink) Write(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *captureSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, r.Action)
	}
	return out
}

// captureLogger records every entry's key/value args for inspection.
type captureLogger struct {
	mu      sync.Mutex
	entries [][]any
}

func (l *captureLogger) record(args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, args)
}

func (l *captureLogger) Debug(_ context.Context, _ string, args ...any) { l.record(args) }
func (l *captureLogger) Info(_ context.Context, _ string, args ...any)  { l.record(args) }
func (l *captureLogger) Warn(_ context.Context, _ string, args ...any)  { l.record(args) }
func (l *captureLogger) Error(_ context.Context, _ string, args ...any) { l.record(args) }
func (l *captureLogger) With(_ ...any) logging.Logger                   { return l }

func (l *captureLogger) loggedErrors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for _, args := range l.entries {
		for i := 0; i+1 < len(args); i += 2 {
			if args[i] == "error" {
				if err, ok := args[i+1].(error); ok {
					errs = append(errs, err)
				}
			}
		}
	}
	return errs
}

type failingTokens struct{}

func (failingTokens) Issue(string, []string) (string, error) {
	return "", errors.New("signing key unavailable")
}

// --- harness ---

type harness struct {
	svc    *Service
	repo   *fakeRepo
	sess   *session.Context
	sink   *captureSink
	pools  *dispatch.Set
	hasher *passhash.Hasher
	caplog *captureLogger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithTokens(t, NewTokenIssuer([]byte("test-secret"), time.Minute))
}

func newHarnessWithTokens(t *testing.T, tokens TokenSource) *harness {
	t.Helper()

	repo := newFakeRepo()
	sess := session.NewContext()
	sink := &captureSink{}
	pools := dispatch.NewSet(1, 1, 16)
	t.Cleanup(pools.Close)

	caplog := &captureLogger{}
	auditor := audit.NewRecorder(sink, sess, pools.Background, caplog)
	hasher := passhash.New(passhash.DefaultIterations)

	svc := NewService(repo, hasher, sess, pools, auditor, caplog, tokens, 6)
	return &harness{svc: svc, repo: repo, sess: sess, sink: sink, pools: pools, hasher: hasher, caplog: caplog}
}

func (h *harness) addAccount(t *testing.T, username, password string, enabled, mustChange bool, roleNames ...string) {
	t.Helper()
	salt, err := h.hasher.GenerateSalt()
	require.NoError(t, err)
	rs := make([]roles.Role, 0, len(roleNames))
	for i, n := range roleNames {
		rs = append(rs, roles.Role{ID: int64(i + 1), Name: n})
	}
	_, err = h.repo.Save(context.Background(), &accounts.Account{
		Username:           username,
		PasswordHash:       h.hasher.Hash([]byte(password), salt),
		Salt:               salt,
		Enabled:            enabled,
		MustChangePassword: mustChange,
		Roles:              rs,
	})
	require.NoError(t, err)
}

// --- tests ---

func TestAuthenticate_ConflatesRefusalReasons(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "alice", "correct1", true, false)
	h.addAccount(t, "dave", "correct1", false, false)
	ctx := context.Background()

	ok, err := h.svc.Authenticate(ctx, "alice", []byte("correct1")).Result()
	require.NoError(t, err)
	assert.True(t, ok)

	// Wrong password, unknown user and disabled account are
	// indistinguishable to the caller.
	for _, tc := range []struct{ user, pass string }{
		{"alice", "wrong"},
		{"ghost", "correct1"},
		{"dave", "correct1"},
	} {
		ok, err := h.svc.Authenticate(ctx, tc.user, []byte(tc.pass)).Result()
		require.NoError(t, err)
		assert.False(t, ok, "user=%s", tc.user)
	}
}

func TestAuthenticate_StorageErrorIsDistinct(t *testing.T) {
	h := newHarness(t)
	h.repo.findErr = errors.New("connection refused")

	ok, err := h.svc.Authenticate(context.Background(), "alice", []byte("x")).Result()
	assert.False(t, ok)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.NotErrorIs(t, err, common.ErrValidation)
}

func TestLogin_EstablishesSessionAndIssuesToken(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "alice", "correct1", true, false, "ROLE_ADMIN", "ROLE_USER")

	out, err := h.svc.Login(context.Background(), "alice", []byte("correct1")).Result()
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.False(t, out.RequiresPasswordChange)
	assert.NotEmpty(t, out.Token)

	u := h.sess.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, h.sess.HasRole("ROLE_ADMIN"))
}

func TestLogin_FailureLeavesSessionEmpty(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "alice", "correct1", true, false)

	out, err := h.svc.Login(context.Background(), "alice", []byte("wrong")).Result()
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Nil(t, h.sess.CurrentUser())
}

func TestLogin_RefusalReasonStaysInternal(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "alice", "correct1", true, false)

	out, err := h.svc.Login(context.Background(), "alice", []byte("wrong")).Result()
	require.NoError(t, err)
	assert.False(t, out.Success)

	// The denial is classified in the logs, never in the outcome.
	errs := h.caplog.loggedErrors()
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if errors.Is(e, common.ErrUnauthorized) {
			found = true
		}
	}
	assert.True(t, found, "refusal should be logged as an unauthorized error")
}

func TestLogin_TokenFailureLeavesSessionEmpty(t *testing.T) {
	h := newHarnessWithTokens(t, failingTokens{})
	h.addAccount(t, "alice", "correct1", true, false)

	out, err := h.svc.Login(context.Background(), "alice", []byte("correct1")).Result()
	require.Error(t, err)
	assert.False(t, out.Success)
	assert.Nil(t, h.sess.CurrentUser(), "a failed login must leave no session behind")

	h.pools.Background.Close()
	assert.NotContains(t, h.sink.actions(), "LOGIN")
}

func TestAuthOperationsRunOnDatabasePool(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "alice", "correct1", true, false)
	ctx := context.Background()

	// Once the database pool is closed the operations cannot run at all,
	// which pins them to that pool rather than the caller's goroutine.
	h.pools.DB.Close()

	_, err := h.svc.Login(ctx, "alice", []byte("correct1")).Result()
	assert.ErrorContains(t, err, "pool db is closed")
	assert.Nil(t, h.sess.CurrentUser())

	_, err = h.svc.Authenticate(ctx, "alice", []byte("correct1")).Result()
	assert.ErrorContains(t, err, "pool db is closed")

	_, err = h.svc.CompletePasswordChange(ctx, "alice", []byte("newpass1"), []byte("newpass1")).Result()
	assert.ErrorContains(t, err, "pool db is closed")
	assert.Equal(t, 0, h.repo.updates)
}

func TestLogin_ForcedChangeWithholdsSession(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "admin", "admin", true, true, "ROLE_ADMIN")

	out, err := h.svc.Login(context.Background(), "admin", []byte("admin")).Result()
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.True(t, out.RequiresPasswordChange)
	assert.Empty(t, out.Token)
	assert.Nil(t, h.sess.CurrentUser(), "no session before the password is rotated")
}

func TestCompletePasswordChange_PolicyViolationsLeaveCredentialIntact(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "admin", "admin", true, true)
	before := h.repo.accounts["admin"].PasswordHash

	_, err := h.svc.CompletePasswordChange(context.Background(), "admin", []byte("ab"), []byte("ab")).Result()
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = h.svc.CompletePasswordChange(context.Background(), "admin", []byte("abcdef"), []byte("abcxyz")).Result()
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, before, h.repo.accounts["admin"].PasswordHash, "stored hash must be unchanged")
	assert.Equal(t, 0, h.repo.updates)
	assert.Nil(t, h.sess.CurrentUser())
}

func TestCompletePasswordChange_UnknownUser(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.CompletePasswordChange(context.Background(), "ghost", []byte("abcdef"), []byte("abcdef")).Result()
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCompletePasswordChange_SuccessClearsFlagAndEstablishesSession(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "admin", "admin", true, true, "ROLE_ADMIN")

	out, err := h.svc.CompletePasswordChange(context.Background(), "admin", []byte("newpass1"), []byte("newpass1")).Result()
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.NotEmpty(t, out.Token)
	assert.False(t, h.repo.accounts["admin"].MustChangePassword)

	u := h.sess.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "admin", u.Username)
}

func TestLogout_ClearsSessionAndAudits(t *testing.T) {
	h := newHarness(t)
	h.addAccount(t, "alice", "correct1", true, false, "ROLE_USER")
	ctx := context.Background()

	assert.False(t, h.sess.HasRole("ROLE_USER"))

	_, err := h.svc.Login(ctx, "alice", []byte("correct1")).Result()
	require.NoError(t, err)
	assert.True(t, h.sess.HasRole("ROLE_USER"))

	h.svc.Logout(ctx)
	assert.False(t, h.sess.HasRole("ROLE_USER"))
	assert.Equal(t, "system", h.sess.CurrentUsernameOrSystem())

	h.pools.Background.Close()
	assert.Contains(t, h.sink.actions(), "LOGIN")
	assert.Contains(t, h.sink.actions(), "LOGOUT")
}

func TestEndToEnd_BootstrapForcedChangeRelogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Bootstrap: admin account created with a default password and a
	// forced change.
	h.addAccount(t, "admin", "admin", true, true, "ROLE_ADMIN", "ROLE_USER")

	out, err := h.svc.Login(ctx, "admin", []byte("admin")).Result()
	require.NoError(t, err)
	require.True(t, out.Success)
	require.True(t, out.RequiresPasswordChange)
	require.Nil(t, h.sess.CurrentUser())

	out, err = h.svc.CompletePasswordChange(ctx, "admin", []byte("newpass1"), []byte("newpass1")).Result()
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, "admin", h.sess.CurrentUser().Username)

	h.svc.Logout(ctx)

	// Old password no longer works.
	out, err = h.svc.Login(ctx, "admin", []byte("admin")).Result()
	require.NoError(t, err)
	assert.False(t, out.Success)

	out, err = h.svc.Login(ctx, "admin", []byte("newpass1")).Result()
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.False(t, out.RequiresPasswordChange)
	assert.Equal(t, "admin", h.sess.CurrentUser().Username)
}
