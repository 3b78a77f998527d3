// Package auth implements credential verification, the forced password
// change flow, and session establishment.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/avoronov/peopledesk/internal/accounts"
	"github.com/avoronov/peopledesk/internal/audit"
	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/logging"
	"github.com/avoronov/peopledesk/internal/passhash"
	"github.com/avoronov/peopledesk/internal/session"
)

// Outcome is the caller-facing login result. Success with
// RequiresPasswordChange set means the credentials verified but no session
// was established; the caller must complete a password change first.
type Outcome struct {
	Success                bool
	RequiresPasswordChange bool
	Token                  string
}

// TokenSource mints session tokens. Nil disables tokens: sessions are then
// in-process only.
type TokenSource interface {
	Issue(username string, roles []string) (string, error)
}

// Service verifies credentials and manages the session. Store lookups and
// key derivation are blocking, so every operation runs on the database
// pool and hands its outcome back as a future.
type Service struct {
	repo           accounts.Repository
	hasher         *passhash.Hasher
	sess           *session.Context
	pools          *dispatch.Set
	auditor        *audit.Recorder
	log            logging.Logger
	tokens         TokenSource
	minPasswordLen int
}

func NewService(repo accounts.Repository, hasher *passhash.Hasher, sess *session.Context,
	pools *dispatch.Set, auditor *audit.Recorder, log logging.Logger, tokens TokenSource,
	minPasswordLen int) *Service {
	return &Service{
		repo:           repo,
		hasher:         hasher,
		sess:           sess,
		pools:          pools,
		auditor:        auditor,
		log:            log.With("component", "auth"),
		tokens:         tokens,
		minPasswordLen: minPasswordLen,
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, common.ErrStorage)
}

// refusal classifies an authentication denial for internal logs. The
// caller-facing result stays a bare false, so the reason never leaks to
// anyone probing for account names.
func refusal(reason string) error {
	return fmt.Errorf("%s: %w", reason, common.ErrUnauthorized)
}

// Authenticate verifies the password for the username on the database
// pool. Unknown user, disabled account and wrong password all resolve to
// the same false so callers cannot enumerate accounts; internal logs carry
// the classified reason. Store failures surface as a distinct storage
// error, never as a false.
func (s *Service) Authenticate(ctx context.Context, username string, password []byte) *dispatch.Future[bool] {
	return dispatch.Submit(s.pools.DB, func() (bool, error) {
		return s.authenticate(ctx, username, password)
	})
}

func (s *Service) authenticate(ctx context.Context, username string, password []byte) (bool, error) {
	a, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Debug(ctx, "authentication refused", "username", username, "error", refusal("unknown user"))
			return false, nil
		}
		s.log.Error(ctx, "authenticate lookup failed", "username", username, "error", err)
		return false, storageErr("authenticate", err)
	}

	if !a.Enabled {
		s.log.Debug(ctx, "authentication refused", "username", username, "error", refusal("disabled account"))
		return false, nil
	}

	if !s.hasher.Verify(password, a.Salt, a.PasswordHash) {
		s.log.Debug(ctx, "authentication refused", "username", username, "error", refusal("wrong password"))
		return false, nil
	}

	return true, nil
}

// Login verifies credentials on the database pool and, unless the record
// demands a password change first, establishes the session. Caller owns
// wiping the password buffer once the future completes.
func (s *Service) Login(ctx context.Context, username string, password []byte) *dispatch.Future[Outcome] {
	return dispatch.Submit(s.pools.DB, func() (Outcome, error) {
		return s.login(ctx, username, password)
	})
}

func (s *Service) login(ctx context.Context, username string, password []byte) (Outcome, error) {
	a, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Debug(ctx, "login refused", "username", username, "error", refusal("unknown user"))
			return Outcome{}, nil
		}
		s.log.Error(ctx, "login lookup failed", "username", username, "error", err)
		return Outcome{}, storageErr("login", err)
	}

	if !a.Enabled {
		s.log.Debug(ctx, "login refused", "username", username, "error", refusal("disabled account"))
		return Outcome{}, nil
	}

	if !s.hasher.Verify(password, a.Salt, a.PasswordHash) {
		s.log.Debug(ctx, "login refused", "username", username, "error", refusal("wrong password"))
		return Outcome{}, nil
	}

	if a.MustChangePassword {
		// Credentials are good but the session is withheld until the
		// password is rotated.
		return Outcome{Success: true, RequiresPasswordChange: true}, nil
	}

	token, err := s.establish(ctx, a)
	if err != nil {
		return Outcome{}, err
	}

	s.auditor.Record(ctx, "LOGIN", "user:"+username, "")

	return Outcome{Success: true, Token: token}, nil
}

// CompletePasswordChange validates the new password at the boundary, then
// persists it, clears the forced-change flag and establishes the session
// on the database pool. A failed attempt leaves the stored credential
// intact. Caller owns wiping both buffers once the future completes.
func (s *Service) CompletePasswordChange(ctx context.Context, username string, newPassword, confirm []byte) *dispatch.Future[Outcome] {
	if len(newPassword) < s.minPasswordLen {
		return dispatch.Completed(Outcome{},
			fmt.Errorf("password shorter than %d characters: %w", s.minPasswordLen, common.ErrValidation))
	}
	if !bytes.Equal(newPassword, confirm) {
		return dispatch.Completed(Outcome{}, fmt.Errorf("password confirmation mismatch: %w", common.ErrValidation))
	}

	return dispatch.Submit(s.pools.DB, func() (Outcome, error) {
		return s.completePasswordChange(ctx, username, newPassword)
	})
}

func (s *Service) completePasswordChange(ctx context.Context, username string, newPassword []byte) (Outcome, error) {
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return Outcome{}, fmt.Errorf("generate salt: %w", err)
	}
	hash := s.hasher.Hash(newPassword, salt)

	if err := s.repo.UpdatePassword(ctx, username, hash, salt, false); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Outcome{}, err
		}
		s.log.Error(ctx, "password update failed", "username", username, "error", err)
		return Outcome{}, storageErr("complete password change", err)
	}

	a, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		s.log.Error(ctx, "reload after password change failed", "username", username, "error", err)
		return Outcome{}, storageErr("complete password change", err)
	}

	token, err := s.establish(ctx, a)
	if err != nil {
		return Outcome{}, err
	}

	s.auditor.Record(ctx, "CHANGE_PASSWORD", "user:"+username, "forced=cleared")

	return Outcome{Success: true, Token: token}, nil
}

// Logout clears the session. A no-op when nobody is logged in.
func (s *Service) Logout(ctx context.Context) {
	u := s.sess.CurrentUser()
	if u == nil {
		return
	}
	s.auditor.Record(ctx, "LOGOUT", "user:"+u.Username, "")
	s.sess.Clear()
	s.log.Info(ctx, "logged out", "username", u.Username)
}

func (s *Service) establish(ctx context.Context, a *accounts.Account) (string, error) {
	u := &session.User{Username: a.Username, Roles: a.RoleNames()}

	var token string
	if s.tokens != nil {
		t, err := s.tokens.Issue(u.Username, u.Roles)
		if err != nil {
			return "", fmt.Errorf("issue session token: %w", err)
		}
		token = t
	}

	// The session is installed only after the token is minted, so a
	// failed login leaves no principal behind.
	s.sess.Set(u)
	s.log.Info(ctx, "session established", "username", a.Username, "roles", u.Roles)

	return token, nil
}
