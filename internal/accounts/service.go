package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/avoronov/peopledesk/internal/audit"
	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/logging"
	"github.com/avoronov/peopledesk/internal/passhash"
	"github.com/avoronov/peopledesk/internal/roles"
)

// Service provides asynchronous account administration. All blocking store
// work runs on the db pool; results come back as futures.
type Service struct {
	repo    Repository
	roles   roles.Repository
	hasher  *passhash.Hasher
	pools   *dispatch.Set
	auditor *audit.Recorder
	log     logging.Logger
}

func NewService(repo Repository, roleRepo roles.Repository, hasher *passhash.Hasher,
	pools *dispatch.Set, auditor *audit.Recorder, log logging.Logger) *Service {
	return &Service{
		repo:    repo,
		roles:   roleRepo,
		hasher:  hasher,
		pools:   pools,
		auditor: auditor,
		log:     log.With("component", "accounts"),
	}
}

// CreateAccount hashes the password and persists a new credential record.
// The password buffer is wiped by the service once the hash is derived,
// whatever the outcome.
func (s *Service) CreateAccount(ctx context.Context, username string, password []byte, enabled, mustChange bool) *dispatch.Future[*Account] {
	if strings.TrimSpace(username) == "" {
		common.WipeByteArray(password)
		return dispatch.Completed[*Account](nil, fmt.Errorf("username cannot be blank: %w", common.ErrValidation))
	}

	return dispatch.Submit(s.pools.DB, func() (*Account, error) {
		defer common.WipeByteArray(password)

		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}

		a := &Account{
			Username:           username,
			PasswordHash:       s.hasher.Hash(password, salt),
			Salt:               salt,
			Enabled:            enabled,
			MustChangePassword: mustChange,
		}

		saved, err := s.repo.Save(ctx, a)
		if err != nil {
			s.log.Error(ctx, "create account failed", "username", username, "error", err)
			return nil, err
		}

		s.log.Info(ctx, "created account", "username", saved.Username, "mustChange", saved.MustChangePassword)
		s.auditor.Record(ctx, "CREATE_USER", "user:"+saved.Username,
			fmt.Sprintf("enabled=%t mustChange=%t", saved.Enabled, saved.MustChangePassword))

		return saved, nil
	})
}

// FindByUsername loads the record on the db pool. Unknown username resolves
// the future with common.ErrNotFound.
func (s *Service) FindByUsername(ctx context.Context, username string) *dispatch.Future[*Account] {
	return dispatch.Submit(s.pools.DB, func() (*Account, error) {
		return s.repo.FindByUsername(ctx, username)
	})
}

// AssignRole links a named role to the account, chaining lookup, role
// resolution and assignment as dependent steps. The role must already
// exist; assigning a held role is a no-op.
func (s *Service) AssignRole(ctx context.Context, username, roleName string) *dispatch.Future[struct{}] {
	account := s.FindByUsername(ctx, username)

	roleID := dispatch.Then(s.pools.DB, account, func(a *Account) (int64, error) {
		id, err := s.roles.FindIDByName(ctx, roleName)
		if err != nil {
			return 0, fmt.Errorf("role %q: %w", roleName, err)
		}
		return id, nil
	})

	return dispatch.Then(s.pools.DB, roleID, func(id int64) (struct{}, error) {
		a, err := account.Result()
		if err != nil {
			return struct{}{}, err
		}
		if err := s.repo.AssignRole(ctx, a.ID, id); err != nil {
			s.log.Error(ctx, "assign role failed", "username", username, "role", roleName, "error", err)
			return struct{}{}, err
		}

		s.log.Info(ctx, "assigned role", "username", username, "role", roleName)
		s.auditor.Record(ctx, "ASSIGN_ROLE", "user:"+username, "role="+roleName)
		return struct{}{}, nil
	})
}

// ChangePassword sets a fresh salt and hash for the account. Administrative
// variant: mustChange controls whether the user is forced to rotate again
// at next login. The password buffer is wiped by the service.
func (s *Service) ChangePassword(ctx context.Context, username string, newPassword []byte, mustChange bool) *dispatch.Future[struct{}] {
	return dispatch.Submit(s.pools.DB, func() (struct{}, error) {
		defer common.WipeByteArray(newPassword)

		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return struct{}{}, fmt.Errorf("generate salt: %w", err)
		}
		hash := s.hasher.Hash(newPassword, salt)

		if err := s.repo.UpdatePassword(ctx, username, hash, salt, mustChange); err != nil {
			s.log.Error(ctx, "change password failed", "username", username, "error", err)
			return struct{}{}, err
		}

		s.log.Info(ctx, "password changed", "username", username)
		s.auditor.Record(ctx, "CHANGE_PASSWORD", "user:"+username, fmt.Sprintf("mustChange=%t", mustChange))
		return struct{}{}, nil
	})
}
