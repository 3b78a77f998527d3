package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avoronov/peopledesk/internal/common"
	"github.com/avoronov/peopledesk/internal/dbx"
	"github.com/avoronov/peopledesk/internal/roles"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	query :=
		`SELECT id, username, password_hash, salt, enabled, must_change_password, created_at, updated_at
		 FROM users
		 WHERE username = $1
		 `

	a := &Account{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.Salt,
		&a.Enabled, &a.MustChangePassword, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	a.Roles, err = r.loadRoles(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (r *PostgresRepository) loadRoles(ctx context.Context, accountID int64) ([]roles.Role, error) {
	query :=
		`SELECT r.id, r.name FROM roles r
		 JOIN user_roles ur ON r.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY r.name
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	var rs []roles.Role
	for rows.Next() {
		var role roles.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("load roles: %w", err)
		}
		rs = append(rs, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	return rs, nil
}

func (r *PostgresRepository) Save(ctx context.Context, account *Account) (*Account, error) {
	if account.Enabled && len(account.PasswordHash) == 0 {
		return nil, fmt.Errorf("%w: enabled account without password hash", common.ErrValidation)
	}

	query :=
		`INSERT INTO users (username, password_hash, salt, enabled, must_change_password, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	// The insert and its role links land in one transaction, so a partial
	// account is never visible.
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx, query,
			account.Username, account.PasswordHash, account.Salt,
			account.Enabled, account.MustChangePassword,
			account.CreatedAt, account.UpdatedAt).Scan(&account.ID)

		if err != nil {
			return fmt.Errorf("save account: %w", err)
		}

		for _, role := range account.Roles {
			if err := assignRole(ctx, tx, account.ID, role.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, username string, newHash, newSalt []byte, mustChange bool) error {
	query :=
		`UPDATE users
		 SET password_hash = $1, salt = $2, must_change_password = $3, updated_at = $4
		 WHERE username = $5
		 `

	res, err := r.db.ExecContext(ctx, query, newHash, newSalt, mustChange, time.Now(), username)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) AssignRole(ctx context.Context, accountID, roleID int64) error {
	return assignRole(ctx, r.db, accountID, roleID)
}

func assignRole(ctx context.Context, db dbx.DBTX, accountID, roleID int64) error {
	query :=
		`INSERT INTO user_roles (user_id, role_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, role_id) DO NOTHING
		 `

	_, err := db.ExecContext(ctx, query, accountID, roleID)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	return nil
}
