// Package sqlite provides SQLite-backed auth persistence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitemigrate"
	"github.com/inkhorn/inkhorn/internal/services/auth/domain"
	"github.com/inkhorn/inkhorn/internal/services/auth/storage"
	"github.com/inkhorn/inkhorn/internal/services/auth/storage/sqlite/migrations"
)

// Store provides SQLite-backed account and session persistence.
type Store struct {
	sqlDB *sql.DB
}

// New wraps a shared database handle and applies auth migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run auth migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// CreateAccount persists a new account.
func (s *Store) CreateAccount(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO accounts (id, email, password_hash, state, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		account.ID,
		account.Email,
		account.PasswordHash,
		string(account.State),
		account.CreatedAt.UTC().UnixMilli(),
		account.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return apperrors.Wrap(apperrors.CodeAccountEmailTaken, "email is already registered", err)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount loads one account by id.
func (s *Store) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return s.getAccount(ctx, "id = ?", accountID)
}

// GetAccountByEmail loads one account by normalized email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.getAccount(ctx, "email = ?", domain.NormalizeEmail(email))
}

func (s *Store) getAccount(ctx context.Context, where string, arg any) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, email, password_hash, state, created_at, updated_at
FROM accounts
WHERE `+where, arg)

	var account domain.Account
	var state string
	var createdAt, updatedAt int64
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &state, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.Account{}, apperrors.New(apperrors.CodeAccountNotFound, "account not found")
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}
	account.State = domain.State(state)
	account.CreatedAt = time.UnixMilli(createdAt).UTC()
	account.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return account, nil
}

// UpdateAccountState moves an account to a new lifecycle state.
func (s *Store) UpdateAccountState(ctx context.Context, accountID string, state domain.State, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE accounts SET state = ?, updated_at = ? WHERE id = ?
`, string(state), updatedAt.UTC().UnixMilli(), accountID)
	if err != nil {
		return fmt.Errorf("update account state: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account state rows: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeAccountNotFound, "account not found")
	}
	return nil
}

// CreateSession persists a new session.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sessions (id, account_id, created_at, expires_at)
VALUES (?, ?, ?, ?)
`,
		session.ID,
		session.AccountID,
		session.CreatedAt.UTC().UnixMilli(),
		session.ExpiresAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession loads one session by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, account_id, created_at, expires_at FROM sessions WHERE id = ?
`, sessionID)

	var session domain.Session
	var createdAt, expiresAt int64
	err := row.Scan(&session.ID, &session.AccountID, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return domain.Session{}, apperrors.New(apperrors.CodeAccountSessionInvalid, "session not found")
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("scan session: %w", err)
	}
	session.CreatedAt = time.UnixMilli(createdAt).UTC()
	session.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return session, nil
}

// DeleteSession removes one session.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is at or before cutoff.
func (s *Store) DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, cutoff.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

var _ storage.Store = (*Store)(nil)
