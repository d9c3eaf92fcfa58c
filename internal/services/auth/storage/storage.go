// Package storage defines persistence contracts for accounts and sessions.
package storage

import (
	"context"
	"time"

	"github.com/inkhorn/inkhorn/internal/services/auth/domain"
)

// AccountStore persists accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account domain.Account) error
	GetAccount(ctx context.Context, accountID string) (domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)
	UpdateAccountState(ctx context.Context, accountID string, state domain.State, updatedAt time.Time) error
}

// SessionStore persists browser sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is the combined auth persistence contract.
type Store interface {
	AccountStore
	SessionStore
}
