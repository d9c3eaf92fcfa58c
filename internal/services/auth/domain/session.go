package domain

import (
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
)

// DefaultSessionTTL bounds how long a login survives without re-authentication.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Session is one authenticated browser session.
type Session struct {
	ID        string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession mints a session for an account.
func NewSession(accountID string, ttl time.Duration, now func() time.Time) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if accountID == "" {
		return Session{}, apperrors.New(apperrors.CodeAccountNotFound, "account id is required")
	}
	sessionID, err := id.NewID()
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeUnknown, "generate session id", err)
	}
	createdAt := now().UTC()
	return Session{
		ID:        sessionID,
		AccountID: accountID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}, nil
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now func() time.Time) bool {
	if now == nil {
		now = time.Now
	}
	return !s.ExpiresAt.After(now().UTC())
}
