// Package domain models accounts, sessions, and plan limits.
package domain

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
)

// State tracks where an account sits in its lifecycle.
type State string

const (
	// StateSignedUp is the initial state after registration.
	StateSignedUp State = "signed_up"
	// StateOnboarded means the first project was created.
	StateOnboarded State = "onboarded"
	// StateGenerated means at least one post generation finished.
	StateGenerated State = "generated_content"
	// StateSubscribed means the account upgraded to a paid plan.
	StateSubscribed State = "subscribed"
	// StateChurned means the account cancelled or went dormant.
	StateChurned State = "churned"
)

// stateRank orders lifecycle states for forward-only transitions.
var stateRank = map[State]int{
	StateSignedUp:   0,
	StateOnboarded:  1,
	StateGenerated:  2,
	StateSubscribed: 3,
	StateChurned:    4,
}

// ValidState reports whether s is a known lifecycle state.
func ValidState(s State) bool {
	_, ok := stateRank[s]
	return ok
}

// CanTransition reports whether an account may move from one state to another.
// Transitions only move forward; any state may churn.
func CanTransition(from, to State) bool {
	if !ValidState(from) || !ValidState(to) {
		return false
	}
	if to == StateChurned {
		return from != StateChurned
	}
	return stateRank[to] > stateRank[from]
}

// minPasswordLength matches the shortest password signup accepts.
const minPasswordLength = 8

// Account is one registered user of the platform.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	State        State
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateAccountInput captures user-provided fields for registration.
type CreateAccountInput struct {
	Email    string
	Password string
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount constructs a new signed-up account with a hashed password.
func CreateAccount(input CreateAccountInput, now func() time.Time, idGenerator func() (string, error)) (Account, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	email := NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, apperrors.New(apperrors.CodeAccountEmailEmpty, "a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return Account{}, apperrors.WithMetadata(
			apperrors.CodeAccountPasswordTooShort,
			"password is too short",
			map[string]string{"min_length": "8"},
		)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, apperrors.Wrap(apperrors.CodeUnknown, "hash password", err)
	}
	accountID, err := idGenerator()
	if err != nil {
		return Account{}, apperrors.Wrap(apperrors.CodeUnknown, "generate account id", err)
	}

	createdAt := now().UTC()
	return Account{
		ID:           accountID,
		Email:        email,
		PasswordHash: string(hash),
		State:        StateSignedUp,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// VerifyPassword checks a candidate password against the stored hash.
func (a Account) VerifyPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return apperrors.New(apperrors.CodeAccountCredentialsWrong, "email or password is incorrect")
	}
	return nil
}
