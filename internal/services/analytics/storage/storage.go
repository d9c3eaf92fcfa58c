// Package storage declares the analytics persistence contract.
package storage

import (
	"context"

	"github.com/inkhorn/inkhorn/internal/services/analytics/domain"
)

// Store persists analytics events and account state transitions.
type Store interface {
	RecordEvent(ctx context.Context, event domain.Event) error
	// ListEvents returns an account's events newest first, at most limit
	// rows. A limit of zero or less means no cap.
	ListEvents(ctx context.Context, accountID string, limit int) ([]domain.Event, error)

	RecordTransition(ctx context.Context, transition domain.Transition) error
	// ListTransitions returns an account's transitions newest first.
	ListTransitions(ctx context.Context, accountID string) ([]domain.Transition, error)
	// CurrentState resolves the account's latest recorded state, or
	// StateStranger when no transition exists.
	CurrentState(ctx context.Context, accountID string) (domain.State, error)
}
