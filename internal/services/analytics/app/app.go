// Package app captures analytics events and account lifecycle changes.
// Capture is fire-and-forget: failures are logged, never surfaced, so
// instrumentation can never break the operation being measured.
package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	"github.com/inkhorn/inkhorn/internal/services/analytics/storage"
)

// App exposes analytics capture and query operations.
type App struct {
	store storage.Store
	now   func() time.Time
	logf  func(format string, args ...any)
}

// New wires the analytics application service.
func New(store storage.Store) *App {
	return &App{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		logf:  log.Printf,
	}
}

// Capture records one event for an account. Deprecated event names are
// normalized to their canonical form; unknown names are dropped. Storage
// failures are logged and swallowed.
func (a *App) Capture(ctx context.Context, accountID, name string, properties map[string]any) {
	canonical := domain.NormalizeEventName(name)
	if !domain.KnownEventName(canonical) {
		a.logf("analytics: dropping unknown event %q for account %s", name, accountID)
		return
	}

	state, err := a.store.CurrentState(ctx, accountID)
	if err != nil {
		a.logf("analytics: resolve state for account %s: %v", accountID, err)
		state = domain.StateStranger
	}

	merged := make(map[string]any, len(properties)+2)
	for key, value := range properties {
		merged[key] = value
	}
	merged["event_schema_version"] = domain.TaxonomyVersion
	merged["current_state"] = string(state)

	encoded, err := json.Marshal(merged)
	if err != nil {
		a.logf("analytics: encode properties for event %q: %v", canonical, err)
		return
	}
	eventID, err := id.NewID()
	if err != nil {
		a.logf("analytics: event id: %v", err)
		return
	}
	event := domain.Event{
		ID:         eventID,
		AccountID:  accountID,
		Name:       canonical,
		Properties: encoded,
		CreatedAt:  a.now(),
	}
	if err := a.store.RecordEvent(ctx, event); err != nil {
		a.logf("analytics: record event %q for account %s: %v", canonical, accountID, err)
	}
}

// TrackStateChange records an account lifecycle transition. Moving to the
// current state is a no-op. Failures are logged and swallowed.
func (a *App) TrackStateChange(ctx context.Context, accountID string, to domain.State, metadata map[string]any) {
	if !domain.ValidState(to) {
		a.logf("analytics: dropping transition to unknown state %q for account %s", to, accountID)
		return
	}
	from, err := a.store.CurrentState(ctx, accountID)
	if err != nil {
		a.logf("analytics: resolve state for account %s: %v", accountID, err)
		return
	}
	if from == to {
		return
	}

	var encoded json.RawMessage
	if len(metadata) > 0 {
		encoded, err = json.Marshal(metadata)
		if err != nil {
			a.logf("analytics: encode transition metadata for account %s: %v", accountID, err)
			return
		}
	}
	transitionID, err := id.NewID()
	if err != nil {
		a.logf("analytics: transition id: %v", err)
		return
	}
	transition := domain.Transition{
		ID:        transitionID,
		AccountID: accountID,
		From:      from,
		To:        to,
		Metadata:  encoded,
		CreatedAt: a.now(),
	}
	if err := a.store.RecordTransition(ctx, transition); err != nil {
		a.logf("analytics: record transition for account %s: %v", accountID, err)
	}
}

// CurrentState resolves the account's lifecycle state.
func (a *App) CurrentState(ctx context.Context, accountID string) (domain.State, error) {
	return a.store.CurrentState(ctx, accountID)
}

// ListEvents returns an account's events newest first.
func (a *App) ListEvents(ctx context.Context, accountID string, limit int) ([]domain.Event, error) {
	return a.store.ListEvents(ctx, accountID, limit)
}

// ListTransitions returns an account's transitions newest first.
func (a *App) ListTransitions(ctx context.Context, accountID string) ([]domain.Transition, error) {
	return a.store.ListTransitions(ctx, accountID)
}
