package app

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitedb"
	"github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	analyticssqlite "github.com/inkhorn/inkhorn/internal/services/analytics/storage/sqlite"
)

func newTestApp(t *testing.T) (*App, *[]string) {
	t.Helper()
	sqlDB, err := sqlitedb.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	store, err := analyticssqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("analyticssqlite.New() error = %v", err)
	}

	app := New(store)
	current := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	app.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	var logged []string
	app.logf = func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}
	return app, &logged
}

func TestCaptureRecordsEventWithSchemaVersion(t *testing.T) {
	app, logged := newTestApp(t)

	app.Capture(context.Background(), "acct-1", domain.EventProjectCreated, map[string]any{"project_id": "proj-1"})

	events, err := app.ListEvents(context.Background(), "acct-1", 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Name != domain.EventProjectCreated {
		t.Fatalf("event name = %q, want %q", events[0].Name, domain.EventProjectCreated)
	}

	var properties map[string]any
	if err := json.Unmarshal(events[0].Properties, &properties); err != nil {
		t.Fatalf("decode properties: %v", err)
	}
	if properties["project_id"] != "proj-1" {
		t.Fatalf("project_id = %v, want proj-1", properties["project_id"])
	}
	if properties["event_schema_version"] != float64(domain.TaxonomyVersion) {
		t.Fatalf("event_schema_version = %v, want %d", properties["event_schema_version"], domain.TaxonomyVersion)
	}
	if properties["current_state"] != string(domain.StateStranger) {
		t.Fatalf("current_state = %v, want %q", properties["current_state"], domain.StateStranger)
	}
	if len(*logged) != 0 {
		t.Fatalf("logged = %v, want none", *logged)
	}
}

func TestCaptureNormalizesDeprecatedNames(t *testing.T) {
	app, _ := newTestApp(t)

	app.Capture(context.Background(), "acct-1", "user_signed_up", nil)

	events, err := app.ListEvents(context.Background(), "acct-1", 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].Name != domain.EventSignupCompleted {
		t.Fatalf("events = %+v, want one %q", events, domain.EventSignupCompleted)
	}
}

func TestCaptureDropsUnknownEvents(t *testing.T) {
	app, logged := newTestApp(t)

	app.Capture(context.Background(), "acct-1", "made_up_event", nil)

	events, err := app.ListEvents(context.Background(), "acct-1", 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("len(events) = %d, want 0", len(events))
	}
	if len(*logged) != 1 {
		t.Fatalf("logged = %v, want one drop message", *logged)
	}
}

func TestListEventsNewestFirstWithLimit(t *testing.T) {
	app, _ := newTestApp(t)

	app.Capture(context.Background(), "acct-1", domain.EventProjectCreated, nil)
	app.Capture(context.Background(), "acct-1", domain.EventScanCompleted, nil)
	app.Capture(context.Background(), "acct-1", domain.EventGenerationStarted, nil)

	events, err := app.ListEvents(context.Background(), "acct-1", 2)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Name != domain.EventGenerationStarted || events[1].Name != domain.EventScanCompleted {
		t.Fatalf("order = [%s %s], want newest first", events[0].Name, events[1].Name)
	}
}

func TestTrackStateChangeRecordsTransitions(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	state, err := app.CurrentState(ctx, "acct-1")
	if err != nil {
		t.Fatalf("CurrentState() error = %v", err)
	}
	if state != domain.StateStranger {
		t.Fatalf("initial state = %q, want %q", state, domain.StateStranger)
	}

	app.TrackStateChange(ctx, "acct-1", domain.StateSignedUp, map[string]any{"source": "signup-form"})
	app.TrackStateChange(ctx, "acct-1", domain.StateSubscribed, nil)

	state, err = app.CurrentState(ctx, "acct-1")
	if err != nil {
		t.Fatalf("CurrentState() error = %v", err)
	}
	if state != domain.StateSubscribed {
		t.Fatalf("state = %q, want %q", state, domain.StateSubscribed)
	}

	transitions, err := app.ListTransitions(ctx, "acct-1")
	if err != nil {
		t.Fatalf("ListTransitions() error = %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("len(transitions) = %d, want 2", len(transitions))
	}
	if transitions[0].From != domain.StateSignedUp || transitions[0].To != domain.StateSubscribed {
		t.Fatalf("latest transition = %q -> %q", transitions[0].From, transitions[0].To)
	}
	if transitions[1].From != domain.StateStranger || transitions[1].To != domain.StateSignedUp {
		t.Fatalf("first transition = %q -> %q", transitions[1].From, transitions[1].To)
	}
	var metadata map[string]any
	if err := json.Unmarshal(transitions[1].Metadata, &metadata); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if metadata["source"] != "signup-form" {
		t.Fatalf("metadata = %v", metadata)
	}
}

func TestTrackStateChangeIgnoresNoopAndUnknown(t *testing.T) {
	app, logged := newTestApp(t)
	ctx := context.Background()

	app.TrackStateChange(ctx, "acct-1", domain.StateSignedUp, nil)
	app.TrackStateChange(ctx, "acct-1", domain.StateSignedUp, nil)
	app.TrackStateChange(ctx, "acct-1", domain.State("vip"), nil)

	transitions, err := app.ListTransitions(ctx, "acct-1")
	if err != nil {
		t.Fatalf("ListTransitions() error = %v", err)
	}
	if len(transitions) != 1 {
		t.Fatalf("len(transitions) = %d, want 1", len(transitions))
	}
	if len(*logged) != 1 {
		t.Fatalf("logged = %v, want one unknown-state message", *logged)
	}
}

func TestCaptureIncludesCurrentState(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	app.TrackStateChange(ctx, "acct-1", domain.StateSignedUp, nil)
	app.Capture(ctx, "acct-1", domain.EventPostPublished, nil)

	events, err := app.ListEvents(ctx, "acct-1", 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	var properties map[string]any
	if err := json.Unmarshal(events[0].Properties, &properties); err != nil {
		t.Fatalf("decode properties: %v", err)
	}
	if properties["current_state"] != string(domain.StateSignedUp) {
		t.Fatalf("current_state = %v, want %q", properties["current_state"], domain.StateSignedUp)
	}
}
