package app

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitedb"
	analyticsapp "github.com/inkhorn/inkhorn/internal/services/analytics/app"
	analyticsdomain "github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	analyticssqlite "github.com/inkhorn/inkhorn/internal/services/analytics/storage/sqlite"
	"github.com/inkhorn/inkhorn/internal/services/auth/domain"
	authsqlite "github.com/inkhorn/inkhorn/internal/services/auth/storage/sqlite"
)

type testEnv struct {
	app       *App
	analytics *analyticsapp.App
	now       *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sqlDB, err := sqlitedb.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	authStore, err := authsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("authsqlite.New() error = %v", err)
	}
	analyticsStore, err := analyticssqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("analyticssqlite.New() error = %v", err)
	}

	analytics := analyticsapp.New(analyticsStore)
	app := New(authStore, analytics)
	now := time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)
	app.now = func() time.Time { return now }
	return &testEnv{app: app, analytics: analytics, now: &now}
}

func TestSignupOpensSessionAndRecordsFunnel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, session, err := env.app.Signup(ctx, "User@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if account.Email != "user@example.com" {
		t.Fatalf("account.Email = %q, want normalized", account.Email)
	}
	if account.State != domain.StateSignedUp {
		t.Fatalf("account.State = %q, want %q", account.State, domain.StateSignedUp)
	}
	if session.AccountID != account.ID || session.ExpiresAt.Before(*env.now) {
		t.Fatalf("session = %+v", session)
	}

	funnel, err := env.analytics.CurrentState(ctx, account.ID)
	if err != nil {
		t.Fatalf("CurrentState() error = %v", err)
	}
	if funnel != analyticsdomain.StateSignedUp {
		t.Fatalf("funnel state = %q, want %q", funnel, analyticsdomain.StateSignedUp)
	}
	events, err := env.analytics.ListEvents(ctx, account.ID, 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].Name != analyticsdomain.EventSignupCompleted {
		t.Fatalf("events = %+v, want one signup event", events)
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, _, err := env.app.Signup(ctx, "user@example.com", "correct horse"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	_, _, err := env.app.Signup(ctx, "USER@example.com", "another pass")
	if apperrors.CodeOf(err) != apperrors.CodeAccountEmailTaken {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodeAccountEmailTaken)
	}
}

func TestLoginVerifiesCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, _, err := env.app.Signup(ctx, "user@example.com", "correct horse"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	account, session, err := env.app.Login(ctx, "user@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if account.Email != "user@example.com" || session.ID == "" {
		t.Fatalf("account = %+v session = %+v", account, session)
	}

	if _, _, err := env.app.Login(ctx, "user@example.com", "wrong pass"); apperrors.CodeOf(err) != apperrors.CodeAccountCredentialsWrong {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodeAccountCredentialsWrong)
	}
	if _, _, err := env.app.Login(ctx, "nobody@example.com", "correct horse"); apperrors.CodeOf(err) != apperrors.CodeAccountCredentialsWrong {
		t.Fatalf("CodeOf(err) = %v, want %v for unknown email", apperrors.CodeOf(err), apperrors.CodeAccountCredentialsWrong)
	}
}

func TestAuthenticateResolvesAndExpiresSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, session, err := env.app.Signup(ctx, "user@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	resolved, err := env.app.Authenticate(ctx, session.ID)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if resolved.ID != account.ID {
		t.Fatalf("resolved.ID = %q, want %q", resolved.ID, account.ID)
	}

	*env.now = env.now.Add(domain.DefaultSessionTTL + time.Hour)
	if _, err := env.app.Authenticate(ctx, session.ID); apperrors.CodeOf(err) != apperrors.CodeAccountSessionInvalid {
		t.Fatalf("CodeOf(err) = %v, want %v after expiry", apperrors.CodeOf(err), apperrors.CodeAccountSessionInvalid)
	}
	// The expired session is gone, so even a rolled-back clock cannot revive it.
	*env.now = env.now.Add(-2 * domain.DefaultSessionTTL)
	if _, err := env.app.Authenticate(ctx, session.ID); apperrors.CodeOf(err) != apperrors.CodeAccountSessionInvalid {
		t.Fatalf("CodeOf(err) = %v, want %v after deletion", apperrors.CodeOf(err), apperrors.CodeAccountSessionInvalid)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, session, err := env.app.Signup(ctx, "user@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if err := env.app.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := env.app.Authenticate(ctx, session.ID); apperrors.CodeOf(err) != apperrors.CodeAccountSessionInvalid {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodeAccountSessionInvalid)
	}
}

func TestAdvanceStateMovesForwardOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, _, err := env.app.Signup(ctx, "user@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	advanced, err := env.app.AdvanceState(ctx, account.ID, domain.StateOnboarded)
	if err != nil {
		t.Fatalf("AdvanceState() error = %v", err)
	}
	if advanced.State != domain.StateOnboarded {
		t.Fatalf("state = %q, want %q", advanced.State, domain.StateOnboarded)
	}

	if _, err := env.app.AdvanceState(ctx, account.ID, domain.StateSignedUp); apperrors.CodeOf(err) != apperrors.CodeAccountStateTransitionBad {
		t.Fatalf("CodeOf(err) = %v, want %v for backward move", apperrors.CodeOf(err), apperrors.CodeAccountStateTransitionBad)
	}
	if _, err := env.app.AdvanceState(ctx, account.ID, domain.State("vip")); apperrors.CodeOf(err) != apperrors.CodeAccountStateInvalid {
		t.Fatalf("CodeOf(err) = %v, want %v for unknown state", apperrors.CodeOf(err), apperrors.CodeAccountStateInvalid)
	}

	// Advancing to the current state is a no-op, not a transition error.
	if _, err := env.app.AdvanceState(ctx, account.ID, domain.StateOnboarded); err != nil {
		t.Fatalf("AdvanceState(same) error = %v", err)
	}
}

func TestMilestonesAdvanceWithoutMovingBackward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, _, err := env.app.Signup(ctx, "user@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if err := env.app.MarkOnboarded(ctx, account.ID); err != nil {
		t.Fatalf("MarkOnboarded() error = %v", err)
	}
	got, err := env.app.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.State != domain.StateOnboarded {
		t.Fatalf("state = %q, want %q", got.State, domain.StateOnboarded)
	}

	if err := env.app.MarkGenerated(ctx, account.ID); err != nil {
		t.Fatalf("MarkGenerated() error = %v", err)
	}
	got, err = env.app.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.State != domain.StateGenerated {
		t.Fatalf("state = %q, want %q", got.State, domain.StateGenerated)
	}

	// Milestones never pull an account back down the lifecycle.
	if err := env.app.MarkOnboarded(ctx, account.ID); err != nil {
		t.Fatalf("MarkOnboarded(after generated) error = %v", err)
	}
	got, err = env.app.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.State != domain.StateGenerated {
		t.Fatalf("state = %q, want %q after repeated milestone", got.State, domain.StateGenerated)
	}
}

func TestAdvanceStateMirrorsSubscriptionIntoFunnel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, _, err := env.app.Signup(ctx, "user@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if _, err := env.app.AdvanceState(ctx, account.ID, domain.StateSubscribed); err != nil {
		t.Fatalf("AdvanceState() error = %v", err)
	}
	funnel, err := env.analytics.CurrentState(ctx, account.ID)
	if err != nil {
		t.Fatalf("CurrentState() error = %v", err)
	}
	if funnel != analyticsdomain.StateSubscribed {
		t.Fatalf("funnel state = %q, want %q", funnel, analyticsdomain.StateSubscribed)
	}
}

func TestPlanLimitsFollowState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, _, err := env.app.Signup(ctx, "user@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	limit, err := env.app.GenerationLimit(ctx, account.ID)
	if err != nil {
		t.Fatalf("GenerationLimit() error = %v", err)
	}
	if limit != domain.FreePlan.MaxGenerationsPerMonth {
		t.Fatalf("GenerationLimit = %d, want %d", limit, domain.FreePlan.MaxGenerationsPerMonth)
	}

	if err := env.app.CheckProjectAllowance(ctx, account.ID, 0); err != nil {
		t.Fatalf("CheckProjectAllowance(0) error = %v", err)
	}
	err = env.app.CheckProjectAllowance(ctx, account.ID, domain.FreePlan.MaxProjects)
	if apperrors.CodeOf(err) != apperrors.CodeAccountProjectLimit {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodeAccountProjectLimit)
	}

	if _, err := env.app.AdvanceState(ctx, account.ID, domain.StateSubscribed); err != nil {
		t.Fatalf("AdvanceState() error = %v", err)
	}
	limit, err = env.app.GenerationLimit(ctx, account.ID)
	if err != nil {
		t.Fatalf("GenerationLimit() error = %v", err)
	}
	if limit != domain.SubscribedPlan.MaxGenerationsPerMonth {
		t.Fatalf("GenerationLimit = %d, want %d after upgrade", limit, domain.SubscribedPlan.MaxGenerationsPerMonth)
	}
}

func TestPruneSessionsDeletesExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, session, err := env.app.Signup(ctx, "user@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	*env.now = env.now.Add(domain.DefaultSessionTTL + time.Minute)
	pruned, err := env.app.PruneSessions(ctx)
	if err != nil {
		t.Fatalf("PruneSessions() error = %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}
	if _, err := env.app.Authenticate(ctx, session.ID); apperrors.CodeOf(err) != apperrors.CodeAccountSessionInvalid {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodeAccountSessionInvalid)
	}
}
