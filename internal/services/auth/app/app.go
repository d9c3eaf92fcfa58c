// Package app exposes signup, login, session, and plan operations.
package app

import (
	"context"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	analyticsdomain "github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	"github.com/inkhorn/inkhorn/internal/services/auth/domain"
	"github.com/inkhorn/inkhorn/internal/services/auth/storage"
)

// Recorder receives analytics signals for account activity. Capture and
// TrackStateChange never fail the caller.
type Recorder interface {
	Capture(ctx context.Context, accountID, name string, properties map[string]any)
	TrackStateChange(ctx context.Context, accountID string, to analyticsdomain.State, metadata map[string]any)
}

// App exposes auth operations to the web layer and plan limits to other
// services.
type App struct {
	store      storage.Store
	recorder   Recorder
	sessionTTL time.Duration
	now        func() time.Time
}

// New wires the auth application service. The recorder may be nil.
func New(store storage.Store, recorder Recorder) *App {
	return &App{
		store:      store,
		recorder:   recorder,
		sessionTTL: domain.DefaultSessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Signup registers an account and opens its first session.
func (a *App) Signup(ctx context.Context, email, password string) (domain.Account, domain.Session, error) {
	account, err := domain.CreateAccount(domain.CreateAccountInput{Email: email, Password: password}, a.now, nil)
	if err != nil {
		return domain.Account{}, domain.Session{}, err
	}
	if err := a.store.CreateAccount(ctx, account); err != nil {
		return domain.Account{}, domain.Session{}, err
	}

	session, err := a.openSession(ctx, account.ID)
	if err != nil {
		return domain.Account{}, domain.Session{}, err
	}

	if a.recorder != nil {
		a.recorder.TrackStateChange(ctx, account.ID, analyticsdomain.StateSignedUp, nil)
		a.recorder.Capture(ctx, account.ID, analyticsdomain.EventSignupCompleted, map[string]any{"email": account.Email})
	}
	return account, session, nil
}

// Login authenticates credentials and opens a session. Wrong email and wrong
// password are indistinguishable to the caller.
func (a *App) Login(ctx context.Context, email, password string) (domain.Account, domain.Session, error) {
	account, err := a.store.GetAccountByEmail(ctx, email)
	if apperrors.CodeOf(err) == apperrors.CodeAccountNotFound {
		return domain.Account{}, domain.Session{}, apperrors.New(apperrors.CodeAccountCredentialsWrong, "email or password is incorrect")
	}
	if err != nil {
		return domain.Account{}, domain.Session{}, err
	}
	if err := account.VerifyPassword(password); err != nil {
		return domain.Account{}, domain.Session{}, err
	}
	session, err := a.openSession(ctx, account.ID)
	if err != nil {
		return domain.Account{}, domain.Session{}, err
	}
	return account, session, nil
}

// Logout removes a session. Unknown sessions are not an error.
func (a *App) Logout(ctx context.Context, sessionID string) error {
	return a.store.DeleteSession(ctx, sessionID)
}

// Authenticate resolves a session id to its account. Expired sessions are
// deleted on sight.
func (a *App) Authenticate(ctx context.Context, sessionID string) (domain.Account, error) {
	if sessionID == "" {
		return domain.Account{}, apperrors.New(apperrors.CodeAccountSessionInvalid, "session is required")
	}
	session, err := a.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Account{}, err
	}
	if session.Expired(a.now) {
		_ = a.store.DeleteSession(ctx, session.ID)
		return domain.Account{}, apperrors.New(apperrors.CodeAccountSessionInvalid, "session expired")
	}
	return a.store.GetAccount(ctx, session.AccountID)
}

// GetAccount loads one account by id.
func (a *App) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return a.store.GetAccount(ctx, accountID)
}

// AdvanceState moves an account forward in its lifecycle. Subscribed and
// churned transitions are mirrored into the analytics funnel.
func (a *App) AdvanceState(ctx context.Context, accountID string, to domain.State) (domain.Account, error) {
	if !domain.ValidState(to) {
		return domain.Account{}, apperrors.New(apperrors.CodeAccountStateInvalid, "unknown account state")
	}
	account, err := a.store.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	if account.State == to {
		return account, nil
	}
	if !domain.CanTransition(account.State, to) {
		return domain.Account{}, apperrors.New(apperrors.CodeAccountStateTransitionBad, "account state cannot move backward")
	}

	updatedAt := a.now()
	if err := a.store.UpdateAccountState(ctx, accountID, to, updatedAt); err != nil {
		return domain.Account{}, err
	}
	account.State = to
	account.UpdatedAt = updatedAt

	if a.recorder != nil {
		if funnel, ok := funnelState(to); ok {
			a.recorder.TrackStateChange(ctx, accountID, funnel, map[string]any{"account_state": string(to)})
		}
	}
	return account, nil
}

// MarkOnboarded records the first-project milestone. Accounts already at or
// past onboarded are left alone.
func (a *App) MarkOnboarded(ctx context.Context, accountID string) error {
	return a.advanceMilestone(ctx, accountID, domain.StateOnboarded)
}

// MarkGenerated records the first finished post generation.
func (a *App) MarkGenerated(ctx context.Context, accountID string) error {
	return a.advanceMilestone(ctx, accountID, domain.StateGenerated)
}

func (a *App) advanceMilestone(ctx context.Context, accountID string, to domain.State) error {
	account, err := a.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(account.State, to) {
		return nil
	}
	_, err = a.AdvanceState(ctx, accountID, to)
	return err
}

// funnelState maps operational account states to the analytics funnel.
// Intermediate product milestones stay out of the funnel.
func funnelState(state domain.State) (analyticsdomain.State, bool) {
	switch state {
	case domain.StateSignedUp:
		return analyticsdomain.StateSignedUp, true
	case domain.StateSubscribed:
		return analyticsdomain.StateSubscribed, true
	case domain.StateChurned:
		return analyticsdomain.StateChurned, true
	}
	return "", false
}

// ProjectLimit reports how many concurrent projects the account's plan
// allows. Zero means unlimited.
func (a *App) ProjectLimit(ctx context.Context, accountID string) (int, error) {
	account, err := a.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return domain.PlanFor(account.State).MaxProjects, nil
}

// GenerationLimit reports how many post generations per month the account's
// plan allows. Zero means unlimited. The content service consumes this.
func (a *App) GenerationLimit(ctx context.Context, accountID string) (int, error) {
	account, err := a.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return domain.PlanFor(account.State).MaxGenerationsPerMonth, nil
}

// CheckProjectAllowance fails when the plan does not permit another project
// on top of currentCount.
func (a *App) CheckProjectAllowance(ctx context.Context, accountID string, currentCount int) error {
	account, err := a.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !domain.PlanFor(account.State).AllowsProject(currentCount) {
		return apperrors.New(apperrors.CodeAccountProjectLimit, "plan project limit reached")
	}
	return nil
}

// PruneSessions deletes sessions that have expired.
func (a *App) PruneSessions(ctx context.Context) (int64, error) {
	return a.store.DeleteExpiredSessions(ctx, a.now())
}

func (a *App) openSession(ctx context.Context, accountID string) (domain.Session, error) {
	session, err := domain.NewSession(accountID, a.sessionTTL, a.now)
	if err != nil {
		return domain.Session{}, err
	}
	if err := a.store.CreateSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}
