package web

import (
	"context"
	"net/http"
	"sync"

	authdomain "github.com/inkhorn/inkhorn/internal/services/auth/domain"
	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/sessioncookie"
)

// requestPrincipalState caches per-request identity lookups so middleware,
// page chrome, and handlers share a single session resolution.
type requestPrincipalState struct {
	accountOnce sync.Once
	account     authdomain.Account
	ok          bool
}

type requestPrincipalStateKey struct{}

type principalResolver struct {
	auth module.AuthService
}

func newPrincipalResolver(cfg Config) principalResolver {
	return principalResolver{auth: cfg.Auth}
}

func (p principalResolver) resolveAccountUncached(r *http.Request) (authdomain.Account, bool) {
	if p.auth == nil || r == nil {
		return authdomain.Account{}, false
	}
	sessionID, ok := sessioncookie.Read(r)
	if !ok {
		return authdomain.Account{}, false
	}
	account, err := p.auth.Authenticate(r.Context(), sessionID)
	if err != nil {
		return authdomain.Account{}, false
	}
	return account, true
}

func (p principalResolver) resolveAccount(r *http.Request) (authdomain.Account, bool) {
	if state := requestPrincipalStateFromRequest(r); state != nil {
		state.accountOnce.Do(func() {
			state.account, state.ok = p.resolveAccountUncached(r)
		})
		return state.account, state.ok
	}
	return p.resolveAccountUncached(r)
}

func (p principalResolver) resolveRequestAccountID(r *http.Request) string {
	account, ok := p.resolveAccount(r)
	if !ok {
		return ""
	}
	return account.ID
}

func (p principalResolver) resolveViewer(r *http.Request) module.Viewer {
	account, ok := p.resolveAccount(r)
	if !ok {
		return module.Viewer{}
	}
	return module.Viewer{Email: account.Email}
}

func (p principalResolver) authRequired() func(*http.Request) bool {
	return func(r *http.Request) bool {
		_, ok := p.resolveAccount(r)
		return ok
	}
}

func withRequestPrincipalState() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := &requestPrincipalState{}
			ctx := context.WithValue(r.Context(), requestPrincipalStateKey{}, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestPrincipalStateFromRequest(r *http.Request) *requestPrincipalState {
	if r == nil {
		return nil
	}
	state, _ := r.Context().Value(requestPrincipalStateKey{}).(*requestPrincipalState)
	return state
}
