package public

import (
	"net/http"
	"strings"

	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/pagerender"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/sessioncookie"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/weberror"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
	"github.com/inkhorn/inkhorn/internal/services/web/templates"
)

type handlers struct {
	deps module.Dependencies
}

func (h handlers) signedIn(r *http.Request) bool {
	return h.deps.ResolveAccountID != nil && h.deps.ResolveAccountID(r) != ""
}

func (h handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, routepath.AppPrefix, http.StatusFound)
		return
	}
	http.Redirect(w, r, routepath.Login, http.StatusFound)
}

func (h handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h handlers) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, routepath.AppPrefix, http.StatusFound)
		return
	}
	_ = pagerender.WritePublicPage(w, r, pagerender.ModulePage{
		Title:    "Sign in",
		Fragment: templates.LoginPage("", ""),
	})
}

func (h handlers) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse login form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	_, session, err := h.deps.Auth.Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		_ = pagerender.WritePublicPage(w, r, pagerender.ModulePage{
			Title:      "Sign in",
			StatusCode: http.StatusUnauthorized,
			Fragment:   templates.LoginPage(email, weberror.PublicMessage(err)),
		})
		return
	}
	sessioncookie.Write(w, r, session.ID)
	http.Redirect(w, r, routepath.AppPrefix, http.StatusFound)
}

func (h handlers) handleSignupGet(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, routepath.AppPrefix, http.StatusFound)
		return
	}
	_ = pagerender.WritePublicPage(w, r, pagerender.ModulePage{
		Title:    "Create account",
		Fragment: templates.SignupPage("", ""),
	})
}

func (h handlers) handleSignupPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse signup form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	_, session, err := h.deps.Auth.Signup(r.Context(), email, r.FormValue("password"))
	if err != nil {
		_ = pagerender.WritePublicPage(w, r, pagerender.ModulePage{
			Title:      "Create account",
			StatusCode: http.StatusBadRequest,
			Fragment:   templates.SignupPage(email, weberror.PublicMessage(err)),
		})
		return
	}
	sessioncookie.Write(w, r, session.ID)
	http.Redirect(w, r, routepath.AppPrefix, http.StatusFound)
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := sessioncookie.Read(r); ok {
		_ = h.deps.Auth.Logout(r.Context(), sessionID)
	}
	sessioncookie.Clear(w, r)
	http.Redirect(w, r, routepath.Login, http.StatusFound)
}
