package public

import (
	"net/http"

	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.Root+"{$}", h.handleRoot)
	mux.HandleFunc(http.MethodGet+" "+routepath.Health, h.handleHealth)

	mux.HandleFunc(http.MethodGet+" "+routepath.Login, h.handleLoginGet)
	mux.HandleFunc(http.MethodPost+" "+routepath.Login, h.handleLoginPost)
	mux.HandleFunc(http.MethodGet+" "+routepath.Signup, h.handleSignupGet)
	mux.HandleFunc(http.MethodPost+" "+routepath.Signup, h.handleSignupPost)
	mux.HandleFunc(http.MethodPost+" "+routepath.Logout, h.handleLogout)
}
