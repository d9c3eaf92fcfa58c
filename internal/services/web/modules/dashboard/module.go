// Package dashboard serves the project list, first-run onboarding, and the
// feedback page.
package dashboard

import (
	"net/http"

	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// Module hosts the dashboard routes.
type Module struct{}

// New constructs the dashboard module.
func New() Module { return Module{} }

// ID identifies the module in registry diagnostics.
func (Module) ID() string { return "dashboard" }

// Mount builds the dashboard route handler.
func (m Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := handlers{deps: deps}
	mux.HandleFunc(http.MethodGet+" "+routepath.AppPrefix+"{$}", h.handleDashboard)
	mux.HandleFunc(http.MethodGet+" "+routepath.FeedbackPath, h.handleFeedbackGet)
	mux.HandleFunc(http.MethodPost+" "+routepath.FeedbackPath, h.handleFeedbackPost)
	return module.Mount{Prefix: routepath.AppPrefix, Handler: mux}, nil
}
