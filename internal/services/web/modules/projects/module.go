// Package projects serves the project detail page and its publishing
// settings page.
package projects

import (
	"net/http"

	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// Module hosts the project detail routes.
type Module struct{}

// New constructs the projects module.
func New() Module { return Module{} }

// ID identifies the module in registry diagnostics.
func (Module) ID() string { return "projects" }

// Mount builds the project route handler.
func (m Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := handlers{deps: deps}
	mux.HandleFunc(http.MethodPost+" "+routepath.ProjectsPrefix+"{$}", h.handleCreateProject)
	mux.HandleFunc(http.MethodGet+" "+routepath.ProjectsPrefix+"{project}", h.handleProject)
	mux.HandleFunc(http.MethodGet+" "+routepath.ProjectsPrefix+"{project}/settings", h.handleSettingsGet)
	mux.HandleFunc(http.MethodPost+" "+routepath.ProjectsPrefix+"{project}/settings", h.handleSettingsPost)
	return module.Mount{Prefix: routepath.ProjectsPrefix, Handler: mux}, nil
}
