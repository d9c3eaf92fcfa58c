// Package public serves the signed-out surface: landing redirect, signup,
// login, logout, and the health probe.
package public

import (
	"net/http"

	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// Module hosts the public routes.
type Module struct{}

// New constructs the public module.
func New() Module { return Module{} }

// ID identifies the module in registry diagnostics.
func (Module) ID() string { return "public" }

// Mount builds the public route handler.
func (m Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := handlers{deps: deps}
	registerRoutes(mux, h)
	return module.Mount{Prefix: routepath.Root, Handler: mux}, nil
}
