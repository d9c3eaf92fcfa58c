// Package modules groups web feature modules for composition.
package modules

import (
	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/modules/api"
	"github.com/inkhorn/inkhorn/internal/services/web/modules/dashboard"
	"github.com/inkhorn/inkhorn/internal/services/web/modules/posts"
	"github.com/inkhorn/inkhorn/internal/services/web/modules/projects"
	"github.com/inkhorn/inkhorn/internal/services/web/modules/public"
)

// Module aliases the module interface contract.
type Module = module.Module

// PublicModules returns the signed-out route modules.
func PublicModules() []Module {
	return []Module{public.New()}
}

// ProtectedModules returns the modules that require a signed-in account.
func ProtectedModules() []Module {
	return []Module{
		dashboard.New(),
		projects.New(),
		posts.New(),
		api.New(),
	}
}
