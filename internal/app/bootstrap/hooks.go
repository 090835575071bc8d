// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires BloodLink into WAFFLE's lifecycle. The order WAFFLE runs them
// in is the order listed: config, Mongo, schema, templates, router, and
// Shutdown when the server stops.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "bloodlink",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
