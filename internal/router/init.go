package router

import (
	"github.com/oksasatya/teamsync/internal/container"
	handlers "github.com/oksasatya/teamsync/internal/interface/http"
	"github.com/oksasatya/teamsync/internal/router/modules"
)

// InitModules builds handlers from the container and registers every module.
// Call once at startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	authHandler := handlers.NewAuthHandler(c.Auth, c.Logger)
	var google *handlers.GoogleHandler
	if c.Google != nil {
		google = &handlers.GoogleHandler{
			Svc:         c.Auth,
			Provider:    c.Google,
			RDB:         c.Redis(),
			CallbackURL: cfg.FrontendGoogleCallbackURL,
			Secure:      cfg.Env == "production",
			Logger:      c.Logger,
		}
	}

	var debug Module
	if cfg.DebugMetricsEnabled {
		debug = &modules.DebugModule{RDB: c.Redis()}
	}

	r.Add(
		&modules.HealthModule{Handler: &handlers.HealthHandler{Checks: c.Checks}},
		&modules.AuthModule{
			Handler:   authHandler,
			Google:    google,
			Authn:     c.Authn,
			RDB:       c.Redis(),
			RateLimit: cfg.AuthRateLimit,
			Logger:    c.Logger,
		},
		&modules.UserModule{
			Handler: handlers.NewUserHandler(c.Auth, c.Logger),
			Authn:   c.Authn,
			Logger:  c.Logger,
		},
		&modules.WorkspaceModule{
			Handler: handlers.NewWorkspaceHandler(c.Authz, c.Logger),
			Authn:   c.Authn,
			Authz:   c.Authz,
			Logger:  c.Logger,
		},
		debug,
	)
}
