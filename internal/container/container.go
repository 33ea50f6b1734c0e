package container

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/config"
	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/domain/repository"
	"github.com/oksasatya/teamsync/internal/infrastructure/cache"
	handlers "github.com/oksasatya/teamsync/internal/interface/http"
	"github.com/oksasatya/teamsync/pkg/helpers"
)

// Deps are the infrastructure pieces built by cmd/main. Optional ones may be nil.
type Deps struct {
	Config *config.Config
	Logger *logrus.Logger
	Store  repository.CredentialStore
	Redis  *redis.Client
	Audit  application.AuditSink
	Mail   application.JobPublisher
	Google handlers.IdentityProvider
	Checks map[string]handlers.Pinger
}

// Container holds the constructed services shared by the router modules.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Store  repository.CredentialStore
	Tokens *helpers.TokenService
	Google handlers.IdentityProvider
	Checks map[string]handlers.Pinger

	Auth  *application.AuthService
	Authn *application.Authenticator
	Authz *application.Authorizer

	redis *redis.Client
}

func New(d Deps) (*Container, error) {
	if d.Config == nil || d.Store == nil {
		return nil, errors.New("container: config and store are required")
	}
	if d.Logger == nil {
		d.Logger = helpers.NewDiscardLogger()
	}
	if d.Audit == nil {
		d.Audit = application.NopAuditSink{}
	}

	tokens, err := helpers.NewTokenService(d.Config.Token())
	if err != nil {
		return nil, err
	}

	store := d.Store
	if d.Redis != nil && d.Config.RoleCacheTTL > 0 {
		store = cache.NewRoleCache(store, d.Redis, d.Config.RoleCacheTTL, d.Logger)
	}

	auth := application.NewAuthService(store, tokens, d.Logger, d.Audit, d.Mail)
	if d.Config.DefaultWorkspaceName != "" {
		auth.WorkspaceName = d.Config.DefaultWorkspaceName
	}

	return &Container{
		Config: d.Config,
		Logger: d.Logger,
		Store:  store,
		Tokens: tokens,
		Google: d.Google,
		Checks: d.Checks,
		Auth:   auth,
		Authn:  application.NewAuthenticator(store, tokens, d.Audit),
		Authz:  application.NewAuthorizer(store),
		redis:  d.Redis,
	}, nil
}

// Redis returns the client as a command interface, or a nil interface when
// Redis is not configured, so callers can test it against nil.
func (c *Container) Redis() redis.Cmdable {
	if c.redis == nil {
		return nil
	}
	return c.redis
}
