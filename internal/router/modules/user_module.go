package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	handlers "github.com/oksasatya/teamsync/internal/interface/http"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
)

// UserModule serves the authenticated user's own record.
type UserModule struct {
	Handler *handlers.UserHandler
	Authn   *application.Authenticator
	Logger  *logrus.Logger
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/user")
	auth.Use(middleware.Authenticate(m.Authn, application.StrategyBearer, m.Logger))
	{
		auth.GET("/current", m.Handler.Current)
	}
}
