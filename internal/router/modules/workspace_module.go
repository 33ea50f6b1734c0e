package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/domain/entity"
	handlers "github.com/oksasatya/teamsync/internal/interface/http"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
)

type WorkspaceModule struct {
	Handler *handlers.WorkspaceHandler
	Authn   *application.Authenticator
	Authz   *application.Authorizer
	Logger  *logrus.Logger
}

func (m *WorkspaceModule) Register(rg *gin.RouterGroup) {
	ws := rg.Group("/workspace/:workspaceId")
	ws.Use(middleware.Authenticate(m.Authn, application.StrategyBearer, m.Logger))
	{
		ws.GET("/permissions", m.Handler.Permissions)
		ws.GET("/members",
			middleware.RequirePermission(m.Authz, entity.PermissionViewOnly, m.Logger),
			m.Handler.Members)
	}
}
