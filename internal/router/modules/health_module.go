package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/teamsync/internal/interface/http"
)

type HealthModule struct {
	Handler *handlers.HealthHandler
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.Handler.Health)
}
