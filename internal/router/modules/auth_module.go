package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	handlers "github.com/oksasatya/teamsync/internal/interface/http"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
)

// AuthModule registers the public sign-up and sign-in routes.
type AuthModule struct {
	Handler   *handlers.AuthHandler
	Google    *handlers.GoogleHandler // nil when Google sign-in is not configured
	Authn     *application.Authenticator
	RDB       redis.Cmdable
	RateLimit int // requests per minute per IP and path
	Logger    *logrus.Logger
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(m.RDB, m.RateLimit, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", limiter, m.Handler.Register)
	rg.POST("/auth/login", limiter,
		middleware.Authenticate(m.Authn, application.StrategyLocal, m.Logger),
		m.Handler.Login)
	rg.POST("/auth/logout", m.Handler.Logout)

	if m.Google != nil {
		rg.GET("/auth/google", limiter, m.Google.Login)
		rg.GET("/auth/google/callback", m.Google.Callback)
	}
}
