package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
	"github.com/oksasatya/teamsync/pkg/response"
)

type UserHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.AuthService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// Current GET /api/user/current
func (h *UserHandler) Current(c *gin.Context) {
	u, err := h.Svc.CurrentUser(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u}, "user fetched successfully", nil)
}
