package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/domain/entity"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
	"github.com/oksasatya/teamsync/pkg/response"
	"github.com/oksasatya/teamsync/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,pwd,max=72"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"access_token": res.AccessToken,
		"expires_at":   res.ExpiresAt,
		"user":         gin.H{"id": res.User.ID},
		"workspace_id": res.WorkspaceID,
	}, "user created successfully", nil)
}

// Login POST /api/auth/login, behind the local strategy guard.
func (h *AuthHandler) Login(c *gin.Context) {
	u, _ := c.Get(middleware.CtxUserKey)
	user, _ := u.(*entity.User)
	res, err := h.Svc.Login(c.Request.Context(), user)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"access_token": res.AccessToken,
		"expires_at":   res.ExpiresAt,
		"user":         res.User,
	}, "logged in successfully", nil)
}

// Logout POST /api/auth/logout. Tokens are stateless; the client discards its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out successfully", nil)
}
