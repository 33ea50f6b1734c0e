package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
	"github.com/oksasatya/teamsync/pkg/response"
)

// WorkspaceHandler exposes permission resolution for the caller's workspaces.
type WorkspaceHandler struct {
	Authz  *application.Authorizer
	Logger *logrus.Logger
}

func NewWorkspaceHandler(authz *application.Authorizer, logger *logrus.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{Authz: authz, Logger: logger}
}

// Permissions GET /api/workspace/:workspaceId/permissions
// A non-member gets an empty list rather than an error.
func (h *WorkspaceHandler) Permissions(c *gin.Context) {
	wsID := c.Param("workspaceId")
	set, err := h.Authz.Permissions(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), wsID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"workspace_id": wsID,
		"permissions":  set.List(),
	}, "permissions resolved", nil)
}

// Members GET /api/workspace/:workspaceId/members, behind RequirePermission(VIEW_ONLY).
func (h *WorkspaceHandler) Members(c *gin.Context) {
	members, err := h.Authz.Members(c.Request.Context(), c.Param("workspaceId"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"members": members}, "members fetched successfully", map[string]any{"total": len(members)})
}
