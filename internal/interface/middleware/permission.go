package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/domain/entity"
	"github.com/oksasatya/teamsync/pkg/response"
)

// RequirePermission aborts with 403 unless the authenticated user holds perm in
// the workspace named by the :workspaceId route parameter. Run after Authenticate.
func RequirePermission(authz *application.Authorizer, perm entity.Permission, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := authz.Require(c.Request.Context(), c.GetString(CtxUserIDKey), c.Param("workspaceId"), perm)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, application.ErrForbidden):
			response.Abort(c, http.StatusForbidden, "forbidden", gin.H{"missing": perm})
		default:
			logger.WithError(err).WithField("request_id", c.GetString(CtxRequestIDKey)).Error("permission check failed")
			response.Abort(c, http.StatusInternalServerError, "internal server error", nil)
		}
	}
}
