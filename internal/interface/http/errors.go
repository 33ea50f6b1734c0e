package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
	"github.com/oksasatya/teamsync/pkg/response"
)

const msgInternal = "internal server error"

// writeError is the single translation from application errors to HTTP responses.
// Internal detail is logged, never returned.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString(middleware.CtxRequestIDKey),
		"path":       c.FullPath(),
	})
	switch {
	case errors.Is(err, application.ErrConflict):
		response.Error[any](c, http.StatusConflict, application.ErrConflict.Error(), nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, application.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, application.ErrUnauthorized):
		response.Error[any](c, http.StatusUnauthorized, application.ErrUnauthorized.Error(), nil)
	case errors.Is(err, application.ErrForbidden):
		response.Error[any](c, http.StatusForbidden, application.ErrForbidden.Error(), nil)
	case errors.Is(err, application.ErrInvalidProvider):
		response.Error[any](c, http.StatusBadRequest, application.ErrInvalidProvider.Error(), nil)
	case errors.Is(err, application.ErrRoleNotSeeded):
		// checked before ErrNotFound, which it wraps
		entry.Error("deployment is missing seeded roles")
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
	case errors.Is(err, application.ErrNotFound):
		response.Error[any](c, http.StatusNotFound, application.ErrNotFound.Error(), nil)
	default:
		entry.Error("request failed")
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
	}
}
