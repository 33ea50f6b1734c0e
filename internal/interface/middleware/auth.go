package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/pkg/response"
	"github.com/oksasatya/teamsync/pkg/validation"
)

// Gin context keys set by Authenticate.
const (
	CtxUserKey   = "user"
	CtxUserIDKey = "userID"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticate runs the strategy chosen for the route and aborts with 401 on rejection.
// It performs no permission checks.
func Authenticate(authn *application.Authenticator, kind application.StrategyKind, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds application.Credentials
		switch kind {
		case application.StrategyLocal:
			var p credentialsPayload
			if err := c.ShouldBindJSON(&p); err != nil {
				var ute *json.UnmarshalTypeError
				var se *json.SyntaxError
				if errors.As(err, &ute) || errors.As(err, &se) || errors.Is(err, io.ErrUnexpectedEOF) {
					response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
					return
				}
			}
			creds.Email, creds.Password = p.Email, p.Password
		case application.StrategyBearer:
			creds.Token = BearerToken(c.GetHeader("Authorization"))
		}

		d, err := authn.Authenticate(c.Request.Context(), kind, creds)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString(CtxRequestIDKey),
				"strategy":   kind.String(),
			}).Error("authentication failed on store")
			response.Abort(c, http.StatusInternalServerError, "internal server error", nil)
			return
		}
		if !d.OK() {
			response.Abort(c, http.StatusUnauthorized, d.Reason.Message(), nil)
			return
		}

		c.Set(CtxUserKey, d.User)
		c.Set(CtxUserIDKey, d.User.ID)
		c.Request = c.Request.WithContext(application.WithUser(c.Request.Context(), d.User))
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header.
// Anything other than "Bearer <token>" yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
