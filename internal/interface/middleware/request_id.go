package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/teamsync/internal/application"
)

const (
	HeaderRequestID = "X-Request-ID"
	// CtxRequestIDKey holds the request id for logs and response envelopes.
	CtxRequestIDKey = "request_id"
)

// RequestIDMiddleware assigns a request_id, reusing a well-formed incoming X-Request-ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(CtxRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestMeta copies the caller's request id, IP and user agent into the request
// context so services can attach them to audit events. Run it after RealIP.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := application.RequestMeta{
			RequestID: c.GetString(CtxRequestIDKey),
			IP:        ipFromCtx(c),
			UserAgent: c.GetHeader("User-Agent"),
		}
		c.Request = c.Request.WithContext(application.WithRequestMeta(c.Request.Context(), meta))
		c.Next()
	}
}
