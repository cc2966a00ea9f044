package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/piyushmishra0/Modex-System/internal/shared/utils/response"
	"github.com/piyushmishra0/Modex-System/pkg/logger"
)

// AdminKeyHeader carries the static admin key
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards admin routes with a static key. An empty key lets every request through.
func RequireAdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(AdminKeyHeader)
		if provided == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, AdminKeyHeader+" header is required", nil, nil)
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequestLogger logs every request once it has been served
func RequestLogger(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.LogHTTPRequest(c, time.Since(start))
	}
}
