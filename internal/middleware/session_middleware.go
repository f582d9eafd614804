package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionHeader carries the caller's session identity for simulated tariffs.
	SessionHeader = "X-Session-Id"
	// SessionContextKey is the gin context key holding the session id.
	SessionContextKey = "session_id"
	maxSessionIDLen   = 128
)

// SessionMiddleware reads the session id from the request, issuing a new one
// when absent or unusable, and echoes it back in the response header.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" || len(id) > maxSessionIDLen || strings.ContainsAny(id, ": \t") {
			id = uuid.NewString()
		}
		c.Set(SessionContextKey, id)
		c.Header(SessionHeader, id)
		c.Next()
	}
}
