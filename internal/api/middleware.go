// internal/api/middleware.go
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/common/metrics"
	"evocrm/internal/models"
)

const contextUserKey = "authenticatedUser"

// requestLogger logs every request and feeds the HTTP metrics.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, fmt.Sprintf("%d", status)).Inc()
		log.Info("http request", map[string]interface{}{
			"method":      c.Request.Method,
			"path":        path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

// sessionAuth resolves the bearer token to a user and aborts unauthenticated
// requests. Handlers read the user back with currentUser.
func (s *Server) sessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		user, err := s.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("session"); err == nil {
		return cookie
	}
	return ""
}

func currentUser(c *gin.Context) (*models.User, error) {
	raw, ok := c.Get(contextUserKey)
	if !ok {
		return nil, errors.NewSessionInvalidError()
	}
	user, ok := raw.(*models.User)
	if !ok {
		return nil, errors.NewSessionInvalidError()
	}
	return user, nil
}
