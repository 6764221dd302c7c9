package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		logger.Info("http request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// requireAuth accepts a bearer token and stores the caller in the context
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortWith(c, http.StatusUnauthorized, "authentication required")
			return
		}
		claims, err := s.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		role := claims.Role
		// admin claims are re-checked so a demotion or deletion applies at once
		if role == domain.RoleAdmin {
			u, err := s.users.Get(c.Request.Context(), claims.UserID())
			if errors.Is(err, repository.ErrNotFound) {
				abortWith(c, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if err != nil {
				s.fail(c, err, "user")
				return
			}
			role = u.Role
		}
		c.Set(ctxUserID, claims.UserID())
		c.Set(ctxRole, role)
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(ctxRole); role != domain.RoleAdmin {
			abortWith(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) string { return c.GetString(ctxUserID) }

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get(ctxRole)
	return role == domain.RoleAdmin
}
