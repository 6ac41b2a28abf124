package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when the role check fails (optional)
	OnDenied func(c *gin.Context, required []identity.Role)
}

// RequireRole creates middleware that admits sessions holding any of roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig creates role middleware with custom config
func RequireRoleWithConfig(cfg RoleConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", c.GetString("request_id")))
			return
		}

		if !session.HasRole(roles...) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Role check failed",
					zap.String("account_id", session.AccountID.String()),
					zap.String("role", session.Role.String()),
					zap.String("path", c.Request.URL.Path),
				)
			}
			if cfg.OnDenied != nil {
				cfg.OnDenied(c, roles)
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "You do not have access to this resource", c.GetString("request_id")))
			return
		}

		c.Next()
	}
}

// RequireTenant rejects sessions that do not belong to a mess
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok || session.TenantID == nil {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "This operation requires a mess account", c.GetString("request_id")))
			return
		}
		c.Next()
	}
}
