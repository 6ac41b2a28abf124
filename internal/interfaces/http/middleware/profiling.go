package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/messmate/backend/internal/infrastructure/telemetry"
)

// Profiling attaches method, route and mess pprof labels to the handler's
// goroutine so CPU profiles can be sliced per endpoint. Place it after
// JWTAuthMiddleware to get the tenant label. enabled=false yields a
// pass-through middleware.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		var tenantID string
		if session, ok := GetSession(c); ok && session.TenantID != nil {
			tenantID = session.TenantID.String()
		}

		telemetry.TagRequest(c.Request.Context(), c.Request.Method, c.FullPath(), tenantID, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
