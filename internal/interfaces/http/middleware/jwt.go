package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/auth"
	"github.com/messmate/backend/internal/infrastructure/logger"
	"github.com/messmate/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	SessionKey    = "session"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// SessionResolver rebuilds the caller's session from stored state
type SessionResolver interface {
	Resolve(ctx context.Context, accountID uuid.UUID, issuedAt time.Time) (identity.Session, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// Sessions is required; the role in the token is only a hint
	Sessions SessionResolver
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Optional callback if token is invalid (default: return 401)
	OnError func(c *gin.Context, err error)
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService, sessions SessionResolver) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		Sessions:   sessions,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService, sessions SessionResolver) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService, sessions))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		ctx := c.Request.Context()
		if cfg.TokenBlacklist != nil {
			// Individual logout
			if claims.ID != "" {
				blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
				if err != nil {
					// fail open
					if cfg.Logger != nil {
						cfg.Logger.Error("Failed to check token blacklist",
							zap.String("jti", claims.ID),
							zap.Error(err))
					}
				} else if blacklisted {
					handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Token has been revoked")
					return
				}
			}

			// Logout everywhere, password change
			invalidated, err := cfg.TokenBlacklist.IsAccountTokenInvalidated(ctx, claims.AccountID, claims.GetIssuedAtTime())
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Error("Failed to check account token invalidation",
						zap.String("account_id", claims.AccountID),
						zap.Error(err))
				}
			} else if invalidated {
				handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Account session has been invalidated")
				return
			}
		}

		accountID, err := claims.GetAccountUUID()
		if err != nil {
			handleAuthError(c, cfg, auth.ErrInvalidClaims, "Invalid account ID in token")
			return
		}
		session, err := cfg.Sessions.Resolve(ctx, accountID, claims.GetIssuedAtTime())
		if err != nil {
			handleSessionError(c, cfg, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(SessionKey, session)

		ctx = logger.WithAccountID(ctx, session.AccountID.String())
		if session.TenantID != nil {
			ctx = logger.WithTenantID(ctx, session.TenantID.String())
		}
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("account_id", session.AccountID.String()),
				zap.String("role", session.Role.String()),
			)
		}

		c.Next()
	}
}

// handleAuthError handles token errors
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	errorCode := dto.ErrCodeUnauthorized
	errorMessage := "Authentication required"

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		errorCode = dto.ErrCodeTokenExpired
		errorMessage = "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		errorCode = dto.ErrCodeTokenInvalid
		errorMessage = "Invalid token"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		errorCode = dto.ErrCodeTokenInvalid
		errorMessage = "Token is not yet valid"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		errorCode = dto.ErrCodeTokenRevoked
		errorMessage = "Token has been revoked"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(errorCode, errorMessage, c.GetString("request_id")))
}

// handleSessionError rejects a valid token whose account can no longer act
func handleSessionError(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("Session rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
	}

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code, message = dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	}
	status := dto.GetHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		status, code = http.StatusUnauthorized, dto.ErrCodeUnauthorized
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, c.GetString("request_id")))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetSession retrieves the authenticated session from gin.Context
func GetSession(c *gin.Context) (identity.Session, bool) {
	if v, exists := c.Get(SessionKey); exists {
		if s, ok := v.(identity.Session); ok {
			return s, true
		}
	}
	return identity.Session{}, false
}

// MustGetSession retrieves the session or panics if the route is unauthenticated
func MustGetSession(c *gin.Context) identity.Session {
	s, ok := GetSession(c)
	if !ok {
		panic("session not found in context")
	}
	return s
}
