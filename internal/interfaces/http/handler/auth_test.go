package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	appidentity "github.com/messmate/backend/internal/application/identity"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/auth"
	"github.com/messmate/backend/internal/interfaces/http/dto"
	"github.com/messmate/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func authRouter(svc *MockAuthService, session *identity.Session, claims *auth.Claims) *gin.Engine {
	h := NewAuthHandler(svc)
	router := newRouter(session)
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.JWTClaimsKey, claims)
			c.Next()
		})
	}
	router.POST("/auth/login", h.Login)
	router.POST("/auth/refresh", h.RefreshToken)
	router.POST("/auth/logout", h.Logout)
	router.GET("/auth/me", h.Me)
	router.POST("/auth/password", h.ChangePassword)
	return router
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(MockAuthService)
		input := appidentity.LoginInput{Email: "manager@mess.test", Password: "s3cret-pass"}
		svc.On("Login", mock.Anything, input).Return(&appidentity.LoginResult{
			TokenResult: appidentity.TokenResult{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"},
			Account:     appidentity.AccountInfo{Email: input.Email, Role: "manager"},
		}, nil)

		w := doJSON(authRouter(svc, nil, nil), http.MethodPost, "/auth/login", input)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w).Data.(map[string]any)
		assert.Equal(t, "access", data["access_token"])
		assert.Equal(t, "manager", data["account"].(map[string]any)["role"])
		svc.AssertExpectations(t)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password"))

		w := doJSON(authRouter(svc, nil, nil), http.MethodPost, "/auth/login",
			appidentity.LoginInput{Email: "a@b.co", Password: "wrong-pass"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidCredentials, errorCodeOf(t, w))
	})

	t.Run("suspended mess", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("MESS_SUSPENDED", "This mess is suspended"))

		w := doJSON(authRouter(svc, nil, nil), http.MethodPost, "/auth/login",
			appidentity.LoginInput{Email: "a@b.co", Password: "whatever1"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeMessSuspended, errorCodeOf(t, w))
	})

	t.Run("invalid body never reaches the service", func(t *testing.T) {
		svc := new(MockAuthService)

		w := doJSON(authRouter(svc, nil, nil), http.MethodPost, "/auth/login", `{"email":"not-an-email"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("RefreshToken", mock.Anything, appidentity.RefreshTokenInput{RefreshToken: "old"}).
		Return(&appidentity.TokenResult{AccessToken: "new-access"}, nil)
	svc.On("RefreshToken", mock.Anything, appidentity.RefreshTokenInput{RefreshToken: "revoked"}).
		Return(nil, shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked"))
	router := authRouter(svc, nil, nil)

	w := doJSON(router, http.MethodPost, "/auth/refresh", appidentity.RefreshTokenInput{RefreshToken: "old"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/refresh", appidentity.RefreshTokenInput{RefreshToken: "revoked"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, errorCodeOf(t, w))
}

func TestAuthHandler_Logout(t *testing.T) {
	sessions := newTestSessions()
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
	}}

	t.Run("current token", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, mock.MatchedBy(func(in appidentity.LogoutInput) bool {
			return in.AccountID == sessions.manager.AccountID && in.TokenJTI == "jti-1" &&
				in.TokenTTL > 9*time.Minute && !in.AllSessions
		})).Return(nil)

		w := doJSON(authRouter(svc, &sessions.manager, claims), http.MethodPost, "/auth/logout", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("all sessions", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, mock.MatchedBy(func(in appidentity.LogoutInput) bool {
			return in.AllSessions
		})).Return(nil)

		w := doJSON(authRouter(svc, &sessions.member, claims), http.MethodPost, "/auth/logout", LogoutRequest{AllSessions: true})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(MockAuthService)

		w := doJSON(authRouter(svc, nil, nil), http.MethodPost, "/auth/logout", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	sessions := newTestSessions()
	svc := new(MockAuthService)
	svc.On("Me", mock.Anything, sessions.member).Return(&appidentity.AccountInfo{
		ID: sessions.member.AccountID, Email: sessions.member.Email, Role: "member",
		TenantID: sessions.member.TenantID, MemberID: sessions.member.MemberID,
	}, nil)

	w := doJSON(authRouter(svc, &sessions.member, nil), http.MethodGet, "/auth/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, sessions.member.Email, data["email"])
	assert.Equal(t, sessions.tenantID.String(), data["tenant_id"])
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	sessions := newTestSessions()
	input := appidentity.ChangePasswordInput{OldPassword: "old-password", NewPassword: "new-password"}

	t.Run("success", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("ChangePassword", mock.Anything, sessions.manager, input).Return(nil)

		w := doJSON(authRouter(svc, &sessions.manager, nil), http.MethodPost, "/auth/password", input)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("short password", func(t *testing.T) {
		svc := new(MockAuthService)

		w := doJSON(authRouter(svc, &sessions.manager, nil), http.MethodPost, "/auth/password",
			appidentity.ChangePasswordInput{OldPassword: "old-password", NewPassword: "short"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ChangePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong old password", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("ChangePassword", mock.Anything, sessions.manager, input).
			Return(shared.NewDomainError("INVALID_CREDENTIALS", "Current password is incorrect"))

		w := doJSON(authRouter(svc, &sessions.manager, nil), http.MethodPost, "/auth/password", input)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
