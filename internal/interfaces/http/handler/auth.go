package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/messmate/backend/internal/application/identity"
	"github.com/messmate/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LogoutRequest optionally ends every session of the account
type LogoutRequest struct {
	AllSessions bool `json:"all_sessions"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// Login authenticates with email and password.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req appidentity.LoginInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RefreshToken exchanges a refresh token for a new pair.
// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req appidentity.RefreshTokenInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Logout revokes the presented access token.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	// The body is optional
	var req LogoutRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	err := h.authService.Logout(c.Request.Context(), appidentity.LogoutInput{
		AccountID:   session.AccountID,
		TokenJTI:    claims.ID,
		TokenTTL:    claims.GetRemainingTTL(),
		AllSessions: req.AllSessions,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Logged out successfully"})
}

// Me returns the caller's account.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	info, err := h.authService.Me(c.Request.Context(), session)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// ChangePassword replaces the caller's password and signs out every session.
// POST /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req appidentity.ChangePasswordInput
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), session, req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Password changed successfully"})
}
