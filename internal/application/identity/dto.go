package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
)

// LoginInput contains the credentials of a login attempt
type LoginInput struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,max=72"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the token being logged out
type LogoutInput struct {
	AccountID uuid.UUID
	TokenJTI  string
	TokenTTL  time.Duration

	// AllSessions also rejects every other token issued to the account so far
	AllSessions bool
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// TokenResult is an issued token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	TokenResult
	Account AccountInfo `json:"account"`
}

// AccountInfo describes the logged in account
type AccountInfo struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	TenantID    *uuid.UUID `json:"tenant_id,omitempty"`
	MemberID    *uuid.UUID `json:"member_id,omitempty"`
	Name        string     `json:"name,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func toAccountInfo(a *identity.Account) AccountInfo {
	return AccountInfo{
		ID:          a.ID,
		Email:       a.Email,
		Role:        a.Role.String(),
		TenantID:    a.TenantID,
		MemberID:    a.MemberID,
		LastLoginAt: a.LastLoginAt,
	}
}
