package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// AuthService handles authentication operations
type AuthService struct {
	accounts   identity.AccountRepository
	sessions   *SessionResolver
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. blacklist may be nil,
// in which case logout only succeeds client-side.
func NewAuthService(
	accounts identity.AccountRepository,
	sessions *SessionResolver,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     logger,
	}
}

// Login authenticates an account and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	s.logger.Info("Login attempt", zap.String("email", input.Email))

	account, err := s.accounts.FindByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Warn("Account not found during login", zap.String("email", input.Email))
		return nil, ErrInvalidCredentials
	}

	if !account.CanLogin() {
		if account.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("email", input.Email))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
		}
		s.logger.Warn("Login attempt for deactivated account", zap.String("email", input.Email))
		return nil, ErrAccountDeactivated
	}

	if !account.VerifyPassword(input.Password) {
		locked := account.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.accounts.Save(ctx, account); err != nil {
			s.logger.Error("Failed to update account after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", input.Email),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("email", input.Email),
			zap.Int("failed_attempts", account.FailedAttempts))
		return nil, ErrInvalidCredentials
	}

	session, member, err := s.sessions.build(ctx, account, time.Now())
	if err != nil {
		return nil, err
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(tokenInput(session))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	account.RecordLoginSuccess()
	if err := s.accounts.Save(ctx, account); err != nil {
		// the tokens are valid regardless
		s.logger.Error("Failed to update account after successful login", zap.Error(err))
	}

	s.logger.Info("Account logged in",
		zap.String("account_id", account.ID.String()),
		zap.String("role", session.Role.String()))

	info := toAccountInfo(account)
	info.Role = session.Role.String()
	if member != nil {
		info.Name = member.Name
	}
	return &LoginResult{TokenResult: toTokenResult(tokenPair), Account: info}, nil
}

// RefreshToken exchanges a refresh token for a new pair carrying the
// account's current role
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}

	accountID, err := claims.GetAccountUUID()
	if err != nil {
		s.logger.Error("Invalid account ID in refresh token", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid account ID in token")
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err == nil && !revoked {
			revoked, err = s.blacklist.IsAccountTokenInvalidated(ctx, claims.AccountID, claims.GetIssuedAtTime())
		}
		if err != nil {
			s.logger.Error("Failed to check token blacklist", zap.Error(err))
		} else if revoked {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
	}

	session, err := s.sessions.Resolve(ctx, accountID, time.Now())
	if err != nil {
		s.logger.Warn("Token refresh for unusable account",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
		return nil, err
	}

	tokenPair, _, err := s.jwtService.RefreshTokenPair(input.RefreshToken, tokenInput(session))
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, tokenError(err)
	}

	s.logger.Info("Token refreshed", zap.String("account_id", accountID.String()))
	result := toTokenResult(tokenPair)
	return &result, nil
}

// Logout revokes the presented token, and with AllSessions every token the
// account holds
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("Account logout",
		zap.String("account_id", input.AccountID.String()),
		zap.Bool("all_sessions", input.AllSessions))

	if s.blacklist == nil {
		return nil
	}
	if input.TokenJTI != "" && input.TokenTTL > 0 {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			s.logger.Error("Failed to blacklist token", zap.Error(err))
			return err
		}
	}
	if input.AllSessions {
		if err := s.blacklist.InvalidateAccount(ctx, input.AccountID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
			s.logger.Error("Failed to invalidate account tokens", zap.Error(err))
			return err
		}
	}
	return nil
}

// Me returns the account behind a session
func (s *AuthService) Me(ctx context.Context, session identity.Session) (*AccountInfo, error) {
	account, err := s.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	_, member, err := s.sessions.build(ctx, account, session.IssuedAt)
	if err != nil {
		return nil, err
	}
	info := toAccountInfo(account)
	info.Role = session.Role.String()
	if member != nil {
		info.Name = member.Name
	}
	return &info, nil
}

// ChangePassword changes the session owner's password and revokes every
// token issued to the account so far
func (s *AuthService) ChangePassword(ctx context.Context, session identity.Session, input ChangePasswordInput) error {
	account, err := s.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		return err
	}

	if err := account.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		s.logger.Error("Failed to update account after password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update password")
	}

	if s.blacklist != nil {
		if err := s.blacklist.InvalidateAccount(ctx, account.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
			s.logger.Error("Failed to invalidate tokens after password change", zap.Error(err))
		}
	}

	s.logger.Info("Account password changed", zap.String("account_id", account.ID.String()))
	return nil
}

func tokenInput(session identity.Session) auth.GenerateTokenInput {
	return auth.GenerateTokenInput{
		AccountID: session.AccountID,
		Role:      session.Role.String(),
		TenantID:  session.TenantID,
		MemberID:  session.MemberID,
	}
}

func toTokenResult(p *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
		TokenType:             p.TokenType,
	}
}

// tokenError maps JWT errors to domain errors
func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to refresh token")
	}
}
