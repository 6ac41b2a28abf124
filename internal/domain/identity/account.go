package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is what a login account is allowed to do
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleManager    Role = "manager"
	RoleMember     Role = "member"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

var bcryptCost = bcrypt.DefaultCost

// Account is a login identity. Super admins have no tenant; managers and
// members are bound to exactly one member row of one mess.
type Account struct {
	shared.BaseAggregateRoot
	Email          string
	PasswordHash   string
	Role           Role
	TenantID       *uuid.UUID
	MemberID       *uuid.UUID
	IsActive       bool
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewAdminAccount creates a platform super admin
func NewAdminAccount(email, password string) (*Account, error) {
	return newAccount(email, password, RoleSuperAdmin, nil, nil)
}

// NewMemberAccount creates the login of a mess member
func NewMemberAccount(email, password string, role Role, tenantID, memberID uuid.UUID) (*Account, error) {
	if role != RoleManager && role != RoleMember {
		return nil, shared.NewDomainError("INVALID_ROLE", "Member accounts must be manager or member")
	}
	if tenantID == uuid.Nil || memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Tenant and member are required")
	}
	return newAccount(email, password, role, &tenantID, &memberID)
}

func newAccount(email, password string, role Role, tenantID, memberID *uuid.UUID) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      hash,
		Role:              role,
		TenantID:          tenantID,
		MemberID:          memberID,
		IsActive:          true,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (a *Account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// ChangePassword changes the password after checking the current one
func (a *Account) ChangePassword(oldPassword, newPassword string) error {
	if !a.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	a.PasswordHash = hash
	a.Touch()
	a.IncrementVersion()
	return nil
}

// SetRole changes the role of a member account (manager promotion/demotion)
func (a *Account) SetRole(role Role) error {
	if a.Role == RoleSuperAdmin || (role != RoleManager && role != RoleMember) {
		return shared.NewDomainError("INVALID_ROLE", "Only member accounts can switch between manager and member")
	}
	a.Role = role
	a.Touch()
	a.IncrementVersion()
	return nil
}

func (a *Account) Deactivate() {
	a.IsActive = false
	a.Touch()
	a.IncrementVersion()
}

func (a *Account) Activate() {
	a.IsActive = true
	a.Touch()
	a.IncrementVersion()
}

// IsLocked reports whether too many failed logins locked the account
func (a *Account) IsLocked() bool {
	return a.LockedUntil != nil && time.Now().Before(*a.LockedUntil)
}

// CanLogin reports whether the account may authenticate right now
func (a *Account) CanLogin() bool {
	return a.IsActive && !a.IsLocked()
}

// RecordLoginSuccess resets the failure counter
func (a *Account) RecordLoginSuccess() {
	now := time.Now()
	a.LastLoginAt = &now
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.Touch()
}

// RecordLoginFailure counts a failed login and locks the account once
// maxAttempts is reached. It returns true when the account got locked.
func (a *Account) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	a.FailedAttempts++
	a.Touch()
	if maxAttempts > 0 && a.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		a.LockedUntil = &until
		a.FailedAttempts = 0
		return true
	}
	return false
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterExpr = regexp.MustCompile(`[a-zA-Z]`)
	hasNumberExpr = regexp.MustCompile(`[0-9]`)
)

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt ignores anything past 72 bytes
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetterExpr.MatchString(password) || !hasNumberExpr.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
