package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
)

// Session is the authenticated caller of one request. It is produced by the
// auth boundary from a verified token plus a fresh read of the account, and
// passed explicitly to whoever needs it.
type Session struct {
	AccountID uuid.UUID
	Email     string
	Role      Role
	TenantID  *uuid.UUID
	MemberID  *uuid.UUID
	IssuedAt  time.Time
}

// NewSession derives a session from the current state of an account
func NewSession(a *Account, issuedAt time.Time) Session {
	return Session{
		AccountID: a.ID,
		Email:     a.Email,
		Role:      a.Role,
		TenantID:  a.TenantID,
		MemberID:  a.MemberID,
		IssuedAt:  issuedAt,
	}
}

func (s Session) IsSuperAdmin() bool { return s.Role == RoleSuperAdmin }
func (s Session) IsManager() bool { return s.Role == RoleManager }

// Tenant returns the caller's mess or ErrForbidden for tenant-less sessions
func (s Session) Tenant() (uuid.UUID, error) {
	if s.TenantID == nil {
		return uuid.Nil, shared.NewDomainError("FORBIDDEN", "This operation requires a mess account")
	}
	return *s.TenantID, nil
}

// Member returns the caller's member ID or ErrForbidden
func (s Session) Member() (uuid.UUID, error) {
	if s.MemberID == nil {
		return uuid.Nil, shared.NewDomainError("FORBIDDEN", "This operation requires a member account")
	}
	return *s.MemberID, nil
}

// HasRole reports whether the session holds any of roles
func (s Session) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// CanManage reports whether the session may write the working data of tenantID
func (s Session) CanManage(tenantID uuid.UUID) bool {
	return s.Role == RoleManager && s.TenantID != nil && *s.TenantID == tenantID
}
