package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	ErrAccountDeactivated = shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	ErrAccountDetached    = shared.NewDomainError("ACCOUNT_DETACHED", "Account is no longer linked to a member")
	ErrMessSuspended      = shared.NewDomainError("MESS_SUSPENDED", "Mess has been suspended by the platform")
)

// SessionResolver rebuilds the caller of a request from stored state. Token
// claims only name the account; role, mess and member always come from the
// account, member and mess rows as they are now.
type SessionResolver struct {
	accounts identity.AccountRepository
	members  mess.MemberRepository
	messes   mess.MessRepository
	logger   *zap.Logger
}

// NewSessionResolver creates a new SessionResolver
func NewSessionResolver(
	accounts identity.AccountRepository,
	members mess.MemberRepository,
	messes mess.MessRepository,
	logger *zap.Logger,
) *SessionResolver {
	return &SessionResolver{
		accounts: accounts,
		members:  members,
		messes:   messes,
		logger:   logger,
	}
}

// Resolve returns the session of accountID for a token issued at issuedAt
func (r *SessionResolver) Resolve(ctx context.Context, accountID uuid.UUID, issuedAt time.Time) (identity.Session, error) {
	account, err := r.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identity.Session{}, shared.ErrUnauthorized
		}
		return identity.Session{}, err
	}
	if !account.IsActive {
		return identity.Session{}, ErrAccountDeactivated
	}
	session, _, err := r.build(ctx, account, issuedAt)
	return session, err
}

// build derives the session of a loaded account. The member is nil for
// platform accounts.
func (r *SessionResolver) build(ctx context.Context, account *identity.Account, issuedAt time.Time) (identity.Session, *mess.Member, error) {
	session := identity.NewSession(account, issuedAt)
	if account.Role == identity.RoleSuperAdmin {
		return session, nil, nil
	}
	if account.TenantID == nil || account.MemberID == nil {
		return identity.Session{}, nil, ErrAccountDetached
	}

	member, err := r.members.FindByIDForTenant(ctx, *account.TenantID, *account.MemberID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			r.logger.Warn("Account points at a missing member",
				zap.String("account_id", account.ID.String()),
				zap.String("member_id", account.MemberID.String()))
			return identity.Session{}, nil, ErrAccountDetached
		}
		return identity.Session{}, nil, err
	}

	m, err := r.messes.FindByID(ctx, *account.TenantID)
	if err != nil {
		return identity.Session{}, nil, err
	}
	if m.Status == mess.MessStatusSuspended {
		return identity.Session{}, nil, ErrMessSuspended
	}

	// Inactive members keep read access to their own history only
	session.Role = identity.RoleMember
	if member.IsActive && member.IsManager() {
		session.Role = identity.RoleManager
	}
	return session, member, nil
}
