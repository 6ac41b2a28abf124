package mess

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MemberService manages the roster of one mess on behalf of its manager
type MemberService struct {
	memberRepo  mess.MemberRepository
	accountRepo identity.AccountRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewMemberService creates a new MemberService
func NewMemberService(
	memberRepo mess.MemberRepository,
	accountRepo identity.AccountRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *MemberService {
	return &MemberService{
		memberRepo:  memberRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// Add adds a member to a mess and optionally creates their login
func (s *MemberService) Add(ctx context.Context, tenantID uuid.UUID, req AddMemberRequest) (*MemberResponse, error) {
	member, err := mess.NewMember(tenantID, req.Name, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	taken, err := s.memberRepo.ExistsByContact(ctx, member.Email, member.Phone, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrContactTaken
	}

	var account *identity.Account
	if req.Password != "" {
		if member.Email == "" {
			return nil, shared.NewDomainError("EMAIL_REQUIRED", "A login needs an email address")
		}
		if taken, err := s.accountRepo.ExistsByEmail(ctx, member.Email); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrEmailTaken
		}
		account, err = identity.NewMemberAccount(member.Email, req.Password, identity.RoleMember, tenantID, member.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.memberRepo.Save(ctx, member); err != nil {
		return nil, err
	}
	if account != nil {
		if err := s.accountRepo.Save(ctx, account); err != nil {
			s.logger.Error("Member saved but login creation failed",
				zap.String("member_id", member.ID.String()), zap.Error(err))
			return nil, err
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, member.PullDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish member events", zap.Error(err))
		}
	}
	s.logger.Info("Member added",
		zap.String("tenant_id", tenantID.String()),
		zap.String("member_id", member.ID.String()),
		zap.Bool("with_login", account != nil))

	resp := ToMemberResponse(member)
	return &resp, nil
}

// GetByID retrieves a member of the mess
func (s *MemberService) GetByID(ctx context.Context, tenantID, memberID uuid.UUID) (*MemberResponse, error) {
	member, err := s.memberRepo.FindByIDForTenant(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	resp := ToMemberResponse(member)
	return &resp, nil
}

// List lists the members of a mess
func (s *MemberService) List(ctx context.Context, tenantID uuid.UUID, filter MemberListFilter) (*shared.Paginated[MemberResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
		filter.OrderDir = "asc"
	}

	domainFilter := mess.MemberFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		Active: filter.Active,
	}
	if filter.Role != "" {
		role := mess.MemberRole(filter.Role)
		domainFilter.Role = &role
	}

	members, total, err := s.memberRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToMemberResponses(members), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update replaces a member's profile
func (s *MemberService) Update(ctx context.Context, tenantID, memberID uuid.UUID, req UpdateMemberRequest) (*MemberResponse, error) {
	member, err := s.memberRepo.FindByIDForTenant(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	if err := member.Update(req.Name, req.Email, req.Phone); err != nil {
		return nil, err
	}
	taken, err := s.memberRepo.ExistsByContact(ctx, member.Email, member.Phone, &member.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrContactTaken
	}
	if err := s.memberRepo.Save(ctx, member); err != nil {
		return nil, err
	}
	resp := ToMemberResponse(member)
	return &resp, nil
}

// Activate puts a member back into the per-head split
func (s *MemberService) Activate(ctx context.Context, tenantID, memberID uuid.UUID) (*MemberResponse, error) {
	return s.change(ctx, tenantID, memberID, "", (*mess.Member).Activate)
}

// Deactivate removes a member from the per-head split. Meals already eaten
// are still charged at the meal rate.
func (s *MemberService) Deactivate(ctx context.Context, tenantID, memberID uuid.UUID) (*MemberResponse, error) {
	return s.change(ctx, tenantID, memberID, "", func(m *mess.Member) error {
		if m.IsManager() {
			if err := s.ensureAnotherManager(ctx, tenantID, m.ID); err != nil {
				return err
			}
		}
		return m.Deactivate()
	})
}

// Promote makes a member a manager of the mess
func (s *MemberService) Promote(ctx context.Context, tenantID, memberID uuid.UUID) (*MemberResponse, error) {
	return s.change(ctx, tenantID, memberID, identity.RoleManager, (*mess.Member).PromoteToManager)
}

// Demote takes the manager role away. The last active manager cannot be demoted.
func (s *MemberService) Demote(ctx context.Context, tenantID, memberID uuid.UUID) (*MemberResponse, error) {
	return s.change(ctx, tenantID, memberID, identity.RoleMember, func(m *mess.Member) error {
		if m.IsManager() {
			if err := s.ensureAnotherManager(ctx, tenantID, m.ID); err != nil {
				return err
			}
		}
		return m.DemoteToMember()
	})
}

// change loads a member, applies fn and saves. A non-empty role is copied to
// the member's login so the next request sees it.
func (s *MemberService) change(ctx context.Context, tenantID, memberID uuid.UUID, role identity.Role, fn func(*mess.Member) error) (*MemberResponse, error) {
	member, err := s.memberRepo.FindByIDForTenant(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	if err := fn(member); err != nil {
		return nil, err
	}
	if err := s.memberRepo.Save(ctx, member); err != nil {
		return nil, err
	}
	if role != "" {
		if err := s.syncAccountRole(ctx, member.ID, role); err != nil {
			return nil, err
		}
	}
	s.logger.Info("Member changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("member_id", member.ID.String()),
		zap.String("role", string(member.Role)),
		zap.Bool("active", member.IsActive))

	resp := ToMemberResponse(member)
	return &resp, nil
}

func (s *MemberService) syncAccountRole(ctx context.Context, memberID uuid.UUID, role identity.Role) error {
	account, err := s.accountRepo.FindByMemberID(ctx, memberID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if account.Role == role {
		return nil
	}
	if err := account.SetRole(role); err != nil {
		return err
	}
	return s.accountRepo.Save(ctx, account)
}

// ensureAnotherManager keeps at least one active manager per mess
func (s *MemberService) ensureAnotherManager(ctx context.Context, tenantID, memberID uuid.UUID) error {
	managers, err := s.memberRepo.ListManagers(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, m := range managers {
		if m.ID != memberID {
			return nil
		}
	}
	return shared.NewDomainError("LAST_MANAGER", "A mess needs at least one active manager")
}
