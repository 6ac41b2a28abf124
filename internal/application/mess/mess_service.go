package mess

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OnboardingScope runs the writes that register a mess in one transaction
type OnboardingScope interface {
	Execute(ctx context.Context, fn func(repos OnboardingRepositories) error) error
}

// OnboardingRepositories are the repositories bound to one onboarding transaction
type OnboardingRepositories interface {
	MessRepo() mess.MessRepository
	MemberRepo() mess.MemberRepository
	AccountRepo() identity.AccountRepository
}

var (
	ErrCodeTaken    = shared.NewDomainError("CODE_EXISTS", "Mess code already exists")
	ErrEmailTaken   = shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists")
	ErrContactTaken = shared.NewDomainError("CONTACT_EXISTS", "Email or phone is already used by another member")
)

// MessService manages messes on behalf of the platform admin
type MessService struct {
	messRepo    mess.MessRepository
	memberRepo  mess.MemberRepository
	accountRepo identity.AccountRepository
	scope       OnboardingScope
	publisher   shared.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewMessService creates a new MessService
func NewMessService(
	messRepo mess.MessRepository,
	memberRepo mess.MemberRepository,
	accountRepo identity.AccountRepository,
	scope OnboardingScope,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *MessService {
	return &MessService{
		messRepo:    messRepo,
		memberRepo:  memberRepo,
		accountRepo: accountRepo,
		scope:       scope,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Create registers a mess with its first manager member and login
func (s *MessService) Create(ctx context.Context, req CreateMessRequest) (*MessCreatedResponse, error) {
	s.logger.Info("Creating mess", zap.String("code", req.Code), zap.String("name", req.Name))

	m, err := s.newMess(req)
	if err != nil {
		return nil, err
	}
	exists, err := s.messRepo.ExistsByCode(ctx, m.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCodeTaken
	}

	manager, err := mess.NewMember(m.ID, req.Manager.Name, req.Manager.Email, req.Manager.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.checkNewLogin(ctx, manager.Email, manager.Phone); err != nil {
		return nil, err
	}
	if err := manager.PromoteToManager(); err != nil {
		return nil, err
	}
	account, err := identity.NewMemberAccount(manager.Email, req.Manager.Password, identity.RoleManager, m.ID, manager.ID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos OnboardingRepositories) error {
		if err := repos.MessRepo().Save(ctx, m); err != nil {
			return err
		}
		if err := repos.MemberRepo().Save(ctx, manager); err != nil {
			return err
		}
		return repos.AccountRepo().Save(ctx, account)
	})
	if err != nil {
		s.logger.Error("Failed to onboard mess", zap.String("code", m.Code), zap.Error(err))
		return nil, err
	}

	s.publish(ctx, append(m.PullDomainEvents(), manager.PullDomainEvents()...)...)
	s.logger.Info("Mess created",
		zap.String("tenant_id", m.ID.String()),
		zap.String("period", m.CurrentPeriod.String()),
		zap.String("manager_id", manager.ID.String()))

	return &MessCreatedResponse{
		Mess:      ToMessResponse(m),
		Manager:   ToMemberResponse(manager),
		AccountID: account.ID,
	}, nil
}

func (s *MessService) newMess(req CreateMessRequest) (*mess.Mess, error) {
	timezone := req.Timezone
	if timezone == "" {
		timezone = mess.DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TIMEZONE", "Unknown timezone: "+timezone)
	}

	period := mess.PeriodOf(s.now(), loc)
	if req.StartPeriod != "" {
		if period, err = mess.ParsePeriod(req.StartPeriod); err != nil {
			return nil, err
		}
	}

	m, err := mess.NewMess(req.Code, req.Name, period)
	if err != nil {
		return nil, err
	}
	currency := req.Currency
	if currency == "" {
		currency = mess.DefaultCurrency
	}
	if currency != m.Currency || timezone != m.Timezone {
		if err := m.SetLocale(currency, timezone); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// checkNewLogin rejects an email or phone that is already in use
func (s *MessService) checkNewLogin(ctx context.Context, email, phone string) error {
	taken, err := s.accountRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	taken, err = s.memberRepo.ExistsByContact(ctx, email, phone, nil)
	if err != nil {
		return err
	}
	if taken {
		return ErrContactTaken
	}
	return nil
}

// GetByID retrieves a mess
func (s *MessService) GetByID(ctx context.Context, id uuid.UUID) (*MessResponse, error) {
	m, err := s.messRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMessResponse(m)
	return &resp, nil
}

// List lists messes with filtering and pagination
func (s *MessService) List(ctx context.Context, filter MessListFilter) (*shared.Paginated[MessResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
		filter.OrderDir = "desc"
	}

	domainFilter := mess.MessFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
	}
	if filter.Status != "" {
		status := mess.MessStatus(filter.Status)
		domainFilter.Status = &status
	}

	messes, total, err := s.messRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	items := make([]MessResponse, len(messes))
	for i := range messes {
		items[i] = ToMessResponse(&messes[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update changes the name or locale of a mess
func (s *MessService) Update(ctx context.Context, id uuid.UUID, req UpdateMessRequest) (*MessResponse, error) {
	m, err := s.messRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := m.Update(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Currency != nil || req.Timezone != nil {
		currency, timezone := m.Currency, m.Timezone
		if req.Currency != nil {
			currency = *req.Currency
		}
		if req.Timezone != nil {
			timezone = *req.Timezone
		}
		if err := m.SetLocale(currency, timezone); err != nil {
			return nil, err
		}
	}
	if err := s.messRepo.SaveWithLock(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMessResponse(m)
	return &resp, nil
}

// Activate reopens a mess for working data and rollover
func (s *MessService) Activate(ctx context.Context, id uuid.UUID) (*MessResponse, error) {
	return s.changeStatus(ctx, id, (*mess.Mess).Activate)
}

// Deactivate closes a mess; it is skipped by the monthly rollover
func (s *MessService) Deactivate(ctx context.Context, id uuid.UUID) (*MessResponse, error) {
	return s.changeStatus(ctx, id, (*mess.Mess).Deactivate)
}

// Suspend blocks a mess by platform decision
func (s *MessService) Suspend(ctx context.Context, id uuid.UUID) (*MessResponse, error) {
	return s.changeStatus(ctx, id, (*mess.Mess).Suspend)
}

func (s *MessService) changeStatus(ctx context.Context, id uuid.UUID, change func(*mess.Mess) error) (*MessResponse, error) {
	m, err := s.messRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(m); err != nil {
		return nil, err
	}
	if err := s.messRepo.SaveWithLock(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m.PullDomainEvents()...)
	s.logger.Info("Mess status changed",
		zap.String("tenant_id", m.ID.String()),
		zap.String("status", m.Status.String()))

	resp := ToMessResponse(m)
	return &resp, nil
}

// publish sends events after commit; delivery failures are only logged
func (s *MessService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish mess events", zap.Error(err))
	}
}
