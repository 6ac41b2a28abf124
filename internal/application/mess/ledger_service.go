package mess

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	ErrMessNotOpen       = mess.ErrMessNotOpen
	ErrDateOutsidePeriod = mess.ErrDateOutsidePeriod
	ErrMemberNotInMess   = shared.NewDomainError("INVALID_MEMBER", "Member does not belong to this mess")
)

// LedgerRepositories groups the working-data repositories
type LedgerRepositories struct {
	Meals           mess.MealRecordRepository
	Bazar           mess.BazarRepository
	Deposits        mess.DepositRepository
	AdditionalCosts mess.AdditionalCostRepository
}

// LedgerService records the working data of the open period
type LedgerService struct {
	messRepo   mess.MessRepository
	memberRepo mess.MemberRepository
	repos      LedgerRepositories
	logger     *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	messRepo mess.MessRepository,
	memberRepo mess.MemberRepository,
	repos LedgerRepositories,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		messRepo:   messRepo,
		memberRepo: memberRepo,
		repos:      repos,
		logger:     logger,
	}
}

// RecordMeals sets the meal counts of a member for one day, creating the
// record on first use
func (s *LedgerService) RecordMeals(ctx context.Context, tenantID uuid.UUID, req RecordMealsRequest) (*MealRecordResponse, error) {
	if err := s.checkWrite(ctx, tenantID, req.Date, &req.MemberID); err != nil {
		return nil, err
	}

	rec, err := s.repos.Meals.FindByMemberAndDate(ctx, tenantID, req.MemberID, req.Date)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		rec, err = mess.NewMealRecord(tenantID, req.MemberID, req.Date, req.Breakfast, req.Lunch, req.Dinner)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := rec.UpdateCounts(req.Breakfast, req.Lunch, req.Dinner); err != nil {
			return nil, err
		}
	}

	if err := s.repos.Meals.Save(ctx, rec); err != nil {
		return nil, err
	}
	resp := toMealRecordResponse(rec)
	return &resp, nil
}

// ListMeals lists the meal records of the open period
func (s *LedgerService) ListMeals(ctx context.Context, tenantID uuid.UUID, filter LedgerListFilter) (*shared.Paginated[MealRecordResponse], error) {
	f := toLedgerFilter(filter)
	rows, total, err := s.repos.Meals.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]MealRecordResponse, len(rows))
	for i := range rows {
		items[i] = toMealRecordResponse(&rows[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// DeleteMeals removes a meal record
func (s *LedgerService) DeleteMeals(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repos.Meals.DeleteForTenant(ctx, tenantID, id)
}

// AddBazar records a shared grocery purchase
func (s *LedgerService) AddBazar(ctx context.Context, tenantID uuid.UUID, req AddBazarRequest) (*BazarResponse, error) {
	if err := s.checkWrite(ctx, tenantID, req.Date, req.PurchaserID); err != nil {
		return nil, err
	}
	p, err := mess.NewBazarPurchase(tenantID, req.Date, req.Amount, req.PurchaserID, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Bazar.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Debug("Bazar purchase recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("amount", p.Amount.String()))

	resp := toBazarResponse(p)
	return &resp, nil
}

// ListBazar lists the purchases of the open period
func (s *LedgerService) ListBazar(ctx context.Context, tenantID uuid.UUID, filter LedgerListFilter) (*shared.Paginated[BazarResponse], error) {
	f := toLedgerFilter(filter)
	rows, total, err := s.repos.Bazar.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]BazarResponse, len(rows))
	for i := range rows {
		items[i] = toBazarResponse(&rows[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// DeleteBazar removes a purchase
func (s *LedgerService) DeleteBazar(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repos.Bazar.DeleteForTenant(ctx, tenantID, id)
}

// AddDeposit records money paid in by a member
func (s *LedgerService) AddDeposit(ctx context.Context, tenantID uuid.UUID, req AddDepositRequest) (*DepositResponse, error) {
	if err := s.checkWrite(ctx, tenantID, req.Date, &req.MemberID); err != nil {
		return nil, err
	}
	d, err := mess.NewDeposit(tenantID, req.MemberID, req.Date, req.Amount, req.Note)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Deposits.Save(ctx, d); err != nil {
		return nil, err
	}
	resp := toDepositResponse(d)
	return &resp, nil
}

// ListDeposits lists the deposits of the open period
func (s *LedgerService) ListDeposits(ctx context.Context, tenantID uuid.UUID, filter LedgerListFilter) (*shared.Paginated[DepositResponse], error) {
	f := toLedgerFilter(filter)
	rows, total, err := s.repos.Deposits.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]DepositResponse, len(rows))
	for i := range rows {
		items[i] = toDepositResponse(&rows[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// DeleteDeposit removes a deposit
func (s *LedgerService) DeleteDeposit(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repos.Deposits.DeleteForTenant(ctx, tenantID, id)
}

// AddAdditionalCost records a cost shared equally by the active members
func (s *LedgerService) AddAdditionalCost(ctx context.Context, tenantID uuid.UUID, req AddAdditionalCostRequest) (*AdditionalCostResponse, error) {
	if err := s.checkWrite(ctx, tenantID, req.Date, nil); err != nil {
		return nil, err
	}
	c, err := mess.NewAdditionalCost(tenantID, req.Date, req.Amount, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.repos.AdditionalCosts.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := toAdditionalCostResponse(c)
	return &resp, nil
}

// ListAdditionalCosts lists the additional costs of the open period
func (s *LedgerService) ListAdditionalCosts(ctx context.Context, tenantID uuid.UUID, filter LedgerListFilter) (*shared.Paginated[AdditionalCostResponse], error) {
	f := toLedgerFilter(filter)
	rows, total, err := s.repos.AdditionalCosts.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]AdditionalCostResponse, len(rows))
	for i := range rows {
		items[i] = toAdditionalCostResponse(&rows[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// DeleteAdditionalCost removes an additional cost
func (s *LedgerService) DeleteAdditionalCost(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repos.AdditionalCosts.DeleteForTenant(ctx, tenantID, id)
}

// checkWrite verifies that the mess accepts working data for date and that
// memberID, when given, is on its roster. The repositories repeat the period
// check under the mess row lock, so a rollover committed after this read still
// rejects the write.
func (s *LedgerService) checkWrite(ctx context.Context, tenantID uuid.UUID, date time.Time, memberID *uuid.UUID) error {
	m, err := s.messRepo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := m.CheckEntry(date); err != nil {
		return err
	}
	if memberID == nil {
		return nil
	}
	if _, err := s.memberRepo.FindByIDForTenant(ctx, tenantID, *memberID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrMemberNotInMess
		}
		return err
	}
	return nil
}

func toLedgerFilter(filter LedgerListFilter) mess.LedgerFilter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "date"
		filter.OrderDir = "desc"
	}
	return mess.LedgerFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
		MemberID: filter.MemberID,
		From:     filter.From,
		To:       filter.To,
	}
}
