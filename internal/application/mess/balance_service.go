package mess

import (
	"context"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/settlement"
	"go.uber.org/zap"
)

// BalanceService computes live balances of the open period. Reads are not
// coordinated with a running rollover.
type BalanceService struct {
	messRepo mess.MessRepository
	ledger   mess.LedgerReader
	places   int32
	logger   *zap.Logger
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(messRepo mess.MessRepository, ledger mess.LedgerReader, displayPlaces int32, logger *zap.Logger) *BalanceService {
	return &BalanceService{
		messRepo: messRepo,
		ledger:   ledger,
		places:   displayPlaces,
		logger:   logger,
	}
}

// Statement returns the live statement of every member of the mess
func (s *BalanceService) Statement(ctx context.Context, tenantID uuid.UUID) (*BalanceResponse, error) {
	m, stmt, err := s.compute(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	resp := &BalanceResponse{
		TenantID:          m.ID,
		Period:            m.CurrentPeriod.String(),
		Currency:          m.Currency,
		TotalBazar:        stmt.TotalBazar,
		TotalAdditional:   stmt.TotalAdditional,
		TotalMealUnits:    stmt.TotalMealUnits,
		MealRate:          stmt.MealRate,
		ActiveMembers:     stmt.ActiveMembers,
		AdditionalPerHead: stmt.AdditionalPerHead,
		TotalDeposits:     stmt.TotalDeposits,
		TotalAllocated:    stmt.TotalAllocated,
		Members:           make([]BalanceLineItem, 0, len(stmt.Lines)),
	}
	for _, line := range stmt.Lines {
		resp.Members = append(resp.Members, toBalanceLine(line))
	}
	return resp, nil
}

// MemberBalance returns the live line of one member
func (s *BalanceService) MemberBalance(ctx context.Context, tenantID, memberID uuid.UUID) (*MemberBalanceResponse, error) {
	m, stmt, err := s.compute(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	line, ok := stmt.Line(memberID)
	if !ok {
		return nil, ErrMemberNotInMess
	}
	return &MemberBalanceResponse{
		Period:   m.CurrentPeriod.String(),
		Currency: m.Currency,
		MealRate: stmt.MealRate,
		Line:     toBalanceLine(line),
	}, nil
}

func (s *BalanceService) compute(ctx context.Context, tenantID uuid.UUID) (*mess.Mess, settlement.Statement, error) {
	m, err := s.messRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, settlement.Statement{}, err
	}
	ledger, err := s.ledger.LoadLedger(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to load ledger", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return nil, settlement.Statement{}, err
	}
	return m, settlement.Compute(ledger).Rounded(s.places), nil
}

func toBalanceLine(l settlement.Line) BalanceLineItem {
	return BalanceLineItem{
		MemberID:       l.MemberID,
		MemberName:     l.MemberName,
		Active:         l.Active,
		MealUnits:      l.MealUnits,
		Deposits:       l.Deposits,
		MealCost:       l.MealCost,
		AdditionalCost: l.AdditionalCost,
		AllocatedCost:  l.AllocatedCost,
		Balance:        l.Balance,
	}
}
