package mess

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/settlement"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MemberSettlement is one member's frozen line of an archive
type MemberSettlement struct {
	MemberID       uuid.UUID
	MemberName     string
	Active         bool
	OnRoster       bool
	MealUnits      int64
	Deposits       decimal.Decimal
	MealCost       decimal.Decimal
	AdditionalCost decimal.Decimal
	AllocatedCost  decimal.Decimal
	Balance        decimal.Decimal
}

// SettlementArchive is the immutable snapshot of one mess for one closed
// period. There is at most one archive per (tenant, period).
type SettlementArchive struct {
	shared.TenantEntity
	Period            Period
	TotalBazar        decimal.Decimal
	TotalAdditional   decimal.Decimal
	TotalMealUnits    int64
	MealRate          decimal.Decimal
	ActiveMembers     int
	AdditionalPerHead decimal.Decimal
	TotalDeposits     decimal.Decimal
	ArchivedAt        time.Time
	Members           []MemberSettlement
}

// NewSettlementArchive freezes a computed statement for the closed period
func NewSettlementArchive(tenantID uuid.UUID, period Period, s settlement.Statement) (*SettlementArchive, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	if period.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Archive period is required")
	}

	a := &SettlementArchive{
		TenantEntity:      shared.NewTenantEntity(tenantID),
		Period:            period,
		TotalBazar:        s.TotalBazar,
		TotalAdditional:   s.TotalAdditional,
		TotalMealUnits:    s.TotalMealUnits,
		MealRate:          s.MealRate,
		ActiveMembers:     s.ActiveMembers,
		AdditionalPerHead: s.AdditionalPerHead,
		TotalDeposits:     s.TotalDeposits,
		ArchivedAt:        time.Now(),
		Members:           make([]MemberSettlement, 0, len(s.Lines)),
	}
	for _, line := range s.Lines {
		a.Members = append(a.Members, MemberSettlement{
			MemberID:       line.MemberID,
			MemberName:     line.MemberName,
			Active:         line.Active,
			OnRoster:       line.OnRoster,
			MealUnits:      line.MealUnits,
			Deposits:       line.Deposits,
			MealCost:       line.MealCost,
			AdditionalCost: line.AdditionalCost,
			AllocatedCost:  line.AllocatedCost,
			Balance:        line.Balance,
		})
	}
	return a, nil
}

// MemberLine returns the archived line of one member
func (a *SettlementArchive) MemberLine(memberID uuid.UUID) (MemberSettlement, bool) {
	for _, m := range a.Members {
		if m.MemberID == memberID {
			return m, true
		}
	}
	return MemberSettlement{}, false
}
