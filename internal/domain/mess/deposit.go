package mess

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Deposit is money a member paid into the mess
type Deposit struct {
	shared.TenantEntity
	MemberID uuid.UUID
	Date     time.Time
	Amount   decimal.Decimal
	Note     string
}

func NewDeposit(tenantID, memberID uuid.UUID, date time.Time, amount decimal.Decimal, note string) (*Deposit, error) {
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID is required")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Deposit date is required")
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return &Deposit{
		TenantEntity: shared.NewTenantEntity(tenantID),
		MemberID:     memberID,
		Date:         CalendarDay(date),
		Amount:       amount,
		Note:         strings.TrimSpace(note),
	}, nil
}
