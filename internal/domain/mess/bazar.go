package mess

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BazarPurchase is a shared grocery purchase whose cost is split by meal units
type BazarPurchase struct {
	shared.TenantEntity
	Date        time.Time
	Amount      decimal.Decimal
	PurchaserID *uuid.UUID
	Description string
}

// NewBazarPurchase records a purchase; purchaserID is optional
func NewBazarPurchase(tenantID uuid.UUID, date time.Time, amount decimal.Decimal, purchaserID *uuid.UUID, description string) (*BazarPurchase, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Purchase date is required")
	}
	description = strings.TrimSpace(description)
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	return &BazarPurchase{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Date:         CalendarDay(date),
		Amount:       amount,
		PurchaserID:  purchaserID,
		Description:  description,
	}, nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if amount.GreaterThan(maxAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount exceeds the allowed maximum")
	}
	return nil
}

// maxAmount matches the decimal(18,4) storage column
var maxAmount = decimal.RequireFromString("99999999999999.9999")
