package mess

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AdditionalCost is a shared cost (rent, gas, cook's wage) split evenly per
// active head rather than by meal consumption
type AdditionalCost struct {
	shared.TenantEntity
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

func NewAdditionalCost(tenantID uuid.UUID, date time.Time, amount decimal.Decimal, description string) (*AdditionalCost, error) {
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Cost date is required")
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description is required")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	return &AdditionalCost{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Date:         CalendarDay(date),
		Amount:       amount,
		Description:  description,
	}, nil
}
