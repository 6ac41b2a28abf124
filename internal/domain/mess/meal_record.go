package mess

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
)

// MaxMealsPerSlot caps a single slot count, guests included
const MaxMealsPerSlot = 50

// MealRecord holds one member's meal counts for one calendar day
type MealRecord struct {
	shared.TenantEntity
	MemberID  uuid.UUID
	Date      time.Time
	Breakfast int
	Lunch     int
	Dinner    int
}

// NewMealRecord creates a meal record; date is truncated to the calendar day
func NewMealRecord(tenantID, memberID uuid.UUID, date time.Time, breakfast, lunch, dinner int) (*MealRecord, error) {
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID is required")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Meal date is required")
	}
	r := &MealRecord{
		TenantEntity: shared.NewTenantEntity(tenantID),
		MemberID:     memberID,
		Date:         CalendarDay(date),
	}
	if err := r.UpdateCounts(breakfast, lunch, dinner); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateCounts replaces the three slot counts
func (r *MealRecord) UpdateCounts(breakfast, lunch, dinner int) error {
	for _, n := range []int{breakfast, lunch, dinner} {
		if n < 0 {
			return shared.NewDomainError("INVALID_MEAL_COUNT", "Meal counts cannot be negative")
		}
		if n > MaxMealsPerSlot {
			return shared.NewDomainError("INVALID_MEAL_COUNT", "Meal count is unreasonably large")
		}
	}
	r.Breakfast = breakfast
	r.Lunch = lunch
	r.Dinner = dinner
	r.Touch()
	return nil
}

// Units is the number of meal units on this record
func (r *MealRecord) Units() int64 {
	return int64(r.Breakfast + r.Lunch + r.Dinner)
}

// CalendarDay truncates t to midnight UTC of its own calendar date
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
