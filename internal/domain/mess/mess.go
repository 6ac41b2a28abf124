package mess

import (
	"regexp"
	"strings"
	"time"

	"github.com/messmate/backend/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MessStatus represents the lifecycle status of a mess (tenant)
type MessStatus string

const (
	MessStatusActive    MessStatus = "active"
	MessStatusInactive  MessStatus = "inactive"
	MessStatusSuspended MessStatus = "suspended" // blocked by the platform admin
)

func (s MessStatus) IsValid() bool {
	switch s {
	case MessStatusActive, MessStatusInactive, MessStatusSuspended:
		return true
	}
	return false
}

func (s MessStatus) String() string {
	return string(s)
}

const (
	DefaultCurrency = "BDT"
	DefaultTimezone = "Asia/Dhaka"
)

var messCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,49}$`)

// Mess is one billing group: a shared household or hostel floor.
// Its ID is the tenant ID carried by every working row.
type Mess struct {
	shared.BaseAggregateRoot
	Code          string
	Name          string
	CurrentPeriod Period
	Status        MessStatus
	Currency      string
	Timezone      string
}

// NewMess creates an active mess whose first open period is period
func NewMess(code, name string, period Period) (*Mess, error) {
	code = cases.Upper(language.Und).String(strings.TrimSpace(code))
	if !messCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_CODE", "Mess code must be 2-50 characters of letters, digits, '-' or '_'")
	}
	name, err := normalizeName(name, 200)
	if err != nil {
		return nil, err
	}
	if period.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Mess must start with a valid period")
	}

	m := &Mess{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		CurrentPeriod:     period,
		Status:            MessStatusActive,
		Currency:          DefaultCurrency,
		Timezone:          DefaultTimezone,
	}
	m.AddDomainEvent(NewMessCreatedEvent(m))
	return m, nil
}

// Update changes the display name
func (m *Mess) Update(name string) error {
	name, err := normalizeName(name, 200)
	if err != nil {
		return err
	}
	m.Name = name
	m.Touch()
	m.IncrementVersion()
	return nil
}

// SetLocale sets the currency and timezone used when presenting and scheduling
func (m *Mess) SetLocale(currency, timezone string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return shared.NewDomainError("INVALID_TIMEZONE", "Unknown timezone: "+timezone)
	}
	m.Currency = currency
	m.Timezone = timezone
	m.Touch()
	m.IncrementVersion()
	return nil
}

// Location returns the mess timezone, falling back to UTC
func (m *Mess) Location() *time.Location {
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (m *Mess) Activate() error {
	return m.changeStatus(MessStatusActive)
}

func (m *Mess) Deactivate() error {
	return m.changeStatus(MessStatusInactive)
}

func (m *Mess) Suspend() error {
	return m.changeStatus(MessStatusSuspended)
}

func (m *Mess) changeStatus(to MessStatus) error {
	if m.Status == to {
		return shared.NewDomainError("INVALID_STATE", "Mess is already "+to.String())
	}
	from := m.Status
	m.Status = to
	m.Touch()
	m.IncrementVersion()
	m.AddDomainEvent(NewMessStatusChangedEvent(m, from))
	return nil
}

func (m *Mess) IsActive() bool {
	return m.Status == MessStatusActive
}

var (
	ErrMessNotOpen       = shared.NewDomainError("MESS_NOT_ACTIVE", "Working data can only be recorded for an active mess")
	ErrDateOutsidePeriod = shared.NewDomainError("DATE_OUTSIDE_PERIOD", "Date is outside the open period of the mess")
)

// CheckEntry reports whether working data dated date can be recorded now.
// A zero date is not checked against the period.
func (m *Mess) CheckEntry(date time.Time) error {
	if !m.IsActive() {
		return ErrMessNotOpen
	}
	if !date.IsZero() && !PeriodOf(CalendarDay(date), time.UTC).Equal(m.CurrentPeriod) {
		return ErrDateOutsidePeriod
	}
	return nil
}

// NeedsRollover reports whether the stored period differs from target.
// A stored period equal to target means the rollover already happened.
func (m *Mess) NeedsRollover(target Period) bool {
	return !m.CurrentPeriod.Equal(target)
}

// AdvancePeriod moves the open period forward to target
func (m *Mess) AdvancePeriod(target Period) error {
	if target.IsZero() {
		return shared.NewDomainError("INVALID_PERIOD", "Target period is required")
	}
	if !target.After(m.CurrentPeriod) {
		return shared.NewDomainError("PERIOD_REGRESSION",
			"Target period "+target.String()+" is not after current period "+m.CurrentPeriod.String())
	}
	from := m.CurrentPeriod
	m.CurrentPeriod = target
	m.Touch()
	m.IncrementVersion()
	m.AddDomainEvent(NewPeriodAdvancedEvent(m, from))
	return nil
}

// normalizeName trims and NFC-normalizes a display name and checks its length
func normalizeName(name string, max int) (string, error) {
	name = norm.NFC.String(strings.Join(strings.Fields(name), " "))
	if name == "" {
		return "", shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len([]rune(name)) > max {
		return "", shared.NewDomainError("INVALID_NAME", "Name is too long")
	}
	return name, nil
}
