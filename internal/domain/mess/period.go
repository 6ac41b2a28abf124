package mess

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/messmate/backend/internal/domain/shared"
)

const periodLayout = "2006-01"

// Period is an accounting month, written as a "YYYY-MM" token.
// The zero value is invalid; use ParsePeriod or PeriodOf.
type Period struct {
	year  int
	month time.Month
}

// ParsePeriod parses a "YYYY-MM" token
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Invalid period %q, expected YYYY-MM", s))
	}
	return Period{year: t.Year(), month: t.Month()}, nil
}

// MustParsePeriod is ParsePeriod that panics on error. Intended for constants and tests.
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PeriodOf returns the period containing t in the given location (UTC when nil)
func PeriodOf(t time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return Period{year: t.Year(), month: t.Month()}
}

func (p Period) Year() int { return p.year }
func (p Period) Month() time.Month { return p.month }
func (p Period) IsZero() bool { return p.year == 0 && p.month == 0 }
func (p Period) Equal(o Period) bool { return p == o }

func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}

// Before reports whether p is an earlier month than o
func (p Period) Before(o Period) bool {
	if p.year != o.year {
		return p.year < o.year
	}
	return p.month < o.month
}

// After reports whether p is a later month than o
func (p Period) After(o Period) bool {
	return o.Before(p)
}

// Next returns the following month
func (p Period) Next() Period {
	return PeriodOf(p.Start(time.UTC).AddDate(0, 1, 0), time.UTC)
}

// Previous returns the preceding month
func (p Period) Previous() Period {
	return PeriodOf(p.Start(time.UTC).AddDate(0, -1, 0), time.UTC)
}

// Start returns the first instant of the period in loc
func (p Period) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, loc)
}

// End returns the first instant of the following period in loc (exclusive bound)
func (p Period) End(loc *time.Location) time.Time {
	return p.Start(loc).AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the period in loc
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	return !t.Before(p.Start(loc)) && t.Before(p.End(loc))
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer
func (p Period) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.String(), nil
}

// Scan implements sql.Scanner
func (p *Period) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = Period{}
		return nil
	case string:
		parsed, err := ParsePeriod(v)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case []byte:
		return p.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Period", value)
	}
}
