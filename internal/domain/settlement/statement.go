package settlement

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemberInfo is one entry of the roster a statement is computed for
type MemberInfo struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// Ledger is everything currently attributed to one mess
type Ledger struct {
	Purchases       []decimal.Decimal
	AdditionalCosts []decimal.Decimal
	MealUnits       map[uuid.UUID]int64
	Deposits        map[uuid.UUID]decimal.Decimal
	Roster          []MemberInfo
}

// Line is one member's row of a statement
type Line struct {
	MemberID       uuid.UUID       `json:"member_id"`
	MemberName     string          `json:"member_name"`
	Active         bool            `json:"active"`
	OnRoster       bool            `json:"on_roster"`
	MealUnits      int64           `json:"meal_units"`
	Deposits       decimal.Decimal `json:"deposits"`
	MealCost       decimal.Decimal `json:"meal_cost"`
	AdditionalCost decimal.Decimal `json:"additional_cost"`
	AllocatedCost  decimal.Decimal `json:"allocated_cost"`
	Balance        decimal.Decimal `json:"balance"`
}

// Statement is the computed settlement of a mess for its open period
type Statement struct {
	TotalBazar        decimal.Decimal `json:"total_bazar"`
	TotalAdditional   decimal.Decimal `json:"total_additional"`
	TotalMealUnits    int64           `json:"total_meal_units"`
	MealRate          decimal.Decimal `json:"meal_rate"`
	ActiveMembers     int             `json:"active_members"`
	AdditionalPerHead decimal.Decimal `json:"additional_per_head"`
	TotalDeposits     decimal.Decimal `json:"total_deposits"`
	TotalAllocated    decimal.Decimal `json:"total_allocated"`
	Lines             []Line          `json:"lines"`
}

// Compute builds the statement for a ledger.
//
// Every roster member gets a line, active or not. Only active members carry the
// additional per-head share; inactive members pay for the meals they ate.
// Meals or deposits of members missing from the roster still count towards the
// totals and get a line of their own, so the statement always reconciles.
func Compute(l Ledger) Statement {
	var totalUnits int64
	for _, u := range l.MealUnits {
		totalUnits += u
	}

	active := 0
	for _, m := range l.Roster {
		if m.Active {
			active++
		}
	}

	s := Statement{
		TotalBazar:      Sum(l.Purchases),
		TotalAdditional: Sum(l.AdditionalCosts),
		TotalMealUnits:  totalUnits,
		ActiveMembers:   active,
		TotalDeposits:   decimal.Zero,
		TotalAllocated:  decimal.Zero,
	}
	s.MealRate = rate(s.TotalBazar, totalUnits)
	s.AdditionalPerHead = AdditionalShare(s.TotalAdditional, active)

	seen := make(map[uuid.UUID]bool, len(l.Roster))
	for _, m := range l.Roster {
		seen[m.ID] = true
		s.addLine(l, m, true)
	}

	var strays []uuid.UUID
	for id := range l.MealUnits {
		if !seen[id] {
			seen[id] = true
			strays = append(strays, id)
		}
	}
	for id := range l.Deposits {
		if !seen[id] {
			seen[id] = true
			strays = append(strays, id)
		}
	}
	sort.Slice(strays, func(i, j int) bool { return strays[i].String() < strays[j].String() })
	for _, id := range strays {
		s.addLine(l, MemberInfo{ID: id}, false)
	}

	return s
}

func (s *Statement) addLine(l Ledger, m MemberInfo, onRoster bool) {
	units := l.MealUnits[m.ID]
	deposits, ok := l.Deposits[m.ID]
	if !ok {
		deposits = decimal.Zero
	}

	additional := s.TotalAdditional
	if !m.Active {
		additional = decimal.Zero
	}
	alloc := AllocateCost(units, s.MealRate, additional, s.ActiveMembers)

	s.Lines = append(s.Lines, Line{
		MemberID:       m.ID,
		MemberName:     m.Name,
		Active:         m.Active,
		OnRoster:       onRoster,
		MealUnits:      units,
		Deposits:       deposits,
		MealCost:       alloc.MealCost,
		AdditionalCost: alloc.AdditionalCost,
		AllocatedCost:  alloc.Total,
		Balance:        NetBalance(deposits, alloc.Total),
	})
	s.TotalDeposits = s.TotalDeposits.Add(deposits)
	s.TotalAllocated = s.TotalAllocated.Add(alloc.Total)
}

// Line returns the line of one member
func (s Statement) Line(memberID uuid.UUID) (Line, bool) {
	for _, line := range s.Lines {
		if line.MemberID == memberID {
			return line, true
		}
	}
	return Line{}, false
}

// Rounded returns a copy with every amount rounded half-up to places.
// Used for display only; archives keep full precision.
func (s Statement) Rounded(places int32) Statement {
	out := s
	out.TotalBazar = s.TotalBazar.Round(places)
	out.TotalAdditional = s.TotalAdditional.Round(places)
	out.MealRate = s.MealRate.Round(places)
	out.AdditionalPerHead = s.AdditionalPerHead.Round(places)
	out.TotalDeposits = s.TotalDeposits.Round(places)
	out.TotalAllocated = s.TotalAllocated.Round(places)
	out.Lines = make([]Line, len(s.Lines))
	for i, line := range s.Lines {
		line.Deposits = line.Deposits.Round(places)
		line.MealCost = line.MealCost.Round(places)
		line.AdditionalCost = line.AdditionalCost.Round(places)
		line.AllocatedCost = line.AllocatedCost.Round(places)
		line.Balance = line.Balance.Round(places)
		out.Lines[i] = line
	}
	return out
}
