package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/shopspring/decimal"
)

// ArchiveSummary is one row of the archive listing
type ArchiveSummary struct {
	ID            uuid.UUID       `json:"id"`
	Period        mess.Period     `json:"period"`
	TotalBazar    decimal.Decimal `json:"total_bazar"`
	MealRate      decimal.Decimal `json:"meal_rate"`
	ActiveMembers int             `json:"active_members"`
	ArchivedAt    time.Time       `json:"archived_at"`
}

// MemberLineResponse is one member line of an archive
type MemberLineResponse struct {
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

// ArchiveResponse is a full archive
type ArchiveResponse struct {
	ID                uuid.UUID            `json:"id"`
	TenantID          uuid.UUID            `json:"tenant_id"`
	Period            mess.Period          `json:"period"`
	TotalBazar        decimal.Decimal      `json:"total_bazar"`
	TotalAdditional   decimal.Decimal      `json:"total_additional"`
	TotalMealUnits    int64                `json:"total_meal_units"`
	MealRate          decimal.Decimal      `json:"meal_rate"`
	ActiveMembers     int                  `json:"active_members"`
	AdditionalPerHead decimal.Decimal      `json:"additional_per_head"`
	TotalDeposits     decimal.Decimal      `json:"total_deposits"`
	ArchivedAt        time.Time            `json:"archived_at"`
	Members           []MemberLineResponse `json:"members"`
}

// MemberHistoryEntry is a member's line in one archived period
type MemberHistoryEntry struct {
	Period   mess.Period        `json:"period"`
	MealRate decimal.Decimal    `json:"meal_rate"`
	Line     MemberLineResponse `json:"line"`
}

// ExportLink is a time-limited download link of an exported archive
type ExportLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToArchiveSummary converts an archive to its listing row
func ToArchiveSummary(a *mess.SettlementArchive, places int32) ArchiveSummary {
	return ArchiveSummary{
		ID:            a.ID,
		Period:        a.Period,
		TotalBazar:    round(a.TotalBazar, places),
		MealRate:      round(a.MealRate, places),
		ActiveMembers: a.ActiveMembers,
		ArchivedAt:    a.ArchivedAt,
	}
}

// ToArchiveResponse converts an archive. places < 0 keeps full precision.
func ToArchiveResponse(a *mess.SettlementArchive, places int32) ArchiveResponse {
	resp := ArchiveResponse{
		ID:                a.ID,
		TenantID:          a.TenantID,
		Period:            a.Period,
		TotalBazar:        round(a.TotalBazar, places),
		TotalAdditional:   round(a.TotalAdditional, places),
		TotalMealUnits:    a.TotalMealUnits,
		MealRate:          round(a.MealRate, places),
		ActiveMembers:     a.ActiveMembers,
		AdditionalPerHead: round(a.AdditionalPerHead, places),
		TotalDeposits:     round(a.TotalDeposits, places),
		ArchivedAt:        a.ArchivedAt,
		Members:           make([]MemberLineResponse, 0, len(a.Members)),
	}
	for _, m := range a.Members {
		resp.Members = append(resp.Members, toMemberLine(m, places))
	}
	return resp
}

func toMemberLine(m mess.MemberSettlement, places int32) MemberLineResponse {
	return MemberLineResponse{
		MemberID:       m.MemberID,
		MemberName:     m.MemberName,
		Active:         m.Active,
		OnRoster:       m.OnRoster,
		MealUnits:      m.MealUnits,
		Deposits:       round(m.Deposits, places),
		MealCost:       round(m.MealCost, places),
		AdditionalCost: round(m.AdditionalCost, places),
		AllocatedCost:  round(m.AllocatedCost, places),
		Balance:        round(m.Balance, places),
	}
}

func round(d decimal.Decimal, places int32) decimal.Decimal {
	if places < 0 {
		return d
	}
	return d.Round(places)
}
