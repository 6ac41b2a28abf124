package mess

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/shopspring/decimal"
)

// ==================== Mess DTOs ====================

// ManagerInput describes the first manager of a new mess
type ManagerInput struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=200"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// CreateMessRequest registers a mess together with its first manager
type CreateMessRequest struct {
	Code        string       `json:"code" binding:"required,min=2,max=50"`
	Name        string       `json:"name" binding:"required,min=1,max=200"`
	Currency    string       `json:"currency" binding:"omitempty,len=3"`
	Timezone    string       `json:"timezone" binding:"omitempty,max=64"`
	StartPeriod string       `json:"start_period" binding:"omitempty,period"`
	Manager     ManagerInput `json:"manager" binding:"required"`
}

// UpdateMessRequest changes the editable fields of a mess
type UpdateMessRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=200"`
	Currency *string `json:"currency" binding:"omitempty,len=3"`
	Timezone *string `json:"timezone" binding:"omitempty,max=64"`
}

// MessListFilter narrows the mess listing of the platform admin
type MessListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive suspended"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MessResponse is a mess in API responses
type MessResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	CurrentPeriod string    `json:"current_period"`
	Status        string    `json:"status"`
	Currency      string    `json:"currency"`
	Timezone      string    `json:"timezone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`
}

// MessCreatedResponse is returned after onboarding a mess
type MessCreatedResponse struct {
	Mess      MessResponse   `json:"mess"`
	Manager   MemberResponse `json:"manager"`
	AccountID uuid.UUID      `json:"account_id"`
}

// ToMessResponse converts a domain Mess to a MessResponse
func ToMessResponse(m *mess.Mess) MessResponse {
	return MessResponse{
		ID:            m.ID,
		Code:          m.Code,
		Name:          m.Name,
		CurrentPeriod: m.CurrentPeriod.String(),
		Status:        m.Status.String(),
		Currency:      m.Currency,
		Timezone:      m.Timezone,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Version:       m.Version,
	}
}

// ==================== Member DTOs ====================

// AddMemberRequest adds a member to the caller's mess. A login is created
// when a password is given; the member email doubles as the login.
type AddMemberRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"omitempty,email,max=200"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
	Password string `json:"password" binding:"omitempty,min=8,max=72"`
}

// UpdateMemberRequest replaces the member profile
type UpdateMemberRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
	Phone string `json:"phone" binding:"omitempty,max=30"`
}

// MemberListFilter narrows member listings
type MemberListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Role     string `form:"role" binding:"omitempty,oneof=manager member"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MemberResponse is a member in API responses
type MemberResponse struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
	Version  int       `json:"version"`
}

// ToMemberResponse converts a domain Member to a MemberResponse
func ToMemberResponse(m *mess.Member) MemberResponse {
	return MemberResponse{
		ID:       m.ID,
		TenantID: m.TenantID,
		Name:     m.Name,
		Email:    m.Email,
		Phone:    m.Phone,
		Role:     string(m.Role),
		IsActive: m.IsActive,
		JoinedAt: m.JoinedAt,
		Version:  m.Version,
	}
}

// ToMemberResponses converts a slice of members
func ToMemberResponses(members []mess.Member) []MemberResponse {
	out := make([]MemberResponse, len(members))
	for i := range members {
		out[i] = ToMemberResponse(&members[i])
	}
	return out
}

// ==================== Ledger DTOs ====================

// RecordMealsRequest sets one member's meal counts for one day
type RecordMealsRequest struct {
	MemberID  uuid.UUID `json:"member_id" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
	Breakfast int       `json:"breakfast" binding:"min=0,max=50"`
	Lunch     int       `json:"lunch" binding:"min=0,max=50"`
	Dinner    int       `json:"dinner" binding:"min=0,max=50"`
}

// AddBazarRequest records a shared grocery purchase
type AddBazarRequest struct {
	Date        time.Time       `json:"date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PurchaserID *uuid.UUID      `json:"purchaser_id"`
	Description string          `json:"description" binding:"max=500"`
}

// AddDepositRequest records money a member paid in
type AddDepositRequest struct {
	MemberID uuid.UUID       `json:"member_id" binding:"required"`
	Date     time.Time       `json:"date" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Note     string          `json:"note" binding:"max=500"`
}

// AddAdditionalCostRequest records a cost split per active head
type AddAdditionalCostRequest struct {
	Date        time.Time       `json:"date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
}

// LedgerListFilter narrows working-data listings
type LedgerListFilter struct {
	MemberID *uuid.UUID `form:"-"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"min=0"`
	PageSize int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MealRecordResponse is a meal record in API responses
type MealRecordResponse struct {
	ID        uuid.UUID `json:"id"`
	MemberID  uuid.UUID `json:"member_id"`
	Date      string    `json:"date"`
	Breakfast int       `json:"breakfast"`
	Lunch     int       `json:"lunch"`
	Dinner    int       `json:"dinner"`
	Units     int64     `json:"units"`
}

// BazarResponse is a purchase in API responses
type BazarResponse struct {
	ID          uuid.UUID       `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	PurchaserID *uuid.UUID      `json:"purchaser_id,omitempty"`
	Description string          `json:"description,omitempty"`
}

// DepositResponse is a deposit in API responses
type DepositResponse struct {
	ID       uuid.UUID       `json:"id"`
	MemberID uuid.UUID       `json:"member_id"`
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note,omitempty"`
}

// AdditionalCostResponse is an additional cost in API responses
type AdditionalCostResponse struct {
	ID          uuid.UUID       `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

const dateLayout = "2006-01-02"

func toMealRecordResponse(r *mess.MealRecord) MealRecordResponse {
	return MealRecordResponse{
		ID:        r.ID,
		MemberID:  r.MemberID,
		Date:      r.Date.Format(dateLayout),
		Breakfast: r.Breakfast,
		Lunch:     r.Lunch,
		Dinner:    r.Dinner,
		Units:     r.Units(),
	}
}

func toBazarResponse(p *mess.BazarPurchase) BazarResponse {
	return BazarResponse{
		ID:          p.ID,
		Date:        p.Date.Format(dateLayout),
		Amount:      p.Amount,
		PurchaserID: p.PurchaserID,
		Description: p.Description,
	}
}

func toDepositResponse(d *mess.Deposit) DepositResponse {
	return DepositResponse{
		ID:       d.ID,
		MemberID: d.MemberID,
		Date:     d.Date.Format(dateLayout),
		Amount:   d.Amount,
		Note:     d.Note,
	}
}

func toAdditionalCostResponse(c *mess.AdditionalCost) AdditionalCostResponse {
	return AdditionalCostResponse{
		ID:          c.ID,
		Date:        c.Date.Format(dateLayout),
		Amount:      c.Amount,
		Description: c.Description,
	}
}

// ==================== Balance DTOs ====================

// BalanceResponse is the live statement of the open period, rounded for display
type BalanceResponse struct {
	TenantID          uuid.UUID         `json:"tenant_id"`
	Period            string            `json:"period"`
	Currency          string            `json:"currency"`
	TotalBazar        decimal.Decimal   `json:"total_bazar"`
	TotalAdditional   decimal.Decimal   `json:"total_additional"`
	TotalMealUnits    int64             `json:"total_meal_units"`
	MealRate          decimal.Decimal   `json:"meal_rate"`
	ActiveMembers     int               `json:"active_members"`
	AdditionalPerHead decimal.Decimal   `json:"additional_per_head"`
	TotalDeposits     decimal.Decimal   `json:"total_deposits"`
	TotalAllocated    decimal.Decimal   `json:"total_allocated"`
	Members           []BalanceLineItem `json:"members"`
}

// BalanceLineItem is one member's line of the live statement
type BalanceLineItem struct {
	MemberID       uuid.UUID       `json:"member_id"`
	MemberName     string          `json:"member_name"`
	Active         bool            `json:"active"`
	MealUnits      int64           `json:"meal_units"`
	Deposits       decimal.Decimal `json:"deposits"`
	MealCost       decimal.Decimal `json:"meal_cost"`
	AdditionalCost decimal.Decimal `json:"additional_cost"`
	AllocatedCost  decimal.Decimal `json:"allocated_cost"`
	Balance        decimal.Decimal `json:"balance"`
}

// MemberBalanceResponse is a member's own view of the open period
type MemberBalanceResponse struct {
	Period   string          `json:"period"`
	Currency string          `json:"currency"`
	MealRate decimal.Decimal `json:"meal_rate"`
	Line     BalanceLineItem `json:"line"`
}
