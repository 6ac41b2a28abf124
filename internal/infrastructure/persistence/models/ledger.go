package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/shopspring/decimal"
)

// MealRecordModel stores one member's meal counts for one day
type MealRecordModel struct {
	TenantModel
	MemberID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_meal_records_member_day,priority:1"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_meal_records_member_day,priority:2"`
	Breakfast int       `gorm:"not null;default:0"`
	Lunch     int       `gorm:"not null;default:0"`
	Dinner    int       `gorm:"not null;default:0"`
}

func (MealRecordModel) TableName() string {
	return "meal_records"
}

func (m *MealRecordModel) ToDomain() *mess.MealRecord {
	return &mess.MealRecord{
		TenantEntity: m.ToTenantEntity(),
		MemberID:     m.MemberID,
		Date:         mess.CalendarDay(m.Date),
		Breakfast:    m.Breakfast,
		Lunch:        m.Lunch,
		Dinner:       m.Dinner,
	}
}

func MealRecordModelFromDomain(d *mess.MealRecord) *MealRecordModel {
	m := &MealRecordModel{
		MemberID:  d.MemberID,
		Date:      d.Date,
		Breakfast: d.Breakfast,
		Lunch:     d.Lunch,
		Dinner:    d.Dinner,
	}
	m.FromDomainTenantEntity(d.TenantEntity)
	return m
}

// BazarPurchaseModel stores a shared grocery purchase
type BazarPurchaseModel struct {
	TenantModel
	Date        time.Time       `gorm:"type:date;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PurchaserID *uuid.UUID      `gorm:"type:uuid"`
	Description string          `gorm:"type:varchar(500)"`
}

func (BazarPurchaseModel) TableName() string {
	return "bazar_purchases"
}

func (m *BazarPurchaseModel) ToDomain() *mess.BazarPurchase {
	return &mess.BazarPurchase{
		TenantEntity: m.ToTenantEntity(),
		Date:         mess.CalendarDay(m.Date),
		Amount:       m.Amount,
		PurchaserID:  m.PurchaserID,
		Description:  m.Description,
	}
}

func BazarPurchaseModelFromDomain(d *mess.BazarPurchase) *BazarPurchaseModel {
	m := &BazarPurchaseModel{
		Date:        d.Date,
		Amount:      d.Amount,
		PurchaserID: d.PurchaserID,
		Description: d.Description,
	}
	m.FromDomainTenantEntity(d.TenantEntity)
	return m
}

// DepositModel stores money a member paid in
type DepositModel struct {
	TenantModel
	MemberID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date     time.Time       `gorm:"type:date;not null"`
	Amount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Note     string          `gorm:"type:varchar(500)"`
}

func (DepositModel) TableName() string {
	return "deposits"
}

func (m *DepositModel) ToDomain() *mess.Deposit {
	return &mess.Deposit{
		TenantEntity: m.ToTenantEntity(),
		MemberID:     m.MemberID,
		Date:         mess.CalendarDay(m.Date),
		Amount:       m.Amount,
		Note:         m.Note,
	}
}

func DepositModelFromDomain(d *mess.Deposit) *DepositModel {
	m := &DepositModel{
		MemberID: d.MemberID,
		Date:     d.Date,
		Amount:   d.Amount,
		Note:     d.Note,
	}
	m.FromDomainTenantEntity(d.TenantEntity)
	return m
}

// AdditionalCostModel stores a shared cost split per head
type AdditionalCostModel struct {
	TenantModel
	Date        time.Time       `gorm:"type:date;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Description string          `gorm:"type:varchar(500);not null"`
}

func (AdditionalCostModel) TableName() string {
	return "additional_costs"
}

func (m *AdditionalCostModel) ToDomain() *mess.AdditionalCost {
	return &mess.AdditionalCost{
		TenantEntity: m.ToTenantEntity(),
		Date:         mess.CalendarDay(m.Date),
		Amount:       m.Amount,
		Description:  m.Description,
	}
}

func AdditionalCostModelFromDomain(d *mess.AdditionalCost) *AdditionalCostModel {
	m := &AdditionalCostModel{
		Date:        d.Date,
		Amount:      d.Amount,
		Description: d.Description,
	}
	m.FromDomainTenantEntity(d.TenantEntity)
	return m
}
