package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
)

// AccountModel is the persistence model for login accounts
type AccountModel struct {
	AggregateModel
	Email          string        `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash   string        `gorm:"type:varchar(255);not null"`
	Role           identity.Role `gorm:"type:varchar(20);not null"`
	TenantID       *uuid.UUID    `gorm:"type:uuid;index"`
	MemberID       *uuid.UUID    `gorm:"type:uuid;uniqueIndex"`
	IsActive       bool          `gorm:"not null;default:true"`
	LastLoginAt    *time.Time
	FailedAttempts int `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (m *AccountModel) ToDomain() *identity.Account {
	return &identity.Account{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              m.Role,
		TenantID:          m.TenantID,
		MemberID:          m.MemberID,
		IsActive:          m.IsActive,
		LastLoginAt:       m.LastLoginAt,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
	}
}

func AccountModelFromDomain(d *identity.Account) *AccountModel {
	m := &AccountModel{
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		Role:           d.Role,
		TenantID:       d.TenantID,
		MemberID:       d.MemberID,
		IsActive:       d.IsActive,
		LastLoginAt:    d.LastLoginAt,
		FailedAttempts: d.FailedAttempts,
		LockedUntil:    d.LockedUntil,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

// AllModels lists every model, in dependency order, for test auto-migration
func AllModels() []any {
	return []any{
		&MessModel{},
		&MemberModel{},
		&AccountModel{},
		&MealRecordModel{},
		&BazarPurchaseModel{},
		&DepositModel{},
		&AdditionalCostModel{},
		&SettlementArchiveModel{},
		&ArchiveLineModel{},
		&MessageModel{},
		&DeliveryModel{},
	}
}
