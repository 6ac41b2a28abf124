package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SettlementArchiveModel stores the frozen totals of one closed period
type SettlementArchiveModel struct {
	BaseModel
	TenantID          uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_settlement_archives_tenant_period,priority:1"`
	Period            string             `gorm:"type:varchar(7);not null;uniqueIndex:idx_settlement_archives_tenant_period,priority:2"`
	TotalBazar        decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	TotalAdditional   decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	TotalMealUnits    int64              `gorm:"not null"`
	MealRate          decimal.Decimal    `gorm:"type:decimal(24,10);not null"`
	ActiveMembers     int                `gorm:"not null"`
	AdditionalPerHead decimal.Decimal    `gorm:"type:decimal(24,10);not null"`
	TotalDeposits     decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	ArchivedAt        time.Time          `gorm:"not null"`
	Lines             []ArchiveLineModel `gorm:"foreignKey:ArchiveID;constraint:OnDelete:CASCADE"`
}

func (SettlementArchiveModel) TableName() string {
	return "settlement_archives"
}

// ArchiveLineModel stores one member's line of an archive
type ArchiveLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ArchiveID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null"`
	MemberID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	MemberName     string          `gorm:"type:varchar(100)"`
	Active         bool            `gorm:"not null"`
	OnRoster       bool            `gorm:"not null"`
	MealUnits      int64           `gorm:"not null"`
	Deposits       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MealCost       decimal.Decimal `gorm:"type:decimal(24,10);not null"`
	AdditionalCost decimal.Decimal `gorm:"type:decimal(24,10);not null"`
	AllocatedCost  decimal.Decimal `gorm:"type:decimal(24,10);not null"`
	Balance        decimal.Decimal `gorm:"type:decimal(24,10);not null"`
	Position       int             `gorm:"not null"`
}

func (ArchiveLineModel) TableName() string {
	return "settlement_archive_lines"
}

// ToDomain converts the model (with preloaded lines) to a domain archive
func (m *SettlementArchiveModel) ToDomain() *mess.SettlementArchive {
	period, _ := mess.ParsePeriod(m.Period)
	a := &mess.SettlementArchive{
		TenantEntity:      shared.TenantEntity{BaseEntity: m.BaseModel.ToDomain(), TenantID: m.TenantID},
		Period:            period,
		TotalBazar:        m.TotalBazar,
		TotalAdditional:   m.TotalAdditional,
		TotalMealUnits:    m.TotalMealUnits,
		MealRate:          m.MealRate,
		ActiveMembers:     m.ActiveMembers,
		AdditionalPerHead: m.AdditionalPerHead,
		TotalDeposits:     m.TotalDeposits,
		ArchivedAt:        m.ArchivedAt,
		Members:           make([]mess.MemberSettlement, len(m.Lines)),
	}
	for i := range m.Lines {
		a.Members[i] = m.Lines[i].ToDomain()
	}
	return a
}

// ToDomain converts one line
func (l *ArchiveLineModel) ToDomain() mess.MemberSettlement {
	return mess.MemberSettlement{
		MemberID:       l.MemberID,
		MemberName:     l.MemberName,
		Active:         l.Active,
		OnRoster:       l.OnRoster,
		MealUnits:      l.MealUnits,
		Deposits:       l.Deposits,
		MealCost:       l.MealCost,
		AdditionalCost: l.AdditionalCost,
		AllocatedCost:  l.AllocatedCost,
		Balance:        l.Balance,
	}
}

// SettlementArchiveModelFromDomain converts an archive and its lines to models
func SettlementArchiveModelFromDomain(d *mess.SettlementArchive) *SettlementArchiveModel {
	m := &SettlementArchiveModel{
		TenantID:          d.TenantID,
		Period:            d.Period.String(),
		TotalBazar:        d.TotalBazar,
		TotalAdditional:   d.TotalAdditional,
		TotalMealUnits:    d.TotalMealUnits,
		MealRate:          d.MealRate,
		ActiveMembers:     d.ActiveMembers,
		AdditionalPerHead: d.AdditionalPerHead,
		TotalDeposits:     d.TotalDeposits,
		ArchivedAt:        d.ArchivedAt,
		Lines:             make([]ArchiveLineModel, len(d.Members)),
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	for i, line := range d.Members {
		m.Lines[i] = ArchiveLineModel{
			ID:             uuid.New(),
			ArchiveID:      d.ID,
			TenantID:       d.TenantID,
			MemberID:       line.MemberID,
			MemberName:     line.MemberName,
			Active:         line.Active,
			OnRoster:       line.OnRoster,
			MealUnits:      line.MealUnits,
			Deposits:       line.Deposits,
			MealCost:       line.MealCost,
			AdditionalCost: line.AdditionalCost,
			AllocatedCost:  line.AllocatedCost,
			Balance:        line.Balance,
			Position:       i,
		}
	}
	return m
}
