package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
)

// MessModel is the persistence model for a mess (tenant)
type MessModel struct {
	AggregateModel
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	CurrentPeriod string          `gorm:"type:varchar(7);not null"`
	Status        mess.MessStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'BDT'"`
	Timezone      string          `gorm:"type:varchar(64);not null;default:'Asia/Dhaka'"`
}

func (MessModel) TableName() string {
	return "messes"
}

// ToDomain converts the model to a domain Mess
func (m *MessModel) ToDomain() *mess.Mess {
	period, _ := mess.ParsePeriod(m.CurrentPeriod)
	return &mess.Mess{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		CurrentPeriod:     period,
		Status:            m.Status,
		Currency:          m.Currency,
		Timezone:          m.Timezone,
	}
}

// MessModelFromDomain converts a domain Mess to its model
func MessModelFromDomain(d *mess.Mess) *MessModel {
	m := &MessModel{
		Code:          d.Code,
		Name:          d.Name,
		CurrentPeriod: d.CurrentPeriod.String(),
		Status:        d.Status,
		Currency:      d.Currency,
		Timezone:      d.Timezone,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

// MemberModel is the persistence model for a mess member
type MemberModel struct {
	AggregateModel
	TenantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name     string          `gorm:"type:varchar(100);not null"`
	Email    string          `gorm:"type:varchar(254);index"`
	Phone    string          `gorm:"type:varchar(20);index"`
	Role     mess.MemberRole `gorm:"type:varchar(20);not null;default:'member'"`
	IsActive bool            `gorm:"not null;default:true"`
	JoinedAt time.Time       `gorm:"not null"`
}

func (MemberModel) TableName() string {
	return "members"
}

// ToDomain converts the model to a domain Member
func (m *MemberModel) ToDomain() *mess.Member {
	return &mess.Member{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: m.ToAggregateRoot(),
			TenantID:          m.TenantID,
		},
		Name:     m.Name,
		Email:    m.Email,
		Phone:    m.Phone,
		Role:     m.Role,
		IsActive: m.IsActive,
		JoinedAt: m.JoinedAt,
	}
}

// MemberModelFromDomain converts a domain Member to its model
func MemberModelFromDomain(d *mess.Member) *MemberModel {
	m := &MemberModel{
		TenantID: d.TenantID,
		Name:     d.Name,
		Email:    d.Email,
		Phone:    d.Phone,
		Role:     d.Role,
		IsActive: d.IsActive,
		JoinedAt: d.JoinedAt,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}
