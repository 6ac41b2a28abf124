package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/messaging"
)

// MessageModel stores a message once, regardless of how many inboxes it reaches
type MessageModel struct {
	BaseModel
	SenderKind     messaging.PartyKind  `gorm:"type:varchar(20);not null"`
	SenderID       *uuid.UUID           `gorm:"type:uuid;index"`
	SenderTenantID *uuid.UUID           `gorm:"type:uuid"`
	TargetKind     messaging.TargetKind `gorm:"type:varchar(20);not null"`
	TargetTenantID *uuid.UUID           `gorm:"type:uuid;index"`
	TargetMemberID *uuid.UUID           `gorm:"type:uuid"`
	Subject        string               `gorm:"type:varchar(200)"`
	Body           string               `gorm:"type:text;not null"`
	Deliveries     []DeliveryModel      `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (MessageModel) TableName() string {
	return "messages"
}

// DeliveryModel is one inbox entry
type DeliveryModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	MessageID uuid.UUID  `gorm:"type:uuid;not null;index"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null"`
	MemberID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
}

func (DeliveryModel) TableName() string {
	return "message_deliveries"
}

func (m *MessageModel) sender() messaging.Party {
	p := messaging.Party{Kind: m.SenderKind, TenantID: m.SenderTenantID}
	if m.SenderID != nil {
		p.AccountID = *m.SenderID
	}
	return p
}

func (m *MessageModel) target() messaging.Target {
	return messaging.Target{Kind: m.TargetKind, TenantID: m.TargetTenantID, MemberID: m.TargetMemberID}
}

// ToDomain converts the model (with any preloaded deliveries) to a domain message
func (m *MessageModel) ToDomain() *messaging.Message {
	msg := &messaging.Message{
		BaseEntity: m.BaseModel.ToDomain(),
		Sender:     m.sender(),
		Target:     m.target(),
		Subject:    m.Subject,
		Body:       m.Body,
		Deliveries: make([]messaging.Delivery, len(m.Deliveries)),
	}
	for i, d := range m.Deliveries {
		msg.Deliveries[i] = messaging.Delivery{
			ID:        d.ID,
			MessageID: d.MessageID,
			TenantID:  d.TenantID,
			MemberID:  d.MemberID,
			ReadAt:    d.ReadAt,
		}
	}
	return msg
}

// MessageModelFromDomain converts a message and its deliveries to models
func MessageModelFromDomain(d *messaging.Message) *MessageModel {
	m := &MessageModel{
		SenderKind:     d.Sender.Kind,
		SenderTenantID: d.Sender.TenantID,
		TargetKind:     d.Target.Kind,
		TargetTenantID: d.Target.TenantID,
		TargetMemberID: d.Target.MemberID,
		Subject:        d.Subject,
		Body:           d.Body,
		Deliveries:     make([]DeliveryModel, len(d.Deliveries)),
	}
	if d.Sender.AccountID != uuid.Nil {
		id := d.Sender.AccountID
		m.SenderID = &id
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	for i, del := range d.Deliveries {
		m.Deliveries[i] = DeliveryModel{
			ID:        del.ID,
			MessageID: d.ID,
			TenantID:  del.TenantID,
			MemberID:  del.MemberID,
			ReadAt:    del.ReadAt,
			CreatedAt: d.CreatedAt,
		}
	}
	return m
}

// InboxRow is the scan target of the inbox join
type InboxRow struct {
	DeliveryID     uuid.UUID
	MessageID      uuid.UUID
	SenderKind     messaging.PartyKind
	SenderID       *uuid.UUID
	SenderTenantID *uuid.UUID
	TargetKind     messaging.TargetKind
	TargetTenantID *uuid.UUID
	TargetMemberID *uuid.UUID
	Subject        string
	Body           string
	SentAt         time.Time
	ReadAt         *time.Time
}

// ToDomain converts the row to an inbox item
func (r *InboxRow) ToDomain() messaging.InboxItem {
	m := MessageModel{
		SenderKind:     r.SenderKind,
		SenderID:       r.SenderID,
		SenderTenantID: r.SenderTenantID,
		TargetKind:     r.TargetKind,
		TargetTenantID: r.TargetTenantID,
		TargetMemberID: r.TargetMemberID,
	}
	return messaging.InboxItem{
		DeliveryID: r.DeliveryID,
		MessageID:  r.MessageID,
		Sender:     m.sender(),
		Target:     m.target(),
		Subject:    r.Subject,
		Body:       r.Body,
		SentAt:     r.SentAt,
		ReadAt:     r.ReadAt,
	}
}
