package mess

import (
	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeMess   = "Mess"
	AggregateTypeMember = "Member"

	EventTypeMessCreated        = "MessCreated"
	EventTypeMessStatusChanged  = "MessStatusChanged"
	EventTypePeriodAdvanced     = "PeriodAdvanced"
	EventTypeMemberJoined       = "MemberJoined"
	EventTypeSettlementArchived = "SettlementArchived"
)

// MessCreatedEvent is raised when a mess is registered
type MessCreatedEvent struct {
	shared.BaseDomainEvent
	Code   string `json:"code"`
	Name   string `json:"name"`
	Period string `json:"period"`
}

func NewMessCreatedEvent(m *Mess) *MessCreatedEvent {
	return &MessCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessCreated, AggregateTypeMess, m.ID, m.ID),
		Code:            m.Code,
		Name:            m.Name,
		Period:          m.CurrentPeriod.String(),
	}
}

// MessStatusChangedEvent is raised on activate, deactivate and suspend
type MessStatusChangedEvent struct {
	shared.BaseDomainEvent
	From MessStatus `json:"from"`
	To   MessStatus `json:"to"`
}

func NewMessStatusChangedEvent(m *Mess, from MessStatus) *MessStatusChangedEvent {
	return &MessStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessStatusChanged, AggregateTypeMess, m.ID, m.ID),
		From:            from,
		To:              m.Status,
	}
}

// PeriodAdvancedEvent is raised when the open period moves forward
type PeriodAdvancedEvent struct {
	shared.BaseDomainEvent
	From string `json:"from"`
	To   string `json:"to"`
}

func NewPeriodAdvancedEvent(m *Mess, from Period) *PeriodAdvancedEvent {
	return &PeriodAdvancedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePeriodAdvanced, AggregateTypeMess, m.ID, m.ID),
		From:            from.String(),
		To:              m.CurrentPeriod.String(),
	}
}

// MemberJoinedEvent is raised when a member is added to a mess
type MemberJoinedEvent struct {
	shared.BaseDomainEvent
	MemberID uuid.UUID `json:"member_id"`
	Name     string    `json:"name"`
}

func NewMemberJoinedEvent(m *Member) *MemberJoinedEvent {
	return &MemberJoinedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMemberJoined, AggregateTypeMember, m.ID, m.TenantID),
		MemberID:        m.ID,
		Name:            m.Name,
	}
}

// SettlementArchivedEvent is raised after a period was archived and cleared
type SettlementArchivedEvent struct {
	shared.BaseDomainEvent
	ArchiveID   uuid.UUID          `json:"archive_id"`
	Period      string             `json:"period"`
	NextPeriod  string             `json:"next_period"`
	MealRate    decimal.Decimal    `json:"meal_rate"`
	TotalBazar  decimal.Decimal    `json:"total_bazar"`
	MemberCount int                `json:"member_count"`
	Archive     *SettlementArchive `json:"-"`
}

func NewSettlementArchivedEvent(a *SettlementArchive, next Period) *SettlementArchivedEvent {
	return &SettlementArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementArchived, AggregateTypeMess, a.TenantID, a.TenantID),
		ArchiveID:       a.ID,
		Period:          a.Period.String(),
		NextPeriod:      next.String(),
		MealRate:        a.MealRate,
		TotalBazar:      a.TotalBazar,
		MemberCount:     len(a.Members),
		Archive:         a,
	}
}
