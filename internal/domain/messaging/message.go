package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
)

// Message is written once and delivered to every resolved recipient
type Message struct {
	shared.BaseEntity
	Sender     Party
	Target     Target
	Subject    string
	Body       string
	Deliveries []Delivery
}

// Delivery is a message's copy in one recipient's inbox
type Delivery struct {
	ID        uuid.UUID
	MessageID uuid.UUID
	TenantID  uuid.UUID
	MemberID  uuid.UUID
	ReadAt    *time.Time
}

// NewMessage checks sender permissions and builds the message with no deliveries yet
func NewMessage(sender Party, target Target, subject, body string) (*Message, error) {
	if err := CanSend(sender, target); err != nil {
		return nil, err
	}
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "Message body cannot be empty")
	}
	if len(subject) > 200 {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot exceed 200 characters")
	}
	if len(body) > 5000 {
		return nil, shared.NewDomainError("INVALID_BODY", "Message body cannot exceed 5000 characters")
	}
	return &Message{
		BaseEntity: shared.NewBaseEntity(),
		Sender:     sender,
		Target:     target,
		Subject:    subject,
		Body:       body,
	}, nil
}

// Deliver adds one delivery per recipient, skipping duplicates and the sender
func (m *Message) Deliver(to []Recipient) {
	seen := make(map[uuid.UUID]bool, len(to))
	for _, r := range to {
		if seen[r.MemberID] || r.MemberID == m.Sender.AccountID {
			continue
		}
		seen[r.MemberID] = true
		m.Deliveries = append(m.Deliveries, Delivery{
			ID:        uuid.New(),
			MessageID: m.ID,
			TenantID:  r.TenantID,
			MemberID:  r.MemberID,
		})
	}
}

// InboxItem is a delivery joined with its message
type InboxItem struct {
	DeliveryID uuid.UUID  `json:"delivery_id"`
	MessageID  uuid.UUID  `json:"message_id"`
	Sender     Party      `json:"sender"`
	Target     Target     `json:"target"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	SentAt     time.Time  `json:"sent_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// MessageRepository persists messages with their deliveries
type MessageRepository interface {
	// Save stores the message and all its deliveries in one transaction
	Save(ctx context.Context, m *Message) error
	Inbox(ctx context.Context, memberID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]InboxItem, int64, error)
	Sent(ctx context.Context, sender uuid.UUID, filter shared.Filter) ([]Message, int64, error)
	MarkRead(ctx context.Context, memberID, deliveryID uuid.UUID, at time.Time) error
}
