package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/messaging"
	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DeliveryMetrics counts delivered inbox copies
type DeliveryMetrics interface {
	RecordDeliveries(ctx context.Context, targetKind string, n int)
}

type noopDeliveryMetrics struct{}

func (noopDeliveryMetrics) RecordDeliveries(context.Context, string, int) {}

// SendMessageRequest addresses a message. TenantID defaults to the sender's mess.
type SendMessageRequest struct {
	Target   string     `json:"target" binding:"required,oneof=global tenant managers member"`
	TenantID *uuid.UUID `json:"tenant_id"`
	MemberID *uuid.UUID `json:"member_id"`
	Subject  string     `json:"subject" binding:"max=200"`
	Body     string     `json:"body" binding:"required,max=5000"`
}

// SendResult reports where a message went
type SendResult struct {
	MessageID  uuid.UUID `json:"message_id"`
	Recipients int       `json:"recipients"`
	SentAt     time.Time `json:"sent_at"`
}

// MessageService sends messages and serves inboxes
type MessageService struct {
	repo      messaging.MessageRepository
	directory messaging.Directory
	metrics   DeliveryMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewMessageService creates a new MessageService. metrics may be nil.
func NewMessageService(repo messaging.MessageRepository, directory messaging.Directory, metrics DeliveryMetrics, logger *zap.Logger) *MessageService {
	if metrics == nil {
		metrics = noopDeliveryMetrics{}
	}
	return &MessageService{
		repo:      repo,
		directory: directory,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Send writes a message from the session owner to the requested target
func (s *MessageService) Send(ctx context.Context, session identity.Session, req SendMessageRequest) (*SendResult, error) {
	sender, err := PartyOf(session)
	if err != nil {
		return nil, err
	}
	target, err := targetOf(session, req)
	if err != nil {
		return nil, err
	}
	return s.post(ctx, sender, target, req.Subject, req.Body)
}

// post authorizes, resolves and stores a message
func (s *MessageService) post(ctx context.Context, sender messaging.Party, target messaging.Target, subject, body string) (*SendResult, error) {
	msg, err := messaging.NewMessage(sender, target, subject, body)
	if err != nil {
		return nil, err
	}
	recipients, err := messaging.ResolveRecipients(ctx, target, s.directory)
	if err != nil {
		return nil, err
	}
	msg.Deliver(recipients)

	if err := s.repo.Save(ctx, msg); err != nil {
		s.logger.Error("Failed to save message", zap.String("target", string(target.Kind)), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordDeliveries(ctx, string(target.Kind), len(msg.Deliveries))
	s.logger.Info("Message sent",
		zap.String("message_id", msg.ID.String()),
		zap.String("sender", string(sender.Kind)),
		zap.String("target", string(target.Kind)),
		zap.Int("deliveries", len(msg.Deliveries)))

	return &SendResult{MessageID: msg.ID, Recipients: len(msg.Deliveries), SentAt: msg.CreatedAt}, nil
}

// Inbox lists the deliveries of the session's member, newest first
func (s *MessageService) Inbox(ctx context.Context, session identity.Session, unreadOnly bool, filter shared.Filter) (*shared.Paginated[messaging.InboxItem], error) {
	memberID, err := session.Member()
	if err != nil {
		return nil, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	items, total, err := s.repo.Inbox(ctx, memberID, unreadOnly, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// MarkRead marks one of the session member's deliveries as read
func (s *MessageService) MarkRead(ctx context.Context, session identity.Session, deliveryID uuid.UUID) error {
	memberID, err := session.Member()
	if err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, memberID, deliveryID, s.now())
}

// PartyOf maps an authenticated session to a message sender
func PartyOf(session identity.Session) (messaging.Party, error) {
	switch session.Role {
	case identity.RoleSuperAdmin:
		return messaging.AdminParty(session.AccountID), nil
	case identity.RoleManager, identity.RoleMember:
		tenantID, err := session.Tenant()
		if err != nil {
			return messaging.Party{}, err
		}
		memberID, err := session.Member()
		if err != nil {
			return messaging.Party{}, err
		}
		if session.Role == identity.RoleManager {
			return messaging.ManagerParty(memberID, tenantID), nil
		}
		return messaging.MemberParty(memberID, tenantID), nil
	}
	return messaging.Party{}, shared.ErrForbidden
}

func targetOf(session identity.Session, req SendMessageRequest) (messaging.Target, error) {
	kind := messaging.TargetKind(req.Target)
	if kind == messaging.TargetGlobal {
		return messaging.GlobalTarget(), nil
	}

	tenantID := req.TenantID
	if tenantID == nil {
		tenantID = session.TenantID
	}
	if tenantID == nil {
		return messaging.Target{}, shared.NewDomainError("INVALID_TARGET", "Mess is required")
	}

	switch kind {
	case messaging.TargetTenant:
		return messaging.TenantTarget(*tenantID), nil
	case messaging.TargetManagers:
		return messaging.ManagersTarget(*tenantID), nil
	case messaging.TargetMember:
		if req.MemberID == nil {
			return messaging.Target{}, shared.NewDomainError("INVALID_TARGET", "Member is required")
		}
		return messaging.MemberTarget(*tenantID, *req.MemberID), nil
	}
	return messaging.Target{}, shared.NewDomainError("INVALID_TARGET", "Unknown target kind: "+req.Target)
}
