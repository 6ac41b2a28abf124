package messaging

import (
	"context"
	"fmt"

	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/messaging"
	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SettlementNotifier posts a summary to every member of a mess once its
// period has been archived
type SettlementNotifier struct {
	messages *MessageService
	places   int32
	logger   *zap.Logger
}

// NewSettlementNotifier creates a new SettlementNotifier
func NewSettlementNotifier(messages *MessageService, displayPlaces int32, logger *zap.Logger) *SettlementNotifier {
	return &SettlementNotifier{messages: messages, places: displayPlaces, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (n *SettlementNotifier) EventTypes() []string {
	return []string{mess.EventTypeSettlementArchived}
}

// Handle sends the system notice
func (n *SettlementNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	archived, ok := event.(*mess.SettlementArchivedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			mess.EventTypeSettlementArchived, event.EventType())
	}

	tenantID := archived.TenantID()
	subject := fmt.Sprintf("Settlement for %s", archived.Period)
	body := fmt.Sprintf(
		"The %s period has been closed and archived.\nTotal bazar: %s\nMeal rate: %s\nMembers settled: %d\nThe new period %s is now open. Check your balance in the archive.",
		archived.Period,
		archived.TotalBazar.Round(n.places).String(),
		archived.MealRate.Round(n.places).String(),
		archived.MemberCount,
		archived.NextPeriod,
	)

	res, err := n.messages.post(ctx, messaging.SystemParty(tenantID), messaging.TenantTarget(tenantID), subject, body)
	if err != nil {
		return err
	}
	n.logger.Debug("Settlement notice sent",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", archived.Period),
		zap.Int("recipients", res.Recipients))
	return nil
}

var _ shared.EventHandler = (*SettlementNotifier)(nil)
