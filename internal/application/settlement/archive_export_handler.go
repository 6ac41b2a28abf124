package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ArchiveExportHandler copies each new settlement archive to object storage
// as a JSON document with full precision amounts
type ArchiveExportHandler struct {
	archiveRepo mess.ArchiveRepository
	storage     ObjectStorage
	prefix      string
	logger      *zap.Logger
}

// NewArchiveExportHandler creates a new handler for settlement archived events
func NewArchiveExportHandler(
	archiveRepo mess.ArchiveRepository,
	storage ObjectStorage,
	prefix string,
	logger *zap.Logger,
) *ArchiveExportHandler {
	return &ArchiveExportHandler{
		archiveRepo: archiveRepo,
		storage:     storage,
		prefix:      prefix,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ArchiveExportHandler) EventTypes() []string {
	return []string{mess.EventTypeSettlementArchived}
}

// Handle uploads the archive unless it was exported before
func (h *ArchiveExportHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	archived, ok := event.(*mess.SettlementArchivedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			mess.EventTypeSettlementArchived, event.EventType())
	}

	period, err := mess.ParsePeriod(archived.Period)
	if err != nil {
		return err
	}
	key := ArchiveObjectKey(h.prefix, archived.TenantID(), period)

	exists, err := h.storage.ObjectExists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check exported archive: %w", err)
	}
	if exists {
		h.logger.Debug("archive already exported", zap.String("key", key))
		return nil
	}

	archive := archived.Archive
	if archive == nil {
		archive, err = h.archiveRepo.FindByPeriod(ctx, archived.TenantID(), period)
		if err != nil {
			return fmt.Errorf("failed to load archive: %w", err)
		}
	}

	doc, err := json.MarshalIndent(ToArchiveResponse(archive, -1), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	if err := h.storage.Upload(ctx, key, doc, "application/json"); err != nil {
		return err
	}

	h.logger.Info("settlement archive exported",
		zap.String("tenant_id", archived.TenantID().String()),
		zap.String("period", archived.Period),
		zap.String("key", key),
		zap.Int("bytes", len(doc)),
	)
	return nil
}

var _ shared.EventHandler = (*ArchiveExportHandler)(nil)
