package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/messaging"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMessageRepository implements messaging.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Save stores a message and its deliveries in one transaction
func (r *GormMessageRepository) Save(ctx context.Context, m *messaging.Message) error {
	model := models.MessageModelFromDomain(m)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deliveries := model.Deliveries
		model.Deliveries = nil
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(deliveries) == 0 {
			return nil
		}
		return tx.CreateInBatches(deliveries, 500).Error
	})
}

// Inbox lists the deliveries of a member joined with their messages, newest first
func (r *GormMessageRepository) Inbox(ctx context.Context, memberID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]messaging.InboxItem, int64, error) {
	query := r.db.WithContext(ctx).
		Table("message_deliveries AS d").
		Joins("JOIN messages m ON m.id = d.message_id").
		Where("d.member_id = ?", memberID)
	if unreadOnly {
		query = query.Where("d.read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InboxRow
	err := query.Select(`d.id AS delivery_id, m.id AS message_id,
		m.sender_kind, m.sender_id, m.sender_tenant_id,
		m.target_kind, m.target_tenant_id, m.target_member_id,
		m.subject, m.body, m.created_at AS sent_at, d.read_at`).
		Order("m.created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make([]messaging.InboxItem, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// Sent lists the messages written by sender, newest first, with their deliveries
func (r *GormMessageRepository) Sent(ctx context.Context, sender uuid.UUID, filter shared.Filter) ([]messaging.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MessageModel{}).Where("sender_id = ?", sender)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.MessageModel
	if err := query.Preload("Deliveries").
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]messaging.Message, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// MarkRead sets read_at on a delivery owned by memberID. Marking an already
// read delivery is a no-op.
func (r *GormMessageRepository) MarkRead(ctx context.Context, memberID, deliveryID uuid.UUID, at time.Time) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.DeliveryModel{}).
		Where("id = ? AND member_id = ? AND read_at IS NULL", deliveryID, memberID).
		Update("read_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.DeliveryModel{}).
		Where("id = ? AND member_id = ?", deliveryID, memberID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return nil
}
