package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/infrastructure/persistence/models"
	"github.com/messmate/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormDirectory implements messaging.Directory over the messes and members tables
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a new GormDirectory
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) ActiveMembers(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.WithContext(ctx).Model(&models.MemberModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("is_active = ?", true).
		Order("joined_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (d *GormDirectory) Managers(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.WithContext(ctx).Model(&models.MemberModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("role = ? AND is_active = ?", mess.MemberRoleManager, true).
		Order("joined_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// IsMember reports whether memberID is an active member of tenantID
func (d *GormDirectory) IsMember(ctx context.Context, tenantID, memberID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.MemberModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ? AND is_active = ?", memberID, true).
		Count(&count).Error
	return count > 0, err
}

// ActiveTenants returns every active mess
func (d *GormDirectory) ActiveTenants(ctx context.Context) ([]uuid.UUID, error) {
	return NewGormMessRepository(d.db).ListActiveIDs(ctx)
}
