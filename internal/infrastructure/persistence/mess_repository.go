package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMessRepository implements mess.MessRepository using GORM
type GormMessRepository struct {
	db *gorm.DB
}

// NewGormMessRepository creates a new GormMessRepository
func NewGormMessRepository(db *gorm.DB) *GormMessRepository {
	return &GormMessRepository{db: db}
}

// FindByID finds a mess by ID
func (r *GormMessRepository) FindByID(ctx context.Context, id uuid.UUID) (*mess.Mess, error) {
	var model models.MessModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a mess by its unique code
func (r *GormMessRepository) FindByCode(ctx context.Context, code string) (*mess.Mess, error) {
	var model models.MessModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists messes with filtering and pagination
func (r *GormMessRepository) FindAll(ctx context.Context, filter mess.MessFilter) ([]mess.Mess, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MessModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", p, p)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.MessModel
	if err := query.Scopes(paginate(filter.Filter, MessSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]mess.Mess, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// ExistsByCode reports whether a mess code is taken
func (r *GormMessRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MessModel{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// ListActiveIDs returns the IDs of every active mess, oldest first
func (r *GormMessRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.MessModel{}).
		Where("status = ?", mess.MessStatusActive).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Save creates or updates a mess
func (r *GormMessRepository) Save(ctx context.Context, m *mess.Mess) error {
	err := r.db.WithContext(ctx).Save(models.MessModelFromDomain(m)).Error
	if isDuplicate(err) {
		return shared.NewDomainError("ALREADY_EXISTS", "Mess code already exists")
	}
	return err
}

// SaveWithLock saves the mess only if nobody changed it since it was loaded
func (r *GormMessRepository) SaveWithLock(ctx context.Context, m *mess.Mess) error {
	expected := m.GetVersion() - 1
	model := models.MessModelFromDomain(m)
	result := r.db.WithContext(ctx).Model(&models.MessModel{}).
		Where("id = ? AND version = ?", m.ID, expected).
		Select("name", "current_period", "status", "currency", "timezone", "version", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
