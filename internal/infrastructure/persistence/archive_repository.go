package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/persistence/models"
	"github.com/messmate/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormArchiveRepository implements mess.ArchiveRepository using GORM
type GormArchiveRepository struct {
	db *gorm.DB
}

// NewGormArchiveRepository creates a new GormArchiveRepository
func NewGormArchiveRepository(db *gorm.DB) *GormArchiveRepository {
	return &GormArchiveRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByPeriod returns the archive of one closed period with its member lines
func (r *GormArchiveRepository) FindByPeriod(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*mess.SettlementArchive, error) {
	return findArchive(r.db.WithContext(ctx), tenantID, period)
}

func findArchive(db *gorm.DB, tenantID uuid.UUID, period mess.Period) (*mess.SettlementArchive, error) {
	var model models.SettlementArchiveModel
	if err := db.Scopes(tenant.Scope(tenantID), preloadLines).
		Where("period = ?", period.String()).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists archives newest first. Lines are not loaded.
func (r *GormArchiveRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]mess.SettlementArchive, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SettlementArchiveModel{}).Scopes(tenant.Scope(tenantID))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "period"
	}
	var rows []models.SettlementArchiveModel
	if err := query.Scopes(paginate(filter, ArchiveSortFields, "period")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]mess.SettlementArchive, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

type memberHistoryRow struct {
	models.ArchiveLineModel
	Period   string
	MealRate decimal.Decimal
}

// FindMemberHistory returns every archived line of a member, newest period first
func (r *GormArchiveRepository) FindMemberHistory(ctx context.Context, tenantID, memberID uuid.UUID) ([]mess.MemberPeriodLine, error) {
	var rows []memberHistoryRow
	err := r.db.WithContext(ctx).
		Table("settlement_archive_lines AS l").
		Select("l.*, a.period, a.meal_rate").
		Joins("JOIN settlement_archives a ON a.id = l.archive_id").
		Scopes(tenant.ScopeColumn("a.tenant_id", tenantID)).
		Where("l.member_id = ?", memberID).
		Order("a.period DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]mess.MemberPeriodLine, 0, len(rows))
	for i := range rows {
		period, err := mess.ParsePeriod(rows[i].Period)
		if err != nil {
			continue
		}
		out = append(out, mess.MemberPeriodLine{
			Period:   period,
			MealRate: rows[i].MealRate,
			Line:     rows[i].ArchiveLineModel.ToDomain(),
		})
	}
	return out, nil
}
