package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/persistence/models"
	"github.com/messmate/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// ErrContactTaken is returned when another member already uses the email or phone
var ErrContactTaken = shared.NewDomainError("ALREADY_EXISTS", "Email or phone is already used by another member")

// GormMemberRepository implements mess.MemberRepository using GORM
type GormMemberRepository struct {
	db *gorm.DB
}

// NewGormMemberRepository creates a new GormMemberRepository
func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

// FindByID finds a member by ID in any mess
func (r *GormMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*mess.Member, error) {
	var model models.MemberModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a member of one mess
func (r *GormMemberRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.Member, error) {
	var model models.MemberModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists members of a mess
func (r *GormMemberRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.MemberFilter) ([]mess.Member, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MemberModel{}).Scopes(tenant.Scope(tenantID))
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", p, p, p)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.MemberModel
	if err := query.Scopes(paginate(filter.Filter, MemberSortFields, "joined_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return membersToDomain(rows), total, nil
}

// ListRoster returns every member of the mess, oldest first
func (r *GormMemberRepository) ListRoster(ctx context.Context, tenantID uuid.UUID) ([]mess.Member, error) {
	var rows []models.MemberModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Order("joined_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return membersToDomain(rows), nil
}

// ListManagers returns the active managers of the mess
func (r *GormMemberRepository) ListManagers(ctx context.Context, tenantID uuid.UUID) ([]mess.Member, error) {
	var rows []models.MemberModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("role = ? AND is_active = ?", mess.MemberRoleManager, true).
		Order("joined_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return membersToDomain(rows), nil
}

// ExistsByContact reports whether any other member already uses email or phone
func (r *GormMemberRepository) ExistsByContact(ctx context.Context, email, phone string, excludeID *uuid.UUID) (bool, error) {
	if email == "" && phone == "" {
		return false, nil
	}
	query := r.db.WithContext(ctx).Model(&models.MemberModel{})
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone = ?", phone)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// Save creates or updates a member
func (r *GormMemberRepository) Save(ctx context.Context, m *mess.Member) error {
	err := r.db.WithContext(ctx).Save(models.MemberModelFromDomain(m)).Error
	if isDuplicate(err) {
		return ErrContactTaken
	}
	return err
}

func membersToDomain(rows []models.MemberModel) []mess.Member {
	out := make([]mess.Member, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
