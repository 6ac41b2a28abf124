package persistence

import (
	"context"

	messapp "github.com/messmate/backend/internal/application/mess"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/mess"
	"gorm.io/gorm"
)

// GormOnboardingScope implements messapp.OnboardingScope with one GORM transaction
type GormOnboardingScope struct {
	db *gorm.DB
}

// NewGormOnboardingScope creates a new GormOnboardingScope
func NewGormOnboardingScope(db *gorm.DB) *GormOnboardingScope {
	return &GormOnboardingScope{db: db}
}

// Execute runs fn in a transaction; any error rolls back every write
func (s *GormOnboardingScope) Execute(ctx context.Context, fn func(repos messapp.OnboardingRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(onboardingRepos{tx: tx})
	})
}

type onboardingRepos struct {
	tx *gorm.DB
}

func (r onboardingRepos) MessRepo() mess.MessRepository {
	return NewGormMessRepository(r.tx)
}

func (r onboardingRepos) MemberRepo() mess.MemberRepository {
	return NewGormMemberRepository(r.tx)
}

func (r onboardingRepos) AccountRepo() identity.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

var _ messapp.OnboardingScope = (*GormOnboardingScope)(nil)
