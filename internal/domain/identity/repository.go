package identity

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository persists login accounts
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByMemberID(ctx context.Context, memberID uuid.UUID) (*Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, a *Account) error
}
