package identity

import (
	"context"

	"github.com/messmate/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// EnsureBootstrapAdmin creates the platform super admin on first start. It is
// a no-op when email is empty or an account with that email already exists.
func EnsureBootstrapAdmin(ctx context.Context, accounts identity.AccountRepository, email, password string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	admin, err := identity.NewAdminAccount(email, password)
	if err != nil {
		return err
	}
	exists, err := accounts.ExistsByEmail(ctx, admin.Email)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("Bootstrap admin already present", zap.String("email", admin.Email))
		return nil
	}
	if err := accounts.Save(ctx, admin); err != nil {
		return err
	}
	logger.Info("Bootstrap admin created", zap.String("email", admin.Email))
	return nil
}
