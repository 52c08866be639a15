// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail == "" {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), logger, "ensure superadmin")
	defer cancel()
	users := userstore.New(deps.Store, logger, userstore.WithBcryptCost(appCfg.BcryptCost))
	return ensureSuperAdmin(ctx, users, appCfg.SuperAdminEmail, logger)
}

// ensureSuperAdmin makes sure the configured email belongs to an active
// SuperAdmin. An existing user is promoted; otherwise one is created
// without a password (the external login service handles credentials).
func ensureSuperAdmin(ctx context.Context, users *userstore.Store, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup superadmin: %w", err)
	}

	if u == nil {
		id, err := users.Add(ctx, userstore.NewUser{
			Name:  "Super Admin",
			Email: email,
			Role:  string(models.RoleSuperAdmin),
		})
		if err != nil {
			return fmt.Errorf("create superadmin: %w", err)
		}
		logger.Info("created superadmin user", zap.String("email", email), zap.String("user_id", id))
		return nil
	}

	if u.Role == models.RoleSuperAdmin && u.Status == models.UserStatusActive {
		return nil
	}
	err = users.Update(ctx, u.ID, map[string]any{
		models.UserFieldRole:   string(models.RoleSuperAdmin),
		models.UserFieldStatus: models.UserStatusActive,
	})
	if err != nil {
		return fmt.Errorf("promote superadmin: %w", err)
	}
	logger.Info("promoted user to superadmin",
		zap.String("email", email),
		zap.String("previous_role", string(u.Role)))
	return nil
}
