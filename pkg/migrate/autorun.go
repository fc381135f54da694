package migrate

import (
	"context"
	"fmt"

	"github.com/arnaszs/servizas/pkg/config"
	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/logger"
)

// MaybeRunDev applies the schema automatically when running in dev mode with
// the auto-migrate flag on. Postgres gets the goose migrations; sqlite dev
// databases are built from the gorm models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "auto-migrating sqlite schema from models")
		if err := AutoMigrateModels(client); err != nil {
			return err
		}
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}

// AutoMigrateModels creates or updates tables straight from the gorm models.
func AutoMigrateModels(client *db.Client) error {
	err := client.DB().AutoMigrate(
		&models.Client{},
		&models.CarModel{},
		&models.Service{},
		&models.Vehicle{},
		&models.Order{},
		&models.Entry{},
		&models.Review{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}
	return nil
}
