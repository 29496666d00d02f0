package db

import (
	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the service.
func Models() []interface{} {
	return []interface{}{
		&model.CatalogDocument{},
		&model.CartLine{},
		&model.Coupon{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
