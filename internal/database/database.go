package database

import (
	"fmt"

	"neurothrive/internal/config"
	logging "neurothrive/internal/logging"
	"neurothrive/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. Supported drivers are
// "postgres" and "sqlite" (Path may be ":memory:").
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.NewGormZapLogger(log, logger.Info),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// An in-memory database only exists on the connection that created it.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Database connection established successfully.", zap.String("driver", dialector.Name()))
	return db, nil
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ScreeningLog{},
		&models.InterventionPlan{},
		&models.Patient{},
		&models.DailyCheckin{},
		&models.CrisisEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// AutoMigrate does not create composite indexes, so we handle that separately.
	planIndex := `CREATE INDEX IF NOT EXISTS idx_plans_patient_active ON intervention_plans (patient_ref, is_active);`
	if err := db.Exec(planIndex).Error; err != nil {
		return fmt.Errorf("failed to create index on intervention_plans: %w", err)
	}

	log.Info("Database migrations completed successfully.")
	return nil
}
