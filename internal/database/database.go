package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Tenant{},
		&models.SiteConfigOverride{},
		&models.Account{},
		&models.RefreshToken{},
		&models.UserProfile{},
		&models.Room{},
		&models.Message{},
		&models.Payment{},
		&models.SystemLog{},
	}
}

// FeatureModels lists the tables owned by the feature plugins. Account and
// tenant deletion cascade into them.
func FeatureModels() []interface{} {
	return []interface{}{
		&models.MealEntry{},
		&models.HydrationEntry{},
		&models.WeightLog{},
		&models.PlanTemplate{},
		&models.Guideline{},
	}
}

// Migrate runs AutoMigrate for the core models and makes sure the default tenant exists.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	return db.Where(models.Tenant{ID: models.DefaultTenantID}).
		Attrs(models.Tenant{Name: "Platform", IsActive: true}).
		FirstOrCreate(&models.Tenant{}).Error
}

// MigrateModels runs AutoMigrate for arbitrary models (used by plugins).
func MigrateModels(db *gorm.DB, modelList []interface{}) error {
	if len(modelList) == 0 {
		return nil
	}
	return db.AutoMigrate(modelList...)
}

// IsPostgres reports whether row locks (SELECT ... FOR UPDATE) are available.
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
