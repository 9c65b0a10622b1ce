package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/config"
	logger "github.com/veinview/backend/internal/logging"
	"github.com/veinview/backend/internal/models"
)

func Connect(cfg *config.Config, z *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
	)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(z),
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Device{},
		&models.Practice{},
		&models.Reading{},
		&models.PracticeSummary{},
		&models.Survey{},
		&models.Report{},
		&models.ARSession{},
		&models.ARDelivery{},
		&models.ARConfig{},
		&models.AREvent{},
	)
}
