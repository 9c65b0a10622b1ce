package database

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/config"
	"github.com/veinview/backend/internal/models"
	"github.com/veinview/backend/internal/utils"
)

// SeedAdmin creates the initial admin account when no admin exists yet.
func SeedAdmin(db *gorm.DB, cfg *config.Config, z *zap.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		UserID:   uuid.NewString(),
		FullName: cfg.AdminFullName,
		Email:    cfg.AdminEmail,
		Password: hashed,
		Role:     "admin",
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	z.Info("seeded initial admin", zap.String("email", admin.Email))
	return nil
}
