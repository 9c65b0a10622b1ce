package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/veinview/backend/internal/utils"
)

// Device is a registered ESP32 capture board. The API key is issued once at
// registration and never rotated; devices authenticate by exact match.
type Device struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"size:100"`
	MACAddress string `gorm:"uniqueIndex;size:17"`
	APIKey     string `gorm:"uniqueIndex;size:64"`
	Active     bool
	LastSeenAt *time.Time
	LastIP     string `gorm:"size:45"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (d *Device) BeforeCreate(tx *gorm.DB) (err error) {
	if d.APIKey == "" {
		d.APIKey, err = utils.GenerateToken(48)
	}
	return err
}
