package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/veinview/backend/internal/evaluation"
)

// Reading is one MPU6050 + load-cell sample tied to a practice. Immutable
// once created.
type Reading struct {
	ID         uint `gorm:"primaryKey"`
	PracticeID uint `gorm:"index:idx_readings_practice_ts,priority:1"`
	DeviceID   uint `gorm:"index"`

	AccelX float64
	AccelY float64
	AccelZ float64
	GyroX  float64
	GyroY  float64
	GyroZ  float64
	Pitch  float64
	Roll   float64
	Yaw    float64

	// Force in grams from the load cell; pressure is optional (N/cm2).
	Force    float64
	Pressure *float64

	SourceIP string `gorm:"size:45"`

	// TechniqueCorrect is derived at write time from the static thresholds.
	TechniqueCorrect bool

	CreatedAt time.Time `gorm:"index:idx_readings_practice_ts,priority:2,sort:desc"`
}

func (r *Reading) BeforeCreate(tx *gorm.DB) error {
	r.TechniqueCorrect = evaluation.TechniqueCorrect(r.Pitch, r.Force)
	return nil
}
