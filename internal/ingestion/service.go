// Package ingestion is the single write path for sensor readings, shared by
// the HTTP device API and the MQTT bridge.
package ingestion

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/models"
	"github.com/veinview/backend/internal/ws"
)

// ErrNoStartedPractice means the device has practices only in paused or
// finished state (or none at all); readings are not accepted.
var ErrNoStartedPractice = errors.New("no started practice for device")

// ReadingInput is one validated sensor sample as sent by the firmware.
type ReadingInput struct {
	AccelX   float64
	AccelY   float64
	AccelZ   float64
	GyroX    float64
	GyroY    float64
	GyroZ    float64
	Pitch    float64
	Roll     float64
	Yaw      float64
	Force    float64
	Pressure *float64
}

type Service struct {
	DB  *gorm.DB
	Hub *ws.LiveHub
	Log *zap.Logger
}

func NewService(db *gorm.DB, hub *ws.LiveHub, log *zap.Logger) *Service {
	return &Service{DB: db, Hub: hub, Log: log}
}

// ActivePractice returns the device's open practice (started or paused).
func (s *Service) ActivePractice(deviceID uint) (*models.Practice, error) {
	var practice models.Practice
	err := s.DB.Preload("Student").Preload("Device").
		Where("device_id = ? AND state IN ?", deviceID, []string{models.PracticeStarted, models.PracticePaused}).
		Order("started_at DESC").
		First(&practice).Error
	if err != nil {
		return nil, err
	}
	return &practice, nil
}

// Submit stores one reading against the device's started practice. This is
// the sole admission-control rule: paused or absent practices reject the
// sample and nothing is written.
func (s *Service) Submit(device *models.Device, in ReadingInput, sourceIP string) (*models.Reading, *models.Practice, error) {
	var practice models.Practice
	err := s.DB.Preload("Student").
		Where("device_id = ? AND state = ?", device.ID, models.PracticeStarted).
		Order("started_at DESC").
		First(&practice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNoStartedPractice
		}
		return nil, nil, err
	}

	reading := models.Reading{
		PracticeID: practice.ID,
		DeviceID:   device.ID,
		AccelX:     in.AccelX,
		AccelY:     in.AccelY,
		AccelZ:     in.AccelZ,
		GyroX:      in.GyroX,
		GyroY:      in.GyroY,
		GyroZ:      in.GyroZ,
		Pitch:      in.Pitch,
		Roll:       in.Roll,
		Yaw:        in.Yaw,
		Force:      in.Force,
		Pressure:   in.Pressure,
		SourceIP:   sourceIP,
	}
	if err := s.DB.Create(&reading).Error; err != nil {
		return nil, nil, err
	}

	s.Hub.Broadcast(ws.ReadingPayload{
		ReadingID:        reading.ID,
		PracticeID:       practice.ID,
		Pitch:            reading.Pitch,
		Roll:             reading.Roll,
		Yaw:              reading.Yaw,
		Force:            reading.Force,
		Pressure:         reading.Pressure,
		TechniqueCorrect: reading.TechniqueCorrect,
		Timestamp:        reading.CreatedAt,
	})

	s.Log.Debug("reading stored",
		zap.Uint("practice_id", practice.ID),
		zap.Uint("device_id", device.ID),
		zap.Bool("technique_correct", reading.TechniqueCorrect),
	)
	return &reading, &practice, nil
}

// RecordAttempt bumps the attempt counters on the device's open practice.
func (s *Service) RecordAttempt(device *models.Device, successful bool) (*models.Practice, error) {
	practice, err := s.ActivePractice(device.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoStartedPractice
		}
		return nil, err
	}

	practice.TotalAttempts++
	if successful {
		practice.SuccessfulAttempts++
	}
	if err := s.DB.Model(practice).
		Select("total_attempts", "successful_attempts").
		Updates(practice).Error; err != nil {
		return nil, err
	}
	return practice, nil
}
