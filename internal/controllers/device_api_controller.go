package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/ingestion"
	"github.com/veinview/backend/internal/models"
)

// DeviceAPIController serves the ESP32-facing endpoints. All but Register run
// behind the API-key middleware.
type DeviceAPIController struct {
	DB      *gorm.DB
	Ingest  *ingestion.Service
}

type registerDeviceRequest struct {
	MACAddress string `json:"mac_address" binding:"required,max=17"`
	Name       string `json:"name"`
}

// Register enrolls a board by MAC address. Idempotent: a known MAC gets its
// existing key back, so firmware can call this on every boot.
func (dc *DeviceAPIController) Register(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	mac := strings.ToUpper(strings.TrimSpace(req.MACAddress))
	name := req.Name
	if name == "" {
		name = "VeinView Device"
	}

	var device models.Device
	err := dc.DB.Where("mac_address = ?", mac).First(&device).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "device already registered",
			"device":  deviceView(device),
			"api_key": device.APIKey,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	device = models.Device{
		Name:       name,
		MACAddress: mac,
		Active:     true,
		LastIP:     c.ClientIP(),
	}
	if err := dc.DB.Create(&device).Error; err != nil {
		// Two boards racing on the same MAC: surface the row the winner made.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if err := dc.DB.Where("mac_address = ?", mac).First(&device).Error; err == nil {
				c.JSON(http.StatusOK, gin.H{
					"message": "device already registered",
					"device":  deviceView(device),
					"api_key": device.APIKey,
				})
				return
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "device registered",
		"device":  deviceView(device),
		"api_key": device.APIKey,
	})
}

// Ping is the device heartbeat; the auth middleware already refreshed
// last-seen, so this only acknowledges.
func (dc *DeviceAPIController) Ping(c *gin.Context) {
	device := currentDevice(c)
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"device":    device.Name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ActivePractice tells the firmware whether it may stream and to which
// practice the samples will be attached.
func (dc *DeviceAPIController) ActivePractice(c *gin.Context) {
	device := currentDevice(c)

	practice, err := dc.Ingest.ActivePractice(device.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"practice_active": false,
				"practice":        nil,
				"can_submit_data": false,
				"message":         "no active practice; wait for the professor to start one",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"practice_active": true,
		"practice":        practiceView(*practice, time.Now()),
		"can_submit_data": practice.State == models.PracticeStarted,
	})
}

type readingRequest struct {
	AccelX   *float64 `json:"ax" binding:"required"`
	AccelY   *float64 `json:"ay" binding:"required"`
	AccelZ   *float64 `json:"az" binding:"required"`
	GyroX    *float64 `json:"gx" binding:"required"`
	GyroY    *float64 `json:"gy" binding:"required"`
	GyroZ    *float64 `json:"gz" binding:"required"`
	Pitch    *float64 `json:"pitch" binding:"required"`
	Roll     *float64 `json:"roll" binding:"required"`
	Yaw      *float64 `json:"yaw" binding:"required"`
	Force    *float64 `json:"force" binding:"required"`
	Pressure *float64 `json:"pressure"`
}

// SubmitReading accepts one sensor sample.
func (dc *DeviceAPIController) SubmitReading(c *gin.Context) {
	device := currentDevice(c)

	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sensor payload", "details": FieldErrors(err)})
		return
	}

	reading, practice, err := dc.Ingest.Submit(&device, ingestion.ReadingInput{
		AccelX:   *req.AccelX,
		AccelY:   *req.AccelY,
		AccelZ:   *req.AccelZ,
		GyroX:    *req.GyroX,
		GyroY:    *req.GyroY,
		GyroZ:    *req.GyroZ,
		Pitch:    *req.Pitch,
		Roll:     *req.Roll,
		Yaw:      *req.Yaw,
		Force:    *req.Force,
		Pressure: req.Pressure,
	}, c.ClientIP())
	if err != nil {
		if errors.Is(err, ingestion.ErrNoStartedPractice) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":           "no started practice or practice is paused",
				"can_submit_data": false,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":            "ok",
		"message":           "reading stored",
		"reading_id":        reading.ID,
		"practice_id":       practice.ID,
		"student":           practice.Student.FullName,
		"technique_correct": reading.TechniqueCorrect,
	})
}

type attemptRequest struct {
	Successful bool `json:"successful"`
}

// SubmitAttempt records one canalization attempt on the open practice.
func (dc *DeviceAPIController) SubmitAttempt(c *gin.Context) {
	device := currentDevice(c)

	var req attemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	practice, err := dc.Ingest.RecordAttempt(&device, req.Successful)
	if err != nil {
		if errors.Is(err, ingestion.ErrNoStartedPractice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no active practice for device"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":              "ok",
		"total_attempts":      practice.TotalAttempts,
		"successful_attempts": practice.SuccessfulAttempts,
	})
}

// Status reports the device plus its open practice and capture count.
func (dc *DeviceAPIController) Status(c *gin.Context) {
	device := currentDevice(c)

	resp := gin.H{
		"device": gin.H{
			"name":   device.Name,
			"mac":    device.MACAddress,
			"active": device.Active,
		},
		"practice_active": false,
		"practice":        nil,
		"total_readings":  0,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}

	practice, err := dc.Ingest.ActivePractice(device.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	var total int64
	dc.DB.Model(&models.Reading{}).Where("practice_id = ?", practice.ID).Count(&total)

	resp["practice_active"] = true
	resp["practice"] = practiceView(*practice, time.Now())
	resp["total_readings"] = total
	c.JSON(http.StatusOK, resp)
}

func currentDevice(c *gin.Context) models.Device {
	dVal, _ := c.Get("device")
	return dVal.(models.Device)
}

func deviceView(d models.Device) gin.H {
	return gin.H{
		"id":           d.ID,
		"name":         d.Name,
		"mac_address":  d.MACAddress,
		"active":       d.Active,
		"last_seen_at": d.LastSeenAt,
		"created_at":   d.CreatedAt,
	}
}
