package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/evaluation"
	"github.com/veinview/backend/internal/models"
)

// ARController serves the augmented-reality client: session lifecycle, the
// live reading feed and per-student visualization config.
type ARController struct {
	DB  *gorm.DB
	Log *zap.Logger
}

const maxStreamLimit = 100

type arConnectRequest struct {
	StudentID   uint     `json:"student_id" binding:"required"`
	PracticeID  *uint    `json:"practice_id"`
	ARDevice    string   `json:"ar_device" binding:"required,max=100"`
	DisplayMode string   `json:"display_mode"`
	ModelScale  *float64 `json:"model_scale"`
	Opacity     *float64 `json:"opacity" binding:"omitempty,min=0,max=1"`
}

// Connect opens an AR session and issues its token. Any session the student
// still has open is closed first; one live feed per student.
func (ac *ARController) Connect(c *gin.Context) {
	var req arConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	var student models.Student
	if err := ac.DB.First(&student, req.StudentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	var practice *models.Practice
	if req.PracticeID != nil {
		var p models.Practice
		if err := ac.DB.First(&p, *req.PracticeID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "practice not found"})
			return
		}
		practice = &p
	}

	now := time.Now()
	ac.DB.Model(&models.ARSession{}).
		Where("student_id = ? AND state IN ?", student.ID, []string{models.ARConnecting, models.ARActive, models.ARPaused}).
		Updates(map[string]interface{}{"state": models.ARDisconnected, "ended_at": now})

	session := models.ARSession{
		StudentID:      student.ID,
		ARDevice:       req.ARDevice,
		SourceIP:       c.ClientIP(),
		State:          models.ARActive,
		DisplayMode:    "overlay",
		ModelScale:     1.0,
		Opacity:        0.8,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if practice != nil {
		session.PracticeID = &practice.ID
	}
	if req.DisplayMode != "" {
		session.DisplayMode = req.DisplayMode
	}
	if req.ModelScale != nil {
		session.ModelScale = *req.ModelScale
	}
	if req.Opacity != nil {
		session.Opacity = *req.Opacity
	}
	if err := ac.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ac.logEvent(session.ID, models.AREventConnect, "connection established from "+session.ARDevice, gin.H{
		"ip":     session.SourceIP,
		"device": session.ARDevice,
	})

	var cfg models.ARConfig
	if err := ac.DB.Where("student_id = ?", student.ID).First(&cfg).Error; err != nil {
		cfg = models.DefaultARConfig(student.ID)
		ac.DB.Create(&cfg)
	}

	ac.Log.Info("ar session connected",
		zap.Uint("session_id", session.ID),
		zap.String("student", student.Code),
		zap.String("ar_device", session.ARDevice),
	)
	c.JSON(http.StatusCreated, gin.H{
		"status":        "success",
		"message":       "connection established",
		"session_token": session.SessionToken,
		"session_id":    session.ID,
		"student": gin.H{
			"id":   student.ID,
			"name": student.FullName,
			"code": student.Code,
		},
		"config": arConfigView(cfg),
		"endpoints": gin.H{
			"stream":          "/api/ar/stream",
			"practice_status": "/api/ar/practice-status",
			"heartbeat":       "/api/ar/heartbeat",
			"disconnect":      "/api/ar/disconnect",
			"events":          "/api/ar/events",
		},
	})
}

// Stream serves the N most recent readings of the session's practice, newest
// first, and records each one as delivered.
func (ac *ARController) Stream(c *gin.Context) {
	session := currentARSession(c)

	limit := 10
	if l := c.Query("limit"); l != "" {
		if n, err := parsePositiveInt(l); err == nil {
			limit = n
		}
	}
	if limit > maxStreamLimit {
		limit = maxStreamLimit
	}

	if session.PracticeID == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":          "no_practice",
			"message":         "no practice attached to this session",
			"readings":        []gin.H{},
			"practice_active": false,
		})
		return
	}

	var readings []models.Reading
	if err := ac.DB.Where("practice_id = ?", *session.PracticeID).
		Order("created_at DESC").Limit(limit).Find(&readings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	out := make([]gin.H, 0, len(readings))
	for _, r := range readings {
		out = append(out, gin.H{
			"reading_id":        r.ID,
			"timestamp":         r.CreatedAt.UnixMilli(),
			"pitch":             evaluation.Round2(r.Pitch),
			"roll":              evaluation.Round2(r.Roll),
			"yaw":               evaluation.Round2(r.Yaw),
			"force":             evaluation.Round2(r.Force),
			"pressure":          r.Pressure,
			"technique_correct": r.TechniqueCorrect,
		})
		ac.DB.Create(&models.ARDelivery{
			ARSessionID: session.ID,
			ReadingID:   r.ID,
			SentAt:      now,
			Delivered:   true,
		})
	}

	session.DeliveredReadings += len(out)
	ac.DB.Model(&session).Update("delivered_readings", session.DeliveredReadings)

	state := ""
	if session.Practice != nil {
		state = session.Practice.State
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"timestamp":       now.UnixMilli(),
		"readings":        out,
		"practice_active": session.Practice != nil && session.Practice.Active(),
		"practice_state":  state,
	})
}

// PracticeStatus reports the live state of the attached practice plus the
// fixed optimal ranges AR overlays render against.
func (ac *ARController) PracticeStatus(c *gin.Context) {
	session := currentARSession(c)

	ranges := gin.H{
		"pitch": gin.H{"min": evaluation.PitchMin, "max": evaluation.PitchMax},
		"roll":  gin.H{"min": evaluation.RollMin, "max": evaluation.RollMax},
		"force": gin.H{"min": evaluation.ForceMin, "max": evaluation.ForceMax},
	}

	if session.Practice == nil {
		c.JSON(http.StatusOK, gin.H{
			"practice_active":  false,
			"practice_id":      nil,
			"student_name":     session.Student.FullName,
			"state":            nil,
			"elapsed_seconds":  0,
			"total_attempts":   0,
			"current_accuracy": 0.0,
			"latest_reading":   nil,
			"optimal_ranges":   ranges,
		})
		return
	}

	practice := session.Practice
	now := time.Now()

	var total, correct int64
	ac.DB.Model(&models.Reading{}).Where("practice_id = ?", practice.ID).Count(&total)
	ac.DB.Model(&models.Reading{}).Where("practice_id = ? AND technique_correct = ?", practice.ID, true).Count(&correct)

	var latest models.Reading
	var latestView gin.H
	if err := ac.DB.Where("practice_id = ?", practice.ID).Order("created_at DESC").First(&latest).Error; err == nil {
		latestView = gin.H{
			"pitch":             evaluation.Round2(latest.Pitch),
			"roll":              evaluation.Round2(latest.Roll),
			"yaw":               evaluation.Round2(latest.Yaw),
			"force":             evaluation.Round2(latest.Force),
			"technique_correct": latest.TechniqueCorrect,
			"timestamp":         latest.CreatedAt.UnixMilli(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"practice_active":  practice.Active(),
		"practice_id":      practice.ID,
		"student_name":     session.Student.FullName,
		"state":            practice.State,
		"elapsed_seconds":  practice.ElapsedSeconds(now),
		"total_attempts":   practice.TotalAttempts,
		"current_accuracy": evaluation.Round2(evaluation.Accuracy(int(correct), int(total))),
		"latest_reading":   latestView,
		"optimal_ranges":   ranges,
	})
}

type heartbeatRequest struct {
	Timestamp       *int64   `json:"timestamp"`
	ClientLatencyMS *float64 `json:"client_latency_ms" binding:"omitempty,min=0"`
}

// Heartbeat keeps the session inside the inactivity window and folds the
// client-reported latency into the running average.
func (ac *ARController) Heartbeat(c *gin.Context) {
	session := currentARSession(c)

	// The body is optional; a bare POST is a valid keep-alive.
	var req heartbeatRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
			return
		}
	}

	if req.ClientLatencyMS != nil {
		session.MeanLatencyMS = evaluation.SmoothLatency(session.MeanLatencyMS, *req.ClientLatencyMS)
		ac.DB.Model(&session).Update("mean_latency_ms", session.MeanLatencyMS)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"session_active":   true,
		"server_timestamp": time.Now().UnixMilli(),
		"mean_latency_ms":  evaluation.Round2(session.MeanLatencyMS),
	})
}

// Disconnect finalizes the session and returns its closing statistics.
func (ac *ARController) Disconnect(c *gin.Context) {
	session := currentARSession(c)

	now := time.Now()
	ac.logEvent(session.ID, models.AREventDisconnect, "disconnect requested by client", gin.H{
		"duration_seconds": now.Sub(session.StartedAt).Seconds(),
	})

	session.Close(now)
	if err := ac.DB.Model(&session).
		Select("state", "ended_at").Updates(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "session closed",
		"stats": gin.H{
			"duration_seconds":   int(now.Sub(session.StartedAt).Seconds()),
			"delivered_readings": session.DeliveredReadings,
			"mean_latency_ms":    evaluation.Round2(session.MeanLatencyMS),
		},
	})
}

type arEventRequest struct {
	Type        string                 `json:"type" binding:"required"`
	Description string                 `json:"description"`
	Payload     map[string]interface{} `json:"payload"`
}

// SubmitEvent records a free-form client event (calibration, errors, config
// changes) against the session.
func (ac *ARController) SubmitEvent(c *gin.Context) {
	session := currentARSession(c)

	var req arEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}
	if !models.ValidAREventType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
		return
	}

	event := ac.logEvent(session.ID, req.Type, req.Description, req.Payload)
	if event == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store event"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":    "ok",
		"event_id":  event.ID,
		"timestamp": event.CreatedAt.UnixMilli(),
	})
}

func (ac *ARController) logEvent(sessionID uint, eventType, description string, payload interface{}) *models.AREvent {
	raw := ""
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			raw = string(data)
		}
	}
	event := models.AREvent{
		ARSessionID: sessionID,
		Type:        eventType,
		Description: description,
		Payload:     raw,
	}
	if err := ac.DB.Create(&event).Error; err != nil {
		ac.Log.Warn("failed to store ar event", zap.Error(err), zap.String("type", eventType))
		return nil
	}
	return &event
}

func currentARSession(c *gin.Context) models.ARSession {
	sVal, _ := c.Get("ar_session")
	return sVal.(models.ARSession)
}
