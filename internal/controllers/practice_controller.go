package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/evaluation"
	"github.com/veinview/backend/internal/models"
)

// PracticeController drives the practice lifecycle from the professor
// dashboard: create (start), pause, resume, finish, plus listing and live
// metrics.
type PracticeController struct {
	DB  *gorm.DB
	Log *zap.Logger
}

type createPracticeRequest struct {
	StudentID uint `json:"student_id" binding:"required"`
	DeviceID  uint `json:"device_id" binding:"required"`
}

func (pc *PracticeController) List(c *gin.Context) {
	q := pc.DB.Preload("Student").Preload("Device").Order("started_at DESC")
	if sid := c.Query("student_id"); sid != "" {
		q = q.Where("student_id = ?", sid)
	}
	if state := c.Query("state"); state != "" {
		q = q.Where("state = ?", state)
	}
	var practices []models.Practice
	if err := q.Find(&practices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	out := make([]gin.H, 0, len(practices))
	for _, p := range practices {
		out = append(out, practiceView(p, now))
	}
	c.JSON(http.StatusOK, gin.H{"practices": out, "count": len(out)})
}

// Create opens a practice for a student on a device: state=started, start
// time recorded. A device can run only one open practice at a time.
func (pc *PracticeController) Create(c *gin.Context) {
	var req createPracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	var student models.Student
	if err := pc.DB.First(&student, req.StudentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	var device models.Device
	if err := pc.DB.First(&device, req.DeviceID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}

	var open int64
	pc.DB.Model(&models.Practice{}).
		Where("device_id = ? AND state IN ?", device.ID, []string{models.PracticeStarted, models.PracticePaused}).
		Count(&open)
	if open > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device already has an open practice"})
		return
	}

	practice := models.Practice{
		StudentID: student.ID,
		DeviceID:  device.ID,
		State:     models.PracticeStarted,
		StartedAt: time.Now(),
	}
	if err := pc.DB.Create(&practice).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	practice.Student = student
	practice.Device = device

	pc.Log.Info("practice started",
		zap.Uint("practice_id", practice.ID),
		zap.String("student", student.Code),
		zap.String("device", device.MACAddress),
	)
	c.JSON(http.StatusCreated, practiceView(practice, time.Now()))
}

func (pc *PracticeController) Get(c *gin.Context) {
	practice, ok := pc.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, practiceView(*practice, time.Now()))
}

// Pause stops the clock; elapsed time of the running segment is folded into
// the accumulated duration.
func (pc *PracticeController) Pause(c *gin.Context) {
	pc.transition(c, func(p *models.Practice, now time.Time) error { return p.Pause(now) },
		[]string{"state", "paused_at", "duration_seconds"})
}

// Resume restarts the clock from paused.
func (pc *PracticeController) Resume(c *gin.Context) {
	pc.transition(c, func(p *models.Practice, now time.Time) error { return p.Resume(now) },
		[]string{"state", "resumed_at"})
}

// Finish closes the practice and recomputes its average accuracy over all
// readings. Finishing an already finished practice is reported as a conflict
// and leaves the duration untouched.
func (pc *PracticeController) Finish(c *gin.Context) {
	practice, ok := pc.find(c)
	if !ok {
		return
	}

	now := time.Now()
	if err := practice.Finish(now); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "practice already finished"})
		return
	}

	var total, correct int64
	pc.DB.Model(&models.Reading{}).Where("practice_id = ?", practice.ID).Count(&total)
	pc.DB.Model(&models.Reading{}).Where("practice_id = ? AND technique_correct = ?", practice.ID, true).Count(&correct)
	practice.AverageAccuracy = evaluation.Round2(evaluation.Accuracy(int(correct), int(total)))

	if err := pc.DB.Model(practice).
		Select("state", "finished_at", "duration_seconds", "average_accuracy").
		Updates(practice).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	pc.Log.Info("practice finished",
		zap.Uint("practice_id", practice.ID),
		zap.Int("duration_seconds", practice.DurationSeconds),
		zap.Float64("accuracy", practice.AverageAccuracy),
	)
	c.JSON(http.StatusOK, practiceView(*practice, now))
}

// Metrics is the live dashboard poll for one practice: elapsed time, running
// accuracy and the latest samples.
func (pc *PracticeController) Metrics(c *gin.Context) {
	practice, ok := pc.find(c)
	if !ok {
		return
	}

	now := time.Now()
	var total, correct int64
	pc.DB.Model(&models.Reading{}).Where("practice_id = ?", practice.ID).Count(&total)
	pc.DB.Model(&models.Reading{}).Where("practice_id = ? AND technique_correct = ?", practice.ID, true).Count(&correct)

	var latest []models.Reading
	pc.DB.Where("practice_id = ?", practice.ID).Order("created_at DESC").Limit(10).Find(&latest)

	recent := make([]gin.H, 0, len(latest))
	for _, r := range latest {
		recent = append(recent, gin.H{
			"pitch":     evaluation.Round2(r.Pitch),
			"roll":      evaluation.Round2(r.Roll),
			"force":     evaluation.Round2(r.Force),
			"timestamp": r.CreatedAt,
		})
	}

	resp := gin.H{
		"practice_id":      practice.ID,
		"student_name":     practice.Student.FullName,
		"state":            practice.State,
		"elapsed_seconds":  practice.ElapsedSeconds(now),
		"total_attempts":   practice.TotalAttempts,
		"current_accuracy": evaluation.Round2(evaluation.Accuracy(int(correct), int(total))),
		"recent_readings":  recent,
		"current_pitch":    0.0,
		"current_force":    0.0,
	}
	if len(latest) > 0 {
		resp["current_pitch"] = evaluation.Round2(latest[0].Pitch)
		resp["current_force"] = evaluation.Round2(latest[0].Force)
	}
	c.JSON(http.StatusOK, resp)
}

type transitionFunc func(*models.Practice, time.Time) error

func (pc *PracticeController) transition(c *gin.Context, fn transitionFunc, columns []string) {
	practice, ok := pc.find(c)
	if !ok {
		return
	}

	now := time.Now()
	if err := fn(practice, now); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transition from state " + practice.State})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := pc.DB.Model(practice).Select(columns).Updates(practice).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, practiceView(*practice, now))
}

func (pc *PracticeController) find(c *gin.Context) (*models.Practice, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid practice id"})
		return nil, false
	}
	var practice models.Practice
	if err := pc.DB.Preload("Student").Preload("Device").First(&practice, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "practice not found"})
		return nil, false
	}
	return &practice, true
}

func practiceView(p models.Practice, now time.Time) gin.H {
	return gin.H{
		"id":                  p.ID,
		"student_id":          p.StudentID,
		"student_name":        p.Student.FullName,
		"device_id":           p.DeviceID,
		"device_name":         p.Device.Name,
		"state":               p.State,
		"started_at":          p.StartedAt,
		"paused_at":           p.PausedAt,
		"resumed_at":          p.ResumedAt,
		"finished_at":         p.FinishedAt,
		"duration_seconds":    p.DurationSeconds,
		"elapsed_seconds":     p.ElapsedSeconds(now),
		"total_attempts":      p.TotalAttempts,
		"successful_attempts": p.SuccessfulAttempts,
		"average_accuracy":    p.AverageAccuracy,
	}
}
