package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/evaluation"
	"github.com/veinview/backend/internal/models"
)

// SummaryController manages practice evaluations: aggregate stats computed
// from the readings of a finished practice, plus the professor's grade.
type SummaryController struct {
	DB *gorm.DB
}

type createSummaryRequest struct {
	PracticeID uint   `json:"practice_id" binding:"required"`
	Auto       *bool  `json:"auto"` // compute stats and grade now; default true
	Notes      string `json:"notes"`
}

func (sc *SummaryController) List(c *gin.Context) {
	q := sc.DB.Preload("Practice.Student").Order("created_at DESC")
	if sid := c.Query("student_id"); sid != "" {
		q = q.Joins("JOIN practices ON practices.id = practice_summaries.practice_id").
			Where("practices.student_id = ?", sid)
	}
	var summaries []models.PracticeSummary
	if err := q.Find(&summaries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryView(s))
	}
	c.JSON(http.StatusOK, gin.H{"summaries": out, "count": len(out)})
}

// Create builds the summary for a finished practice. One summary per
// practice; duplicates are a conflict.
func (sc *SummaryController) Create(c *gin.Context) {
	var req createSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	var practice models.Practice
	if err := sc.DB.Preload("Student").First(&practice, req.PracticeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "practice not found"})
		return
	}
	if practice.State != models.PracticeFinished {
		c.JSON(http.StatusBadRequest, gin.H{"error": "practice must be finished before it can be evaluated"})
		return
	}

	var existing int64
	sc.DB.Model(&models.PracticeSummary{}).Where("practice_id = ?", practice.ID).Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "practice already has a summary"})
		return
	}

	summary := models.PracticeSummary{
		PracticeID: practice.ID,
		Notes:      req.Notes,
	}
	if uVal, ok := c.Get("user"); ok {
		user := uVal.(models.User)
		summary.UserID = &user.ID
	}

	if req.Auto == nil || *req.Auto {
		sc.compute(&summary)
	}
	if err := sc.DB.Create(&summary).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary.Practice = practice

	c.JSON(http.StatusCreated, summaryView(summary))
}

func (sc *SummaryController) Get(c *gin.Context) {
	summary, ok := sc.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summaryView(*summary))
}

type updateSummaryRequest struct {
	Grade              *float64 `json:"grade" binding:"omitempty,min=0,max=5"`
	Notes              *string  `json:"notes"`
	TechniqueCorrect   *bool    `json:"technique_correct"`
	AngleAdequate      *bool    `json:"angle_adequate"`
	PressureControlled *bool    `json:"pressure_controlled"`
}

// Update lets the professor override the grade, the notes and the rubric
// flags. Computed aggregates are only changed through Recompute.
func (sc *SummaryController) Update(c *gin.Context) {
	summary, ok := sc.find(c)
	if !ok {
		return
	}

	var req updateSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	if req.Grade != nil {
		summary.Grade = req.Grade
	}
	if req.Notes != nil {
		summary.Notes = *req.Notes
	}
	if req.TechniqueCorrect != nil {
		summary.TechniqueCorrect = *req.TechniqueCorrect
	}
	if req.AngleAdequate != nil {
		summary.AngleAdequate = *req.AngleAdequate
	}
	if req.PressureControlled != nil {
		summary.PressureControlled = *req.PressureControlled
	}
	if err := sc.DB.Save(summary).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaryView(*summary))
}

// Recompute rebuilds the aggregates and the automatic grade from the current
// readings. Idempotent; safe to call any number of times.
func (sc *SummaryController) Recompute(c *gin.Context) {
	summary, ok := sc.find(c)
	if !ok {
		return
	}

	sc.compute(summary)
	if err := sc.DB.Save(summary).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "summary recomputed",
		"summary": summaryView(*summary),
	})
}

func (sc *SummaryController) compute(summary *models.PracticeSummary) {
	var readings []models.Reading
	sc.DB.Where("practice_id = ?", summary.PracticeID).Find(&readings)

	samples := make([]evaluation.Sample, 0, len(readings))
	for _, r := range readings {
		samples = append(samples, evaluation.Sample{Pitch: r.Pitch, Force: r.Force, Correct: r.TechniqueCorrect})
	}
	st := evaluation.Compute(samples)

	summary.TotalReadings = st.Count
	summary.Accuracy = evaluation.Round2(st.Accuracy)
	summary.AngleAdequate = st.AngleAdequate
	summary.PressureControlled = st.PressureControlled
	summary.TechniqueCorrect = st.TechniqueCorrect
	if st.Count > 0 {
		meanPitch := evaluation.Round2(st.MeanPitch)
		meanForce := evaluation.Round2(st.MeanForce)
		maxForce := st.MaxForce
		minForce := st.MinForce
		summary.MeanPitch = &meanPitch
		summary.MeanForce = &meanForce
		summary.MaxForce = &maxForce
		summary.MinForce = &minForce
		grade := evaluation.Grade(st)
		summary.Grade = &grade
	} else {
		summary.MeanPitch = nil
		summary.MeanForce = nil
		summary.MaxForce = nil
		summary.MinForce = nil
		summary.Grade = nil
	}
}

func (sc *SummaryController) find(c *gin.Context) (*models.PracticeSummary, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid summary id"})
		return nil, false
	}
	var summary models.PracticeSummary
	if err := sc.DB.Preload("Practice.Student").First(&summary, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
		return nil, false
	}
	return &summary, true
}

func summaryView(s models.PracticeSummary) gin.H {
	return gin.H{
		"id":                  s.ID,
		"practice_id":         s.PracticeID,
		"student_name":        s.Practice.Student.FullName,
		"student_code":        s.Practice.Student.Code,
		"practice_date":       s.Practice.StartedAt,
		"duration_seconds":    s.Practice.DurationSeconds,
		"total_readings":      s.TotalReadings,
		"mean_pitch":          s.MeanPitch,
		"mean_force":          s.MeanForce,
		"max_force":           s.MaxForce,
		"min_force":           s.MinForce,
		"accuracy":            s.Accuracy,
		"grade":               s.Grade,
		"notes":               s.Notes,
		"technique_correct":   s.TechniqueCorrect,
		"angle_adequate":      s.AngleAdequate,
		"pressure_controlled": s.PressureControlled,
		"created_at":          s.CreatedAt,
	}
}
