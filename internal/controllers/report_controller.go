package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/evaluation"
	"github.com/veinview/backend/internal/models"
)

// ReportController generates aggregate reports over a date range.
type ReportController struct {
	DB *gorm.DB
}

type createReportRequest struct {
	Title string    `json:"title"`
	From  time.Time `json:"from" binding:"required"`
	To    time.Time `json:"to" binding:"required"`
}

func (rc *ReportController) List(c *gin.Context) {
	var reports []models.Report
	if err := rc.DB.Order("generated_at DESC").Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(reports))
	for _, r := range reports {
		out = append(out, reportView(r))
	}
	c.JSON(http.StatusOK, gin.H{"reports": out, "count": len(out)})
}

func (rc *ReportController) Create(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}
	if !req.To.After(req.From) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be after from"})
		return
	}

	title := req.Title
	if title == "" {
		title = "Performance Report"
	}
	report := models.Report{
		Title: title,
		From:  req.From,
		To:    req.To,
	}
	if uVal, ok := c.Get("user"); ok {
		user := uVal.(models.User)
		report.UserID = &user.ID
	}

	rc.generate(&report)
	if err := rc.DB.Create(&report).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, reportView(report))
}

func (rc *ReportController) Get(c *gin.Context) {
	report, ok := rc.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, reportView(*report))
}

// Regenerate recomputes the stored aggregates for the report's range.
func (rc *ReportController) Regenerate(c *gin.Context) {
	report, ok := rc.find(c)
	if !ok {
		return
	}

	rc.generate(report)
	if err := rc.DB.Save(report).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "report regenerated",
		"report":  reportView(*report),
	})
}

// generate fills the aggregate fields from the practices, readings, summaries
// and surveys inside the report's range.
func (rc *ReportController) generate(report *models.Report) {
	var practices []models.Practice
	rc.DB.Where("started_at BETWEEN ? AND ?", report.From, report.To).Find(&practices)

	students := map[uint]struct{}{}
	var accuracySum, attemptSum, durationSum float64
	finished := 0
	for _, p := range practices {
		students[p.StudentID] = struct{}{}
		if p.State == models.PracticeFinished {
			finished++
			accuracySum += p.AverageAccuracy
			attemptSum += float64(p.TotalAttempts)
			durationSum += float64(p.DurationSeconds)
		}
	}

	report.TotalStudents = len(students)
	report.TotalPractices = len(practices)
	report.MeanAccuracy = 0
	report.MeanAttempts = 0
	report.MeanDurationSeconds = 0
	if finished > 0 {
		report.MeanAccuracy = evaluation.Round2(accuracySum / float64(finished))
		report.MeanAttempts = evaluation.Round2(attemptSum / float64(finished))
		report.MeanDurationSeconds = evaluation.Round2(durationSum / float64(finished))
	}

	var readings int64
	rc.DB.Model(&models.Reading{}).
		Where("created_at BETWEEN ? AND ?", report.From, report.To).Count(&readings)
	report.TotalReadings = int(readings)

	var summaries []models.PracticeSummary
	rc.DB.Where("created_at BETWEEN ? AND ? AND grade IS NOT NULL", report.From, report.To).Find(&summaries)
	report.MeanGrade = 0
	if len(summaries) > 0 {
		var gradeSum float64
		for _, s := range summaries {
			gradeSum += *s.Grade
		}
		report.MeanGrade = evaluation.Round2(gradeSum / float64(len(summaries)))
	}

	var surveys []models.Survey
	rc.DB.Where("created_at BETWEEN ? AND ?", report.From, report.To).Find(&surveys)
	report.TotalSurveys = len(surveys)
	report.MeanSatisfaction = 0
	if len(surveys) > 0 {
		var scoreSum float64
		for _, s := range surveys {
			scoreSum += s.MeanScore()
		}
		report.MeanSatisfaction = evaluation.Round2(scoreSum / float64(len(surveys)))
	}

	report.GeneratedAt = time.Now()
}

func (rc *ReportController) find(c *gin.Context) (*models.Report, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return nil, false
	}
	var report models.Report
	if err := rc.DB.First(&report, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return nil, false
	}
	return &report, true
}

func reportView(r models.Report) gin.H {
	return gin.H{
		"id":                    r.ID,
		"title":                 r.Title,
		"from":                  r.From,
		"to":                    r.To,
		"total_students":        r.TotalStudents,
		"total_practices":       r.TotalPractices,
		"total_readings":        r.TotalReadings,
		"mean_accuracy":         r.MeanAccuracy,
		"mean_attempts":         r.MeanAttempts,
		"mean_duration_seconds": r.MeanDurationSeconds,
		"mean_grade":            r.MeanGrade,
		"mean_satisfaction":     r.MeanSatisfaction,
		"total_surveys":         r.TotalSurveys,
		"generated_at":          r.GeneratedAt,
	}
}
