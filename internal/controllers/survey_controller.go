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

// SurveyController handles student satisfaction questionnaires.
type SurveyController struct {
	DB *gorm.DB
}

type createSurveyRequest struct {
	StudentID  uint  `json:"student_id" binding:"required"`
	PracticeID *uint `json:"practice_id"`

	EaseOfUse           int `json:"ease_of_use" binding:"required,min=1,max=5"`
	Usefulness          int `json:"usefulness" binding:"required,min=1,max=5"`
	SensorAccuracy      int `json:"sensor_accuracy" binding:"required,min=1,max=5"`
	InterfaceClarity    int `json:"interface_clarity" binding:"required,min=1,max=5"`
	LearningImprovement int `json:"learning_improvement" binding:"required,min=1,max=5"`

	Positives   string `json:"positives"`
	Negatives   string `json:"negatives"`
	Suggestions string `json:"suggestions"`

	WouldRecommend *bool `json:"would_recommend"`
}

func (sc *SurveyController) List(c *gin.Context) {
	q := sc.DB.Preload("Student").Order("created_at DESC")
	if sid := c.Query("student_id"); sid != "" {
		q = q.Where("student_id = ?", sid)
	}
	var surveys []models.Survey
	if err := q.Find(&surveys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(surveys))
	for _, s := range surveys {
		out = append(out, surveyView(s))
	}
	c.JSON(http.StatusOK, gin.H{"surveys": out, "count": len(out)})
}

func (sc *SurveyController) Create(c *gin.Context) {
	var req createSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	var student models.Student
	if err := sc.DB.First(&student, req.StudentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	if req.PracticeID != nil {
		var practice models.Practice
		if err := sc.DB.First(&practice, *req.PracticeID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "practice not found"})
			return
		}
	}

	recommend := true
	if req.WouldRecommend != nil {
		recommend = *req.WouldRecommend
	}
	survey := models.Survey{
		StudentID:           student.ID,
		PracticeID:          req.PracticeID,
		EaseOfUse:           req.EaseOfUse,
		Usefulness:          req.Usefulness,
		SensorAccuracy:      req.SensorAccuracy,
		InterfaceClarity:    req.InterfaceClarity,
		LearningImprovement: req.LearningImprovement,
		Positives:           req.Positives,
		Negatives:           req.Negatives,
		Suggestions:         req.Suggestions,
		WouldRecommend:      recommend,
		SourceIP:            c.ClientIP(),
	}
	if err := sc.DB.Create(&survey).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	survey.Student = student
	c.JSON(http.StatusCreated, surveyView(survey))
}

func (sc *SurveyController) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	var survey models.Survey
	if err := sc.DB.Preload("Student").First(&survey, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return
	}
	c.JSON(http.StatusOK, surveyView(survey))
}

// Stats aggregates all surveys: per-question averages, overall mean, and the
// recommendation rate.
func (sc *SurveyController) Stats(c *gin.Context) {
	var surveys []models.Survey
	if err := sc.DB.Find(&surveys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(surveys) == 0 {
		c.JSON(http.StatusOK, gin.H{"total_surveys": 0, "message": "no surveys yet"})
		return
	}

	var ease, useful, accuracy, clarity, learning float64
	recommended := 0
	for _, s := range surveys {
		ease += float64(s.EaseOfUse)
		useful += float64(s.Usefulness)
		accuracy += float64(s.SensorAccuracy)
		clarity += float64(s.InterfaceClarity)
		learning += float64(s.LearningImprovement)
		if s.WouldRecommend {
			recommended++
		}
	}
	n := float64(len(surveys))
	overall := (ease + useful + accuracy + clarity + learning) / (5 * n)

	c.JSON(http.StatusOK, gin.H{
		"total_surveys": len(surveys),
		"averages": gin.H{
			"ease_of_use":          evaluation.Round2(ease / n),
			"usefulness":           evaluation.Round2(useful / n),
			"sensor_accuracy":      evaluation.Round2(accuracy / n),
			"interface_clarity":    evaluation.Round2(clarity / n),
			"learning_improvement": evaluation.Round2(learning / n),
			"overall":              evaluation.Round2(overall),
		},
		"recommendations": gin.H{
			"total":   recommended,
			"percent": evaluation.Round2(float64(recommended) / n * 100),
		},
	})
}

// Recent lists surveys from the last 30 days.
func (sc *SurveyController) Recent(c *gin.Context) {
	cutoff := time.Now().AddDate(0, 0, -30)
	var surveys []models.Survey
	if err := sc.DB.Preload("Student").Where("created_at >= ?", cutoff).
		Order("created_at DESC").Find(&surveys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(surveys))
	for _, s := range surveys {
		out = append(out, surveyView(s))
	}
	c.JSON(http.StatusOK, gin.H{"surveys": out, "count": len(out)})
}

func surveyView(s models.Survey) gin.H {
	return gin.H{
		"id":                   s.ID,
		"student_id":           s.StudentID,
		"student_name":         s.Student.FullName,
		"practice_id":          s.PracticeID,
		"ease_of_use":          s.EaseOfUse,
		"usefulness":           s.Usefulness,
		"sensor_accuracy":      s.SensorAccuracy,
		"interface_clarity":    s.InterfaceClarity,
		"learning_improvement": s.LearningImprovement,
		"positives":            s.Positives,
		"negatives":            s.Negatives,
		"suggestions":          s.Suggestions,
		"would_recommend":      s.WouldRecommend,
		"mean_score":           evaluation.Round2(s.MeanScore()),
		"created_at":           s.CreatedAt,
	}
}
