package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/models"
)

// ARConfigController reads and writes per-student AR visualization
// preferences. Configs are created with defaults on first read.
type ARConfigController struct {
	DB *gorm.DB
}

func (cc *ARConfigController) Get(c *gin.Context) {
	studentID, ok := cc.studentID(c)
	if !ok {
		return
	}

	var cfg models.ARConfig
	if err := cc.DB.Where("student_id = ?", studentID).First(&cfg).Error; err != nil {
		cfg = models.DefaultARConfig(studentID)
		if err := cc.DB.Create(&cfg).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, arConfigView(cfg))
}

type arConfigRequest struct {
	ColorAngleOK  *string  `json:"color_angle_ok" binding:"omitempty,len=7"`
	ColorAngleBad *string  `json:"color_angle_bad" binding:"omitempty,len=7"`
	ColorForceOK  *string  `json:"color_force_ok" binding:"omitempty,len=7"`
	ShowGrid      *bool    `json:"show_grid"`
	ShowAngles    *bool    `json:"show_angles"`
	ShowForce     *bool    `json:"show_force"`
	ShowHistory   *bool    `json:"show_history"`
	AudioFeedback *bool    `json:"audio_feedback"`
	Volume        *float64 `json:"volume" binding:"omitempty,min=0,max=1"`
	TargetFPS     *int     `json:"target_fps" binding:"omitempty,min=1,max=120"`
}

func (cc *ARConfigController) Update(c *gin.Context) {
	studentID, ok := cc.studentID(c)
	if !ok {
		return
	}

	var req arConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	var cfg models.ARConfig
	if err := cc.DB.Where("student_id = ?", studentID).First(&cfg).Error; err != nil {
		cfg = models.DefaultARConfig(studentID)
	}

	if req.ColorAngleOK != nil {
		cfg.ColorAngleOK = *req.ColorAngleOK
	}
	if req.ColorAngleBad != nil {
		cfg.ColorAngleBad = *req.ColorAngleBad
	}
	if req.ColorForceOK != nil {
		cfg.ColorForceOK = *req.ColorForceOK
	}
	if req.ShowGrid != nil {
		cfg.ShowGrid = *req.ShowGrid
	}
	if req.ShowAngles != nil {
		cfg.ShowAngles = *req.ShowAngles
	}
	if req.ShowForce != nil {
		cfg.ShowForce = *req.ShowForce
	}
	if req.ShowHistory != nil {
		cfg.ShowHistory = *req.ShowHistory
	}
	if req.AudioFeedback != nil {
		cfg.AudioFeedback = *req.AudioFeedback
	}
	if req.Volume != nil {
		cfg.Volume = *req.Volume
	}
	if req.TargetFPS != nil {
		cfg.TargetFPS = *req.TargetFPS
	}

	if err := cc.DB.Save(&cfg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, arConfigView(cfg))
}

func (cc *ARConfigController) studentID(c *gin.Context) (uint, bool) {
	raw := c.Query("student_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required"})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student_id"})
		return 0, false
	}
	var student models.Student
	if err := cc.DB.First(&student, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return 0, false
	}
	return student.ID, true
}

func arConfigView(cfg models.ARConfig) gin.H {
	return gin.H{
		"student_id":      cfg.StudentID,
		"color_angle_ok":  cfg.ColorAngleOK,
		"color_angle_bad": cfg.ColorAngleBad,
		"color_force_ok":  cfg.ColorForceOK,
		"show_grid":       cfg.ShowGrid,
		"show_angles":     cfg.ShowAngles,
		"show_force":      cfg.ShowForce,
		"show_history":    cfg.ShowHistory,
		"audio_feedback":  cfg.AudioFeedback,
		"volume":          cfg.Volume,
		"target_fps":      cfg.TargetFPS,
	}
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
