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

// DashboardController serves the professor's landing view and per-student
// statistics.
type DashboardController struct {
	DB *gorm.DB
}

// Overview is the dashboard poll: today's activity, running practices,
// recent results, top students over the last week and survey satisfaction
// for the month.
func (dc *DashboardController) Overview(c *gin.Context) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var activeStudents int64
	dc.DB.Model(&models.Student{}).Where("active = ?", true).Count(&activeStudents)

	var practicesToday int64
	dc.DB.Model(&models.Practice{}).Where("started_at >= ?", dayStart).Count(&practicesToday)

	var running []models.Practice
	dc.DB.Preload("Student").Preload("Device").
		Where("state IN ?", []string{models.PracticeStarted, models.PracticePaused}).
		Find(&running)
	runningViews := make([]gin.H, 0, len(running))
	for _, p := range running {
		runningViews = append(runningViews, gin.H{
			"id":              p.ID,
			"student":         p.Student.FullName,
			"state":           p.State,
			"elapsed_seconds": p.ElapsedSeconds(now),
			"device":          p.Device.Name,
		})
	}

	var finishedToday []models.Practice
	dc.DB.Where("state = ? AND started_at >= ?", models.PracticeFinished, dayStart).Find(&finishedToday)
	meanAccuracyToday := 0.0
	if len(finishedToday) > 0 {
		var sum float64
		for _, p := range finishedToday {
			sum += p.AverageAccuracy
		}
		meanAccuracyToday = evaluation.Round2(sum / float64(len(finishedToday)))
	}

	var recent []models.Practice
	dc.DB.Preload("Student").Where("state = ?", models.PracticeFinished).
		Order("finished_at DESC").Limit(5).Find(&recent)
	recentViews := make([]gin.H, 0, len(recent))
	for _, p := range recent {
		var summary models.PracticeSummary
		var grade *float64
		if err := dc.DB.Where("practice_id = ?", p.ID).First(&summary).Error; err == nil {
			grade = summary.Grade
		}
		recentViews = append(recentViews, gin.H{
			"id":          p.ID,
			"student":     p.Student.FullName,
			"finished_at": p.FinishedAt,
			"accuracy":    p.AverageAccuracy,
			"grade":       grade,
		})
	}

	// Best mean accuracy over the last 7 days, finished practices only.
	type topRow struct {
		StudentID    uint
		FullName     string
		MeanAccuracy float64
	}
	var top []topRow
	dc.DB.Model(&models.Practice{}).
		Select("practices.student_id as student_id, students.full_name as full_name, AVG(practices.average_accuracy) as mean_accuracy").
		Joins("JOIN students ON students.id = practices.student_id").
		Where("practices.state = ? AND practices.started_at >= ?", models.PracticeFinished, now.AddDate(0, 0, -7)).
		Group("practices.student_id, students.full_name").
		Order("mean_accuracy DESC").
		Limit(5).
		Scan(&top)
	topViews := make([]gin.H, 0, len(top))
	for _, t := range top {
		topViews = append(topViews, gin.H{
			"id":            t.StudentID,
			"name":          t.FullName,
			"mean_accuracy": evaluation.Round2(t.MeanAccuracy),
		})
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var surveys []models.Survey
	dc.DB.Where("created_at >= ?", monthStart).Find(&surveys)
	satisfaction := 0.0
	if len(surveys) > 0 {
		var sum float64
		for _, s := range surveys {
			sum += s.MeanScore()
		}
		satisfaction = evaluation.Round2(sum / float64(len(surveys)))
	}

	c.JSON(http.StatusOK, gin.H{
		"active_students":      activeStudents,
		"practices_today":      practicesToday,
		"practices_running":    len(running),
		"mean_accuracy_today":  meanAccuracyToday,
		"running_practices":    runningViews,
		"recent_finished":      recentViews,
		"top_students":         topViews,
		"month_satisfaction":   satisfaction,
		"month_total_surveys":  len(surveys),
	})
}

// StudentStats is the per-student drill-down: totals, averages and the best
// and latest finished practices.
func (dc *DashboardController) StudentStats(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}
	var student models.Student
	if err := dc.DB.First(&student, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	var practices []models.Practice
	dc.DB.Where("student_id = ?", student.ID).Find(&practices)

	var finished []models.Practice
	for _, p := range practices {
		if p.State == models.PracticeFinished {
			finished = append(finished, p)
		}
	}

	if len(finished) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"student_id":      student.ID,
			"student_name":    student.FullName,
			"student_code":    student.Code,
			"total_practices": len(practices),
			"message":         "no finished practices yet",
		})
		return
	}

	var accuracySum, attemptSum, durationSum float64
	best := finished[0]
	latest := finished[0]
	for _, p := range finished {
		accuracySum += p.AverageAccuracy
		attemptSum += float64(p.TotalAttempts)
		durationSum += float64(p.DurationSeconds)
		if p.AverageAccuracy > best.AverageAccuracy {
			best = p
		}
		if p.StartedAt.After(latest.StartedAt) {
			latest = p
		}
	}
	n := float64(len(finished))

	var meanGrade float64
	var graded []models.PracticeSummary
	dc.DB.Joins("JOIN practices ON practices.id = practice_summaries.practice_id").
		Where("practices.student_id = ? AND practice_summaries.grade IS NOT NULL", student.ID).
		Find(&graded)
	if len(graded) > 0 {
		var sum float64
		for _, s := range graded {
			sum += *s.Grade
		}
		meanGrade = evaluation.Round2(sum / float64(len(graded)))
	}

	c.JSON(http.StatusOK, gin.H{
		"student_id":            student.ID,
		"student_name":          student.FullName,
		"student_code":          student.Code,
		"total_practices":       len(practices),
		"finished_practices":    len(finished),
		"mean_accuracy":         evaluation.Round2(accuracySum / n),
		"mean_attempts":         evaluation.Round2(attemptSum / n),
		"mean_duration_minutes": evaluation.Round2(durationSum / n / 60),
		"mean_grade":            meanGrade,
		"best_practice": gin.H{
			"id":       best.ID,
			"date":     best.StartedAt,
			"accuracy": best.AverageAccuracy,
			"attempts": best.TotalAttempts,
		},
		"latest_practice": gin.H{
			"id":       latest.ID,
			"date":     latest.StartedAt,
			"accuracy": latest.AverageAccuracy,
			"attempts": latest.TotalAttempts,
		},
	})
}
