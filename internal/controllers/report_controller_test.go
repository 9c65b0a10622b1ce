package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/models"
)

func reportRouter(db *gorm.DB) *gin.Engine {
	ctrl := &ReportController{DB: db}
	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/reports", ctrl.List)
	api.POST("/reports", ctrl.Create)
	api.GET("/reports/:id", ctrl.Get)
	api.POST("/reports/:id/regenerate", ctrl.Regenerate)
	return r
}

func TestReportCreateValidatesRange(t *testing.T) {
	db := testDB(t)
	r := reportRouter(db)

	now := time.Now()
	w := doJSON(t, r, http.MethodPost, "/api/v1/reports", map[string]interface{}{
		"from": now,
		"to":   now.Add(-24 * time.Hour),
	}, nil)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestReportAggregates(t *testing.T) {
	db := testDB(t)
	r := reportRouter(db)
	student := mkStudent(t, db, "NUR501")
	device := mkDevice(t, db, "AA:BB:CC:DD:EE:50")

	practice := mkPractice(t, db, student, device, models.PracticeFinished)
	db.Model(&practice).Updates(map[string]interface{}{
		"average_accuracy": 80.0,
		"total_attempts":   4,
		"duration_seconds": 600,
	})
	mkReading(t, db, practice, 20, 150)
	mkReading(t, db, practice, 20, 200)

	from := time.Now().Add(-24 * time.Hour)
	to := time.Now().Add(time.Hour)
	w := doJSON(t, r, http.MethodPost, "/api/v1/reports", map[string]interface{}{
		"from": from,
		"to":   to,
	}, nil)
	wantStatus(t, w, http.StatusCreated)
	resp := decode(t, w)

	if resp["title"] != "Performance Report" {
		t.Errorf("default title = %v", resp["title"])
	}
	if resp["total_students"] != float64(1) || resp["total_practices"] != float64(1) {
		t.Errorf("counts: students %v, practices %v", resp["total_students"], resp["total_practices"])
	}
	if resp["total_readings"] != float64(2) {
		t.Errorf("total_readings = %v, want 2", resp["total_readings"])
	}
	if resp["mean_accuracy"] != float64(80) {
		t.Errorf("mean_accuracy = %v, want 80", resp["mean_accuracy"])
	}
	if resp["mean_duration_seconds"] != float64(600) {
		t.Errorf("mean_duration_seconds = %v, want 600", resp["mean_duration_seconds"])
	}

	// More data arrives; regenerate picks it up in place.
	s2 := mkStudent(t, db, "NUR502")
	d2 := mkDevice(t, db, "AA:BB:CC:DD:EE:51")
	mkPractice(t, db, s2, d2, models.PracticeFinished)

	id := uint(resp["id"].(float64))
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/reports/%d/regenerate", id), nil, nil)
	wantStatus(t, w, http.StatusOK)
	resp = decode(t, w)["report"].(map[string]interface{})
	if resp["total_practices"] != float64(2) || resp["total_students"] != float64(2) {
		t.Errorf("regenerated counts: %v/%v", resp["total_practices"], resp["total_students"])
	}

	var count int64
	db.Model(&models.Report{}).Count(&count)
	if count != 1 {
		t.Errorf("regenerate created a new report row: %d", count)
	}
}
