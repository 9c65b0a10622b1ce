package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/models"
)

func mkProfessor(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	u := models.User{
		UserID:   uuid.NewString(),
		FullName: "Prof. Rivera",
		Email:    "rivera@uni.edu",
		Password: "x",
		Role:     "professor",
		Active:   true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestPracticeCreateStartsSession(t *testing.T) {
	db := testDB(t)
	r := professorRouter(db, mkProfessor(t, db))
	student := mkStudent(t, db, "NUR201")
	device := mkDevice(t, db, "AA:BB:CC:DD:EE:30")

	w := doJSON(t, r, http.MethodPost, "/api/v1/practices", map[string]interface{}{
		"student_id": student.ID,
		"device_id":  device.ID,
	}, nil)
	wantStatus(t, w, http.StatusCreated)
	resp := decode(t, w)
	if resp["state"] != models.PracticeStarted {
		t.Errorf("state = %v, want started", resp["state"])
	}
	if resp["student_name"] != student.FullName {
		t.Errorf("student_name = %v", resp["student_name"])
	}

	// One open practice per device.
	w = doJSON(t, r, http.MethodPost, "/api/v1/practices", map[string]interface{}{
		"student_id": student.ID,
		"device_id":  device.ID,
	}, nil)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestPracticeCreateUnknownReferences(t *testing.T) {
	db := testDB(t)
	r := professorRouter(db, mkProfessor(t, db))
	student := mkStudent(t, db, "NUR202")

	w := doJSON(t, r, http.MethodPost, "/api/v1/practices", map[string]interface{}{
		"student_id": student.ID,
		"device_id":  424242,
	}, nil)
	wantStatus(t, w, http.StatusNotFound)
}

func TestPracticeLifecycleTransitions(t *testing.T) {
	db := testDB(t)
	r := professorRouter(db, mkProfessor(t, db))
	student := mkStudent(t, db, "NUR203")
	device := mkDevice(t, db, "AA:BB:CC:DD:EE:31")
	practice := mkPractice(t, db, student, device, models.PracticeStarted)
	base := fmt.Sprintf("/api/v1/practices/%d", practice.ID)

	w := doJSON(t, r, http.MethodPost, base+"/pause", nil, nil)
	wantStatus(t, w, http.StatusOK)
	resp := decode(t, w)
	if resp["state"] != models.PracticePaused {
		t.Errorf("state after pause = %v", resp["state"])
	}
	// The practice started five minutes ago; pausing folds that in.
	if resp["duration_seconds"].(float64) < 290 {
		t.Errorf("duration_seconds = %v, want ~300", resp["duration_seconds"])
	}

	// Pausing again is invalid.
	w = doJSON(t, r, http.MethodPost, base+"/pause", nil, nil)
	wantStatus(t, w, http.StatusBadRequest)

	w = doJSON(t, r, http.MethodPost, base+"/resume", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if decode(t, w)["state"] != models.PracticeStarted {
		t.Error("resume did not restart the practice")
	}

	w = doJSON(t, r, http.MethodPost, base+"/finish", nil, nil)
	wantStatus(t, w, http.StatusOK)
	resp = decode(t, w)
	if resp["state"] != models.PracticeFinished {
		t.Errorf("state after finish = %v", resp["state"])
	}

	// Finishing twice is rejected and the stored duration does not move.
	stored := resp["duration_seconds"].(float64)
	w = doJSON(t, r, http.MethodPost, base+"/finish", nil, nil)
	wantStatus(t, w, http.StatusBadRequest)

	var reloaded models.Practice
	db.First(&reloaded, practice.ID)
	if float64(reloaded.DurationSeconds) != stored {
		t.Errorf("duration changed on double finish: %d vs %v", reloaded.DurationSeconds, stored)
	}
}

func TestPracticeFinishComputesAccuracy(t *testing.T) {
	db := testDB(t)
	r := professorRouter(db, mkProfessor(t, db))
	student := mkStudent(t, db, "NUR204")
	device := mkDevice(t, db, "AA:BB:CC:DD:EE:32")
	practice := mkPractice(t, db, student, device, models.PracticeStarted)

	mkReading(t, db, practice, 20, 150) // correct
	mkReading(t, db, practice, 20, 200) // correct
	mkReading(t, db, practice, 50, 150) // pitch out
	mkReading(t, db, practice, 20, 400) // force out

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/practices/%d/finish", practice.ID), nil, nil)
	wantStatus(t, w, http.StatusOK)
	resp := decode(t, w)
	if resp["average_accuracy"] != float64(50) {
		t.Errorf("average_accuracy = %v, want 50", resp["average_accuracy"])
	}
}

func TestPracticeMetrics(t *testing.T) {
	db := testDB(t)
	r := professorRouter(db, mkProfessor(t, db))
	student := mkStudent(t, db, "NUR205")
	device := mkDevice(t, db, "AA:BB:CC:DD:EE:33")
	practice := mkPractice(t, db, student, device, models.PracticeStarted)
	for i := 0; i < 12; i++ {
		mkReading(t, db, practice, 20, 150)
	}

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/practices/%d/metrics", practice.ID), nil, nil)
	wantStatus(t, w, http.StatusOK)
	resp := decode(t, w)

	if resp["current_accuracy"] != float64(100) {
		t.Errorf("current_accuracy = %v, want 100", resp["current_accuracy"])
	}
	recent := resp["recent_readings"].([]interface{})
	if len(recent) != 10 {
		t.Errorf("recent_readings = %d entries, want 10", len(recent))
	}
	// Practice started five minutes ago and is still running.
	if resp["elapsed_seconds"].(float64) < 290 {
		t.Errorf("elapsed_seconds = %v, want ~300", resp["elapsed_seconds"])
	}
}

func TestPracticeListFilters(t *testing.T) {
	db := testDB(t)
	r := professorRouter(db, mkProfessor(t, db))
	s1 := mkStudent(t, db, "NUR206")
	s2 := mkStudent(t, db, "NUR207")
	d1 := mkDevice(t, db, "AA:BB:CC:DD:EE:34")
	d2 := mkDevice(t, db, "AA:BB:CC:DD:EE:35")
	mkPractice(t, db, s1, d1, models.PracticeStarted)
	mkPractice(t, db, s2, d2, models.PracticeFinished)

	w := doJSON(t, r, http.MethodGet, "/api/v1/practices", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if decode(t, w)["count"] != float64(2) {
		t.Error("unfiltered list should return both practices")
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/practices?student_id=%d", s1.ID), nil, nil)
	if decode(t, w)["count"] != float64(1) {
		t.Error("student filter did not narrow the list")
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/practices?state=finished", nil, nil)
	if decode(t, w)["count"] != float64(1) {
		t.Error("state filter did not narrow the list")
	}
}
