package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/veinview/backend/internal/database"
	"github.com/veinview/backend/internal/ingestion"
	"github.com/veinview/backend/internal/middleware"
	"github.com/veinview/backend/internal/models"
	"github.com/veinview/backend/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testDB opens an in-memory sqlite database named after the test so parallel
// tests never share state, and runs the full migration.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testIngest(db *gorm.DB) *ingestion.Service {
	hub := ws.NewLiveHub()
	go hub.Run()
	return ingestion.NewService(db, hub, zap.NewNop())
}

// deviceRouter mounts the ESP32-facing surface the way the real router does.
func deviceRouter(db *gorm.DB) *gin.Engine {
	ctrl := &DeviceAPIController{DB: db, Ingest: testIngest(db)}
	r := gin.New()
	device := r.Group("/api/device")
	device.POST("/register", ctrl.Register)
	authed := device.Group("", middleware.DeviceAuth(db))
	authed.POST("/ping", ctrl.Ping)
	authed.GET("/practice", ctrl.ActivePractice)
	authed.POST("/readings", ctrl.SubmitReading)
	authed.POST("/attempts", ctrl.SubmitAttempt)
	authed.GET("/status", ctrl.Status)
	return r
}

// arRouter mounts the AR client surface behind the session-token middleware.
func arRouter(db *gorm.DB) *gin.Engine {
	ctrl := &ARController{DB: db, Log: zap.NewNop()}
	r := gin.New()
	ar := r.Group("/api/ar")
	ar.POST("/connect", ctrl.Connect)
	session := ar.Group("", middleware.ARSessionAuth(db))
	session.GET("/stream", ctrl.Stream)
	session.GET("/practice-status", ctrl.PracticeStatus)
	session.POST("/heartbeat", ctrl.Heartbeat)
	session.POST("/disconnect", ctrl.Disconnect)
	session.POST("/events", ctrl.SubmitEvent)
	return r
}

// professorRouter mounts the dashboard surface with the given account already
// authenticated, sidestepping the JWT exchange the auth tests cover.
func professorRouter(db *gorm.DB, user models.User) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	})

	practiceCtrl := &PracticeController{DB: db, Log: zap.NewNop()}
	summaryCtrl := &SummaryController{DB: db}

	api := r.Group("/api/v1")
	api.GET("/practices", practiceCtrl.List)
	api.POST("/practices", practiceCtrl.Create)
	api.GET("/practices/:id", practiceCtrl.Get)
	api.POST("/practices/:id/pause", practiceCtrl.Pause)
	api.POST("/practices/:id/resume", practiceCtrl.Resume)
	api.POST("/practices/:id/finish", practiceCtrl.Finish)
	api.GET("/practices/:id/metrics", practiceCtrl.Metrics)
	api.POST("/summaries", summaryCtrl.Create)
	api.GET("/summaries/:id", summaryCtrl.Get)
	api.PUT("/summaries/:id", summaryCtrl.Update)
	api.POST("/summaries/:id/recompute", summaryCtrl.Recompute)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func mkStudent(t *testing.T, db *gorm.DB, code string) models.Student {
	t.Helper()
	s := models.Student{
		Code:     code,
		FullName: "Student " + code,
		Email:    code + "@uni.edu",
		Program:  "Nursing",
		Semester: 4,
		Active:   true,
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create student: %v", err)
	}
	return s
}

func mkDevice(t *testing.T, db *gorm.DB, mac string) models.Device {
	t.Helper()
	d := models.Device{Name: "Test Board", MACAddress: mac, Active: true}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("create device: %v", err)
	}
	return d
}

func mkPractice(t *testing.T, db *gorm.DB, student models.Student, device models.Device, state string) models.Practice {
	t.Helper()
	p := models.Practice{
		StudentID: student.ID,
		DeviceID:  device.ID,
		State:     state,
		StartedAt: time.Now().Add(-5 * time.Minute),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create practice: %v", err)
	}
	return p
}

func mkReading(t *testing.T, db *gorm.DB, practice models.Practice, pitch, force float64) models.Reading {
	t.Helper()
	r := models.Reading{
		PracticeID: practice.ID,
		DeviceID:   practice.DeviceID,
		Pitch:      pitch,
		Roll:       2,
		Yaw:        1,
		Force:      force,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("create reading: %v", err)
	}
	return r
}

func readingBody(pitch, force float64) map[string]interface{} {
	return map[string]interface{}{
		"ax": 0.1, "ay": 0.2, "az": 9.8,
		"gx": 0.0, "gy": 0.0, "gz": 0.0,
		"pitch": pitch, "roll": 2.0, "yaw": 1.0,
		"force": force,
	}
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}
