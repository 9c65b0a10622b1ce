package routes

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/config"
	"github.com/veinview/backend/internal/controllers"
	"github.com/veinview/backend/internal/ingestion"
	"github.com/veinview/backend/internal/middleware"
	"github.com/veinview/backend/internal/ws"
)

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger, hub *ws.LiveHub, ingest *ingestion.Service) {
	// Controllers
	expires, err := time.ParseDuration(cfg.JWTExpiresIn + "m")
	if err != nil || expires == 0 {
		expires = 60 * time.Minute
	}
	authCtrl := &controllers.AuthController{DB: db, JWTSecret: cfg.JWTSecret, ExpiresIn: expires}
	studentCtrl := &controllers.StudentController{DB: db}
	deviceCtrl := &controllers.DeviceController{DB: db}
	deviceAPICtrl := &controllers.DeviceAPIController{DB: db, Ingest: ingest}
	practiceCtrl := &controllers.PracticeController{DB: db, Log: log}
	summaryCtrl := &controllers.SummaryController{DB: db}
	surveyCtrl := &controllers.SurveyController{DB: db}
	reportCtrl := &controllers.ReportController{DB: db}
	dashboardCtrl := &controllers.DashboardController{DB: db}
	arCtrl := &controllers.ARController{DB: db, Log: log}
	arConfigCtrl := &controllers.ARConfigController{DB: db}

	rate, err := strconv.ParseUint(cfg.IngestRateLimit, 10, 32)
	if err != nil || rate == 0 {
		rate = 50
	}

	// Public
	r.POST("/api/v1/auth/login", authCtrl.Login)

	// Device API: registration is open (key handout); everything else
	// requires the API key and respects the ingest rate cap.
	device := r.Group("/api/device")
	{
		device.POST("/register", deviceAPICtrl.Register)

		authed := device.Group("", middleware.DeviceAuth(db), middleware.IngestRateLimit(uint(rate)))
		{
			authed.POST("/ping", deviceAPICtrl.Ping)
			authed.GET("/practice", deviceAPICtrl.ActivePractice)
			authed.POST("/readings", deviceAPICtrl.SubmitReading)
			authed.POST("/attempts", deviceAPICtrl.SubmitAttempt)
			authed.GET("/status", deviceAPICtrl.Status)
		}
	}

	// AR viewer API: connect hands out the session token; the rest rides on it.
	ar := r.Group("/api/ar")
	{
		ar.POST("/connect", arCtrl.Connect)

		session := ar.Group("", middleware.ARSessionAuth(db))
		{
			session.GET("/stream", arCtrl.Stream)
			session.GET("/practice-status", arCtrl.PracticeStatus)
			session.POST("/heartbeat", arCtrl.Heartbeat)
			session.POST("/disconnect", arCtrl.Disconnect)
			session.POST("/events", arCtrl.SubmitEvent)
			session.GET("/config", arConfigCtrl.Get)
			session.PUT("/config", arConfigCtrl.Update)
		}
	}

	// Professor dashboard, JWT protected
	api := r.Group("/api/v1", middleware.Auth(db, cfg.JWTSecret))
	{
		api.GET("/auth/me", authCtrl.Me)
		api.POST("/auth/register", middleware.RequireRoles("admin"), authCtrl.Register)

		api.GET("/students", studentCtrl.List)
		api.POST("/students", studentCtrl.Create)
		api.GET("/students/:id", studentCtrl.Get)
		api.PUT("/students/:id", studentCtrl.Update)
		api.GET("/students/:id/stats", dashboardCtrl.StudentStats)

		api.GET("/devices", deviceCtrl.List)
		api.GET("/devices/:id", deviceCtrl.Get)
		api.PUT("/devices/:id", deviceCtrl.Update)

		api.GET("/practices", practiceCtrl.List)
		api.POST("/practices", practiceCtrl.Create)
		api.GET("/practices/:id", practiceCtrl.Get)
		api.POST("/practices/:id/pause", practiceCtrl.Pause)
		api.POST("/practices/:id/resume", practiceCtrl.Resume)
		api.POST("/practices/:id/finish", practiceCtrl.Finish)
		api.GET("/practices/:id/metrics", practiceCtrl.Metrics)

		api.GET("/summaries", summaryCtrl.List)
		api.POST("/summaries", summaryCtrl.Create)
		api.GET("/summaries/:id", summaryCtrl.Get)
		api.PUT("/summaries/:id", summaryCtrl.Update)
		api.POST("/summaries/:id/recompute", summaryCtrl.Recompute)

		api.GET("/surveys", surveyCtrl.List)
		api.POST("/surveys", surveyCtrl.Create)
		api.GET("/surveys/:id", surveyCtrl.Get)
		api.GET("/surveys/stats", surveyCtrl.Stats)
		api.GET("/surveys/recent", surveyCtrl.Recent)

		api.GET("/reports", reportCtrl.List)
		api.POST("/reports", reportCtrl.Create)
		api.GET("/reports/:id", reportCtrl.Get)
		api.POST("/reports/:id/regenerate", reportCtrl.Regenerate)

		api.GET("/ar-config", arConfigCtrl.Get)
		api.PUT("/ar-config", arConfigCtrl.Update)

		api.GET("/dashboard", dashboardCtrl.Overview)

		api.GET("/ws/practices/:id", ws.LiveHandler(db, hub))
	}
}
