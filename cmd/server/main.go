package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/veinview/backend/internal/config"
	"github.com/veinview/backend/internal/database"
	"github.com/veinview/backend/internal/ingestion"
	logger "github.com/veinview/backend/internal/logging"
	"github.com/veinview/backend/internal/mqttbridge"
	"github.com/veinview/backend/internal/routes"
	"github.com/veinview/backend/internal/ws"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg := config.Load()

	z, err := logger.Init(cfg.LogDir)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer z.Sync()

	db, err := database.Connect(cfg, z)
	if err != nil {
		z.Fatal("database connection failed", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		z.Fatal("database migration failed", zap.Error(err))
	}

	if err := database.SeedAdmin(db, cfg, z); err != nil {
		z.Fatal("admin seed failed", zap.Error(err))
	}

	hub := ws.NewLiveHub()
	go hub.Run()

	ingest := ingestion.NewService(db, hub, z)

	if cfg.MQTTBroker != "" {
		bridge, err := mqttbridge.New(cfg, db, ingest, z)
		if err != nil {
			z.Fatal("MQTT bridge failed", zap.Error(err))
		}
		defer bridge.Close()
	}

	r := gin.Default()
	routes.Register(r, db, cfg, z, hub, ingest)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	z.Info("listening", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		z.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}
