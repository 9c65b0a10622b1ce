package config

import (
	"os"
)

type Config struct {
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret    string
	JWTExpiresIn string // minutes

	AdminEmail    string
	AdminPassword string
	AdminFullName string

	LogDir string

	// Device ingestion rate limit: requests per second per API key.
	IngestRateLimit string

	// MQTT bridge; ingestion over MQTT is enabled only when MQTTBroker is set.
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTTopic    string
}

func Load() *Config {
	return &Config{
		Port:       getenv("PORT", "8080"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "veinview_db"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		JWTSecret:    getenv("JWT_SECRET", "supersecret_change_me"),
		JWTExpiresIn: getenv("JWT_EXPIRES_IN", "60"),

		AdminEmail:    getenv("ADMIN_EMAIL", "professor@example.com"),
		AdminPassword: getenv("ADMIN_PASSWORD", "admin123"),
		AdminFullName: getenv("ADMIN_FULL_NAME", "Administrator"),

		LogDir: getenv("LOG_DIR", "logs"),

		IngestRateLimit: getenv("INGEST_RATE_LIMIT", "50"),

		MQTTBroker:   getenv("MQTT_BROKER", ""),
		MQTTClientID: getenv("MQTT_CLIENT_ID", "veinview-backend"),
		MQTTUsername: getenv("MQTT_USERNAME", ""),
		MQTTPassword: getenv("MQTT_PASSWORD", ""),
		MQTTTopic:    getenv("MQTT_TOPIC", "veinview/+/readings"),
	}
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
