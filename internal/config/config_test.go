package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("MQTT_BROKER", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBName != "veinview_db" {
		t.Errorf("DBName = %q, want veinview_db", cfg.DBName)
	}
	if cfg.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %q, want empty (bridge disabled)", cfg.MQTTBroker)
	}
	if cfg.MQTTTopic != "veinview/+/readings" {
		t.Errorf("MQTTTopic = %q", cfg.MQTTTopic)
	}
	if cfg.IngestRateLimit != "50" {
		t.Errorf("IngestRateLimit = %q, want 50", cfg.IngestRateLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_EXPIRES_IN", "120")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DBHost != "db.internal" {
		t.Errorf("DBHost = %q, want db.internal", cfg.DBHost)
	}
	if cfg.JWTExpiresIn != "120" {
		t.Errorf("JWTExpiresIn = %q, want 120", cfg.JWTExpiresIn)
	}
}
