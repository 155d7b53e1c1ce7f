package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  user: tracker
  password: secret
  database: tracking
rabbitmq:
  user: guest
  password: guest
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults not applied: %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.RabbitMQ.Port != 5672 {
		t.Errorf("rabbitmq port default not applied: %d", cfg.RabbitMQ.Port)
	}
	if cfg.Services.TrackingServicePort != 3002 {
		t.Errorf("tracking service port default not applied: %d", cfg.Services.TrackingServicePort)
	}
	if cfg.JWT.SecretKey == "" {
		t.Error("jwt secret must be generated when missing")
	}
}

func TestLoadFromFileRejectsMissingFields(t *testing.T) {
	path := writeConfig(t, `
database:
  user: tracker
rabbitmq:
  user: guest
`)

	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected validation error for missing passwords and database name")
	}
}

func TestLoadFromFileRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "database: [not a mapping")
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
