package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starwatch/sentiment/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "service:\n  name: sentiment\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.Service.BatchSize)
	}
	if cfg.Service.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.Service.PollInterval)
	}
	if cfg.Resolution.AutoResolveConfidence != 0.7 {
		t.Errorf("AutoResolveConfidence = %v, want 0.7", cfg.Resolution.AutoResolveConfidence)
	}
	if cfg.Provider.EscalationConfidence != 0.7 {
		t.Errorf("EscalationConfidence = %v, want 0.7", cfg.Provider.EscalationConfidence)
	}
	if cfg.Provider.NeutralBand != 0.2 {
		t.Errorf("NeutralBand = %v, want 0.2", cfg.Provider.NeutralBand)
	}
	if cfg.Analytics.VelocityWindowHours != 72 {
		t.Errorf("VelocityWindowHours = %d, want 72", cfg.Analytics.VelocityWindowHours)
	}
	if cfg.Analytics.VelocityAlertPercent != 30.0 {
		t.Errorf("VelocityAlertPercent = %v, want 30", cfg.Analytics.VelocityAlertPercent)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json defaults", cfg.Logging)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
service:
  batch_size: 25
  poll_interval: 10s
analytics:
  velocity_window_hours: 24
  velocity_alert_percent: 50
resolution:
  auto_resolve_confidence: 0.8
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.BatchSize != 25 {
		t.Errorf("BatchSize = %d, want 25", cfg.Service.BatchSize)
	}
	if cfg.Service.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", cfg.Service.PollInterval)
	}
	if cfg.Analytics.VelocityWindowHours != 24 {
		t.Errorf("VelocityWindowHours = %d, want 24", cfg.Analytics.VelocityWindowHours)
	}
	if cfg.Analytics.VelocityAlertPercent != 50.0 {
		t.Errorf("VelocityAlertPercent = %v, want 50", cfg.Analytics.VelocityAlertPercent)
	}
	if cfg.Resolution.AutoResolveConfidence != 0.8 {
		t.Errorf("AutoResolveConfidence = %v, want 0.8", cfg.Resolution.AutoResolveConfidence)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("SENTIMENT_PORT", "9090")

	path := writeConfig(t, `
database:
  host: from-yaml
service:
  port: 8000
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Service.Port != 9090 {
		t.Errorf("Service.Port = %d, want 9090", cfg.Service.Port)
	}
}
