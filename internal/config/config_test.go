package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// Helper to clear all config-related env vars for the duration of a test
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"FASTLINE_CONFIG_PATH",
		"FASTLINE_DB_PATH",
		"FASTLINE_REMOTE_MODE",
		"FASTLINE_REMOTE_URL",
		"FASTLINE_REMOTE_TOKEN",
		"FASTLINE_DATABASE_URL",
		"FASTLINE_USER_ID",
		"FASTLINE_SYNC_TIMEOUT",
		"FASTLINE_PROBE_INTERVAL",
		"FASTLINE_PROBE_TTL",
		"FASTLINE_SYNC_MAX_RETRIES",
		"FASTLINE_OFFLINE",
		"FASTLINE_FASTING_HOURS",
		"FASTLINE_WATER_TARGET_ML",
		"FASTLINE_WEIGHT_TARGET_KG",
		"FASTLINE_PORT",
		"FASTLINE_READ_TIMEOUT",
		"FASTLINE_WRITE_TIMEOUT",
		"FASTLINE_SHUTDOWN_TIMEOUT",
		"FASTLINE_JWT_SECRET",
		"FASTLINE_API_KEY",
		"FASTLINE_KAFKA_BROKERS",
		"FASTLINE_BACKUP_BUCKET",
		"FASTLINE_BACKUP_INTERVAL",
		"FASTLINE_BACKUP_DIR",
		"FASTLINE_S3_ENDPOINT",
		"FASTLINE_S3_REGION",
		"FASTLINE_S3_ACCESS_KEY",
		"FASTLINE_S3_SECRET_KEY",
		"FASTLINE_S3_USE_SSL",
		"FASTLINE_LOG_LEVEL",
		"FASTLINE_LOG_FORMAT",
		"FASTLINE_TZ",
		"FASTLINE_DEV_MODE",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
	}
	// Point at files that do not exist so the host's config never leaks in
	dir := t.TempDir()
	t.Setenv("FASTLINE_CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("FASTLINE_ENV_FILE", filepath.Join(dir, "missing.env"))
}

// dur converts Duration to time.Duration for comparison
func dur(d Duration) time.Duration {
	return time.Duration(d)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// Test: Default values when no config file and no env vars
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Remote.Mode != RemoteNone {
		t.Errorf("Remote.Mode = %q, want %q", cfg.Remote.Mode, RemoteNone)
	}
	if dur(cfg.Sync.Timeout) != 10*time.Second {
		t.Errorf("Sync.Timeout = %v, want 10s", cfg.Sync.Timeout)
	}
	if dur(cfg.Sync.ProbeInterval) != 30*time.Second {
		t.Errorf("Sync.ProbeInterval = %v, want 30s", cfg.Sync.ProbeInterval)
	}
	if cfg.Fasting.DefaultTargetHours != 16 {
		t.Errorf("Fasting.DefaultTargetHours = %d, want 16", cfg.Fasting.DefaultTargetHours)
	}
	if cfg.Water.DailyTargetML != 2500 {
		t.Errorf("Water.DailyTargetML = %d, want 2500", cfg.Water.DailyTargetML)
	}
	if cfg.Weight.TargetKG != 70 {
		t.Errorf("Weight.TargetKG = %v, want 70", cfg.Weight.TargetKG)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
	if cfg.Loc() != time.Local {
		t.Errorf("Loc() = %v, want Local", cfg.Loc())
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FASTLINE_DB_PATH", "/custom/fastline.db")
	t.Setenv("FASTLINE_REMOTE_MODE", "gateway")
	t.Setenv("FASTLINE_REMOTE_URL", "https://sync.example")
	t.Setenv("FASTLINE_REMOTE_TOKEN", "tok")
	t.Setenv("FASTLINE_SYNC_TIMEOUT", "3s")
	t.Setenv("FASTLINE_FASTING_HOURS", "18")
	t.Setenv("FASTLINE_WEIGHT_TARGET_KG", "65.5")
	t.Setenv("FASTLINE_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("FASTLINE_OFFLINE", "1")
	t.Setenv("FASTLINE_TZ", "Europe/Berlin")
	t.Setenv("FASTLINE_BACKUP_DIR", "/var/backups/fastline")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Path != "/custom/fastline.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Remote.Mode != RemoteGateway || cfg.Remote.URL != "https://sync.example" || cfg.Remote.Token != "tok" {
		t.Errorf("Remote = %+v", cfg.Remote)
	}
	if dur(cfg.Sync.Timeout) != 3*time.Second {
		t.Errorf("Sync.Timeout = %v, want 3s", cfg.Sync.Timeout)
	}
	if cfg.Backup.Dir != "/var/backups/fastline" {
		t.Errorf("Backup.Dir = %q", cfg.Backup.Dir)
	}
	if cfg.Fasting.DefaultTargetHours != 18 {
		t.Errorf("Fasting.DefaultTargetHours = %d, want 18", cfg.Fasting.DefaultTargetHours)
	}
	if cfg.Weight.TargetKG != 65.5 {
		t.Errorf("Weight.TargetKG = %v, want 65.5", cfg.Weight.TargetKG)
	}
	if len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[1] != "k2:9092" {
		t.Errorf("Events.Brokers = %v", cfg.Events.Brokers)
	}
	if !cfg.Sync.Offline {
		t.Error("Sync.Offline should be true")
	}
	if cfg.Loc().String() != "Europe/Berlin" {
		t.Errorf("Loc() = %v", cfg.Loc())
	}
}

// Test: Empty env var does NOT override (only non-empty values override)
func TestLoad_EmptyEnvVarDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("FASTLINE_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoadFromFile_ValidYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
store:
  path: /data/fastline.db
remote:
  mode: gateway
  url: https://sync.example
sync:
  timeout: 5s
  probe_interval: 1m
water:
  daily_target_ml: 3000
events:
  brokers: [localhost:9092]
location: UTC
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Store.Path != "/data/fastline.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if dur(cfg.Sync.Timeout) != 5*time.Second || dur(cfg.Sync.ProbeInterval) != time.Minute {
		t.Errorf("Sync = %+v", cfg.Sync)
	}
	if cfg.Water.DailyTargetML != 3000 {
		t.Errorf("Water.DailyTargetML = %d, want 3000", cfg.Water.DailyTargetML)
	}
	// Unset sections keep defaults
	if cfg.Fasting.DefaultTargetHours != 16 {
		t.Errorf("Fasting.DefaultTargetHours = %d, want 16", cfg.Fasting.DefaultTargetHours)
	}
	if cfg.Loc() != time.UTC {
		t.Errorf("Loc() = %v, want UTC", cfg.Loc())
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "server:\n  port: 9000\n")
	t.Setenv("FASTLINE_CONFIG_PATH", path)
	t.Setenv("FASTLINE_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	envPath := writeFile(t, ".env", "FASTLINE_WATER_TARGET_ML=2000\nFASTLINE_LOG_LEVEL=debug\n")
	t.Setenv("FASTLINE_ENV_FILE", envPath)
	// Already-set variables win over .env; clearEnv restores both afterwards
	t.Setenv("FASTLINE_LOG_LEVEL", "warn")
	os.Unsetenv("FASTLINE_WATER_TARGET_ML")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Water.DailyTargetML != 2000 {
		t.Errorf("Water.DailyTargetML = %d, want 2000", cfg.Water.DailyTargetML)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "store: [unclosed")

	_, err := LoadFromFile(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("LoadFromFile() error = %v, want parse error", err)
	}
}

func TestLoadFromFile_InvalidDuration(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "sync:\n  timeout: soon\n")

	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() should reject an invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown mode", func(c *Config) { c.Remote.Mode = "carrier-pigeon" }, "remote.mode"},
		{"gateway without url", func(c *Config) { c.Remote.Mode = RemoteGateway }, "remote.url"},
		{"postgres without dsn", func(c *Config) { c.Remote.Mode = RemotePostgres }, "FASTLINE_DATABASE_URL"},
		{"postgres with dsn", func(c *Config) { c.Remote.Mode = RemotePostgres; c.Remote.DSN = "postgres://x" }, ""},
		{"target hours too high", func(c *Config) { c.Fasting.DefaultTargetHours = 100 }, "default_target_hours"},
		{"zero water target", func(c *Config) { c.Water.DailyTargetML = 0 }, "daily_target_ml"},
		{"zero weight target", func(c *Config) { c.Weight.TargetKG = 0 }, "target_kg"},
		{"bad location", func(c *Config) { c.Location = "Mars/Olympus" }, "location"},
		{"zero probe interval", func(c *Config) { c.Sync.ProbeInterval = 0 }, "probe_interval"},
		{"negative probe interval", func(c *Config) { c.Sync.ProbeInterval = Duration(-time.Second) }, "probe_interval"},
		{"zero sync timeout", func(c *Config) { c.Sync.Timeout = 0 }, "sync.timeout"},
		{"zero tick interval", func(c *Config) { c.Fasting.TickInterval = 0 }, "tick_interval"},
		{"backups disabled", func(c *Config) { c.Backup.Interval = 0 }, ""},
		{"negative backup interval", func(c *Config) { c.Backup.Interval = Duration(-time.Hour) }, "backup.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newDefaults()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ZeroSyncIntervalRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("FASTLINE_PROBE_INTERVAL", "0s")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "probe_interval") {
		t.Errorf("Load() error = %v, want a rejection", err)
	}
}

func TestValidateServer(t *testing.T) {
	clearEnv(t)
	cfg := newDefaults()

	if err := cfg.ValidateServer(); err == nil {
		t.Error("ValidateServer() should require credentials")
	}

	t.Setenv("FASTLINE_DEV_MODE", "true")
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("dev mode ValidateServer() error = %v", err)
	}

	t.Setenv("FASTLINE_DEV_MODE", "")
	cfg.Auth.JWTSecret = "s"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer() error = %v", err)
	}
}

// Test: secrets never round-trip through YAML
func TestConfig_SecretsNotInYAML(t *testing.T) {
	cfg := newDefaults()
	cfg.Remote.Token = "remote-token"
	cfg.Remote.DSN = "postgres://secret"
	cfg.Auth.JWTSecret = "jwt-secret"
	cfg.Auth.APIKey = "api-key"
	cfg.Backup.AccessKey = "access"
	cfg.Backup.SecretKey = "secret"

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	for _, secret := range []string{"remote-token", "postgres://secret", "jwt-secret", "api-key", "access", "secret"} {
		if strings.Contains(string(out), secret) {
			t.Errorf("marshalled config contains secret %q", secret)
		}
	}
	if !strings.Contains(string(out), "timeout: 10s") {
		t.Errorf("durations should marshal as strings:\n%s", out)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandPath("~/fastline.db")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}
	if got != filepath.Join(home, "fastline.db") {
		t.Errorf("ExpandPath() = %q", got)
	}

	if got, _ := ExpandPath("/abs/path.db"); got != "/abs/path.db" {
		t.Errorf("ExpandPath() = %q, want unchanged", got)
	}
}
