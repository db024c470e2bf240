package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Remote modes.
const (
	RemoteNone     = "none"
	RemoteGateway  = "gateway"
	RemotePostgres = "postgres"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Store    StoreConfig   `yaml:"store"`
	Remote   RemoteConfig  `yaml:"remote"`
	Sync     SyncConfig    `yaml:"sync"`
	Fasting  FastingConfig `yaml:"fasting"`
	Water    WaterConfig   `yaml:"water"`
	Weight   WeightConfig  `yaml:"weight"`
	Server   ServerConfig  `yaml:"server"`
	Auth     AuthConfig    `yaml:"auth"`
	Events   EventsConfig  `yaml:"events"`
	Backup   BackupConfig  `yaml:"backup"`
	Log      LogConfig     `yaml:"log"`
	Location string        `yaml:"location"`
}

// StoreConfig locates the local SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// RemoteConfig selects the sync target.
type RemoteConfig struct {
	Mode   string `yaml:"mode"`
	URL    string `yaml:"url"`
	Token  string `yaml:"-"` // env-only, never in YAML
	DSN    string `yaml:"-"` // env-only, never in YAML
	UserID string `yaml:"user_id"`
}

// SyncConfig controls the dispatcher and the background sync worker.
type SyncConfig struct {
	Timeout       Duration `yaml:"timeout"`
	ProbeInterval Duration `yaml:"probe_interval"`
	ProbeTTL      Duration `yaml:"probe_ttl"`
	MaxRetries    uint64   `yaml:"max_retries"`
	Offline       bool     `yaml:"offline"`
}

// FastingConfig contains fasting session defaults.
type FastingConfig struct {
	DefaultTargetHours int      `yaml:"default_target_hours"`
	TickInterval       Duration `yaml:"tick_interval"`
}

// WaterConfig contains the water accumulator target.
type WaterConfig struct {
	DailyTargetML int `yaml:"daily_target_ml"`
}

// WeightConfig contains the weight goal.
type WeightConfig struct {
	TargetKG float64 `yaml:"target_kg"`
}

// ServerConfig contains sync gateway HTTP settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// AuthConfig contains gateway authentication settings.
type AuthConfig struct {
	JWTSecret  string `yaml:"-"` // env-only, never in YAML
	Issuer     string `yaml:"issuer"`
	APIKey     string `yaml:"-"` // env-only, never in YAML
	APIKeyUser string `yaml:"api_key_user"`
}

// EventsConfig lists Kafka brokers for gateway events. Empty disables publishing.
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
}

// BackupConfig contains S3-compatible backup storage settings.
// When Bucket is empty, backups are written locally only.
type BackupConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
	DeviceID  string   `yaml:"device_id"`
	Dir       string   `yaml:"dir"`
	Interval  Duration `yaml:"interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Loc returns the configured time zone used to derive calendar days.
func (c *Config) Loc() *time.Location {
	if c.Location == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration with precedence: defaults → YAML file → .env → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	// .env never overrides variables already set in the environment
	envFile := getEnv("FASTLINE_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg := newDefaults()

	configPath := getEnv("FASTLINE_CONFIG_PATH", defaultConfigPath())

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a Config with all default values and no file or env applied.
func Default() *Config {
	return newDefaults()
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "~/.local/share/fastline/fastline.db",
		},
		Remote: RemoteConfig{
			Mode: RemoteNone,
		},
		Sync: SyncConfig{
			Timeout:       Duration(10 * time.Second),
			ProbeInterval: Duration(30 * time.Second),
			ProbeTTL:      Duration(15 * time.Second),
			MaxRetries:    2,
		},
		Fasting: FastingConfig{
			DefaultTargetHours: 16,
			TickInterval:       Duration(time.Second),
		},
		Water: WaterConfig{
			DailyTargetML: 2500,
		},
		Weight: WeightConfig{
			TargetKG: 70,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Auth: AuthConfig{
			APIKeyUser: "local",
		},
		Backup: BackupConfig{
			URLExpiry: Duration(15 * time.Minute),
			DeviceID:  "default",
			Dir:       "~/.local/share/fastline/backups",
			Interval:  Duration(24 * time.Hour),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config/fastline.yaml"
	}
	return filepath.Join(dir, "fastline", "config.yaml")
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Store
	if v := os.Getenv("FASTLINE_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}

	// Remote
	if v := os.Getenv("FASTLINE_REMOTE_MODE"); v != "" {
		cfg.Remote.Mode = v
	}
	if v := os.Getenv("FASTLINE_REMOTE_URL"); v != "" {
		cfg.Remote.URL = v
	}
	if v := os.Getenv("FASTLINE_REMOTE_TOKEN"); v != "" {
		cfg.Remote.Token = v
	}
	if v := os.Getenv("FASTLINE_DATABASE_URL"); v != "" {
		cfg.Remote.DSN = v
	}
	if v := os.Getenv("FASTLINE_USER_ID"); v != "" {
		cfg.Remote.UserID = v
	}

	// Sync
	setDuration("FASTLINE_SYNC_TIMEOUT", &cfg.Sync.Timeout)
	setDuration("FASTLINE_PROBE_INTERVAL", &cfg.Sync.ProbeInterval)
	setDuration("FASTLINE_PROBE_TTL", &cfg.Sync.ProbeTTL)
	if v := os.Getenv("FASTLINE_SYNC_MAX_RETRIES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Sync.MaxRetries = n
		}
	}
	if v := os.Getenv("FASTLINE_OFFLINE"); v != "" {
		cfg.Sync.Offline = v == "true" || v == "1"
	}

	// Trackers
	setInt("FASTLINE_FASTING_HOURS", &cfg.Fasting.DefaultTargetHours)
	setInt("FASTLINE_WATER_TARGET_ML", &cfg.Water.DailyTargetML)
	if v := os.Getenv("FASTLINE_WEIGHT_TARGET_KG"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Weight.TargetKG = f
		}
	}

	// Server
	setInt("FASTLINE_PORT", &cfg.Server.Port)
	setDuration("FASTLINE_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("FASTLINE_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("FASTLINE_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Auth
	if v := os.Getenv("FASTLINE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("FASTLINE_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Events
	if v := os.Getenv("FASTLINE_KAFKA_BROKERS"); v != "" {
		cfg.Events.Brokers = splitList(v)
	}

	// Backup
	if v := os.Getenv("FASTLINE_BACKUP_BUCKET"); v != "" {
		cfg.Backup.Bucket = v
	}
	if v := os.Getenv("FASTLINE_S3_ENDPOINT"); v != "" {
		cfg.Backup.Endpoint = v
	}
	if v := os.Getenv("FASTLINE_S3_REGION"); v != "" {
		cfg.Backup.Region = v
	}
	if v := os.Getenv("FASTLINE_S3_ACCESS_KEY"); v != "" {
		cfg.Backup.AccessKey = v
	}
	if v := os.Getenv("FASTLINE_S3_SECRET_KEY"); v != "" {
		cfg.Backup.SecretKey = v
	}
	if v := os.Getenv("FASTLINE_BACKUP_DIR"); v != "" {
		cfg.Backup.Dir = v
	}
	setDuration("FASTLINE_BACKUP_INTERVAL", &cfg.Backup.Interval)
	if v := os.Getenv("FASTLINE_S3_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Backup.UseSSL = &useSSL
	}

	// Log
	if v := os.Getenv("FASTLINE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FASTLINE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv("FASTLINE_TZ"); v != "" {
		cfg.Location = v
	}
}

// validate checks settings every command depends on.
func (c *Config) validate() error {
	switch c.Remote.Mode {
	case RemoteNone:
	case RemoteGateway:
		if c.Remote.URL == "" {
			return errors.New("remote.url is required in gateway mode")
		}
	case RemotePostgres:
		if c.Remote.DSN == "" {
			return errors.New("FASTLINE_DATABASE_URL is required in postgres mode")
		}
	default:
		return fmt.Errorf("remote.mode must be one of none, gateway, postgres; got %q", c.Remote.Mode)
	}

	if c.Fasting.DefaultTargetHours < 1 || c.Fasting.DefaultTargetHours > 72 {
		return fmt.Errorf("fasting.default_target_hours must be between 1 and 72; got %d", c.Fasting.DefaultTargetHours)
	}
	if c.Water.DailyTargetML <= 0 {
		return errors.New("water.daily_target_ml must be positive")
	}
	if c.Weight.TargetKG <= 0 {
		return errors.New("weight.target_kg must be positive")
	}
	if c.Sync.ProbeInterval <= 0 {
		return fmt.Errorf("sync.probe_interval must be positive; got %s", time.Duration(c.Sync.ProbeInterval))
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive; got %s", time.Duration(c.Sync.Timeout))
	}
	if c.Fasting.TickInterval <= 0 {
		return fmt.Errorf("fasting.tick_interval must be positive; got %s", time.Duration(c.Fasting.TickInterval))
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("backup.interval must not be negative; got %s", time.Duration(c.Backup.Interval))
	}
	if c.Location != "" {
		if _, err := time.LoadLocation(c.Location); err != nil {
			return fmt.Errorf("location: %w", err)
		}
	}
	return nil
}

// ValidateServer checks settings required by the sync gateway.
// In dev mode (FASTLINE_DEV_MODE=true), credential validation is skipped.
func (c *Config) ValidateServer() error {
	if os.Getenv("FASTLINE_DEV_MODE") == "true" {
		return nil
	}
	if c.Auth.JWTSecret == "" && c.Auth.APIKey == "" {
		return errors.New("FASTLINE_JWT_SECRET or FASTLINE_API_KEY is required")
	}
	return nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func setDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
