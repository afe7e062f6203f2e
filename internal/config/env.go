package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig holds the HTTP listener and dashboard settings.
type ServerConfig struct {
	Port        string
	WebUsername string
	WebPassword string
}

// StoreConfig holds vocabulary store connectivity.
type StoreConfig struct {
	RedisURL string
}

// ArchiveConfig holds the optional S3 export archive settings. Disabled when
// Bucket is empty.
type ArchiveConfig struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Password  string
}

// SnapshotConfig holds page-render defaults.
type SnapshotConfig struct {
	DPI       int
	Quality   int
	Grayscale bool
}

// Config is the top-level configuration.
type Config struct {
	Logging  LoggingConfig
	Axiom    AxiomConfig
	Server   ServerConfig
	Store    StoreConfig
	Archive  ArchiveConfig
	Snapshot SnapshotConfig
}

// FromEnv loads configuration from environment with sensible defaults.
// Provider credentials are not read here; the provider layer resolves them
// per call through the settings store.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/readcompanion.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_readcompanion",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:        getEnv("PORT", "8080"),
		WebUsername: getEnv("WEB_USERNAME", ""),
		WebPassword: getEnv("WEB_PASSWORD", ""),
	}

	cfg.Store = StoreConfig{
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
	}

	cfg.Archive = ArchiveConfig{
		Bucket:    getEnv("ARCHIVE_S3_BUCKET", ""),
		Region:    getEnv("ARCHIVE_S3_REGION", getEnv("AWS_REGION", "us-east-1")),
		AccessKey: getEnv("ARCHIVE_AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("ARCHIVE_AWS_SECRET_ACCESS_KEY", ""),
		Password:  getEnv("ARCHIVE_PASSWORD", ""),
	}

	cfg.Snapshot = SnapshotConfig{
		DPI:       parseInt(getEnv("SNAPSHOT_DPI", "120"), 120),
		Quality:   parseInt(getEnv("SNAPSHOT_QUALITY", "80"), 80),
		Grayscale: parseBool(getEnv("SNAPSHOT_GRAYSCALE", "false")),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
