package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the resolution service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	AuditTopic   string

	MaxDBConns int32

	MaxOptions         int
	OptionCacheTTL     time.Duration
	WeekLockTTL        time.Duration
	RollbackWindow     time.Duration
	DefaultRiskCeiling string
	BatchConcurrency   int

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		AuditTopic   string   `yaml:"audit_topic"`
	} `yaml:"dependencies"`
	Resolution struct {
		MaxOptions          int    `yaml:"max_options"`
		OptionCacheMinutes  int    `yaml:"option_cache_minutes"`
		WeekLockSeconds     int    `yaml:"week_lock_seconds"`
		RollbackWindowHours int    `yaml:"rollback_window_hours"`
		DefaultRiskCeiling  string `yaml:"default_risk_ceiling"`
		BatchConcurrency    int    `yaml:"batch_concurrency"`
	} `yaml:"resolution"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "conflict-resolution-service",
		HTTPPort:           8080,
		GRPCPort:           9090,
		AuditTopic:         "rosterforge.resolution.audit",
		MaxDBConns:         20,
		MaxOptions:         5,
		OptionCacheTTL:     10 * time.Minute,
		WeekLockTTL:        30 * time.Second,
		RollbackWindow:     24 * time.Hour,
		DefaultRiskCeiling: "LOW",
		BatchConcurrency:   4,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxClaimTTL:     30 * time.Second,
		OutboxMaxRetries:   5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.AuditTopic != "" {
			cfg.AuditTopic = f.Dependencies.AuditTopic
		}
		if f.Resolution.MaxOptions > 0 {
			cfg.MaxOptions = f.Resolution.MaxOptions
		}
		if f.Resolution.OptionCacheMinutes > 0 {
			cfg.OptionCacheTTL = time.Duration(f.Resolution.OptionCacheMinutes) * time.Minute
		}
		if f.Resolution.WeekLockSeconds > 0 {
			cfg.WeekLockTTL = time.Duration(f.Resolution.WeekLockSeconds) * time.Second
		}
		if f.Resolution.RollbackWindowHours > 0 {
			cfg.RollbackWindow = time.Duration(f.Resolution.RollbackWindowHours) * time.Hour
		}
		if f.Resolution.DefaultRiskCeiling != "" {
			cfg.DefaultRiskCeiling = f.Resolution.DefaultRiskCeiling
		}
		if f.Resolution.BatchConcurrency > 0 {
			cfg.BatchConcurrency = f.Resolution.BatchConcurrency
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.AuditTopic = envOrDefault("AUDIT_TOPIC", cfg.AuditTopic)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.MaxOptions = envInt("RESOLUTION_MAX_OPTIONS", cfg.MaxOptions)
	cfg.OptionCacheTTL = time.Duration(envInt("OPTION_CACHE_MINUTES", int(cfg.OptionCacheTTL.Minutes()))) * time.Minute
	cfg.WeekLockTTL = time.Duration(envInt("WEEK_LOCK_SECONDS", int(cfg.WeekLockTTL.Seconds()))) * time.Second
	cfg.RollbackWindow = time.Duration(envInt("ROLLBACK_WINDOW_HOURS", int(cfg.RollbackWindow.Hours()))) * time.Hour
	cfg.DefaultRiskCeiling = strings.ToUpper(strings.TrimSpace(envOrDefault("DEFAULT_RISK_CEILING", cfg.DefaultRiskCeiling)))
	cfg.BatchConcurrency = envInt("BATCH_CONCURRENCY", cfg.BatchConcurrency)

	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
