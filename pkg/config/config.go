package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores bootstrap runtime configuration.
type Config struct {
	LogLevel string

	Runtime RuntimeConfig

	Health HealthConfig

	Status StatusConfig

	Events EventsConfig
}

// RuntimeConfig controls profile selection and managed-process log setup.
type RuntimeConfig struct {
	ActiveProfile string
	LogDir        string
}

// HealthConfig holds the liveness verification policy.
type HealthConfig struct {
	Port         string
	Path         string
	MaxRetries   int
	Backoff      time.Duration
	ProbeTimeout time.Duration
	StartGrace   time.Duration
}

// StatusConfig controls the supervisor status endpoint.
type StatusConfig struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
}

// EventsConfig controls optional lifecycle event sinks.
type EventsConfig struct {
	NATSURL     string
	NATSSubject string

	CloudWatch CloudWatchConfig
}

// CloudWatchConfig holds CloudWatch Logs publishing settings.
type CloudWatchConfig struct {
	Enabled         bool
	LogGroup        string
	LogStream       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	// .env is optional; missing file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Runtime: RuntimeConfig{
			ActiveProfile: getEnv("APP_PROFILE", "default"),
			LogDir:        getEnv("LOG_DIR", "/app/logs"),
		},
		Health: HealthConfig{
			Port:         getEnv("HEALTH_PORT", "8080"),
			Path:         getEnv("HEALTH_PATH", "/health"),
			MaxRetries:   getEnvInt("HEALTH_MAX_RETRIES", 3),
			Backoff:      getEnvDuration("HEALTH_RETRY_BACKOFF", 2*time.Second),
			ProbeTimeout: getEnvDuration("HEALTH_PROBE_TIMEOUT", 3*time.Second),
			StartGrace:   getEnvDuration("HEALTH_START_GRACE", 10*time.Second),
		},
		Status: StatusConfig{
			Port:           getEnv("STATUS_PORT", "9090"),
			RateLimitRPS:   getEnvFloat("STATUS_RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvInt("STATUS_RATE_LIMIT_BURST", 40),
		},
		Events: EventsConfig{
			NATSURL:     getEnv("EVENTS_NATS_URL", ""),
			NATSSubject: getEnv("EVENTS_NATS_SUBJECT", "bootstrap.events"),
			CloudWatch: CloudWatchConfig{
				Enabled:         getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
				LogGroup:        getEnv("CLOUDWATCH_LOG_GROUP", "/container-bootstrap/lifecycle"),
				LogStream:       getEnv("CLOUDWATCH_LOG_STREAM", ""),
				Region:          getEnv("AWS_REGION", "ru-central1"),
				Endpoint:        getEnv("AWS_ENDPOINT", ""),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			},
		},
	}

	if cfg.Health.MaxRetries < 1 {
		return nil, fmt.Errorf("HEALTH_MAX_RETRIES must be >= 1")
	}

	if cfg.Health.Backoff < 0 {
		return nil, fmt.Errorf("HEALTH_RETRY_BACKOFF must not be negative")
	}

	if cfg.Health.ProbeTimeout <= 0 {
		return nil, fmt.Errorf("HEALTH_PROBE_TIMEOUT must be positive")
	}

	if cfg.Status.RateLimitRPS <= 0 {
		return nil, fmt.Errorf("STATUS_RATE_LIMIT_RPS must be positive")
	}
	if cfg.Status.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("STATUS_RATE_LIMIT_BURST must be positive")
	}

	if cfg.Events.CloudWatch.Enabled && cfg.Events.CloudWatch.LogStream == "" {
		return nil, fmt.Errorf("CLOUDWATCH_LOG_STREAM is required when CLOUDWATCH_LOGS_ENABLED=true")
	}

	return cfg, nil
}

// HealthTarget returns host:port of the managed process health endpoint.
func (c *HealthConfig) HealthTarget() string {
	return "127.0.0.1:" + c.Port
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
