package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/eventdash/pkg/analytics"
	"github.com/platinummonkey/eventdash/pkg/identity"
	"github.com/platinummonkey/eventdash/pkg/kpi"
	"github.com/platinummonkey/eventdash/pkg/middleware"
	"github.com/platinummonkey/eventdash/pkg/observability"
	"github.com/platinummonkey/eventdash/pkg/retry"
	"github.com/platinummonkey/eventdash/pkg/search"
	"github.com/platinummonkey/eventdash/pkg/snapshot"
)

// FileEnv names the environment variable pointing at an optional YAML file
const FileEnv = "EVENTDASH_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Search        SearchConfig        `yaml:"search"`
	Gauges        GaugesConfig        `yaml:"gauges"`
	Identity      identity.Config     `yaml:"identity"`
	Sheets        SheetsConfig        `yaml:"sheets"`
	Snapshot      SnapshotConfig      `yaml:"snapshot"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s health checks)
	HealthPort string `yaml:"health_port"`
}

// SearchConfig holds the OpenSearch connection and the events index
type SearchConfig struct {
	search.Config `yaml:",inline"`
	Index         string `yaml:"index"`
}

// GaugesConfig tunes board computation
type GaugesConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// SheetsConfig locates the KPI spreadsheet
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Range           string `yaml:"range"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Enabled reports whether KPI targets can be read
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != "" && s.CredentialsFile != ""
}

// SnapshotConfig holds the snapshot store and job schedule
type SnapshotConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Schedule string          `yaml:"schedule"`
	Redis    snapshot.Config `yaml:"redis"`
}

// RateLimitConfig limits API requests per client IP. Counts are shared
// through the snapshot Redis when snapshots are enabled.
type RateLimitConfig struct {
	middleware.RateLimitConfig `yaml:",inline"`

	Enabled bool `yaml:"enabled"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string                   `yaml:"log_level"`
	LogFormat      string                   `yaml:"log_format"`
	MetricsEnabled bool                     `yaml:"metrics_enabled"`
	OTel           observability.OTelConfig `yaml:"otel"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Search: SearchConfig{
			Config: search.Config{
				Addresses:      []string{"http://localhost:9200"},
				RequestTimeout: 30 * time.Second,
				Retry:          retry.DefaultConfig(),
			},
			Index: analytics.DefaultIndex,
		},
		Gauges: GaugesConfig{Concurrency: 4},
		Identity: identity.Config{
			URL:     identity.DefaultURL,
			Timeout: 30 * time.Second,
		},
		Sheets: SheetsConfig{Range: kpi.DefaultRange},
		Snapshot: SnapshotConfig{
			Schedule: "@every 15m",
			Redis: snapshot.Config{
				URL:        "redis://localhost:6379/0",
				KeyPrefix:  "eventdash:snapshot",
				TTL:        24 * time.Hour,
				MaxHistory: 48,
			},
		},
		RateLimit: RateLimitConfig{
			RateLimitConfig: middleware.DefaultRateLimitConfig(),
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
			OTel: observability.OTelConfig{
				Endpoint:       "localhost:4317",
				ServiceName:    "eventdash",
				ServiceVersion: "1.0.0",
				Insecure:       true,
				SampleRatio:    1.0,
			},
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by EVENTDASH_CONFIG_FILE and then environment variables
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file onto cfg. Fields missing from the file
// keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("EVENTDASH_HOST", s.Host)
	s.Port = getEnv("EVENTDASH_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("EVENTDASH_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("EVENTDASH_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("EVENTDASH_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("EVENTDASH_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.HealthPort = getEnv("EVENTDASH_HEALTH_PORT", s.HealthPort)

	sc := &c.Search
	sc.Addresses = getEnvList("EVENTDASH_OPENSEARCH_ADDRESSES", sc.Addresses)
	sc.Username = getEnv("EVENTDASH_OPENSEARCH_USERNAME", sc.Username)
	sc.Password = getEnv("EVENTDASH_OPENSEARCH_PASSWORD", sc.Password)
	sc.InsecureSkipVerify = getEnvBool("EVENTDASH_OPENSEARCH_INSECURE", sc.InsecureSkipVerify)
	sc.RequestTimeout = getEnvDuration("EVENTDASH_OPENSEARCH_TIMEOUT", sc.RequestTimeout)
	sc.Index = getEnv("EVENTDASH_OPENSEARCH_INDEX", sc.Index)
	sc.Retry.MaxAttempts = getEnvInt("EVENTDASH_RETRY_MAX_ATTEMPTS", sc.Retry.MaxAttempts)
	sc.Retry.InitialDelay = getEnvDuration("EVENTDASH_RETRY_INITIAL_DELAY", sc.Retry.InitialDelay)
	sc.Retry.MaxDelay = getEnvDuration("EVENTDASH_RETRY_MAX_DELAY", sc.Retry.MaxDelay)
	sc.Retry.BackoffMultiplier = getEnvFloat("EVENTDASH_RETRY_BACKOFF_MULTIPLIER", sc.Retry.BackoffMultiplier)

	c.Gauges.Concurrency = getEnvInt("EVENTDASH_GAUGE_CONCURRENCY", c.Gauges.Concurrency)

	// The identity provider variables keep their historical names
	c.Identity.URL = getEnv("DESCOPE_API_URL", c.Identity.URL)
	c.Identity.Token = getEnv("DESCOPE_BEARER_TOKEN", c.Identity.Token)
	c.Identity.Timeout = getEnvDuration("EVENTDASH_IDENTITY_TIMEOUT", c.Identity.Timeout)

	c.Sheets.SpreadsheetID = getEnv("GOOGLE_SHEET_ID", c.Sheets.SpreadsheetID)
	c.Sheets.Range = getEnv("EVENTDASH_SHEET_RANGE", c.Sheets.Range)
	c.Sheets.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.Sheets.CredentialsFile)

	sn := &c.Snapshot
	sn.Enabled = getEnvBool("EVENTDASH_SNAPSHOT_ENABLED", sn.Enabled)
	sn.Schedule = getEnv("EVENTDASH_SNAPSHOT_SCHEDULE", sn.Schedule)
	sn.Redis.URL = getEnv("EVENTDASH_REDIS_URL", sn.Redis.URL)
	sn.Redis.Password = getEnv("EVENTDASH_REDIS_PASSWORD", sn.Redis.Password)
	sn.Redis.DB = getEnvInt("EVENTDASH_REDIS_DB", sn.Redis.DB)
	sn.Redis.PoolSize = getEnvInt("EVENTDASH_REDIS_POOL_SIZE", sn.Redis.PoolSize)
	sn.Redis.MaxRetries = getEnvInt("EVENTDASH_REDIS_MAX_RETRIES", sn.Redis.MaxRetries)
	sn.Redis.KeyPrefix = getEnv("EVENTDASH_SNAPSHOT_KEY_PREFIX", sn.Redis.KeyPrefix)
	sn.Redis.TTL = getEnvDuration("EVENTDASH_SNAPSHOT_TTL", sn.Redis.TTL)
	sn.Redis.MaxHistory = getEnvInt("EVENTDASH_SNAPSHOT_MAX_HISTORY", sn.Redis.MaxHistory)

	rl := &c.RateLimit
	rl.Enabled = getEnvBool("EVENTDASH_RATE_LIMIT_ENABLED", rl.Enabled)
	rl.RequestsPerWindow = getEnvInt("EVENTDASH_RATE_LIMIT_REQUESTS", rl.RequestsPerWindow)
	rl.WindowDuration = getEnvDuration("EVENTDASH_RATE_LIMIT_WINDOW", rl.WindowDuration)
	rl.TrustedProxies = getEnvList("EVENTDASH_RATE_LIMIT_TRUSTED_PROXIES", rl.TrustedProxies)

	o := &c.Observability
	o.LogLevel = getEnv("EVENTDASH_LOG_LEVEL", o.LogLevel)
	o.LogFormat = getEnv("EVENTDASH_LOG_FORMAT", o.LogFormat)
	o.MetricsEnabled = getEnvBool("EVENTDASH_METRICS_ENABLED", o.MetricsEnabled)
	o.OTel.Enabled = getEnvBool("EVENTDASH_OTEL_ENABLED", o.OTel.Enabled)
	o.OTel.Endpoint = getEnv("EVENTDASH_OTEL_ENDPOINT", o.OTel.Endpoint)
	o.OTel.ServiceName = getEnv("EVENTDASH_OTEL_SERVICE_NAME", o.OTel.ServiceName)
	o.OTel.ServiceVersion = getEnv("EVENTDASH_OTEL_SERVICE_VERSION", o.OTel.ServiceVersion)
	o.OTel.Insecure = getEnvBool("EVENTDASH_OTEL_INSECURE", o.OTel.Insecure)
	o.OTel.SampleRatio = getEnvFloat("EVENTDASH_OTEL_SAMPLE_RATIO", o.OTel.SampleRatio)
	o.OTel.MetricInterval = getEnvDuration("EVENTDASH_OTEL_METRIC_INTERVAL", o.OTel.MetricInterval)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Server.HealthPort == "" {
		return errors.New("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return errors.New("server port and health port must be different")
	}

	if len(c.Search.Addresses) == 0 {
		return errors.New("at least one OpenSearch address is required")
	}
	if c.Search.Index == "" {
		return errors.New("search index is required")
	}
	if c.Search.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Search.Retry.MaxAttempts)
	}

	if c.Snapshot.Enabled && c.Snapshot.Redis.URL == "" {
		return errors.New("redis URL is required when snapshots are enabled")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerWindow < 1 {
		return errors.New("rate limit requests per window must be at least 1")
	}
	if _, err := middleware.ParseTrustedProxies(c.RateLimit.TrustedProxies); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	if c.Observability.OTel.Enabled {
		if c.Observability.OTel.Endpoint == "" {
			return errors.New("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTel.ServiceName == "" {
			return errors.New("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
