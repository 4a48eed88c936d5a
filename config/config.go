package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the backend host used when no override is configured.
const DefaultBaseURL = "https://consultlaw-backend.onrender.com/api"

// Config holds all client configuration
type Config struct {
	API           APIConfig
	Credentials   CredentialsConfig
	Cache         CacheConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	AppEnv        string
}

type APIConfig struct {
	// BaseURL is the backend API root. CONSULTLAW_API_BASE_URL overrides the
	// hardcoded default host.
	BaseURL        string
	TimeoutSeconds int
	RateLimitRPS   float64
	RateLimitBurst int
}

type CredentialsConfig struct {
	// Path overrides the credential file location. Empty means the platform
	// user config dir.
	Path string
}

type CacheConfig struct {
	DirectoryTTLSeconds    int
	DisableDirectoryCache  bool
	RefreshIntervalSeconds int
	ReconcileAfterCancel   bool
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("APP_ENV", "production")
	v.SetDefault("CONSULTLAW_API_BASE_URL", DefaultBaseURL)
	v.SetDefault("CONSULTLAW_API_TIMEOUT_SECONDS", 30)
	v.SetDefault("CONSULTLAW_API_RATE_LIMIT_RPS", 10.0)
	v.SetDefault("CONSULTLAW_API_RATE_LIMIT_BURST", 20)

	// Logging defaults
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")

	// Cache defaults
	v.SetDefault("DIRECTORY_CACHE_TTL", 300)
	v.SetDefault("DISABLE_DIRECTORY_CACHE", false)
	v.SetDefault("DIRECTORY_REFRESH_INTERVAL", 0)
	v.SetDefault("RECONCILE_AFTER_CANCEL", false)

	// Observability defaults
	v.SetDefault("O11Y_SERVICE_NAME", "consultlaw-client")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		API: APIConfig{
			BaseURL:        strings.TrimRight(v.GetString("CONSULTLAW_API_BASE_URL"), "/"),
			TimeoutSeconds: v.GetInt("CONSULTLAW_API_TIMEOUT_SECONDS"),
			RateLimitRPS:   v.GetFloat64("CONSULTLAW_API_RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("CONSULTLAW_API_RATE_LIMIT_BURST"),
		},
		Credentials: CredentialsConfig{
			Path: v.GetString("CONSULTLAW_CREDENTIALS_FILE"),
		},
		Cache: CacheConfig{
			DirectoryTTLSeconds:    v.GetInt("DIRECTORY_CACHE_TTL"),
			DisableDirectoryCache:  v.GetBool("DISABLE_DIRECTORY_CACHE"),
			RefreshIntervalSeconds: v.GetInt("DIRECTORY_REFRESH_INTERVAL"),
			ReconcileAfterCancel:   v.GetBool("RECONCILE_AFTER_CANCEL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		AppEnv: v.GetString("APP_ENV"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("CONSULTLAW_API_BASE_URL is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("CONSULTLAW_API_BASE_URL must be an absolute http(s) URL")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("CONSULTLAW_API_TIMEOUT_SECONDS must be positive")
	}
	if c.API.RateLimitRPS <= 0 {
		return fmt.Errorf("CONSULTLAW_API_RATE_LIMIT_RPS must be positive")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
