package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Poster    PosterConfig    `mapstructure:"poster"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// AssetsConfig points at the on-disk resources the service reads and writes.
type AssetsConfig struct {
	ThemesDir string `mapstructure:"themes_dir"`
	FontsDir  string `mapstructure:"fonts_dir"`
	OutputDir string `mapstructure:"output_dir"`
}

// PosterConfig bounds the accepted generation parameters.
type PosterConfig struct {
	DPI             int    `mapstructure:"dpi"`
	MinDistance     int    `mapstructure:"min_distance"`
	MaxDistance     int    `mapstructure:"max_distance"`
	DefaultDistance int    `mapstructure:"default_distance"`
	DefaultTheme    string `mapstructure:"default_theme"`
}

// JobsConfig tunes the in-process job orchestration.
type JobsConfig struct {
	Workers           int `mapstructure:"workers"`
	QueueSize         int `mapstructure:"queue_size"`
	GenerationTimeout int `mapstructure:"generation_timeout"` // seconds
	RerenderTimeout   int `mapstructure:"rerender_timeout"`   // seconds
	RetentionTTL      int `mapstructure:"retention_ttl"`      // seconds
	JanitorInterval   int `mapstructure:"janitor_interval"`   // seconds
	FeatureCacheTTL   int `mapstructure:"feature_cache_ttl"`  // seconds
	FeatureCacheSize  int `mapstructure:"feature_cache_size"`
}

// UpstreamConfig covers the public OSM APIs.
type UpstreamConfig struct {
	NominatimTimeout int     `mapstructure:"nominatim_timeout"` // seconds
	OverpassTimeout  int     `mapstructure:"overpass_timeout"`  // seconds
	RateLimitDelay   float64 `mapstructure:"rate_limit_delay"`  // seconds between requests
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GenerationTimeoutDuration returns the full pipeline timeout.
func (j JobsConfig) GenerationTimeoutDuration() time.Duration {
	return time.Duration(j.GenerationTimeout) * time.Second
}

// RerenderTimeoutDuration returns the render-only timeout.
func (j JobsConfig) RerenderTimeoutDuration() time.Duration {
	return time.Duration(j.RerenderTimeout) * time.Second
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("assets.themes_dir", "./themes")
	v.SetDefault("assets.fonts_dir", "./fonts")
	v.SetDefault("assets.output_dir", "./posters")
	v.SetDefault("poster.dpi", 300)
	v.SetDefault("poster.min_distance", 2000)
	v.SetDefault("poster.max_distance", 50000)
	v.SetDefault("poster.default_distance", 15000)
	v.SetDefault("poster.default_theme", "feature_based")
	v.SetDefault("jobs.workers", 2)
	v.SetDefault("jobs.queue_size", 32)
	v.SetDefault("jobs.generation_timeout", 300)
	v.SetDefault("jobs.rerender_timeout", 60)
	v.SetDefault("jobs.retention_ttl", 3600)
	v.SetDefault("jobs.janitor_interval", 300)
	v.SetDefault("jobs.feature_cache_ttl", 3600)
	v.SetDefault("jobs.feature_cache_size", 32)
	v.SetDefault("upstream.nominatim_timeout", 10)
	v.SetDefault("upstream.overpass_timeout", 90)
	v.SetDefault("upstream.rate_limit_delay", 1.0)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: POSTERFORGE_JOBS_WORKERS → jobs.workers
	v.SetEnvPrefix("POSTERFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Assets.ThemesDir == "" {
		errs = append(errs, "assets.themes_dir is required")
	}
	if c.Assets.OutputDir == "" {
		errs = append(errs, "assets.output_dir is required")
	}
	if c.Poster.DPI < 72 || c.Poster.DPI > 600 {
		errs = append(errs, fmt.Sprintf("poster.dpi must be 72-600, got %d", c.Poster.DPI))
	}
	if c.Poster.MinDistance <= 0 {
		errs = append(errs, "poster.min_distance must be positive")
	}
	if c.Poster.MaxDistance <= c.Poster.MinDistance {
		errs = append(errs, "poster.max_distance must exceed poster.min_distance")
	}
	if c.Poster.DefaultDistance < c.Poster.MinDistance || c.Poster.DefaultDistance > c.Poster.MaxDistance {
		errs = append(errs, "poster.default_distance must lie within the distance bounds")
	}
	if c.Poster.DefaultTheme == "" {
		errs = append(errs, "poster.default_theme is required")
	}
	if c.Jobs.Workers <= 0 {
		errs = append(errs, "jobs.workers must be positive")
	}
	if c.Jobs.QueueSize <= 0 {
		errs = append(errs, "jobs.queue_size must be positive")
	}
	if c.Jobs.GenerationTimeout <= 0 {
		errs = append(errs, "jobs.generation_timeout must be positive")
	}
	if c.Jobs.RerenderTimeout <= 0 {
		errs = append(errs, "jobs.rerender_timeout must be positive")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
