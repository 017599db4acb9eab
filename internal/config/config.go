package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36 115Browser/27.0.2.1"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	SiteOrigin            string        `mapstructure:"site_origin"`
	ListingPath           string        `mapstructure:"listing_path"`
	UserAgent             string        `mapstructure:"user_agent"`
	PageCount             int           `mapstructure:"page_count"`
	PageDelayMs           int64         `mapstructure:"page_delay_ms"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	PageDelay             time.Duration `mapstructure:"-"`
	RequestTimeout        time.Duration `mapstructure:"-"`

	DefaultWorkers int   `mapstructure:"default_workers"`
	WorkerCounts   []int `mapstructure:"worker_counts"`
	SweepEnabled   bool  `mapstructure:"sweep_enabled"`

	OutputFile     string `mapstructure:"output_file"`
	PublishersFile string `mapstructure:"publishers_file"`
	MetricsFile    string `mapstructure:"metrics_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "noticias-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("site_origin", "https://www.argentina.gob.ar")
	v.SetDefault("listing_path", "/noticias")
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("page_count", 1)
	v.SetDefault("page_delay_ms", 2000)
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("default_workers", 0) // 0 picks the pool's own default
	v.SetDefault("worker_counts", []int{1, 2, 4, 8})
	v.SetDefault("sweep_enabled", true)
	v.SetDefault("output_file", "recopilacion_noticias.csv")
	v.SetDefault("publishers_file", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/runs.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
}

// normalize trims string settings, validates ranges and derives durations.
func (c *Config) normalize() error {
	c.SiteOrigin = strings.TrimRight(strings.TrimSpace(c.SiteOrigin), "/")
	c.ListingPath = strings.TrimSpace(c.ListingPath)
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	c.OutputFile = strings.TrimSpace(c.OutputFile)
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)
	c.MetricsFile = strings.TrimSpace(c.MetricsFile)

	if c.SiteOrigin == "" {
		return fmt.Errorf("site_origin is required")
	}
	if c.PageCount < 0 {
		return fmt.Errorf("invalid page_count (must be >= 0)")
	}
	if c.PageDelayMs < 0 {
		return fmt.Errorf("invalid page_delay_ms (must be >= 0)")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	if c.DefaultWorkers < 0 {
		return fmt.Errorf("invalid default_workers (must be >= 0)")
	}
	if c.SweepEnabled && len(c.WorkerCounts) == 0 {
		return fmt.Errorf("worker_counts must not be empty when sweep_enabled is set")
	}
	for _, n := range c.WorkerCounts {
		if n <= 0 {
			return fmt.Errorf("invalid worker_counts entry %d (must be positive)", n)
		}
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output_file is required")
	}
	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}

	c.PageDelay = time.Duration(c.PageDelayMs) * time.Millisecond
	c.RequestTimeout = time.Duration(c.RequestTimeoutSeconds) * time.Second
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second
	return nil
}
