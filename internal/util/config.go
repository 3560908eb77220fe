// Package util provides common utilities for leadfindr.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	APIBaseURL string `mapstructure:"api_base_url"`
	DataDir    string `mapstructure:"data_dir"`
	LogLevel   string `mapstructure:"log_level"`
	LogFile    string `mapstructure:"log_file"`

	// Request handling
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PageSize       int           `mapstructure:"page_size"`

	// Scan progress polling. PollBase is the product's base time unit;
	// the poller ticks at 2x base and pauses 1.5x base after completion.
	PollBase time.Duration `mapstructure:"poll_base"`

	// Reverse geocoding
	GeocodeEndpoint string        `mapstructure:"geocode_endpoint"`
	GeocodeCacheTTL time.Duration `mapstructure:"geocode_cache_ttl"`
	GeocodeCacheMax int           `mapstructure:"geocode_cache_max"`
	GeocodeRPS      float64       `mapstructure:"geocode_rps"`

	// Export
	ExportDir string `mapstructure:"export_dir"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".leadfindr")

	return &Config{
		APIBaseURL: "http://localhost:8000",
		DataDir:    dataDir,
		LogLevel:   "info",
		LogFile:    filepath.Join(dataDir, "leadfindr.log"),

		RequestTimeout: 30 * time.Second,
		PageSize:       20,

		PollBase: time.Second,

		GeocodeEndpoint: "https://nominatim.openstreetmap.org/reverse",
		GeocodeCacheTTL: 24 * time.Hour,
		GeocodeCacheMax: 512,
		GeocodeRPS:      1,

		ExportDir: filepath.Join(dataDir, "exports"),
	}
}

// LoadConfig loads configuration from file and environment. An explicit
// path overrides the search locations and must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure config directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	if path != "" {
		if !FileExists(path) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(cfg.DataDir)
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("leadfindr")
	viper.AutomaticEnv()

	// Set defaults in viper
	viper.SetDefault("api_base_url", cfg.APIBaseURL)
	viper.SetDefault("data_dir", cfg.DataDir)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("request_timeout", cfg.RequestTimeout)
	viper.SetDefault("page_size", cfg.PageSize)
	viper.SetDefault("poll_base", cfg.PollBase)
	viper.SetDefault("geocode_endpoint", cfg.GeocodeEndpoint)
	viper.SetDefault("geocode_cache_ttl", cfg.GeocodeCacheTTL)
	viper.SetDefault("geocode_cache_max", cfg.GeocodeCacheMax)
	viper.SetDefault("geocode_rps", cfg.GeocodeRPS)
	viper.SetDefault("export_dir", cfg.ExportDir)

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.PollBase <= 0 {
		cfg.PollBase = time.Second
	}

	return cfg, nil
}

// EnsureDir ensures a directory exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}
