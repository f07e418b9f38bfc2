// Package config loads application configuration with viper: defaults,
// optional config file, and CAPSIM_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Sim     SimConfig     `mapstructure:"sim"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SimConfig tunes the simulation loop.
type SimConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Speed        float64       `mapstructure:"speed"`
	Autosave     time.Duration `mapstructure:"autosave"`
	ContentPath  string        `mapstructure:"content_path"` // empty = built-in tables
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	AdminKey string `mapstructure:"admin_key"`
}

// StorageConfig configures the save database.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from an optional file path plus environment
// overrides (CAPSIM_SIM_SPEED, CAPSIM_STORAGE_DB_PATH, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("sim.tick_interval", 100*time.Millisecond)
	v.SetDefault("sim.speed", 1.0)
	v.SetDefault("sim.autosave", time.Minute)
	v.SetDefault("sim.content_path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.admin_key", "")
	v.SetDefault("storage.db_path", "data/capsim.db")
	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("capsim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Sim.TickInterval <= 0 {
		return nil, fmt.Errorf("sim.tick_interval must be positive")
	}
	if cfg.Sim.Speed < 0 {
		return nil, fmt.Errorf("sim.speed must be non-negative")
	}
	return &cfg, nil
}
