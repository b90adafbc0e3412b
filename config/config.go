// Package config holds the application configuration: server address, data
// directories, and market data credentials. Strategy parameters live in
// package strategy; this file is about the process, not the run.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Data    DataConfig    `json:"data" yaml:"data"`
	Alpaca  AlpacaConfig  `json:"alpaca" yaml:"alpaca"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server parameters
type ServerConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	StaticDir string `json:"static_dir,omitempty" yaml:"static_dir,omitempty"`
}

// DataConfig contains price data acquisition parameters
type DataConfig struct {
	Dir       string `json:"dir" yaml:"dir"`                                   // directory for CSV exports
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty"` // SQLite bar cache; empty disables it
}

// AlpacaConfig contains market data API credentials. The key and secret are
// normally supplied via environment, not the config file.
type AlpacaConfig struct {
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// LoggingConfig contains log output parameters
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"` // "debug", "info", "warn" or "error"
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load returns the default configuration with environment overrides applied.
// A .env file in the working directory is read if present.
func Load() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays credentials and overrides from the environment. Values
// set in the environment win over the file.
func (c *Config) applyEnv() {
	_ = godotenv.Load() // missing .env is fine

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		c.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		c.Alpaca.BaseURL = v
	}
	if v := os.Getenv("STRATLAB_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STRATLAB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8000",
			StaticDir: "./static",
		},
		Data: DataConfig{
			Dir:       "./data",
			CachePath: "./data/bars.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
