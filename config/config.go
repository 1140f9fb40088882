package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Tickers struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"tickers"`
	Debug bool `yaml:"debug"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("EXCHANGE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("EXCHANGE_BASE_URL"); v != "" {
		cfg.Tickers.BaseURL = v
	}
	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		cfg.Tickers.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("EXCHANGE_HTTP_TIMEOUT: %w", err)
		}
		cfg.Tickers.Timeout = d
	}
	if v := os.Getenv("EXCHANGE_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("EXCHANGE_DEBUG: %w", err)
		}
		cfg.Debug = debug
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Tickers.BaseURL == "" {
		cfg.Tickers.BaseURL = "https://api.dolarapp.dev/v1"
	}
	if cfg.Tickers.Timeout == 0 {
		cfg.Tickers.Timeout = 5 * time.Second
	}

	return cfg, nil
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Tickers.BaseURL == "" {
		return fmt.Errorf("tickers.base_url is required")
	}
	if c.Tickers.Timeout <= 0 {
		return fmt.Errorf("tickers.timeout must be positive")
	}
	return nil
}
