// Package config provides configuration loading from environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds all configuration for the MCP server.
type Config struct {
	RocketChat RocketChatConfig
	Server     ServerConfig
	Log        LogConfig
}

// RocketChatConfig holds the REST API endpoint and the identity the server
// acts as.
type RocketChatConfig struct {
	BaseURL           string `env:"ROCKETCHAT_URL" envDefault:"http://localhost:3000/api/v1"`
	User              string `env:"ROCKETCHAT_USER"`
	Password          string `env:"ROCKETCHAT_PASSWORD"`
	AuthToken         string `env:"ROCKETCHAT_AUTH_TOKEN"`
	UserID            string `env:"ROCKETCHAT_USER_ID"`
	HTTPClientTimeout int    `env:"HTTP_CLIENT_TIMEOUT_MS" envDefault:"10000"`
}

// Timeout returns the HTTP client timeout.
func (c *RocketChatConfig) Timeout() time.Duration {
	return time.Duration(c.HTTPClientTimeout) * time.Millisecond
}

// HasPassword reports whether password login is configured.
func (c *RocketChatConfig) HasPassword() bool {
	return c.User != "" && c.Password != ""
}

// HasToken reports whether a personal access token is configured.
func (c *RocketChatConfig) HasToken() bool {
	return c.AuthToken != "" && c.UserID != ""
}

// ServerConfig holds MCP tool behavior configuration.
type ServerConfig struct {
	FetchWorkers       int `env:"FETCH_WORKERS" envDefault:"8"`
	GroupCacheMaxItems int `env:"GROUP_CACHE_MAX_ITEMS" envDefault:"256"`
	DefaultQueryLimit  int `env:"DEFAULT_QUERY_LIMIT" envDefault:"50"`
	MaxQueryLimit      int `env:"MAX_QUERY_LIMIT" envDefault:"1000"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.RocketChat); err != nil {
		return nil, fmt.Errorf("parsing rocketchat config: %w", err)
	}
	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RocketChat.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ROCKETCHAT_URL must be an absolute URL, got %q", c.RocketChat.BaseURL)
	}
	if (c.RocketChat.User == "") != (c.RocketChat.Password == "") {
		return fmt.Errorf("ROCKETCHAT_USER and ROCKETCHAT_PASSWORD must be set together")
	}
	if (c.RocketChat.AuthToken == "") != (c.RocketChat.UserID == "") {
		return fmt.Errorf("ROCKETCHAT_AUTH_TOKEN and ROCKETCHAT_USER_ID must be set together")
	}
	if c.Server.FetchWorkers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be at least 1")
	}
	if c.Server.GroupCacheMaxItems < 1 {
		return fmt.Errorf("GROUP_CACHE_MAX_ITEMS must be at least 1")
	}
	if c.Server.DefaultQueryLimit < 1 {
		return fmt.Errorf("DEFAULT_QUERY_LIMIT must be at least 1")
	}
	if c.Server.MaxQueryLimit > 0 && c.Server.DefaultQueryLimit > c.Server.MaxQueryLimit {
		return fmt.Errorf("DEFAULT_QUERY_LIMIT must not exceed MAX_QUERY_LIMIT")
	}
	return nil
}

// QueryLimit clamps a requested result limit to the configured bounds.
// Zero or negative requests get the default.
func (c *ServerConfig) QueryLimit(requested int) int {
	if requested <= 0 {
		return c.DefaultQueryLimit
	}
	if c.MaxQueryLimit > 0 && requested > c.MaxQueryLimit {
		return c.MaxQueryLimit
	}
	return requested
}
