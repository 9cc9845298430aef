package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Host      HostConfig
	Routes    RoutesConfig
	Session   SessionConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8400"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// HostConfig selects the navigation host adapter.
type HostConfig struct {
	// Mode is "memory" for the in-process host or "ws" for a renderer
	// attached over WebSocket.
	Mode string `envconfig:"HOST_MODE" default:"memory"`

	// Latency simulates transition time on the memory host.
	LatencyMS int `envconfig:"HOST_LATENCY_MS" default:"0"`
}

// RoutesConfig locates the route manifest.
type RoutesConfig struct {
	Manifest string `envconfig:"ROUTES_MANIFEST" default:"routes.yaml"`
}

// SessionConfig holds session snapshot storage configuration.
type SessionConfig struct {
	Dir string `envconfig:"SESSION_DIR" default:"/tmp/screenflow/sessions"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8400", Host: "0.0.0.0"},
		Host:      HostConfig{Mode: "memory"},
		Routes:    RoutesConfig{Manifest: "routes.yaml"},
		Session:   SessionConfig{Dir: "/tmp/screenflow/sessions"},
		Logging:   LogConfig{Level: "info", Development: false},
		RateLimit: RateLimitConfig{RequestsPerSecond: 100, Burst: 200, Enabled: true},
	}
}
