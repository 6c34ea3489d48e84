// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting for the server. All values come from
// HOUSETAB_* environment variables with sensible development defaults.
type Config struct {
	// HTTP server
	Port            int           `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"./data/housetab.db"`

	// Sessions
	TokenSecret   string        `envconfig:"TOKEN_SECRET" required:"true"`
	TokenDuration time.Duration `envconfig:"TOKEN_DURATION" default:"336h"`

	// Receipt extraction
	VisionModel   string `envconfig:"VISION_MODEL" default:"gemini-2.0-flash"`
	MaxImageBytes int64  `envconfig:"MAX_IMAGE_BYTES" default:"4194304"`
	AnalyzeBurst  int    `envconfig:"ANALYZE_BURST" default:"3"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from HOUSETAB_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("housetab", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that envconfig tags cannot express.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if len(c.TokenSecret) < 16 {
		return fmt.Errorf("token secret too short: need at least 16 bytes")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("max image bytes must be positive, got %d", c.MaxImageBytes)
	}
	if c.AnalyzeBurst < 1 {
		return fmt.Errorf("analyze burst must be at least 1, got %d", c.AnalyzeBurst)
	}
	return nil
}
