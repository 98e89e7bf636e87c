package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds defaults read from the environment. Command-line flags take
// precedence over these values.
type Config struct {
	LogLevel string `env:"STATECTL_LOG_LEVEL" envDefault:"info"`
	Format   string `env:"STATECTL_FORMAT" envDefault:"text"`
	Color    bool   `env:"STATECTL_COLOR" envDefault:"false"`
}

// LoadConfig parses Config from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Level maps LogLevel onto a slog level. Unknown values fall back to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
