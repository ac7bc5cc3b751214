// Package config loads server settings from flags, environment variables
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// ErrHelp is returned when --help was requested and usage has been printed.
var ErrHelp = errors.New("help requested")

const (
	// DefaultPageSize fills a three by three grid.
	DefaultPageSize = 9
	// MaxPageSize bounds --page-size.
	MaxPageSize = 50
	// MaxLinkTimeout bounds --link-timeout.
	MaxLinkTimeout = 60 * time.Second
)

type Config struct {
	HTTPAddr    string        `long:"http" env:"TOOLKIT_HTTP_ADDR" description:"Serve streamable HTTP on this address (e.g. :8080) instead of stdio"`
	CatalogFile string        `long:"catalog-file" env:"TOOLKIT_CATALOG_FILE" description:"YAML catalog to load instead of the embedded one"`
	StorePath   string        `long:"store" env:"TOOLKIT_STORE" description:"Preference database path (default: <user config dir>/teacher-toolkit/prefs.db)"`
	Profile     string        `long:"profile" env:"TOOLKIT_PROFILE" default:"default" description:"Preference profile; favorites and theme are kept per profile"`
	PageSize    int           `long:"page-size" env:"TOOLKIT_PAGE_SIZE" default:"9" description:"Tools per page"`
	PrefersDark string        `long:"prefers-dark" env:"TOOLKIT_PREFERS_DARK" description:"Operating-system dark-mode signal (true/false); unset means unknown"`
	LinkTimeout time.Duration `long:"link-timeout" env:"TOOLKIT_LINK_TIMEOUT" default:"10s" description:"Default timeout for link health checks"`
	RateLimit   int           `long:"rate-limit" env:"TOOLKIT_RATE_LIMIT" default:"120" description:"HTTP requests per minute per client IP (0 disables)"`
	MaxBodySize int64         `long:"max-body-size" env:"TOOLKIT_MAX_BODY_SIZE" default:"1048576" description:"Maximum HTTP request body in bytes"`
	EnvFile     string        `long:"env-file" description:"Path to .env file for local development"`
	Debug       bool          `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses args (without the program name), loads the .env file and
// parses again so values from the file are picked up.
func Load(args []string) (*Config, error) {
	var cfg Config

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			slog.Warn("Failed to load .env file", "file", cfg.EnvFile, "error", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, fmt.Errorf("failed to parse config after loading env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("page-size must be between 1 and %d, got %d", MaxPageSize, c.PageSize)
	}
	if c.LinkTimeout <= 0 || c.LinkTimeout > MaxLinkTimeout {
		return fmt.Errorf("link-timeout must be in (0, %s], got %s", MaxLinkTimeout, c.LinkTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate-limit must not be negative, got %d", c.RateLimit)
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("max-body-size must be positive, got %d", c.MaxBodySize)
	}
	if _, err := c.DarkSignal(); err != nil {
		return err
	}
	return nil
}

// DarkSignal returns the OS dark-mode signal, or nil when it is unknown.
func (c *Config) DarkSignal() (*bool, error) {
	if c.PrefersDark == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(c.PrefersDark)
	if err != nil {
		return nil, fmt.Errorf("prefers-dark must be true or false, got %q", c.PrefersDark)
	}
	return &v, nil
}

// ResolveStorePath returns the configured store path or the per-user default.
func (c *Config) ResolveStorePath() (string, error) {
	if c.StorePath != "" {
		return c.StorePath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no store path configured and no user config dir: %w", err)
	}
	return filepath.Join(dir, "teacher-toolkit", "prefs.db"), nil
}

// LogLevel maps --debug to a slog level.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
