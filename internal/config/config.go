package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/runguard/runguard/internal/domain"
)

// Config represents the complete configuration for runguard
type Config struct {
	// Interpreters are the process name prefixes treated as script
	// interpreters (case-insensitive prefix match)
	Interpreters []string `mapstructure:"interpreters"`

	// Wait configures the polling behavior of `runguard wait`
	Wait WaitConfig `mapstructure:"wait"`

	// History configures the on-disk record of past checks
	History HistoryConfig `mapstructure:"history"`

	// Logging configures log output
	Logging LoggingConfig `mapstructure:"logging"`
}

// WaitConfig controls how often the wait command re-scans
type WaitConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// HistoryConfig controls check-history persistence
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// LoggingConfig controls log level, format and file output
type LoggingConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   FileLogConfig `mapstructure:"file"`
}

// FileLogConfig controls rotating file output
type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in zero-valued fields
func (c *Config) applyDefaults() {
	if len(c.Interpreters) == 0 {
		c.Interpreters = []string{"python"}
	}
	if c.Wait.Interval == 0 {
		c.Wait.Interval = 2 * time.Second
	}
	if c.History.Enabled && c.History.Dir == "" {
		c.History.Dir = DefaultDataDir()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	for _, name := range c.Interpreters {
		if name == "" {
			return fmt.Errorf("%w: interpreter name cannot be empty", domain.ErrConfigInvalid)
		}
	}

	if c.Wait.Interval <= 0 {
		return fmt.Errorf("%w: wait interval must be positive, got %v", domain.ErrConfigInvalid, c.Wait.Interval)
	}

	if c.History.Enabled && c.History.Dir == "" {
		return fmt.Errorf("%w: history enabled but no directory set", domain.ErrConfigInvalid)
	}

	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		return fmt.Errorf("%w: file logging enabled but no path set", domain.ErrConfigInvalid)
	}

	return nil
}

// DefaultDataDir returns the default directory for runguard data files
func DefaultDataDir() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "runguard")
	}
	return ".runguard"
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	// Expand ~ to home directory
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	// Expand environment variables
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
