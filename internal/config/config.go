// Package config loads engram configuration from ~/.engram/config.toml.
// Every knob has a default; a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/lazypower/engram/internal/store"
)

// Config holds all engram configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Memory   MemoryConfig   `toml:"memory"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type MemoryConfig struct {
	// MaxContentLength bounds memory content, in bytes.
	MaxContentLength int `toml:"max_content_length"`
	// PromoteThreshold is the tap count at which a memory reaches
	// generation 2.
	PromoteThreshold int `toml:"promote_threshold"`
	// GracePeriodDays protects young memories from garbage collection.
	GracePeriodDays int `toml:"grace_period_days"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	opts := store.DefaultOptions()
	return Config{
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via ResolveDBPath
		},
		Memory: MemoryConfig{
			MaxContentLength: opts.MaxContentLength,
			PromoteThreshold: opts.PromoteThreshold,
			GracePeriodDays:  opts.GracePeriodDays,
		},
	}
}

// DefaultPath returns ~/.engram/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".engram", "config.toml")
}

// Load reads the TOML file at path over the defaults. A missing file yields
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Memory.MaxContentLength <= 0 {
		return fmt.Errorf("max_content_length must be positive, got %d", c.Memory.MaxContentLength)
	}
	if c.Memory.PromoteThreshold < 1 {
		return fmt.Errorf("promote_threshold must be at least 1, got %d", c.Memory.PromoteThreshold)
	}
	if c.Memory.GracePeriodDays < 0 {
		return fmt.Errorf("grace_period_days must not be negative, got %d", c.Memory.GracePeriodDays)
	}
	return nil
}

// StoreOptions converts the memory section into store options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		MaxContentLength: c.Memory.MaxContentLength,
		PromoteThreshold: c.Memory.PromoteThreshold,
		GracePeriodDays:  c.Memory.GracePeriodDays,
	}
}

// ResolveDBPath picks the database path: an explicit value (e.g. a --db
// flag) wins, then ENGRAM_DB_PATH, then the config file, then the default
// under ~/.engram.
func (c *Config) ResolveDBPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("ENGRAM_DB_PATH"); env != "" {
		return env
	}
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return store.DefaultDBPath()
}
