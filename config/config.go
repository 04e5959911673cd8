// Package config loads flowboard settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds flowboard configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Redis   RedisConfig   `toml:"redis"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	Metrics bool   `toml:"metrics"`
}

// StorageConfig selects where diagrams are saved.
type StorageConfig struct {
	Driver      string `toml:"driver"` // "memory", "postgres", "sqlite"
	DatabaseURL string `toml:"database_url"`
	SQLitePath  string `toml:"sqlite_path"`
	AutoSchema  bool   `toml:"auto_schema"`
}

// RedisConfig controls the change feed. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text", "json"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":3000", Metrics: true},
		Storage: StorageConfig{Driver: "memory", SQLitePath: "flowboard.db", AutoSchema: true},
		Redis:   RedisConfig{Prefix: "flowboard:diagram:"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// ConfigDir returns the flowboard config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flowboard")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads path (DefaultPath when empty) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FLOWBOARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
		if c.Storage.Driver == "memory" {
			c.Storage.Driver = "postgres"
		}
	}
	if v := os.Getenv("FLOWBOARD_STORAGE"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("FLOWBOARD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return errors.New("config: storage.database_url (or DATABASE_URL) is required for postgres")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("config: storage.sqlite_path is required for sqlite")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Save writes the config to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
