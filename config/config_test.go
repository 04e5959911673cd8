package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, k := range []string{"FLOWBOARD_ADDR", "DATABASE_URL", "FLOWBOARD_STORAGE", "REDIS_ADDR", "FLOWBOARD_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":8080"
metrics = false

[storage]
driver = "sqlite"
sqlite_path = "/var/lib/flowboard/data.db"

[redis]
addr = "localhost:6379"

[log]
level = "debug"
format = "json"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.Metrics)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/flowboard/data.db", cfg.Storage.SQLitePath)
	assert.True(t, cfg.Storage.AutoSchema, "unset keys keep their defaults")
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "flowboard:diagram:", cfg.Redis.Prefix)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadBadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddr ="), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "config: parse")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLOWBOARD_ADDR", ":9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/flowboard")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("FLOWBOARD_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver, "DATABASE_URL switches the memory default to postgres")
	assert.Equal(t, "postgres://localhost/flowboard", cfg.Storage.DatabaseURL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv("FLOWBOARD_STORAGE", "sqlite")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"postgres without url", func(c *Config) { c.Storage.Driver = "postgres" }, "database_url"},
		{"sqlite without path", func(c *Config) { c.Storage.Driver = "sqlite"; c.Storage.SQLitePath = "" }, "sqlite_path"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, `unknown storage driver "mongo"`},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, `unknown log format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Server.Addr = ":4000"
	cfg.Redis.DB = 2
	require.NoError(t, Save(cfg, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestConfigDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "flowboard"), ConfigDir())
	assert.Equal(t, filepath.Join("/tmp/xdg", "flowboard", "config.toml"), DefaultPath())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "diagram", "d1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), out)
	assert.Contains(t, out, `"diagram":"d1"`)

	buf.Reset()
	LogConfig{Level: "DEBUG", Format: "text"}.NewLogger(&buf).Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}
