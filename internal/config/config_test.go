package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"TODO_CONFIG", "TELEGRAM_TOKEN", "STORAGE_DRIVER", "DATABASE_URL", "MYSQL_DSN",
	"STORAGE_FILE", "REPORT_INTERVAL_HOURS", "REPORT_AT", "LOG_LEVEL", "LOG_FORMAT", "TODO_ORIGIN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, DefaultDatabaseURL, cfg.Storage.DatabaseURL)
	assert.Equal(t, DefaultStorageFile, cfg.Storage.File)
	assert.Equal(t, DefaultReportInterval, cfg.ReportInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, DefaultOrigin, cfg.Origin)
	assert.ErrorIs(t, cfg.ValidateBot(), ErrMissingToken)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "todo.toml")
	content := `
telegram_token = "file-token"
report_interval_hours = 2
report_at = "08:30"
origin = "laptop"

[storage]
driver = "FILE"
file = "/tmp/state.json"

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("LOG_FORMAT", "logfmt")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.TelegramToken)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/state.json", cfg.Storage.File)
	assert.Equal(t, 2*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "logfmt", cfg.Log.Format)
	assert.Equal(t, "laptop", cfg.Origin)
	assert.Equal(t, "08:30", cfg.ReportAt)
	assert.NoError(t, cfg.ValidateBot())
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "todo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`origin = "from-env-path"`), 0o644))
	t.Setenv("TODO_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env-path", cfg.Origin)
}

func TestLoadReportIntervalEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "todo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`report_interval_hours = 2`), 0o644))
	t.Setenv("REPORT_INTERVAL_HOURS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour, cfg.ReportInterval)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "redis")
	_, err := Load("")
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestLoadMySQLNeedsDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "mysql")
	_, err := Load("")
	assert.ErrorContains(t, err, "MYSQL_DSN")

	t.Setenv("MYSQL_DSN", "user:pass@tcp(127.0.0.1:3306)/todo")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.Storage.Driver)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseInterval(""))
	assert.Equal(t, time.Duration(0), parseInterval("-3"))
	assert.Equal(t, time.Duration(0), parseInterval("abc"))
	assert.Equal(t, 4*time.Hour, parseInterval("4"))
}
