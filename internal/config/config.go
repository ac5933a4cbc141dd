package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverFile   = "file"
	DriverMemory = "memory"
)

const (
	DefaultDatabaseURL    = "todo_planner.db"
	DefaultStorageFile    = ".todo/state.json"
	DefaultReportInterval = 5 * time.Hour
	DefaultOrigin         = "cli"
)

// ErrMissingToken is returned by ValidateBot when no Telegram token is configured.
var ErrMissingToken = errors.New("TELEGRAM_TOKEN is required")

// Config keeps runtime settings.
type Config struct {
	TelegramToken  string        `toml:"telegram_token"`
	Storage        StorageConfig `toml:"storage"`
	ReportInterval time.Duration `toml:"-"`
	ReportHours    int           `toml:"report_interval_hours"`
	ReportAt       string        `toml:"report_at"`
	Log            LogConfig     `toml:"log"`
	Origin         string        `toml:"origin"`
}

// StorageConfig selects where todo state is persisted.
type StorageConfig struct {
	Driver      string `toml:"driver"`
	DatabaseURL string `toml:"database_url"`
	MySQLDSN    string `toml:"mysql_dsn"`
	File        string `toml:"file"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Load reads configuration: defaults, then the TOML file at path (or
// $TODO_CONFIG) when present, then environment variables.
func Load(path string) (Config, error) {
	cfg := Config{}

	if path == "" {
		path = strings.TrimSpace(os.Getenv("TODO_CONFIG"))
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	loadFromEnv(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Storage.MySQLDSN, "MYSQL_DSN")
	setString(&cfg.Storage.File, "STORAGE_FILE")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Origin, "TODO_ORIGIN")
	setString(&cfg.ReportAt, "REPORT_AT")

	if d := parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))); d > 0 {
		cfg.ReportInterval = d
	}
}

func setDefaults(cfg *Config) {
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.DatabaseURL == "" {
		cfg.Storage.DatabaseURL = DefaultDatabaseURL
	}
	if cfg.Storage.File == "" {
		cfg.Storage.File = DefaultStorageFile
	}
	if cfg.ReportInterval == 0 && cfg.ReportHours > 0 {
		cfg.ReportInterval = time.Duration(cfg.ReportHours) * time.Hour
	}
	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = DefaultReportInterval
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Origin == "" {
		cfg.Origin = DefaultOrigin
	}
}

// Validate checks settings every command needs.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverFile, DriverMemory:
	case DriverMySQL:
		if c.Storage.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required for storage driver %q", DriverMySQL)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// ValidateBot checks settings the Telegram bot needs.
func (c Config) ValidateBot() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	return nil
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
