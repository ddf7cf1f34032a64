package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"taskboard/internal/model"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"

	// HTTPDisabled turns the web front end off when used as HTTP_ADDR.
	HTTPDisabled = "off"
)

// Config keeps runtime settings.
type Config struct {
	TelegramToken     string   `toml:"telegram_token"`
	HTTPAddr          string   `toml:"http_addr"`
	StorageDriver     string   `toml:"storage_driver"`
	DatabaseURL       string   `toml:"database_url"`
	RedisURL          string   `toml:"redis_url"`
	RedisNamespace    string   `toml:"redis_namespace"`
	StorageKey        string   `toml:"storage_key"`
	Categories        []string `toml:"categories"`
	BackupSchedule    string   `toml:"backup_schedule"`
	RestoreFromBackup bool     `toml:"restore_from_backup"`
	LogLevel          string   `toml:"log_level"`
}

// Load reads configuration from an optional TOML file named by CONFIG_FILE,
// then environment variables, then fills defaults.
func Load() (Config, error) {
	var cfg Config

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	overrideString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	overrideString(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideString(&cfg.StorageDriver, "STORAGE_DRIVER")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideString(&cfg.RedisNamespace, "REDIS_NAMESPACE")
	overrideString(&cfg.StorageKey, "STORAGE_KEY")
	overrideString(&cfg.BackupSchedule, "BACKUP_SCHEDULE")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	if raw := strings.TrimSpace(os.Getenv("CATEGORIES")); raw != "" {
		cfg.Categories = splitList(raw)
	}
	if raw := strings.TrimSpace(os.Getenv("RESTORE_FROM_BACKUP")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid RESTORE_FROM_BACKUP %q", raw)
		}
		cfg.RestoreFromBackup = v
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		cfg.LogLevel = "debug"
	}

	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.StorageDriver == "" {
		c.StorageDriver = DriverSQLite
	}
	c.StorageDriver = strings.ToLower(c.StorageDriver)
	if c.DatabaseURL == "" {
		c.DatabaseURL = "taskboard.db"
	}
	if c.StorageKey == "" {
		c.StorageKey = "tasks"
	}
	if c.RedisNamespace == "" {
		c.RedisNamespace = "taskboard"
	}
	if len(c.Categories) == 0 {
		c.Categories = append([]string(nil), model.DefaultCategories...)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if !c.HTTPEnabled() && !c.TelegramEnabled() {
		return fmt.Errorf("nothing to serve: set TELEGRAM_TOKEN or enable HTTP_ADDR")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

func (c Config) HTTPEnabled() bool {
	return c.HTTPAddr != "" && !strings.EqualFold(c.HTTPAddr, HTTPDisabled)
}

func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// BackupKey is the storage key snapshots are written to.
func (c Config) BackupKey() string {
	return c.StorageKey + ".backup"
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func overrideString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
