// Package config loads process configuration from the environment, after
// merging any .env file found in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config is the full server configuration
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/sortinghat.db"`

	// CatalogPath overrides the embedded catalog when set
	CatalogPath string `env:"CATALOG_PATH"`

	WorkflowTimeout time.Duration `env:"WORKFLOW_TIMEOUT" envDefault:"60s"`
	SweepInterval   time.Duration `env:"WORKFLOW_SWEEP_INTERVAL" envDefault:"30s"`

	Discord DiscordConfig `envPrefix:"DISCORD_"`
	API     APIConfig     `envPrefix:"API_"`
}

// DiscordConfig configures the chat surface. The bot is disabled when Token
// is empty.
type DiscordConfig struct {
	Token    string `env:"BOT_TOKEN"`
	GuildID  string `env:"GUILD_ID"`
	GMRoleID string `env:"GM_ROLE_ID"`
	// HouseRoles maps house key to role id, e.g. "gryffindor:123,slytherin:456"
	HouseRoles map[string]string `env:"HOUSE_ROLES" envSeparator:"," envKeyValSeparator:":"`
}

// APIConfig configures the admin HTTP API
type APIConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`
	// AdminTokenHash is the bcrypt hash of the admin bearer token. Admin
	// routes reject every request when it is empty.
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`
}

// Load reads the given .env files (".env" when none are named) into the
// process environment, then parses and validates Config. Missing files are
// ignored.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return Parse()
}

// Parse builds Config from the process environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c Config) Validate() error {
	var errs []error
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH required when STORAGE_TYPE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or sqlite", c.StorageType))
	}
	if c.WorkflowTimeout <= 0 {
		errs = append(errs, errors.New("WORKFLOW_TIMEOUT must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("WORKFLOW_SWEEP_INTERVAL must be positive"))
	}
	if c.Discord.Token != "" && c.Discord.GuildID == "" {
		errs = append(errs, errors.New("DISCORD_GUILD_ID required when DISCORD_BOT_TOKEN is set"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel returns the configured log level
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// APIAddr returns the host:port the admin API listens on
func (c Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
