// ABOUTME: Application configuration loaded from YAML, .env and OUTREACH_* variables
// ABOUTME: Defaults live here; later sources override earlier ones field by field
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/outreach/charm"
)

const AppName = "outreach"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverLocal  = "local"
	DriverCharm  = "charm"
	DriverRedis  = "redis"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Charm    charm.Config   `yaml:"charm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Server   ServerConfig   `yaml:"server"`
	Inbox    InboxConfig    `yaml:"inbox"`
	Log      LogConfig      `yaml:"log"`
}

type StorageConfig struct {
	Driver      string        `yaml:"driver" validate:"oneof=sqlite local charm redis"`
	Path        string        `yaml:"path"`
	RedisAddr   string        `yaml:"redis_addr" validate:"required_if=Driver redis"`
	RedisDB     int           `yaml:"redis_db" validate:"gte=0"`
	RedisPrefix string        `yaml:"redis_prefix"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

type PipelineConfig struct {
	PendingRetention  time.Duration `yaml:"pending_retention" validate:"gt=0"`
	StrictTransitions bool          `yaml:"strict_transitions"`
	PageSize          int           `yaml:"page_size" validate:"gte=1,lte=500"`
}

type SweeperConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay" validate:"gte=0"`
	Interval     time.Duration `yaml:"interval" validate:"gt=0"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`

	// AllowedOrigins are the browser origins that may call the API, exact
	// or as a glob such as chrome-extension://*.
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,required"`
}

type InboxConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:      DriverSQLite,
			Path:        filepath.Join(xdg.DataHome, AppName, "outreach.db"),
			RedisAddr:   "localhost:6379",
			RedisPrefix: AppName,
			Timeout:     5 * time.Second,
		},
		Charm: *charm.DefaultConfig(),
		Pipeline: PipelineConfig{
			PendingRetention: 30 * 24 * time.Hour,
			PageSize:         20,
		},
		Sweeper: SweeperConfig{
			InitialDelay: 60 * time.Minute,
			Interval:     24 * time.Hour,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8787"},
		Inbox:  InboxConfig{Dir: filepath.Join(xdg.DataHome, AppName, "inbox")},
		Log:    LogConfig{Level: "info"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/outreach/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Load builds the configuration from defaults, the YAML file at path (the
// default path when empty; a missing default file is fine), a .env file in
// the working directory and OUTREACH_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies OUTREACH_* variables on top of file values.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"OUTREACH_STORAGE_DRIVER": &cfg.Storage.Driver,
		"OUTREACH_STORAGE_PATH":   &cfg.Storage.Path,
		"OUTREACH_REDIS_ADDR":     &cfg.Storage.RedisAddr,
		"OUTREACH_REDIS_PREFIX":   &cfg.Storage.RedisPrefix,
		"OUTREACH_CHARM_HOST":     &cfg.Charm.Host,
		"OUTREACH_SERVER_ADDR":    &cfg.Server.Addr,
		"OUTREACH_INBOX_DIR":      &cfg.Inbox.Dir,
		"OUTREACH_LOG_LEVEL":      &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"OUTREACH_STORAGE_TIMEOUT":     &cfg.Storage.Timeout,
		"OUTREACH_PENDING_RETENTION":   &cfg.Pipeline.PendingRetention,
		"OUTREACH_SWEEP_INITIAL_DELAY": &cfg.Sweeper.InitialDelay,
		"OUTREACH_SWEEP_INTERVAL":      &cfg.Sweeper.Interval,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"OUTREACH_REDIS_DB":  &cfg.Storage.RedisDB,
		"OUTREACH_PAGE_SIZE": &cfg.Pipeline.PageSize,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("OUTREACH_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, origin)
			}
		}
	}

	bools := map[string]*bool{
		"OUTREACH_CHARM_AUTO_SYNC":    &cfg.Charm.AutoSync,
		"OUTREACH_STRICT_TRANSITIONS": &cfg.Pipeline.StrictTransitions,
		"OUTREACH_LOG_DEVELOPMENT":    &cfg.Log.Development,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}

	return nil
}
