// ABOUTME: Configuration for Charm KV backend connection
// ABOUTME: Server settings, auto-sync preference and the local data directory

package charm

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName is the application name for Charm KV database.
	AppName = "outreach"
)

// Config holds charm connection settings.
type Config struct {
	// Host is the charm server hostname (default: charm.2389.dev)
	Host string `yaml:"host" json:"host,omitempty"`

	// AutoSync enables automatic sync after every write operation
	AutoSync bool `yaml:"auto_sync" json:"auto_sync"`

	// StaleThreshold is the duration before data is considered stale and needs a sync
	StaleThreshold time.Duration `yaml:"stale_threshold" json:"stale_threshold,omitempty"`
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

// WithDefaults fills empty fields from DefaultConfig.
func (c Config) WithDefaults() *Config {
	if c.Host == "" {
		c.Host = DefaultCharmHost
	}
	if c.StaleThreshold == 0 {
		c.StaleThreshold = kv.DefaultStaleThreshold
	}
	return &c
}

// LocalDataDir is where the offline Badger store lives.
func LocalDataDir() string {
	return filepath.Join(xdg.DataHome, AppName, "kv")
}
