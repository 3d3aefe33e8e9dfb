// ABOUTME: Opens the record store selected by storage.driver
// ABOUTME: SQLite file, local Badger KV, Charm Cloud KV or Redis
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/harperreed/outreach/charm"
	"github.com/harperreed/outreach/config"
	"github.com/harperreed/outreach/db"
)

// OpenStore returns the store and, for the KV drivers, the charm client
// underneath it. The store owns the client and closes it.
func OpenStore(ctx context.Context, cfg *config.Config) (db.Store, *charm.Client, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err := db.OpenSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case config.DriverLocal:
		client, err := charm.NewLocalClient(localDir(cfg))
		if err != nil {
			return nil, nil, err
		}
		return db.NewKVStore(client), client, nil

	case config.DriverCharm:
		client, err := charm.Open(cfg.Charm.WithDefaults())
		if err != nil {
			return nil, nil, err
		}
		return db.NewKVStore(client), client, nil

	case config.DriverRedis:
		store, err := db.OpenRedisStore(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisDB, cfg.Storage.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// localDir puts the Badger directory next to the configured database path,
// or in the XDG data dir when the path is the default.
func localDir(cfg *config.Config) string {
	if cfg.Storage.Path == config.Default().Storage.Path {
		return charm.LocalDataDir()
	}
	return filepath.Join(filepath.Dir(cfg.Storage.Path), "kv")
}
