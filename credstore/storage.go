// Package credstore persists the client's credential pair and cached user snapshot.
//
// Drivers: memory, file (optionally sealed), sqlite and redis. Every driver stores
// plain string values under the Key constants; the session store is the only writer.
package credstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// AllKeys lists every key the session store writes
var AllKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Storage is a durable key/value store scoped to one client installation
type Storage interface {
	// Get returns the value and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are not an error
	Delete(ctx context.Context, keys ...string) error
}

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// New builds the storage driver selected by cfg. The returned close function releases
// any connection held by the driver.
func New(ctx context.Context, cfg config.Config) (Storage, func() error, error) {
	noop := func() error { return nil }
	folder := cfg.GetDataFolder()

	switch cfg.GetStorageDriver() {
	case DriverMemory:
		return NewMemoryStorage(), noop, nil

	case DriverFile:
		s, err := NewFileStorage(filepath.Join(folder, "credentials.json"), cfg.GetStorageKey())
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case DriverSQLite:
		s, err := OpenSQLiteStorage(ctx, filepath.Join(folder, "storefront.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case DriverRedis:
		installationID, err := InstallationID(folder)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("[credstore New] redis ping %s: %w", cfg.GetRedisAddr(), err)
		}
		return NewRedisStorage(client, installationID), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("[credstore New] unknown storage driver %q", cfg.GetStorageDriver())
	}
}
