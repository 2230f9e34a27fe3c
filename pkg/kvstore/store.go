package kvstore

import (
	"context"
	"fmt"
	"time"
)

// Store is a durable string key/value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the resources held by the store.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config selects and configures a Store.
type Config struct {
	Driver    string `env:"LINKSQUARED_STORAGE_DRIVER" envDefault:"file"`
	DSN       string `env:"LINKSQUARED_STORAGE_DSN" envDefault:"linksquared.json"`
	KeyPrefix string `env:"LINKSQUARED_STORAGE_PREFIX" envDefault:"linksquared:"`
	Table     string `env:"LINKSQUARED_STORAGE_TABLE" envDefault:"linksquared_kv"`

	ConnectTimeout time.Duration `env:"LINKSQUARED_STORAGE_CONNECT_TIMEOUT" envDefault:"30s"`
	RetryAttempts  int           `env:"LINKSQUARED_STORAGE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"LINKSQUARED_STORAGE_RETRY_INTERVAL" envDefault:"5s"`
}

// Open builds the Store described by cfg.
//
// DSN meaning per driver: file and sqlite take a filesystem path, redis a
// redis:// URL, postgres a connection string. The memory driver ignores it.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Driver != DriverMemory && cfg.DSN == "" {
		return nil, ErrEmptyDSN
	}

	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile, "":
		return OpenFile(cfg.DSN)
	case DriverSQLite:
		return OpenSQLite(cfg.DSN)
	case DriverRedis:
		client, err := ConnectRedis(ctx, RedisConfig{
			ConnectionURL:  cfg.DSN,
			RetryAttempts:  cfg.RetryAttempts,
			RetryInterval:  cfg.RetryInterval,
			ConnectTimeout: cfg.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return NewRedis(client, cfg.KeyPrefix, WithOwnedClient()), nil
	case DriverPostgres:
		return ConnectPostgres(ctx, cfg.DSN, cfg.Table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
