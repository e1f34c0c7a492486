// Package catalog holds the item master data model and the stores that serve it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendFile     = "file"
)

var ErrUnknownBackend = errors.New("unknown catalog backend")

// Store returns the full catalog. Implementations apply no filtering and keep a stable order.
type Store interface {
	FetchAll(ctx context.Context) (*Items, error)
}

// Writer persists items into the catalog.
type Writer interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, items *Items) error
}

// ReadWriter is a store that also accepts writes.
type ReadWriter interface {
	Store
	Writer
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend  string          `mapstructure:"backend"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	File     *FileConfig     `mapstructure:"file"`
}

// Open builds the store selected by cfg.Backend.
func Open(ctx context.Context, cfg *Config, log *zap.Logger) (ReadWriter, error) {
	if cfg == nil {
		return nil, errors.New("catalog configuration is required")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case BackendPostgres:
		if cfg.Postgres == nil {
			return nil, errors.New("postgres configuration is required for postgres backend")
		}
		return OpenPostgres(ctx, cfg.Postgres, log)
	case BackendRedis:
		if cfg.Redis == nil {
			return nil, errors.New("redis configuration is required for redis backend")
		}
		return OpenRedis(ctx, cfg.Redis, log)
	case BackendFile, "":
		if cfg.File == nil || strings.TrimSpace(cfg.File.Path) == "" {
			return nil, errors.New("file path is required for file backend")
		}
		return NewFileStore(cfg.File.Path, log), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

// StoreFunc adapts a plain query function to Store.
type StoreFunc func(ctx context.Context) (*Items, error)

func (f StoreFunc) FetchAll(ctx context.Context) (*Items, error) {
	return f(ctx)
}
