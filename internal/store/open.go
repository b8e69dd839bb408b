package store

import (
	"context"
	"fmt"

	"github.com/pavelanni/swimsteps/internal/model"
)

// Backend is the common surface of all storage backends.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	RecordImport(ctx context.Context, rec model.ImportRecord) error
	ListImports(ctx context.Context) ([]model.ImportRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindSQLite   = "sqlite"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Kind        string
	SQLitePath  string
	Redis       RedisConfig
	PostgresDSN string
}

// Open connects to the backend named by cfg.Kind. An empty kind means SQLite.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Kind {
	case "", KindSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite backend: database path is empty")
		}
		s, err := New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis backend: address is empty")
		}
		r, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend: dsn is empty")
		}
		p, err := NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Kind)
	}
}
