package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pavelanni/swimsteps/internal/model"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key, so several rosters can share a
	// database.
	Prefix string
}

// importsKey holds the import audit trail as a list of JSON records.
const importsKey = "swimsteps_imports"

// Redis is the Redis backend.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping checks that Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// RecordImport appends an entry to the import audit list. The record id is
// its position in the list.
func (r *Redis) RecordImport(ctx context.Context, rec model.ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	n, err := r.client.LLen(ctx, r.prefix+importsKey).Result()
	if err != nil {
		return err
	}
	rec.ID = n + 1
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode import record: %w", err)
	}
	return r.client.RPush(ctx, r.prefix+importsKey, data).Err()
}

// ListImports returns the audit trail, newest first. Entries that do not
// decode are skipped.
func (r *Redis) ListImports(ctx context.Context) ([]model.ImportRecord, error) {
	items, err := r.client.LRange(ctx, r.prefix+importsKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]model.ImportRecord, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var rec model.ImportRecord
		if err := json.Unmarshal([]byte(items[i]), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
