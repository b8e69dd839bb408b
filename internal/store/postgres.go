package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pavelanni/swimsteps/internal/model"
)

// Postgres is the PostgreSQL backend. Values are stored as text rather than
// jsonb so exports return exactly what was written.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects using a connection string or URL and creates the schema.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Ping checks that the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS swimsteps_kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS swimsteps_imports (
		id BIGSERIAL PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		sha256 TEXT NOT NULL,
		students INTEGER NOT NULL DEFAULT 0,
		cohorts INTEGER NOT NULL DEFAULT 0,
		imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err := p.pool.Exec(ctx, schema)
	return err
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM swimsteps_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO swimsteps_kv (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value),
	)
	return err
}

// RecordImport appends an entry to the import audit trail.
func (p *Postgres) RecordImport(ctx context.Context, rec model.ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO swimsteps_imports (source, sha256, students, cohorts, imported_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.Source, rec.SHA256, rec.Students, rec.Cohorts, rec.ImportedAt,
	)
	return err
}

// ListImports returns the audit trail, newest first.
func (p *Postgres) ListImports(ctx context.Context) ([]model.ImportRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, source, sha256, students, cohorts, imported_at FROM swimsteps_imports ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.ImportRecord
	for rows.Next() {
		var r model.ImportRecord
		if err := rows.Scan(&r.ID, &r.Source, &r.SHA256, &r.Students, &r.Cohorts, &r.ImportedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
