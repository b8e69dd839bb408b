package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavelanni/swimsteps/internal/model"
)

// RecordImport appends an entry to the import audit trail.
func (s *Store) RecordImport(ctx context.Context, rec model.ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (source, sha256, students, cohorts, imported_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Source, rec.SHA256, rec.Students, rec.Cohorts, rec.ImportedAt,
	)
	if err != nil {
		slog.Error("failed to record import", "source", rec.Source, "error", err)
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	slog.Debug("recorded import", "id", id, "source", rec.Source, "sha256", rec.SHA256)
	return nil
}

// ListImports returns the audit trail, newest first.
func (s *Store) ListImports(ctx context.Context) ([]model.ImportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, sha256, students, cohorts, imported_at FROM imports ORDER BY id DESC`)
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
