package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/onnwee/clip-courier/pipeline"
)

// Store persists run outcomes and liveness heartbeats. A nil *Store is valid
// and records nothing.
type Store struct {
	DB *sql.DB
}

// RecordRun inserts one run outcome. Failures are logged, never propagated;
// history must not break the pipeline.
func (s *Store) RecordRun(ctx context.Context, rec pipeline.RunRecord) {
	if s == nil || s.DB == nil {
		return
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs (id, kind, identifier, stage, error, size_bytes, elapsed_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Kind, rec.Identifier, rec.Stage, rec.Error, rec.Size, rec.Elapsed.Milliseconds())
	if err != nil {
		slog.Error("record run failed", slog.String("run_id", rec.ID), slog.Any("err", err))
	}
}

// RecentRuns returns the latest run outcomes, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]pipeline.RunRecord, error) {
	if s == nil || s.DB == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, kind, identifier, stage, error, size_bytes, elapsed_ms
		 FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pipeline.RunRecord
	for rows.Next() {
		var rec pipeline.RunRecord
		var elapsedMs int64
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Identifier, &rec.Stage, &rec.Error, &rec.Size, &elapsedMs); err != nil {
			return nil, err
		}
		rec.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Heartbeat upserts a liveness timestamp under the given key.
func (s *Store) Heartbeat(ctx context.Context, key string) error {
	if s == nil || s.DB == nil {
		return nil
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, time.Now().UTC().Format(time.RFC3339))
	return err
}
