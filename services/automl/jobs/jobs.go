// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package jobs persists per-user training history to Postgres. The table
// is keyed by session id: each completed pipeline stage upserts the same
// row, so ml_jobs always reflects the latest state of each session.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
)

// Record is one ml_jobs row. Model, ModelParams and Metrics reflect the
// session's latest training run and stay empty until one completes.
type Record struct {
	SessionID   string             `json:"session_id"`
	UserID      string             `json:"user_id"`
	Filename    string             `json:"filename"`
	Target      string             `json:"target_column,omitempty"`
	Rows        int                `json:"n_rows"`
	Cols        int                `json:"n_cols"`
	Stage       string             `json:"stage"`
	Steps       json.RawMessage    `json:"steps"`
	Model       string             `json:"model,omitempty"`
	ModelParams map[string]any     `json:"model_params,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Store is the persistence surface; a Postgres implementation for
// deployments and an in-memory one for tests and DSN-less operation.
type Store interface {
	// Upsert writes the row for rec's session, replacing any prior state.
	Upsert(ctx context.Context, rec Record) error
	// UserJobs lists a user's rows, most recently updated first.
	UserJobs(ctx context.Context, userID string) ([]Record, error)
	// DeleteSession removes the row for a session if one exists.
	DeleteSession(ctx context.Context, sessionID string) error
}

const schema = `
CREATE TABLE IF NOT EXISTS ml_jobs (
	session_id    TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	filename      TEXT NOT NULL,
	target_column TEXT NOT NULL DEFAULT '',
	n_rows        INTEGER NOT NULL DEFAULT 0,
	n_cols        INTEGER NOT NULL DEFAULT 0,
	stage         TEXT NOT NULL,
	steps         JSONB NOT NULL DEFAULT '{}'::jsonb,
	model         TEXT NOT NULL DEFAULT '',
	model_params  JSONB NOT NULL DEFAULT '{}'::jsonb,
	metrics       JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ml_jobs_user_idx ON ml_jobs (user_id, updated_at DESC);
`

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the ml_jobs schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure ml_jobs schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	const q = `
INSERT INTO ml_jobs (session_id, user_id, filename, target_column, n_rows, n_cols,
	stage, steps, model, model_params, metrics, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (session_id) DO UPDATE SET
	target_column = EXCLUDED.target_column,
	n_rows        = EXCLUDED.n_rows,
	n_cols        = EXCLUDED.n_cols,
	stage         = EXCLUDED.stage,
	steps         = EXCLUDED.steps,
	model         = EXCLUDED.model,
	model_params  = EXCLUDED.model_params,
	metrics       = EXCLUDED.metrics,
	updated_at    = now()`
	steps := rec.Steps
	if steps == nil {
		steps = json.RawMessage(`{}`)
	}
	params := rec.ModelParams
	if params == nil {
		params = map[string]any{}
	}
	metrics := rec.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	if _, err := s.pool.Exec(ctx, q,
		rec.SessionID, rec.UserID, rec.Filename, rec.Target, rec.Rows, rec.Cols,
		rec.Stage, steps, rec.Model, params, metrics); err != nil {
		return fmt.Errorf("%w: upsert ml_jobs: %v", datatypes.ErrUpstreamWrite, err)
	}
	return nil
}

func (s *PostgresStore) UserJobs(ctx context.Context, userID string) ([]Record, error) {
	const q = `
SELECT session_id, user_id, filename, target_column, n_rows, n_cols,
	stage, steps, model, model_params, metrics, updated_at
FROM ml_jobs WHERE user_id = $1 ORDER BY updated_at DESC`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query ml_jobs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.SessionID, &r.UserID, &r.Filename, &r.Target,
			&r.Rows, &r.Cols, &r.Stage, &r.Steps,
			&r.Model, &r.ModelParams, &r.Metrics, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ml_jobs row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM ml_jobs WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("%w: delete ml_jobs row: %v", datatypes.ErrUpstreamWrite, err)
	}
	return nil
}
