package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the tables the service owns. Every statement is
// idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS assessments (
    id              UUID PRIMARY KEY,
    catalog_version TEXT NOT NULL,
    industry        TEXT,
    company_size    TEXT,
    region          TEXT,
    total_score     INTEGER NOT NULL CHECK (total_score BETWEEN 0 AND 100),
    level           INTEGER NOT NULL CHECK (level BETWEEN 1 AND 5),
    pillar_scores   JSONB NOT NULL,
    result          JSONB NOT NULL,
    contact_email   TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments (created_at)`,
	`CREATE TABLE IF NOT EXISTS benchmark_snapshots (
    id              UUID PRIMARY KEY,
    industry        TEXT,
    company_size    TEXT,
    region          TEXT,
    period_end      TIMESTAMPTZ NOT NULL,
    average_score   DOUBLE PRECISION NOT NULL,
    pillar_averages JSONB NOT NULL,
    sample_size     INTEGER NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_benchmark_snapshots_cohort
    ON benchmark_snapshots (industry, company_size, region, period_end DESC)`,
}

// Migrate creates missing tables and indexes in one transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
