package benchmark

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insider-risk-index/internal/scoring"

	"github.com/google/uuid"
)

// Store reads the most recent cohort snapshot.
type Store interface {
	// FindSnapshot returns the snapshot matching f exactly with the latest
	// period end inside [asOf-window, asOf], or nil when there is none.
	FindSnapshot(ctx context.Context, f Filter, asOf time.Time, window time.Duration) (*Snapshot, error)
}

const findSnapshotQuery = `SELECT id, industry, company_size, region, period_end, average_score, pillar_averages, sample_size
FROM benchmark_snapshots
WHERE industry IS NOT DISTINCT FROM $1
  AND company_size IS NOT DISTINCT FROM $2
  AND region IS NOT DISTINCT FROM $3
  AND period_end <= $4
  AND period_end >= $5
ORDER BY period_end DESC
LIMIT 1`

const insertSnapshotQuery = `INSERT INTO benchmark_snapshots
  (id, industry, company_size, region, period_end, average_score, pillar_averages, sample_size, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const listScoredAssessmentsQuery = `SELECT industry, company_size, region, total_score, pillar_scores, created_at
FROM assessments
WHERE created_at >= $1 AND created_at < $2`

// PostgresStore keeps snapshots in the benchmark_snapshots table and reads
// the assessments table for refreshes.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) FindSnapshot(ctx context.Context, f Filter, asOf time.Time, window time.Duration) (*Snapshot, error) {
	var (
		snap                          Snapshot
		industry, companySize, region sql.NullString
		pillarJSON                    []byte
	)

	err := s.db.QueryRowContext(ctx, findSnapshotQuery,
		nullable(string(f.Industry)), nullable(string(f.CompanySize)), nullable(string(f.Region)),
		asOf, asOf.Add(-window),
	).Scan(&snap.ID, &industry, &companySize, &region, &snap.PeriodEnd, &snap.AverageScore, &pillarJSON, &snap.SampleSize)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query snapshot %s: %w", f, err)
	}

	snap.Industry = scoring.Industry(industry.String)
	snap.CompanySize = scoring.CompanySize(companySize.String)
	snap.Region = scoring.Region(region.String)

	if len(pillarJSON) > 0 {
		if err := json.Unmarshal(pillarJSON, &snap.PillarAverages); err != nil {
			return nil, fmt.Errorf("decode pillar averages of snapshot %s: %w", snap.ID, err)
		}
	}
	return &snap, nil
}

// SaveSnapshots inserts a refresh run in one transaction. Snapshots without
// an id get a new one.
func (s *PostgresStore) SaveSnapshots(ctx context.Context, snapshots []Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := s.now().UTC()
	for _, snap := range snapshots {
		id := snap.ID
		if id == "" {
			id = uuid.NewString()
		}
		pillarJSON, err := json.Marshal(snap.PillarAverages)
		if err != nil {
			return fmt.Errorf("encode pillar averages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertSnapshotQuery,
			id,
			nullable(string(snap.Industry)),
			nullable(string(snap.CompanySize)),
			nullable(string(snap.Region)),
			snap.PeriodEnd,
			snap.AverageScore,
			pillarJSON,
			snap.SampleSize,
			createdAt,
		); err != nil {
			return fmt.Errorf("insert snapshot %s: %w", FilterOf(snap), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}
	return nil
}

// ListScoredAssessments returns assessments created in [from, to).
func (s *PostgresStore) ListScoredAssessments(ctx context.Context, from, to time.Time) ([]ScoredAssessment, error) {
	rows, err := s.db.QueryContext(ctx, listScoredAssessmentsQuery, from, to)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []ScoredAssessment
	for rows.Next() {
		var (
			a                             ScoredAssessment
			industry, companySize, region sql.NullString
			pillarJSON                    []byte
		)
		if err := rows.Scan(&industry, &companySize, &region, &a.TotalScore, &pillarJSON, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a.Industry = scoring.Industry(industry.String)
		a.CompanySize = scoring.CompanySize(companySize.String)
		a.Region = scoring.Region(region.String)
		if len(pillarJSON) > 0 {
			if err := json.Unmarshal(pillarJSON, &a.PillarScores); err != nil {
				return nil, fmt.Errorf("decode pillar scores: %w", err)
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

// nullable maps an empty cohort value to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
