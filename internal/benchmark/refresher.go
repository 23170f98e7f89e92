package benchmark

import (
	"context"
	"fmt"
	"sort"
	"time"

	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"
	"insider-risk-index/internal/scoring"

	"github.com/google/uuid"
)

// SnapshotWriter is the storage the refresh job reads assessments from and
// writes snapshots to.
type SnapshotWriter interface {
	ListScoredAssessments(ctx context.Context, from, to time.Time) ([]ScoredAssessment, error)
	SaveSnapshots(ctx context.Context, snapshots []Snapshot) error
}

// CacheInvalidator drops cached snapshots after a refresh.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, filters ...Filter) error
}

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

type RefresherConfig struct {
	Lookback      time.Duration
	MinSampleSize int
	Retry         RetryPolicy
}

// RefreshReport summarizes one refresh run.
type RefreshReport struct {
	RunID              string    `json:"runId"`
	PeriodEnd          time.Time `json:"periodEnd"`
	AssessmentsScanned int       `json:"assessmentsScanned"`
	SnapshotsWritten   int       `json:"snapshotsWritten"`
	CohortsSkipped     int       `json:"cohortsSkipped"`
	Attempts           int       `json:"attempts"`
}

// Refresher re-aggregates stored assessments into cohort snapshots. It is the
// only writer of benchmark data and runs outside the scoring request path.
type Refresher struct {
	store  SnapshotWriter
	cache  CacheInvalidator
	cfg    RefresherConfig
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRefresher(store SnapshotWriter, cache CacheInvalidator, cfg RefresherConfig, log logger.Logger) *Refresher {
	if cfg.MinSampleSize < 1 {
		cfg.MinSampleSize = 1
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryPolicy
	}
	return &Refresher{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "benchmark-refresher"}),
		sleep:  sleepContext,
	}
}

// Refresh aggregates assessments created in [asOf-Lookback, asOf) and saves
// the resulting snapshots with period end asOf. Transient failures are
// retried with exponential backoff.
func (r *Refresher) Refresh(ctx context.Context, asOf time.Time) (*RefreshReport, error) {
	report := &RefreshReport{RunID: uuid.NewString(), PeriodEnd: asOf.UTC()}
	log := r.logger.WithFields(map[string]interface{}{"runId": report.RunID})

	var lastErr error
	for attempt := 1; attempt <= r.cfg.Retry.MaxAttempts; attempt++ {
		report.Attempts = attempt
		lastErr = r.refreshOnce(ctx, asOf, report)
		if lastErr == nil {
			metrics.BenchmarkRefreshRuns.WithLabelValues("success").Inc()
			log.Info("benchmark snapshots refreshed", map[string]interface{}{
				"assessments": report.AssessmentsScanned,
				"snapshots":   report.SnapshotsWritten,
				"skipped":     report.CohortsSkipped,
				"attempts":    attempt,
			})
			return report, nil
		}
		if attempt == r.cfg.Retry.MaxAttempts {
			break
		}

		delay := backoff(r.cfg.Retry, attempt)
		log.Warn("benchmark refresh attempt failed", map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   lastErr.Error(),
		})
		if err := r.sleep(ctx, delay); err != nil {
			lastErr = fmt.Errorf("refresh cancelled after %d attempts: %w", attempt, err)
			break
		}
	}

	metrics.BenchmarkRefreshRuns.WithLabelValues("failure").Inc()
	return report, lastErr
}

func (r *Refresher) refreshOnce(ctx context.Context, asOf time.Time, report *RefreshReport) error {
	rows, err := r.store.ListScoredAssessments(ctx, asOf.Add(-r.cfg.Lookback), asOf)
	if err != nil {
		return err
	}

	snapshots, skipped := Aggregate(rows, asOf, r.cfg.MinSampleSize)
	report.AssessmentsScanned = len(rows)
	report.CohortsSkipped = skipped
	report.SnapshotsWritten = 0

	if len(snapshots) == 0 {
		return nil
	}
	if err := r.store.SaveSnapshots(ctx, snapshots); err != nil {
		return err
	}
	report.SnapshotsWritten = len(snapshots)

	if r.cache != nil {
		filters := make([]Filter, 0, len(snapshots))
		for _, s := range snapshots {
			filters = append(filters, FilterOf(s))
		}
		if err := r.cache.Invalidate(ctx, filters...); err != nil {
			r.logger.Warn("snapshot cache invalidation failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

type cohortAccumulator struct {
	filter      Filter
	count       int
	scoreSum    float64
	pillarSum   map[scoring.PillarID]float64
	pillarCount map[scoring.PillarID]int
}

func (a *cohortAccumulator) add(row ScoredAssessment) {
	a.count++
	a.scoreSum += float64(row.TotalScore)
	for id, v := range row.PillarScores {
		a.pillarSum[id] += v
		a.pillarCount[id]++
	}
}

// Aggregate groups assessments into industry-only, size-only, region-only and
// overall cohorts. Cohorts with fewer than minSample assessments are dropped
// and counted in skipped. Output order is deterministic.
func Aggregate(rows []ScoredAssessment, periodEnd time.Time, minSample int) (snapshots []Snapshot, skipped int) {
	cohorts := make(map[Filter]*cohortAccumulator)
	get := func(f Filter) *cohortAccumulator {
		acc, ok := cohorts[f]
		if !ok {
			acc = &cohortAccumulator{
				filter:      f,
				pillarSum:   make(map[scoring.PillarID]float64),
				pillarCount: make(map[scoring.PillarID]int),
			}
			cohorts[f] = acc
		}
		return acc
	}

	for _, row := range rows {
		get(Filter{}).add(row)
		if row.Industry != "" {
			get(Filter{Industry: row.Industry}).add(row)
		}
		if row.CompanySize != "" {
			get(Filter{CompanySize: row.CompanySize}).add(row)
		}
		if row.Region != "" {
			get(Filter{Region: row.Region}).add(row)
		}
	}

	for _, acc := range cohorts {
		if acc.count < minSample {
			skipped++
			continue
		}
		averages := make(map[scoring.PillarID]float64, len(acc.pillarSum))
		for id, sum := range acc.pillarSum {
			averages[id] = sum / float64(acc.pillarCount[id])
		}
		snapshots = append(snapshots, Snapshot{
			Industry:       acc.filter.Industry,
			CompanySize:    acc.filter.CompanySize,
			Region:         acc.filter.Region,
			PeriodEnd:      periodEnd.UTC(),
			AverageScore:   acc.scoreSum / float64(acc.count),
			PillarAverages: averages,
			SampleSize:     acc.count,
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return FilterOf(snapshots[i]).String() < FilterOf(snapshots[j]).String()
	})
	return snapshots, skipped
}

// backoff doubles BaseDelay per attempt and stops doubling once MaxDelay is
// reached, so large attempt counts cannot overflow.
func backoff(p RetryPolicy, attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
