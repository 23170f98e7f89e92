// internal/workers/benchmark/refresh-benchmark-snapshots/handler_test.go
package refreshbenchmarksnapshots

import (
	"context"
	"errors"
	"testing"
	"time"

	"insider-risk-index/internal/benchmark"
	apperrors "insider-risk-index/internal/common/errors"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC)

type MockRefresher struct {
	RefreshFunc func(ctx context.Context, asOf time.Time) (*benchmark.RefreshReport, error)
	asOf        []time.Time
}

func (m *MockRefresher) Refresh(ctx context.Context, asOf time.Time) (*benchmark.RefreshReport, error) {
	m.asOf = append(m.asOf, asOf)
	return m.RefreshFunc(ctx, asOf)
}

func createTestHandler(t *testing.T, refresher Refresher) *Handler {
	h := NewHandler(LoadConfig(), refresher, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

func reportFor(asOf time.Time) *benchmark.RefreshReport {
	return &benchmark.RefreshReport{
		RunID:              "run-1",
		PeriodEnd:          asOf,
		AssessmentsScanned: 120,
		SnapshotsWritten:   9,
		CohortsSkipped:     4,
		Attempts:           1,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_DefaultsToNow(t *testing.T) {
	refresher := &MockRefresher{RefreshFunc: func(_ context.Context, asOf time.Time) (*benchmark.RefreshReport, error) {
		return reportFor(asOf), nil
	}}
	handler := createTestHandler(t, refresher)

	output, err := handler.Execute(context.Background(), &Input{Reason: "schedule"})

	require.NoError(t, err)
	require.Len(t, refresher.asOf, 1)
	assert.Equal(t, fixedNow, refresher.asOf[0])
	assert.Equal(t, "run-1", output.RunID)
	assert.Equal(t, "2024-07-01T03:00:00Z", output.PeriodEnd)
	assert.Equal(t, 120, output.AssessmentsScanned)
	assert.Equal(t, 9, output.SnapshotsWritten)
	assert.Equal(t, 4, output.CohortsSkipped)
	assert.Equal(t, 1, output.Attempts)
}

func TestHandler_Execute_ExplicitAsOf(t *testing.T) {
	refresher := &MockRefresher{RefreshFunc: func(_ context.Context, asOf time.Time) (*benchmark.RefreshReport, error) {
		return reportFor(asOf), nil
	}}
	handler := createTestHandler(t, refresher)

	output, err := handler.Execute(context.Background(), &Input{AsOf: "2024-06-30T23:00:00+02:00"})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 30, 21, 0, 0, 0, time.UTC), refresher.asOf[0])
	assert.Equal(t, "2024-06-30T21:00:00Z", output.PeriodEnd)
}

func TestHandler_Execute_WithRealRefresher(t *testing.T) {
	store := &memoryWriter{rows: []benchmark.ScoredAssessment{
		{Industry: scoring.IndustryRetail, TotalScore: 40},
		{Industry: scoring.IndustryRetail, TotalScore: 60},
	}}
	refresher := benchmark.NewRefresher(store, nil, benchmark.RefresherConfig{
		Lookback:      30 * 24 * time.Hour,
		MinSampleSize: 2,
		Retry:         benchmark.RetryPolicy{MaxAttempts: 1},
	}, logger.NewNoOpLogger())
	handler := createTestHandler(t, refresher)

	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 2, output.AssessmentsScanned)
	assert.Equal(t, 2, output.SnapshotsWritten)
	assert.Len(t, store.saved, 2)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_RefreshFailed(t *testing.T) {
	refresher := &MockRefresher{RefreshFunc: func(context.Context, time.Time) (*benchmark.RefreshReport, error) {
		return &benchmark.RefreshReport{Attempts: 3}, errors.New("connection refused")
	}}
	handler := createTestHandler(t, refresher)

	output, err := handler.Execute(context.Background(), &Input{})

	assert.Nil(t, output)
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeBenchmarkRefreshFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_BadAsOf(t *testing.T) {
	refresher := &MockRefresher{}
	handler := createTestHandler(t, refresher)

	_, err := handler.Execute(context.Background(), &Input{AsOf: "yesterday"})

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeInvalidJobVariables, stdErr.Code)
	assert.Empty(t, refresher.asOf)
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		want      Input
		wantErr   bool
	}{
		{name: "empty", variables: "", want: Input{}},
		{name: "empty object", variables: "{}", want: Input{}},
		{
			name:      "refresh message",
			variables: `{"requestedAt":"2024-07-01T00:00:00Z","assessmentId":"a-1","reason":"assessment-recorded"}`,
			want:      Input{AssessmentID: "a-1", Reason: "assessment-recorded"},
		},
		{name: "asOf not a string", variables: `{"asOf":12}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				var stdErr *apperrors.StandardError
				require.True(t, errors.As(err, &stdErr))
				assert.Equal(t, apperrors.ErrCodeInvalidJobVariables, stdErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *input)
		})
	}
}

type memoryWriter struct {
	rows  []benchmark.ScoredAssessment
	saved []benchmark.Snapshot
}

func (m *memoryWriter) ListScoredAssessments(context.Context, time.Time, time.Time) ([]benchmark.ScoredAssessment, error) {
	return m.rows, nil
}

func (m *memoryWriter) SaveSnapshots(_ context.Context, snapshots []benchmark.Snapshot) error {
	m.saved = append(m.saved, snapshots...)
	return nil
}
