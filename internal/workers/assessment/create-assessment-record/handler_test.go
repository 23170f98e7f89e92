// internal/workers/assessment/create-assessment-record/handler_test.go
package createassessmentrecord

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"insider-risk-index/internal/assessment"
	"insider-risk-index/internal/benchmark"
	apperrors "insider-risk-index/internal/common/errors"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/scoring"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

type MockRefreshPublisher struct {
	PublishFunc func(ctx context.Context, req benchmark.RefreshRequest) error
	requests    []benchmark.RefreshRequest
}

func (m *MockRefreshPublisher) PublishRefreshRequest(ctx context.Context, req benchmark.RefreshRequest) error {
	m.requests = append(m.requests, req)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, req)
	}
	return nil
}

func createTestHandler(t *testing.T, publisher benchmark.RefreshPublisher) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(LoadConfig(), db, publisher, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	h.newID = func() string { return "3f1c2d9e-0000-4000-8000-000000000001" }
	return h, mock
}

func createTestInput() *Input {
	return &Input{
		AssessmentResult: &assessment.AssessmentResult{
			Result: scoring.Result{
				CatalogVersion: "2024.1",
				TotalScore:     64,
				Level:          3,
				LevelName:      "Managed",
				PillarBreakdown: []scoring.PillarScore{
					{PillarID: scoring.PillarVisibility, RawScore: 70, Answered: true},
					{PillarID: scoring.PillarPhishingResilience, RawScore: 0, Answered: false},
				},
				Org: scoring.OrgMeta{Industry: scoring.IndustryHealthcare, Region: scoring.RegionEMEA},
			},
		},
		ContactEmail: "ciso@example.com",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	publisher := &MockRefreshPublisher{}
	handler, mock := createTestHandler(t, publisher)
	input := createTestInput()
	resultJSON, err := json.Marshal(input.AssessmentResult)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(insertAssessmentQuery)).
		WithArgs(
			"3f1c2d9e-0000-4000-8000-000000000001",
			"2024.1",
			"healthcare",
			nil,
			"emea",
			64,
			3,
			[]byte(`{"visibility":70}`),
			resultJSON,
			"ciso@example.com",
			fixedNow,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "3f1c2d9e-0000-4000-8000-000000000001", output.AssessmentID)
	assert.Equal(t, "2024-07-01T09:30:00Z", output.CreatedAt)
	assert.True(t, output.RefreshRequested)
	require.Len(t, publisher.requests, 1)
	assert.Equal(t, output.AssessmentID, publisher.requests[0].AssessmentID)
	assert.Equal(t, refreshReason, publisher.requests[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_WithoutContactEmail(t *testing.T) {
	handler, mock := createTestHandler(t, nil)
	input := createTestInput()
	input.ContactEmail = ""

	mock.ExpectExec(regexp.QuoteMeta(insertAssessmentQuery)).
		WithArgs(sqlmock.AnyArg(), "2024.1", "healthcare", nil, "emea", 64, 3,
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.False(t, output.RefreshRequested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RefreshFailureIsNotFatal(t *testing.T) {
	publisher := &MockRefreshPublisher{PublishFunc: func(context.Context, benchmark.RefreshRequest) error {
		return errors.New("gateway unavailable")
	}}
	handler, mock := createTestHandler(t, publisher)

	mock.ExpectExec(regexp.QuoteMeta(insertAssessmentQuery)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.False(t, output.RefreshRequested)
	assert.Len(t, publisher.requests, 1)
}

func TestHandler_Execute_RefreshDisabled(t *testing.T) {
	publisher := &MockRefreshPublisher{}
	handler, mock := createTestHandler(t, publisher)
	handler.config.RequestRefresh = false

	mock.ExpectExec(regexp.QuoteMeta(insertAssessmentQuery)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.False(t, output.RefreshRequested)
	assert.Empty(t, publisher.requests)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InsertFailed(t *testing.T) {
	publisher := &MockRefreshPublisher{}
	handler, mock := createTestHandler(t, publisher)

	mock.ExpectExec(regexp.QuoteMeta(insertAssessmentQuery)).
		WillReturnError(errors.New("connection refused"))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Nil(t, output)
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Empty(t, publisher.requests)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"missing result", &Input{}},
		{"bad email", &Input{AssessmentResult: createTestInput().AssessmentResult, ContactEmail: "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := createTestHandler(t, nil)

			_, err := handler.Execute(context.Background(), tt.input)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, apperrors.ErrCodeInvalidJobVariables, stdErr.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{"valid", `{"assessmentResult":{"catalogVersion":"2024.1","totalScore":50,"level":3,"pillarBreakdown":[]},"contactEmail":"a@b.co"}`, false},
		{"missing result", `{"contactEmail":"a@b.co"}`, true},
		{"score out of range", `{"assessmentResult":{"catalogVersion":"2024.1","totalScore":101,"level":3,"pillarBreakdown":[]}}`, true},
		{"level out of range", `{"assessmentResult":{"catalogVersion":"2024.1","totalScore":50,"level":0,"pillarBreakdown":[]}}`, true},
		{"not json", `nope`, true},
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
			assert.Equal(t, 50, input.AssessmentResult.TotalScore)
		})
	}
}
