// internal/workers/assessment/create-assessment-record/handler.go
package createassessmentrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"insider-risk-index/internal/benchmark"
	apperrors "insider-risk-index/internal/common/errors"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"
	"insider-risk-index/internal/common/observability"
	"insider-risk-index/internal/common/validation"
	"insider-risk-index/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "create-assessment-record"

	refreshReason = "assessment-recorded"
)

const insertAssessmentQuery = `INSERT INTO assessments (
    id, catalog_version, industry, company_size, region,
    total_score, level, pillar_scores, result, contact_email, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

type Handler struct {
	config       *Config
	db           *sql.DB
	publisher    benchmark.RefreshPublisher
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
	now          func() time.Time
	newID        func() string
}

// NewHandler builds the handler. publisher may be nil, in which case no
// benchmark refresh is requested after an insert.
func NewHandler(config *Config, db *sql.DB, publisher benchmark.RefreshPublisher, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		publisher:    publisher,
		errorHandler: apperrors.NewErrorHandler(l),
		obs:          obs,
		logger:       l,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartSpan(ctx, TaskType)
	defer span.End()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.failJob(ctx, client, job, started, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, started, err)
		return
	}

	h.completeJob(ctx, client, job, started, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func parseInput(variables string) (*Input, error) {
	result, err := inputSchema.ValidateJSON([]byte(variables))
	if err != nil {
		return nil, apperrors.NewInvalidJobVariablesError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidJobVariablesError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidJobVariablesError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	res := input.AssessmentResult
	if res == nil {
		return nil, apperrors.NewInvalidJobVariablesError("assessmentResult is required")
	}
	if input.ContactEmail != "" && !validation.ValidateEmail(input.ContactEmail) {
		return nil, apperrors.NewInvalidJobVariablesError(fmt.Sprintf("contactEmail %q is not a valid address", input.ContactEmail))
	}

	// pillar_scores feeds benchmark aggregation, so only answered pillars go in
	pillarScores := make(map[scoring.PillarID]float64, len(res.PillarBreakdown))
	for _, ps := range res.PillarBreakdown {
		if ps.Answered {
			pillarScores[ps.PillarID] = ps.RawScore
		}
	}
	pillarJSON, err := json.Marshal(pillarScores)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	id := h.newID()
	createdAt := h.now().UTC()

	if _, err := h.db.ExecContext(ctx, insertAssessmentQuery,
		id,
		res.CatalogVersion,
		nullable(string(res.Org.Industry)),
		nullable(string(res.Org.CompanySize)),
		nullable(string(res.Org.Region)),
		res.TotalScore,
		res.Level,
		pillarJSON,
		resultJSON,
		nullable(input.ContactEmail),
		createdAt,
	); err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	h.logger.Info("assessment record created", map[string]interface{}{
		"assessmentId":   id,
		"catalogVersion": res.CatalogVersion,
		"totalScore":     res.TotalScore,
		"level":          res.Level,
	})

	return &Output{
		AssessmentID:     id,
		CreatedAt:        createdAt.Format(time.RFC3339),
		RefreshRequested: h.requestRefresh(ctx, id, createdAt),
	}, nil
}

// requestRefresh is best effort: the record is already committed.
func (h *Handler) requestRefresh(ctx context.Context, assessmentID string, at time.Time) bool {
	if h.publisher == nil || !h.config.RequestRefresh {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.PublishTimeout)
	defer cancel()

	err := h.publisher.PublishRefreshRequest(ctx, benchmark.RefreshRequest{
		RequestedAt:  at,
		AssessmentID: assessmentID,
		Reason:       refreshReason,
	})
	if err != nil {
		h.logger.Warn("benchmark refresh request failed", map[string]interface{}{
			"assessmentId": assessmentID,
			"error":        err.Error(),
		})
		return false
	}
	return true
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, started time.Time, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.failJob(ctx, client, job, started, apperrors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.ObserveJob(TaskType, started, "")
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(started), "completed")
	h.logger.Info("job completed successfully", map[string]interface{}{"jobKey": job.Key})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, started time.Time, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.ObserveJob(TaskType, started, string(stdErr.Code))
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(started), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}
