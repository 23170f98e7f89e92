// internal/workers/benchmark/refresh-benchmark-snapshots/handler.go
package refreshbenchmarksnapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"insider-risk-index/internal/benchmark"
	apperrors "insider-risk-index/internal/common/errors"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"
	"insider-risk-index/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "refresh-benchmark-snapshots"
)

// Refresher rebuilds benchmark snapshots. benchmark.Refresher satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, asOf time.Time) (*benchmark.RefreshReport, error)
}

type Handler struct {
	config       *Config
	refresher    Refresher
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, refresher Refresher, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		refresher:    refresher,
		errorHandler: apperrors.NewErrorHandler(l),
		obs:          obs,
		logger:       l,
		now:          time.Now,
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
	var input Input
	if variables == "" {
		return &input, nil
	}

	result, err := inputSchema.ValidateJSON([]byte(variables))
	if err != nil {
		return nil, apperrors.NewInvalidJobVariablesError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidJobVariablesError(result.Error())
	}
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidJobVariablesError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	asOf := h.now().UTC()
	if input.AsOf != "" {
		parsed, err := time.Parse(time.RFC3339, input.AsOf)
		if err != nil {
			return nil, apperrors.NewInvalidJobVariablesError(fmt.Sprintf("asOf: %v", err))
		}
		asOf = parsed.UTC()
	}

	h.logger.Info("refreshing benchmark snapshots", map[string]interface{}{
		"asOf":         asOf.Format(time.RFC3339),
		"reason":       input.Reason,
		"assessmentId": input.AssessmentID,
	})

	report, err := h.refresher.Refresh(ctx, asOf)
	if err != nil {
		return nil, apperrors.NewBenchmarkRefreshFailedError(err)
	}

	return &Output{
		RunID:              report.RunID,
		PeriodEnd:          report.PeriodEnd.Format(time.RFC3339),
		AssessmentsScanned: report.AssessmentsScanned,
		SnapshotsWritten:   report.SnapshotsWritten,
		CohortsSkipped:     report.CohortsSkipped,
		Attempts:           report.Attempts,
	}, nil
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
