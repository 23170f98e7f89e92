// internal/workers/assessment/compute-assessment/handler.go
package computeassessment

import (
	"context"
	"encoding/json"
	"time"

	"insider-risk-index/internal/assessment"
	apperrors "insider-risk-index/internal/common/errors"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"
	"insider-risk-index/internal/common/observability"
	"insider-risk-index/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "compute-assessment"
)

// Computer is the assessment entry point shared with the HTTP adapter.
type Computer interface {
	ComputeAssessment(ctx context.Context, sub assessment.Submission) (*assessment.AssessmentResult, error)
}

type Handler struct {
	config       *Config
	computer     Computer
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, computer Computer, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		computer:     computer,
		errorHandler: apperrors.NewErrorHandler(l),
		obs:          obs,
		logger:       l,
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

// Execute runs the worker logic without a broker, for tests and reuse.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func parseInput(variables string) (*Input, error) {
	result, err := validation.AssessmentSubmission.ValidateJSON([]byte(variables))
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
	result, err := h.computer.ComputeAssessment(ctx, *input)
	if err != nil {
		return nil, assessment.Classify(err)
	}

	// the job still succeeds when a known cohort had no comparison
	partial := result.Benchmark.Overall == nil ||
		(result.Org.Industry != "" && result.Benchmark.Industry == nil) ||
		(result.Org.CompanySize != "" && result.Benchmark.CompanySize == nil) ||
		(result.Org.Region != "" && result.Benchmark.Region == nil)

	h.logger.Info("assessment computed", map[string]interface{}{
		"catalogVersion":   result.CatalogVersion,
		"totalScore":       result.TotalScore,
		"level":            result.Level,
		"benchmarkPartial": partial,
	})

	return &Output{
		AssessmentResult: result,
		TotalScore:       result.TotalScore,
		Level:            result.Level,
		CatalogVersion:   result.CatalogVersion,
		BenchmarkPartial: partial,
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
