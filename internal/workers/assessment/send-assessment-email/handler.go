// internal/workers/assessment/send-assessment-email/handler.go
package sendassessmentemail

import (
	"context"
	"encoding/json"
	"time"

	"insider-risk-index/internal/common/aws"
	apperrors "insider-risk-index/internal/common/errors"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"
	"insider-risk-index/internal/common/observability"
	"insider-risk-index/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-assessment-email"
)

// EmailSender delivers a rendered email. aws.SESClient satisfies it.
type EmailSender interface {
	Send(ctx context.Context, email aws.Email) (string, error)
}

type Handler struct {
	config       *Config
	sender       EmailSender
	renderer     *renderer
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, sender EmailSender, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sender:       sender,
		renderer:     newRenderer(),
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
	if !h.config.EmailEnabled || h.sender == nil {
		h.logger.Info("email delivery disabled", map[string]interface{}{
			"assessmentId": input.AssessmentID,
		})
		return &Output{EmailStatus: StatusDisabled}, nil
	}
	if input.RecipientEmail == "" {
		h.logger.Info("no contact email, skipping", map[string]interface{}{
			"assessmentId": input.AssessmentID,
		})
		return &Output{EmailStatus: StatusSkipped}, nil
	}
	if !validation.ValidateEmail(input.RecipientEmail) {
		return nil, apperrors.NewInvalidJobVariablesError("contactEmail is not a valid address")
	}
	if input.AssessmentResult == nil {
		return nil, apperrors.NewInvalidJobVariablesError("assessmentResult is required")
	}

	subject, body, err := h.renderer.render(emailData{
		AssessmentResult: input.AssessmentResult,
		AssessmentID:     input.AssessmentID,
		SubjectPrefix:    h.config.SubjectPrefix,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	messageID, err := h.sender.Send(ctx, aws.Email{
		From:     h.config.FromEmail,
		To:       []string{input.RecipientEmail},
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		return nil, apperrors.NewNotificationSendFailedError("email", err)
	}

	h.logger.Info("assessment email sent", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"messageId":    messageID,
	})

	return &Output{
		EmailStatus: StatusSent,
		MessageID:   messageID,
		SentAt:      h.now().UTC().Format(time.RFC3339),
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
