// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"insider-risk-index/internal/common/config"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandlerFunc is the signature every worker Handle method satisfies.
type JobHandlerFunc func(client worker.JobClient, job entities.Job)

// Instrument tracks in-flight jobs of a task type on the worker_jobs_active
// gauge.
func Instrument(taskType string, handler JobHandlerFunc) JobHandlerFunc {
	gauge := metrics.WorkerJobsActive.WithLabelValues(taskType)
	return func(client worker.JobClient, job entities.Job) {
		gauge.Inc()
		defer gauge.Dec()
		handler(client, job)
	}
}

// StartWorker opens a job worker for taskType. It returns nil when the worker
// is disabled in configuration.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandlerFunc, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, handler))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jw
}
