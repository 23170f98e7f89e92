// internal/workers/benchmark/refresh-benchmark-snapshots/models.go
package refreshbenchmarksnapshots

import "insider-risk-index/internal/common/validation"

// Input comes from a timer start event or a benchmark-refresh message.
type Input struct {
	AsOf         string `json:"asOf,omitempty"` // RFC 3339, defaults to now
	AssessmentID string `json:"assessmentId,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type Output struct {
	RunID              string `json:"refreshRunId"`
	PeriodEnd          string `json:"periodEnd"` // ISO 8601
	AssessmentsScanned int    `json:"assessmentsScanned"`
	SnapshotsWritten   int    `json:"snapshotsWritten"`
	CohortsSkipped     int    `json:"cohortsSkipped"`
	Attempts           int    `json:"refreshAttempts"`
}

var inputSchema = validation.MustCompileSchema(`{
  "type": "object",
  "properties": {
    "asOf": {"type": "string", "format": "date-time"},
    "assessmentId": {"type": "string"},
    "reason": {"type": "string"}
  }
}`)
