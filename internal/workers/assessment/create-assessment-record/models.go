// internal/workers/assessment/create-assessment-record/models.go
package createassessmentrecord

import (
	"insider-risk-index/internal/assessment"
	"insider-risk-index/internal/common/validation"
)

type Input struct {
	AssessmentResult *assessment.AssessmentResult `json:"assessmentResult"`
	ContactEmail     string                       `json:"contactEmail,omitempty"`
}

type Output struct {
	AssessmentID     string `json:"assessmentId"`
	CreatedAt        string `json:"createdAt"` // ISO 8601
	RefreshRequested bool   `json:"refreshRequested"`
}

// inputSchema only checks what the insert depends on; the result itself was
// produced by compute-assessment.
var inputSchema = validation.MustCompileSchema(`{
  "type": "object",
  "required": ["assessmentResult"],
  "properties": {
    "assessmentResult": {
      "type": "object",
      "required": ["catalogVersion", "totalScore", "level", "pillarBreakdown"],
      "properties": {
        "catalogVersion": {"type": "string", "minLength": 1},
        "totalScore": {"type": "integer", "minimum": 0, "maximum": 100},
        "level": {"type": "integer", "minimum": 1, "maximum": 5},
        "pillarBreakdown": {"type": "array"}
      }
    },
    "contactEmail": {"type": "string"}
  }
}`)
