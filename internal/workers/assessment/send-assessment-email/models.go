// internal/workers/assessment/send-assessment-email/models.go
package sendassessmentemail

import (
	"insider-risk-index/internal/assessment"
	"insider-risk-index/internal/common/validation"
)

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
)

type Input struct {
	AssessmentID     string                       `json:"assessmentId,omitempty"`
	RecipientEmail   string                       `json:"contactEmail,omitempty"`
	AssessmentResult *assessment.AssessmentResult `json:"assessmentResult"`
}

type Output struct {
	EmailStatus string `json:"emailStatus"`
	MessageID   string `json:"emailMessageId,omitempty"`
	SentAt      string `json:"emailSentAt,omitempty"` // ISO 8601
}

var inputSchema = validation.MustCompileSchema(`{
  "type": "object",
  "required": ["assessmentResult"],
  "properties": {
    "assessmentId": {"type": "string"},
    "contactEmail": {"type": "string"},
    "assessmentResult": {
      "type": "object",
      "required": ["totalScore", "level", "levelName"],
      "properties": {
        "totalScore": {"type": "integer", "minimum": 0, "maximum": 100},
        "level": {"type": "integer", "minimum": 1, "maximum": 5},
        "levelName": {"type": "string"}
      }
    }
  }
}`)
