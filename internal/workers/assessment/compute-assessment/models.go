// internal/workers/assessment/compute-assessment/models.go
package computeassessment

import "insider-risk-index/internal/assessment"

// Input is the submission carried in the process variables.
type Input = assessment.Submission

// Output exposes the full result plus the fields gateways branch on.
type Output struct {
	AssessmentResult *assessment.AssessmentResult `json:"assessmentResult"`
	TotalScore       int                          `json:"totalScore"`
	Level            int                          `json:"level"`
	CatalogVersion   string                       `json:"catalogVersion"`
	BenchmarkPartial bool                         `json:"benchmarkPartial"`
}
