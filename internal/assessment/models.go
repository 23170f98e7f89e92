package assessment

import (
	"time"

	"insider-risk-index/internal/scoring"
)

// PeerPosition places a total score relative to the overall benchmark.
type PeerPosition string

const (
	PeerAbove PeerPosition = "above"
	PeerAt    PeerPosition = "at"
	PeerBelow PeerPosition = "below"
)

// peerBand is the distance from the overall average still reported as "at".
const peerBand = 1.0

// BenchmarkComparison is one cohort snapshot seen from the submitter's
// result. Delta is the total score minus the cohort average; PillarDeltas
// hold the same difference per pillar where the cohort has an average.
type BenchmarkComparison struct {
	AverageScore float64                      `json:"averageScore"`
	SampleSize   int                          `json:"sampleSize"`
	PeriodEnd    time.Time                    `json:"periodEnd"`
	Delta        float64                      `json:"delta"`
	PillarDeltas map[scoring.PillarID]float64 `json:"pillarDeltas,omitempty"`
}

// Benchmarks is nil per dimension when no comparison is available.
type Benchmarks struct {
	Industry    *BenchmarkComparison `json:"industry"`
	CompanySize *BenchmarkComparison `json:"companySize"`
	Region      *BenchmarkComparison `json:"region"`
	Overall     *BenchmarkComparison `json:"overall"`
}

// AssessmentResult is the single output shape handed to the web page, PDF
// and email callers.
type AssessmentResult struct {
	scoring.Result
	Benchmark    Benchmarks   `json:"benchmark"`
	PeerPosition PeerPosition `json:"peerPosition,omitempty"`
}

// Submission is the input of ComputeAssessment. Org accepts canonical
// values as well as free-text labels.
type Submission struct {
	Answers        []scoring.Answer   `json:"answers"`
	Org            scoring.RawOrgMeta `json:"org"`
	CatalogVersion string             `json:"catalogVersion,omitempty"`
}
