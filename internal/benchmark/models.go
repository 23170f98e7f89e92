// internal/benchmark/models.go
package benchmark

import (
	"errors"
	"fmt"
	"time"

	"insider-risk-index/internal/scoring"
)

// ErrBenchmarkUnavailable marks a lookup that failed or timed out. It is
// soft: callers drop the comparison and keep the score.
var ErrBenchmarkUnavailable = errors.New("benchmark unavailable")

// Dimension names a cohort grouping.
type Dimension string

const (
	DimensionIndustry    Dimension = "industry"
	DimensionCompanySize Dimension = "company_size"
	DimensionRegion      Dimension = "region"
	DimensionOverall     Dimension = "overall"
)

// Snapshot is a pre-aggregated summary of peer scores for one cohort. Empty
// cohort fields are stored as NULL; the overall snapshot has none set.
type Snapshot struct {
	ID             string                       `json:"id"`
	Industry       scoring.Industry             `json:"industry,omitempty"`
	CompanySize    scoring.CompanySize          `json:"companySize,omitempty"`
	Region         scoring.Region               `json:"region,omitempty"`
	PeriodEnd      time.Time                    `json:"periodEnd"`
	AverageScore   float64                      `json:"averageScore"`
	PillarAverages map[scoring.PillarID]float64 `json:"pillarAverages"`
	SampleSize     int                          `json:"sampleSize"`
}

// Filter selects snapshots whose cohort fields equal the filter exactly,
// empty meaning NULL.
type Filter struct {
	Industry    scoring.Industry
	CompanySize scoring.CompanySize
	Region      scoring.Region
}

// Dimension reports which cohort the filter selects. Filters that set more
// than one field are reported as their first set field.
func (f Filter) Dimension() Dimension {
	switch {
	case f.Industry != "":
		return DimensionIndustry
	case f.CompanySize != "":
		return DimensionCompanySize
	case f.Region != "":
		return DimensionRegion
	default:
		return DimensionOverall
	}
}

// Key is the cache key of the filter. Empty segments are written as "*".
func (f Filter) Key() string {
	return fmt.Sprintf("benchmark:snapshot:%s:%s:%s",
		segment(string(f.Industry)), segment(string(f.CompanySize)), segment(string(f.Region)))
}

func (f Filter) String() string {
	return fmt.Sprintf("%s=%s/%s/%s", f.Dimension(),
		segment(string(f.Industry)), segment(string(f.CompanySize)), segment(string(f.Region)))
}

func segment(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

// FilterOf returns the filter matching a snapshot's own cohort.
func FilterOf(s Snapshot) Filter {
	return Filter{Industry: s.Industry, CompanySize: s.CompanySize, Region: s.Region}
}

// Set is the resolver output: one snapshot per dimension, nil where no
// benchmark is available.
type Set struct {
	Industry    *Snapshot `json:"industry"`
	CompanySize *Snapshot `json:"companySize"`
	Region      *Snapshot `json:"region"`
	Overall     *Snapshot `json:"overall"`
}

// Get returns the snapshot for a dimension.
func (s Set) Get(d Dimension) *Snapshot {
	switch d {
	case DimensionIndustry:
		return s.Industry
	case DimensionCompanySize:
		return s.CompanySize
	case DimensionRegion:
		return s.Region
	case DimensionOverall:
		return s.Overall
	}
	return nil
}

func (s *Set) set(d Dimension, snap *Snapshot) {
	switch d {
	case DimensionIndustry:
		s.Industry = snap
	case DimensionCompanySize:
		s.CompanySize = snap
	case DimensionRegion:
		s.Region = snap
	case DimensionOverall:
		s.Overall = snap
	}
}

// Clone deep-copies a snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.PillarAverages != nil {
		out.PillarAverages = make(map[scoring.PillarID]float64, len(s.PillarAverages))
		for k, v := range s.PillarAverages {
			out.PillarAverages[k] = v
		}
	}
	return &out
}

// ScoredAssessment is the slice of a stored assessment the refresh job
// aggregates.
type ScoredAssessment struct {
	Industry     scoring.Industry
	CompanySize  scoring.CompanySize
	Region       scoring.Region
	TotalScore   int
	PillarScores map[scoring.PillarID]float64
	CreatedAt    time.Time
}
