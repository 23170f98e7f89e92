package assessment

import (
	"context"
	"errors"
	"time"

	"insider-risk-index/internal/benchmark"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"
	"insider-risk-index/internal/scoring"
)

// BenchmarkResolver looks up cohort snapshots. benchmark.Resolver satisfies
// it.
type BenchmarkResolver interface {
	Resolve(ctx context.Context, meta scoring.OrgMeta, asOf time.Time) (benchmark.Set, error)
}

// Service is the one entry point every caller (HTTP, workflow worker)
// computes assessments through.
type Service struct {
	registry *scoring.Registry
	resolver BenchmarkResolver
	logger   logger.Logger
	now      func() time.Time
}

// NewService builds the service. A nil resolver disables benchmarking.
func NewService(registry *scoring.Registry, resolver BenchmarkResolver, log logger.Logger) *Service {
	return &Service{
		registry: registry,
		resolver: resolver,
		logger:   log.WithFields(map[string]interface{}{"component": "assessment-service"}),
		now:      time.Now,
	}
}

// Registry exposes the catalog versions the service scores against.
func (s *Service) Registry() *scoring.Registry {
	return s.registry
}

// ComputeAssessment validates, canonicalizes and scores a submission, then
// attaches whatever benchmarks are available. Benchmark failures never
// surface as errors; scoring failures are returned as typed errors
// (*scoring.ValidationError, scoring.ErrUnknownCatalogVersion,
// scoring.ErrInvalidInput).
func (s *Service) ComputeAssessment(ctx context.Context, sub Submission) (*AssessmentResult, error) {
	engine, err := s.registry.Engine(sub.CatalogVersion)
	if err != nil {
		return nil, err
	}

	if err := validateSubmission(engine.Catalog(), sub); err != nil {
		return nil, err
	}

	meta := scoring.CanonicalizeOrgMeta(sub.Org)
	result, err := engine.Score(sub.Answers, meta)
	if err != nil {
		return nil, err
	}
	metrics.AssessmentsComputed.WithLabelValues(result.LevelName).Inc()
	metrics.AssessmentTotalScore.Observe(float64(result.TotalScore))

	return Assemble(result, s.resolveBenchmarks(ctx, meta)), nil
}

func (s *Service) resolveBenchmarks(ctx context.Context, meta scoring.OrgMeta) benchmark.Set {
	if s.resolver == nil {
		return benchmark.Set{}
	}

	set, err := s.resolver.Resolve(ctx, meta, s.now())
	if err != nil {
		metrics.BenchmarkUnavailable.Inc()
		s.logger.Warn("benchmarks unavailable, returning score without some comparisons", map[string]interface{}{
			"industry":    string(meta.Industry),
			"companySize": string(meta.CompanySize),
			"region":      string(meta.Region),
			"error":       err.Error(),
		})
	}
	return set
}

// validateSubmission reports answer and org problems together.
func validateSubmission(c *scoring.Catalog, sub Submission) error {
	merged := &scoring.ValidationError{}
	for _, err := range []error{
		scoring.ValidateAnswers(c, sub.Answers),
		scoring.ValidateOrgMeta(sub.Org),
	} {
		if err == nil {
			continue
		}
		var verr *scoring.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		merged.Fields = append(merged.Fields, verr.Fields...)
	}
	if len(merged.Fields) == 0 {
		return nil
	}
	return merged
}
