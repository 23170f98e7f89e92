// internal/benchmark/resolver.go
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"
	"insider-risk-index/internal/scoring"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLookupTimeout   = 800 * time.Millisecond
	DefaultFreshnessWindow = 180 * 24 * time.Hour
)

type ResolverConfig struct {
	LookupTimeout   time.Duration
	FreshnessWindow time.Duration
}

// Resolver fetches the industry, company size, region and overall snapshots
// for an organization. It never blocks past LookupTimeout and never retries.
type Resolver struct {
	store  Store
	cfg    ResolverConfig
	logger logger.Logger
	tracer trace.Tracer
	group  singleflight.Group
}

func NewResolver(store Store, cfg ResolverConfig, log logger.Logger, tracer trace.Tracer) *Resolver {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = DefaultFreshnessWindow
	}
	if tracer == nil {
		tracer = otel.Tracer("insider-risk-index/benchmark")
	}
	return &Resolver{
		store:  store,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "benchmark-resolver"}),
		tracer: tracer,
	}
}

type lookup struct {
	dim    Dimension
	filter Filter
}

// lookupsFor builds one single-dimension filter per known cohort value plus
// the overall filter.
func lookupsFor(meta scoring.OrgMeta) []lookup {
	var out []lookup
	if meta.Industry != "" {
		out = append(out, lookup{DimensionIndustry, Filter{Industry: meta.Industry}})
	}
	if meta.CompanySize != "" {
		out = append(out, lookup{DimensionCompanySize, Filter{CompanySize: meta.CompanySize}})
	}
	if meta.Region != "" {
		out = append(out, lookup{DimensionRegion, Filter{Region: meta.Region}})
	}
	return append(out, lookup{DimensionOverall, Filter{}})
}

// Resolve looks every dimension up concurrently. The returned Set is always
// usable: a dimension that failed is nil and the failure is reported in the
// error, which wraps ErrBenchmarkUnavailable.
func (r *Resolver) Resolve(ctx context.Context, meta scoring.OrgMeta, asOf time.Time) (Set, error) {
	ctx, span := r.tracer.Start(ctx, "benchmark.Resolve", trace.WithAttributes(
		attribute.String("industry", string(meta.Industry)),
		attribute.String("company_size", string(meta.CompanySize)),
		attribute.String("region", string(meta.Region)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	lookups := lookupsFor(meta)
	snaps := make([]*Snapshot, len(lookups))
	errs := make([]error, len(lookups))

	var g errgroup.Group
	g.SetLimit(len(lookups))
	for i, l := range lookups {
		g.Go(func() error {
			snaps[i], errs[i] = r.lookup(ctx, l, asOf)
			return nil
		})
	}
	_ = g.Wait()

	var (
		set    Set
		failed []error
	)
	for i, l := range lookups {
		if errs[i] != nil {
			metrics.BenchmarkLookups.WithLabelValues(string(l.dim), "error").Inc()
			r.logger.Warn("benchmark lookup failed", map[string]interface{}{
				"dimension": string(l.dim),
				"cohort":    l.filter.String(),
				"error":     errs[i].Error(),
			})
			failed = append(failed, fmt.Errorf("%w: %s: %v", ErrBenchmarkUnavailable, l.dim, errs[i]))
			continue
		}
		outcome := "miss"
		if snaps[i] != nil {
			outcome = "hit"
		}
		metrics.BenchmarkLookups.WithLabelValues(string(l.dim), outcome).Inc()
		set.set(l.dim, snaps[i])
	}
	for _, d := range skippedDimensions(meta) {
		metrics.BenchmarkLookups.WithLabelValues(string(d), "skipped").Inc()
	}

	if len(failed) > 0 {
		err := errors.Join(failed...)
		span.SetStatus(codes.Error, err.Error())
		return set, err
	}
	return set, nil
}

// lookup shares one store call between concurrent requests for the same
// cohort. The shared call runs detached from any single caller's context, so
// one caller giving up does not fail the others; each caller still stops
// waiting at its own deadline.
func (r *Resolver) lookup(ctx context.Context, l lookup, asOf time.Time) (*Snapshot, error) {
	ctx, span := r.tracer.Start(ctx, "benchmark.lookup", trace.WithAttributes(
		attribute.String("dimension", string(l.dim)),
	))
	defer span.End()

	key := l.filter.Key() + "@" + asOf.UTC().Format(time.RFC3339Nano)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.LookupTimeout)
		defer cancel()
		return r.store.FindSnapshot(sctx, l.filter, asOf, r.cfg.FreshnessWindow)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			span.SetStatus(codes.Error, res.Err.Error())
			return nil, res.Err
		}
		snap, _ := res.Val.(*Snapshot)
		// shared results are copied so callers never alias each other
		return snap.Clone(), nil
	case <-ctx.Done():
		span.SetStatus(codes.Error, "timeout")
		return nil, ctx.Err()
	}
}

func skippedDimensions(meta scoring.OrgMeta) []Dimension {
	var out []Dimension
	if meta.Industry == "" {
		out = append(out, DimensionIndustry)
	}
	if meta.CompanySize == "" {
		out = append(out, DimensionCompanySize)
	}
	if meta.Region == "" {
		out = append(out, DimensionRegion)
	}
	return out
}
