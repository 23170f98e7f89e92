package benchmark

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/metrics"
	"insider-risk-index/internal/scoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullMeta = scoring.OrgMeta{
	Industry:    scoring.IndustryFinancialServices,
	CompanySize: scoring.SizeEnterprise,
	Region:      scoring.RegionNorthAmerica,
}

func seededStore() *fakeStore {
	store := newFakeStore()
	store.snapshots[Filter{Industry: scoring.IndustryFinancialServices}] = &Snapshot{ID: "ind", Industry: scoring.IndustryFinancialServices, AverageScore: 62, SampleSize: 40}
	store.snapshots[Filter{CompanySize: scoring.SizeEnterprise}] = &Snapshot{ID: "size", CompanySize: scoring.SizeEnterprise, AverageScore: 57, SampleSize: 80}
	store.snapshots[Filter{Region: scoring.RegionNorthAmerica}] = &Snapshot{ID: "region", Region: scoring.RegionNorthAmerica, AverageScore: 54, SampleSize: 120}
	store.snapshots[Filter{}] = &Snapshot{ID: "overall", AverageScore: 50, SampleSize: 400}
	return store
}

func newTestResolver(store Store, timeout time.Duration) *Resolver {
	return NewResolver(store, ResolverConfig{LookupTimeout: timeout}, logger.NewNoOpLogger(), nil)
}

// ==========================
// Resolve
// ==========================

func TestResolver_ResolvesAllDimensions(t *testing.T) {
	r := newTestResolver(seededStore(), time.Second)

	set, err := r.Resolve(context.Background(), fullMeta, time.Now())

	require.NoError(t, err)
	require.NotNil(t, set.Industry)
	require.NotNil(t, set.CompanySize)
	require.NotNil(t, set.Region)
	require.NotNil(t, set.Overall)
	assert.Equal(t, "ind", set.Industry.ID)
	assert.Equal(t, "size", set.CompanySize.ID)
	assert.Equal(t, "region", set.Region.ID)
	assert.Equal(t, "overall", set.Overall.ID)
}

func TestResolver_SkipsUnknownDimensions(t *testing.T) {
	store := seededStore()
	r := newTestResolver(store, time.Second)
	skipped := testutil.ToFloat64(metrics.BenchmarkLookups.WithLabelValues(string(DimensionCompanySize), "skipped"))

	set, err := r.Resolve(context.Background(), scoring.OrgMeta{Industry: scoring.IndustryFinancialServices}, time.Now())

	require.NoError(t, err)
	assert.NotNil(t, set.Industry)
	assert.Nil(t, set.CompanySize)
	assert.Nil(t, set.Region)
	assert.NotNil(t, set.Overall)
	assert.Equal(t, 0, store.callCount(Filter{CompanySize: scoring.SizeEnterprise}))
	assert.Equal(t, skipped+1,
		testutil.ToFloat64(metrics.BenchmarkLookups.WithLabelValues(string(DimensionCompanySize), "skipped")))
}

func TestResolver_MissingSnapshotIsNotAnError(t *testing.T) {
	store := seededStore()
	delete(store.snapshots, Filter{Region: scoring.RegionNorthAmerica})
	r := newTestResolver(store, time.Second)

	set, err := r.Resolve(context.Background(), fullMeta, time.Now())

	require.NoError(t, err)
	assert.Nil(t, set.Region)
	assert.NotNil(t, set.Overall)
}

func TestResolver_StoreErrorDegradesOneDimension(t *testing.T) {
	store := seededStore()
	store.errs[Filter{CompanySize: scoring.SizeEnterprise}] = errors.New("relation does not exist")
	r := newTestResolver(store, time.Second)

	set, err := r.Resolve(context.Background(), fullMeta, time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBenchmarkUnavailable)
	assert.Contains(t, err.Error(), "company_size")
	assert.Nil(t, set.CompanySize)
	assert.NotNil(t, set.Industry)
	assert.NotNil(t, set.Region)
	assert.NotNil(t, set.Overall)
}

func TestResolver_TimeoutIsBounded(t *testing.T) {
	store := seededStore()
	store.delay = 2 * time.Second
	r := newTestResolver(store, 50*time.Millisecond)

	start := time.Now()
	set, err := r.Resolve(context.Background(), fullMeta, time.Now())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBenchmarkUnavailable)
	assert.Equal(t, Set{}, set)
	assert.Less(t, elapsed, time.Second)
}

func TestResolver_CallerCancellation(t *testing.T) {
	store := seededStore()
	store.delay = time.Second
	r := newTestResolver(store, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, fullMeta, time.Now())
	assert.ErrorIs(t, err, ErrBenchmarkUnavailable)
}

func TestResolver_SharesConcurrentLookups(t *testing.T) {
	store := seededStore()
	store.delay = 100 * time.Millisecond
	r := newTestResolver(store, time.Second)
	asOf := time.Now()

	const callers = 8
	var wg sync.WaitGroup
	sets := make([]Set, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sets[i], _ = r.Resolve(context.Background(), fullMeta, asOf)
		}(i)
	}
	wg.Wait()

	assert.Less(t, store.callCount(Filter{}), callers)
	for _, s := range sets {
		require.NotNil(t, s.Overall)
		assert.Equal(t, "overall", s.Overall.ID)
	}
	// shared results must not alias each other
	sets[0].Overall.PillarAverages = map[scoring.PillarID]float64{scoring.PillarVisibility: 1}
	assert.Nil(t, sets[1].Overall.PillarAverages)
}

func TestResolver_DoesNotShareAcrossAsOf(t *testing.T) {
	store := seededStore()
	store.delay = 100 * time.Millisecond
	r := newTestResolver(store, time.Second)
	asOf := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for _, at := range []time.Time{asOf, asOf.Add(-time.Hour)} {
		wg.Add(1)
		go func(at time.Time) {
			defer wg.Done()
			_, _ = r.Resolve(context.Background(), scoring.OrgMeta{}, at)
		}(at)
	}
	wg.Wait()

	assert.Equal(t, 2, store.callCount(Filter{}))
}

func TestLookupsFor(t *testing.T) {
	tests := []struct {
		name string
		meta scoring.OrgMeta
		want []Dimension
	}{
		{"all known", fullMeta, []Dimension{DimensionIndustry, DimensionCompanySize, DimensionRegion, DimensionOverall}},
		{"region only", scoring.OrgMeta{Region: scoring.RegionAPAC}, []Dimension{DimensionRegion, DimensionOverall}},
		{"nothing known", scoring.OrgMeta{}, []Dimension{DimensionOverall}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Dimension
			for _, l := range lookupsFor(tt.meta) {
				got = append(got, l.dim)
				assert.Equal(t, l.dim, l.filter.Dimension())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
