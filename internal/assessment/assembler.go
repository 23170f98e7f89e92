package assessment

import (
	"math"

	"insider-risk-index/internal/benchmark"
	"insider-risk-index/internal/scoring"
)

// Assemble merges a scoring result with the resolved benchmarks. Neither
// argument is modified and the returned value shares no memory with them.
func Assemble(result *scoring.Result, set benchmark.Set) *AssessmentResult {
	if result == nil {
		return nil
	}

	out := &AssessmentResult{Result: copyResult(result)}
	out.Benchmark = Benchmarks{
		Industry:    compare(&out.Result, set.Industry),
		CompanySize: compare(&out.Result, set.CompanySize),
		Region:      compare(&out.Result, set.Region),
		Overall:     compare(&out.Result, set.Overall),
	}
	if out.Benchmark.Overall != nil {
		out.PeerPosition = positionFor(out.Benchmark.Overall.Delta)
	}
	return out
}

func compare(result *scoring.Result, snap *benchmark.Snapshot) *BenchmarkComparison {
	if snap == nil {
		return nil
	}

	cmp := &BenchmarkComparison{
		AverageScore: snap.AverageScore,
		SampleSize:   snap.SampleSize,
		PeriodEnd:    snap.PeriodEnd,
		Delta:        float64(result.TotalScore) - snap.AverageScore,
	}
	for _, ps := range result.PillarBreakdown {
		avg, ok := snap.PillarAverages[ps.PillarID]
		if !ok {
			continue
		}
		if cmp.PillarDeltas == nil {
			cmp.PillarDeltas = make(map[scoring.PillarID]float64, len(result.PillarBreakdown))
		}
		cmp.PillarDeltas[ps.PillarID] = ps.RawScore - avg
	}
	return cmp
}

func positionFor(delta float64) PeerPosition {
	switch {
	case math.Abs(delta) < peerBand:
		return PeerAt
	case delta > 0:
		return PeerAbove
	default:
		return PeerBelow
	}
}

func copyResult(r *scoring.Result) scoring.Result {
	out := *r
	out.PillarBreakdown = append([]scoring.PillarScore(nil), r.PillarBreakdown...)
	out.Strengths = copyStrings(r.Strengths)
	out.Weaknesses = copyStrings(r.Weaknesses)
	out.Recommendations = copyStrings(r.Recommendations)
	return out
}

// copyStrings keeps an empty slice empty so it still encodes as [].
func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}
