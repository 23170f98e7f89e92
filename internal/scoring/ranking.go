package scoring

import (
	"fmt"
	"math"
	"sort"
)

// rankedPillarCount is how many pillars are reported as strengths and as
// weaknesses.
const rankedPillarCount = 3

// rankPillars returns a copy of breakdown ordered by raw score. sort.SliceStable
// keeps catalog declaration order between equal scores.
func rankPillars(breakdown []PillarScore, descending bool) []PillarScore {
	ranked := append([]PillarScore(nil), breakdown...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if descending {
			return ranked[i].RawScore > ranked[j].RawScore
		}
		return ranked[i].RawScore < ranked[j].RawScore
	})
	return ranked
}

func strengths(breakdown []PillarScore) []string {
	ranked := rankPillars(breakdown, true)
	out := make([]string, 0, rankedPillarCount)
	for i := 0; i < len(ranked) && i < rankedPillarCount; i++ {
		p := ranked[i]
		switch {
		case !p.Answered:
			out = append(out, fmt.Sprintf("%s was not answered", p.Name))
		case displayScore(p.RawScore) == 0:
			out = append(out, fmt.Sprintf("%s scores 0/100", p.Name))
		default:
			out = append(out, fmt.Sprintf("Strong %s program (%d/100)", p.Name, displayScore(p.RawScore)))
		}
	}
	return out
}

func weaknesses(breakdown []PillarScore) []string {
	ranked := rankPillars(breakdown, false)
	out := make([]string, 0, rankedPillarCount)
	for i := 0; i < len(ranked) && i < rankedPillarCount; i++ {
		p := ranked[i]
		if !p.Answered {
			out = append(out, fmt.Sprintf("%s was not answered and scores 0/100", p.Name))
			continue
		}
		out = append(out, fmt.Sprintf("%s is among your lowest-scoring pillars (%d/100)", p.Name, displayScore(p.RawScore)))
	}
	return out
}

// recommendations walks pillars weakest first and collects the canned advice
// of every pillar under the needs-attention threshold. A MaxRecommendations
// of zero means no cap.
func (e *Engine) recommendations(breakdown []PillarScore) []string {
	limit := e.catalog.MaxRecommendations
	out := []string{}
	for _, p := range rankPillars(breakdown, false) {
		if p.RawScore >= e.catalog.NeedsAttentionThreshold {
			break
		}
		for _, rec := range e.catalog.Recommendations[p.PillarID] {
			if limit > 0 && len(out) >= limit {
				return out
			}
			out = append(out, rec)
		}
	}
	return out
}

func displayScore(raw float64) int {
	return int(math.Round(raw))
}
