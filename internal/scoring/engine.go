// internal/scoring/engine.go
package scoring

import (
	"math"
)

// Engine scores submissions against one catalog version. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog   *Catalog
	questions map[string]Question
	pillarIdx map[PillarID]int
	perPillar map[PillarID]int
}

// NewEngine validates the catalog and indexes it. The engine keeps its own
// copy, so later changes to c do not affect scoring.
func NewEngine(c *Catalog) (*Engine, error) {
	if c == nil {
		return nil, &ConfigurationError{Problems: []string{"catalog is nil"}}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	own := cloneCatalog(c)
	e := &Engine{
		catalog:   own,
		questions: make(map[string]Question, len(own.Questions)),
		pillarIdx: make(map[PillarID]int, len(own.Pillars)),
		perPillar: make(map[PillarID]int, len(own.Pillars)),
	}
	for i, p := range own.Pillars {
		e.pillarIdx[p.ID] = i
	}
	for _, q := range own.Questions {
		e.questions[q.ID] = q
		e.perPillar[q.PillarID]++
	}
	return e, nil
}

// Version returns the catalog version this engine scores under.
func (e *Engine) Version() string { return e.catalog.Version }

// Catalog returns a copy of the engine's catalog.
func (e *Engine) Catalog() *Catalog { return cloneCatalog(e.catalog) }

type pillarAccumulator struct {
	weightedSum float64
	weightTotal float64
	answered    int
}

// Score turns pre-validated answers into the benchmark-free result.
//
// Unanswered questions are excluded from their pillar's weighted mean; a
// pillar with no answers at all scores 0. Input that breaks an invariant
// (unknown question, duplicate answer, value outside [0,100]) yields
// ErrInvalidInput.
func (e *Engine) Score(answers []Answer, meta OrgMeta) (*Result, error) {
	acc := make([]pillarAccumulator, len(e.catalog.Pillars))
	seen := make(map[string]bool, len(answers))

	for _, a := range answers {
		q, ok := e.questions[a.QuestionID]
		if !ok {
			return nil, invalidInput("unknown question %q", a.QuestionID)
		}
		if seen[a.QuestionID] {
			return nil, invalidInput("duplicate answer for question %q", a.QuestionID)
		}
		seen[a.QuestionID] = true
		if math.IsNaN(a.Value) || a.Value < 0 || a.Value > 100 {
			return nil, invalidInput("answer %q value %v outside [0,100]", a.QuestionID, a.Value)
		}

		pa := &acc[e.pillarIdx[q.PillarID]]
		pa.weightedSum += a.Value * q.Weight
		pa.weightTotal += q.Weight
		pa.answered++
	}

	breakdown := make([]PillarScore, len(e.catalog.Pillars))
	var total float64
	for i, p := range e.catalog.Pillars {
		raw := 0.0
		if acc[i].weightTotal > 0 {
			raw = acc[i].weightedSum / acc[i].weightTotal
		}
		contribution := raw * p.Weight / 100
		total += contribution

		breakdown[i] = PillarScore{
			PillarID:            p.ID,
			Name:                p.Name,
			RawScore:            raw,
			Weight:              p.Weight,
			ContributionToTotal: contribution,
			AnsweredCount:       acc[i].answered,
			QuestionCount:       e.perPillar[p.ID],
			Answered:            acc[i].answered > 0,
		}
	}

	totalScore := clampInt(int(math.Round(total)), 0, 100)
	band := e.catalog.LevelFor(totalScore)

	completion := 0.0
	if n := len(e.catalog.Questions); n > 0 {
		completion = float64(len(seen)) / float64(n)
	}

	return &Result{
		CatalogVersion:   e.catalog.Version,
		TotalScore:       totalScore,
		Level:            band.Level,
		LevelName:        band.Name,
		LevelDescription: band.Description,
		PillarBreakdown:  breakdown,
		Strengths:        strengths(breakdown),
		Weaknesses:       weaknesses(breakdown),
		Recommendations:  e.recommendations(breakdown),
		Completion:       completion,
		Org:              meta,
	}, nil
}

func cloneCatalog(c *Catalog) *Catalog {
	out := *c
	out.Pillars = append([]Pillar(nil), c.Pillars...)
	out.Questions = append([]Question(nil), c.Questions...)
	out.Levels = append([]LevelBand(nil), c.Levels...)
	if c.Recommendations != nil {
		out.Recommendations = make(map[PillarID][]string, len(c.Recommendations))
		for k, v := range c.Recommendations {
			out.Recommendations[k] = append([]string(nil), v...)
		}
	}
	return &out
}
