// internal/scoring/catalog.go
package scoring

import (
	"fmt"
	"math"
)

// weightEpsilon is the tolerance for pillar weights summing to 100.
const weightEpsilon = 1e-6

// Pillar is a weighted risk category. Weight is a percentage in [0,100].
type Pillar struct {
	ID          PillarID `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Weight      float64  `yaml:"weight" json:"weight"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// Question is an immutable catalog entry. Weight is relative within its pillar.
type Question struct {
	ID       string   `yaml:"id" json:"id"`
	PillarID PillarID `yaml:"pillar" json:"pillarId"`
	Prompt   string   `yaml:"prompt" json:"prompt"`
	Weight   float64  `yaml:"weight" json:"weight"`
}

// LevelBand maps an inclusive total-score range to a maturity level.
type LevelBand struct {
	Level       int    `yaml:"level" json:"level"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Min         int    `yaml:"min" json:"min"`
	Max         int    `yaml:"max" json:"max"`
}

// Catalog is a versioned questionnaire: questions, pillar weights, maturity
// bands and the canned recommendation table. A catalog value is treated as
// read-only once registered.
type Catalog struct {
	Version                 string                `yaml:"version" json:"version"`
	Pillars                 []Pillar              `yaml:"pillars" json:"pillars"`
	Questions               []Question            `yaml:"questions" json:"questions"`
	Levels                  []LevelBand           `yaml:"levels" json:"levels"`
	Recommendations         map[PillarID][]string `yaml:"recommendations" json:"recommendations,omitempty"`
	NeedsAttentionThreshold float64               `yaml:"needs_attention_threshold" json:"needsAttentionThreshold"`
	MaxRecommendations      int                   `yaml:"max_recommendations" json:"maxRecommendations"`
}

// Validate checks the catalog invariants and returns a *ConfigurationError
// listing every problem found.
func (c *Catalog) Validate() error {
	cfgErr := &ConfigurationError{Version: c.Version}
	problem := func(format string, args ...interface{}) {
		cfgErr.Problems = append(cfgErr.Problems, fmt.Sprintf(format, args...))
	}

	if c.Version == "" {
		problem("version is required")
	}
	if len(c.Pillars) == 0 {
		problem("at least one pillar is required")
	}

	pillars := make(map[PillarID]bool, len(c.Pillars))
	var sum float64
	for _, p := range c.Pillars {
		if p.ID == "" {
			problem("pillar with empty id")
			continue
		}
		if pillars[p.ID] {
			problem("duplicate pillar %q", p.ID)
		}
		pillars[p.ID] = true
		if p.Weight < 0 || p.Weight > 100 || math.IsNaN(p.Weight) {
			problem("pillar %q weight %v outside [0,100]", p.ID, p.Weight)
		}
		sum += p.Weight
	}
	if len(c.Pillars) > 0 && math.Abs(sum-100) > weightEpsilon {
		problem("pillar weights sum to %v, want 100", sum)
	}

	questions := make(map[string]bool, len(c.Questions))
	perPillar := make(map[PillarID]int, len(c.Pillars))
	for _, q := range c.Questions {
		if q.ID == "" {
			problem("question with empty id")
			continue
		}
		if questions[q.ID] {
			problem("duplicate question %q", q.ID)
		}
		questions[q.ID] = true
		if !pillars[q.PillarID] {
			problem("question %q references unknown pillar %q", q.ID, q.PillarID)
		}
		if !(q.Weight > 0) || math.IsInf(q.Weight, 0) {
			problem("question %q weight must be positive", q.ID)
		}
		perPillar[q.PillarID]++
	}
	for _, p := range c.Pillars {
		if p.ID != "" && perPillar[p.ID] == 0 {
			problem("pillar %q has no questions", p.ID)
		}
	}

	for id := range c.Recommendations {
		if !pillars[id] {
			problem("recommendations reference unknown pillar %q", id)
		}
	}

	c.validateLevels(problem)

	if c.NeedsAttentionThreshold < 0 || c.NeedsAttentionThreshold > 100 {
		problem("needs_attention_threshold %v outside [0,100]", c.NeedsAttentionThreshold)
	}
	if c.MaxRecommendations < 0 {
		problem("max_recommendations must not be negative")
	}

	if len(cfgErr.Problems) > 0 {
		return cfgErr
	}
	return nil
}

// validateLevels requires bands ordered by level that tile [0,100] without
// gaps or overlaps, which makes level a monotonic function of the score.
func (c *Catalog) validateLevels(problem func(string, ...interface{})) {
	if len(c.Levels) == 0 {
		problem("at least one level band is required")
		return
	}
	next := 0
	for i, band := range c.Levels {
		if band.Level != i+1 {
			problem("level band %d has level %d, want %d", i, band.Level, i+1)
		}
		if band.Min != next {
			problem("level %d starts at %d, want %d", band.Level, band.Min, next)
		}
		if band.Max < band.Min {
			problem("level %d has max %d below min %d", band.Level, band.Max, band.Min)
		}
		next = band.Max + 1
	}
	if last := c.Levels[len(c.Levels)-1]; last.Max != 100 {
		problem("last level ends at %d, want 100", last.Max)
	}
}

// LevelFor returns the band containing score. Scores outside [0,100] are
// clamped first.
func (c *Catalog) LevelFor(score int) LevelBand {
	score = clampInt(score, 0, 100)
	for _, band := range c.Levels {
		if score >= band.Min && score <= band.Max {
			return band
		}
	}
	return c.Levels[len(c.Levels)-1]
}

// QuestionsFor returns the questions of a pillar in declaration order.
func (c *Catalog) QuestionsFor(id PillarID) []Question {
	var out []Question
	for _, q := range c.Questions {
		if q.PillarID == id {
			out = append(out, q)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
