// internal/scoring/engine_test.go
package scoring

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultCatalog())
	require.NoError(t, err)
	return engine
}

// answerAll answers every catalog question with the value returned by fn.
// Questions for which fn reports false are left unanswered.
func answerAll(c *Catalog, fn func(q Question) (float64, bool)) []Answer {
	var out []Answer
	for _, q := range c.Questions {
		if v, ok := fn(q); ok {
			out = append(out, Answer{QuestionID: q.ID, Value: v})
		}
	}
	return out
}

func uniform(v float64) func(Question) (float64, bool) {
	return func(Question) (float64, bool) { return v, true }
}

func byPillar(values map[PillarID]float64) func(Question) (float64, bool) {
	return func(q Question) (float64, bool) {
		v, ok := values[q.PillarID]
		return v, ok
	}
}

// ==========================
// Core Scoring Scenarios
// ==========================

func TestEngine_Score_UniformAnswers(t *testing.T) {
	tests := []struct {
		name          string
		value         float64
		expectedTotal int
		expectedLevel int
		expectedName  string
	}{
		{name: "all fifty", value: 50, expectedTotal: 50, expectedLevel: 3, expectedName: "Managed"},
		{name: "all hundred", value: 100, expectedTotal: 100, expectedLevel: 5, expectedName: "Optimized"},
		{name: "all zero", value: 0, expectedTotal: 0, expectedLevel: 1, expectedName: "Ad Hoc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := createTestEngine(t)
			result, err := engine.Score(answerAll(engine.Catalog(), uniform(tt.value)), OrgMeta{})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTotal, result.TotalScore)
			assert.Equal(t, tt.expectedLevel, result.Level)
			assert.Equal(t, tt.expectedName, result.LevelName)
			assert.NotEmpty(t, result.LevelDescription)
			assert.Equal(t, DefaultCatalogVersion, result.CatalogVersion)
			assert.Equal(t, 1.0, result.Completion)

			require.Len(t, result.PillarBreakdown, 5)
			for _, ps := range result.PillarBreakdown {
				assert.Equal(t, tt.value, ps.RawScore, ps.PillarID)
				assert.True(t, ps.Answered)
				assert.Equal(t, 4, ps.AnsweredCount)
				assert.Equal(t, 4, ps.QuestionCount)
			}
		})
	}
}

func TestEngine_Score_PillarWeights(t *testing.T) {
	engine := createTestEngine(t)
	result, err := engine.Score(answerAll(engine.Catalog(), uniform(50)), OrgMeta{})
	require.NoError(t, err)

	expected := map[PillarID]float64{
		PillarVisibility:            12.5,
		PillarPreventionCoaching:    12.5,
		PillarInvestigationEvidence: 10,
		PillarIdentitySaaS:          7.5,
		PillarPhishingResilience:    7.5,
	}
	for id, contribution := range expected {
		ps, ok := result.Pillar(id)
		require.True(t, ok, id)
		assert.InDelta(t, contribution, ps.ContributionToTotal, 1e-9, id)
	}
}

func TestEngine_Score_ContributionsSumToTotal(t *testing.T) {
	engine := createTestEngine(t)
	values := []float64{0, 13, 27, 33, 41, 58, 62, 77, 88, 100}

	for offset := 0; offset < len(values); offset++ {
		i := 0
		answers := answerAll(engine.Catalog(), func(Question) (float64, bool) {
			v := values[(i+offset)%len(values)]
			i++
			return v, true
		})

		result, err := engine.Score(answers, OrgMeta{})
		require.NoError(t, err)

		var sum float64
		for _, ps := range result.PillarBreakdown {
			sum += ps.ContributionToTotal
		}
		assert.LessOrEqual(t, math.Abs(sum-float64(result.TotalScore)), 0.5)
		assert.GreaterOrEqual(t, result.TotalScore, 0)
		assert.LessOrEqual(t, result.TotalScore, 100)
	}
}

func TestEngine_Score_WithinPillarMean(t *testing.T) {
	engine := createTestEngine(t)
	answers := []Answer{
		{QuestionID: "vis-01", Value: 10},
		{QuestionID: "vis-02", Value: 20},
		{QuestionID: "vis-03", Value: 30},
		{QuestionID: "vis-04", Value: 45},
	}

	result, err := engine.Score(answers, OrgMeta{})
	require.NoError(t, err)

	ps, ok := result.Pillar(PillarVisibility)
	require.True(t, ok)
	assert.InDelta(t, 26.25, ps.RawScore, 1e-9)
	assert.InDelta(t, 6.5625, ps.ContributionToTotal, 1e-9)
	assert.Equal(t, 7, result.TotalScore)
	assert.InDelta(t, 0.2, result.Completion, 1e-9)
}

func TestEngine_Score_WeightedQuestions(t *testing.T) {
	c := DefaultCatalog()
	c.Version = "weighted"
	c.Questions[0].Weight = 3 // vis-01

	engine, err := NewEngine(c)
	require.NoError(t, err)

	result, err := engine.Score([]Answer{
		{QuestionID: "vis-01", Value: 100},
		{QuestionID: "vis-02", Value: 0},
	}, OrgMeta{})
	require.NoError(t, err)

	ps, _ := result.Pillar(PillarVisibility)
	assert.InDelta(t, 75, ps.RawScore, 1e-9)
}

// ==========================
// Missing-Answer Policy
// ==========================

func TestEngine_Score_UnansweredPillar(t *testing.T) {
	engine := createTestEngine(t)

	full, err := engine.Score(answerAll(engine.Catalog(), uniform(100)), OrgMeta{})
	require.NoError(t, err)

	partial, err := engine.Score(answerAll(engine.Catalog(), byPillar(map[PillarID]float64{
		PillarVisibility:            100,
		PillarPreventionCoaching:    100,
		PillarInvestigationEvidence: 100,
		PillarIdentitySaaS:          100,
	})), OrgMeta{})
	require.NoError(t, err)

	phishing, ok := partial.Pillar(PillarPhishingResilience)
	require.True(t, ok)
	assert.Equal(t, 0.0, phishing.RawScore)
	assert.False(t, phishing.Answered)
	assert.Equal(t, 0, phishing.AnsweredCount)
	assert.Equal(t, 4, phishing.QuestionCount)

	assert.Equal(t, 100, full.TotalScore)
	assert.Equal(t, 85, partial.TotalScore)
	assert.Equal(t, 15, full.TotalScore-partial.TotalScore)
	assert.Equal(t, 5, partial.Level)
	assert.InDelta(t, 0.8, partial.Completion, 1e-9)
	assert.Contains(t, partial.Weaknesses[0], "Phishing Resilience was not answered")
}

func TestEngine_Score_PartiallyAnsweredPillarIgnoresGaps(t *testing.T) {
	engine := createTestEngine(t)
	answers := answerAll(engine.Catalog(), func(q Question) (float64, bool) {
		if q.ID == "inv-04" {
			return 0, false
		}
		return 60, true
	})

	result, err := engine.Score(answers, OrgMeta{})
	require.NoError(t, err)

	ps, _ := result.Pillar(PillarInvestigationEvidence)
	assert.Equal(t, 60.0, ps.RawScore)
	assert.Equal(t, 3, ps.AnsweredCount)
	assert.Equal(t, 60, result.TotalScore)
}

func TestEngine_Score_NoAnswers(t *testing.T) {
	engine := createTestEngine(t)
	result, err := engine.Score(nil, OrgMeta{})

	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalScore)
	assert.Equal(t, 1, result.Level)
	assert.Equal(t, 0.0, result.Completion)
	assert.Equal(t, []string{
		"Visibility was not answered",
		"Prevention & Coaching was not answered",
		"Investigation & Evidence was not answered",
	}, result.Strengths)
	assert.Len(t, result.Weaknesses, 3)
}

func TestEngine_Score_ZeroScoresAreNotStrengths(t *testing.T) {
	engine := createTestEngine(t)
	result, err := engine.Score(answerAll(engine.Catalog(), byPillar(map[PillarID]float64{
		PillarVisibility:            0,
		PillarPreventionCoaching:    0,
		PillarInvestigationEvidence: 0,
		PillarIdentitySaaS:          0,
		PillarPhishingResilience:    30,
	})), OrgMeta{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Strong Phishing Resilience program (30/100)",
		"Visibility scores 0/100",
		"Prevention & Coaching scores 0/100",
	}, result.Strengths)
	for _, s := range result.Strengths[1:] {
		assert.NotContains(t, s, "Strong")
	}
}

// ==========================
// Levels
// ==========================

func TestCatalog_LevelFor_Boundaries(t *testing.T) {
	c := DefaultCatalog()
	tests := []struct {
		score int
		level int
	}{
		{-5, 1}, {0, 1}, {24, 1}, {25, 2}, {44, 2}, {45, 3},
		{64, 3}, {65, 4}, {84, 4}, {85, 5}, {100, 5}, {130, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, c.LevelFor(tt.score).Level, "score %d", tt.score)
	}
}

func TestCatalog_LevelFor_Monotonic(t *testing.T) {
	c := DefaultCatalog()
	prev := 0
	for score := 0; score <= 100; score++ {
		level := c.LevelFor(score).Level
		assert.GreaterOrEqual(t, level, prev, "score %d", score)
		prev = level
	}
}

// ==========================
// Ranking
// ==========================

func TestEngine_Score_RankingStableUnderTies(t *testing.T) {
	engine := createTestEngine(t)
	result, err := engine.Score(answerAll(engine.Catalog(), uniform(50)), OrgMeta{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Strong Visibility program (50/100)",
		"Strong Prevention & Coaching program (50/100)",
		"Strong Investigation & Evidence program (50/100)",
	}, result.Strengths)
	assert.Equal(t, []string{
		"Visibility is among your lowest-scoring pillars (50/100)",
		"Prevention & Coaching is among your lowest-scoring pillars (50/100)",
		"Investigation & Evidence is among your lowest-scoring pillars (50/100)",
	}, result.Weaknesses)
}

func TestEngine_Score_RankingOrder(t *testing.T) {
	engine := createTestEngine(t)
	result, err := engine.Score(answerAll(engine.Catalog(), byPillar(map[PillarID]float64{
		PillarVisibility:            40,
		PillarPreventionCoaching:    90,
		PillarInvestigationEvidence: 40,
		PillarIdentitySaaS:          70,
		PillarPhishingResilience:    90,
	})), OrgMeta{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Strong Prevention & Coaching program (90/100)",
		"Strong Phishing Resilience program (90/100)",
		"Strong Identity & SaaS program (70/100)",
	}, result.Strengths)
	assert.Equal(t, []string{
		"Visibility is among your lowest-scoring pillars (40/100)",
		"Investigation & Evidence is among your lowest-scoring pillars (40/100)",
		"Identity & SaaS is among your lowest-scoring pillars (70/100)",
	}, result.Weaknesses)
}

// ==========================
// Recommendations
// ==========================

func TestEngine_Score_Recommendations(t *testing.T) {
	c := DefaultCatalog()
	recs := c.Recommendations

	tests := []struct {
		name     string
		values   map[PillarID]float64
		expected []string
	}{
		{
			name: "weakest pillar first and capped",
			values: map[PillarID]float64{
				PillarVisibility:            60,
				PillarPreventionCoaching:    80,
				PillarInvestigationEvidence: 80,
				PillarIdentitySaaS:          80,
				PillarPhishingResilience:    20,
			},
			expected: []string{
				recs[PillarPhishingResilience][0],
				recs[PillarPhishingResilience][1],
				recs[PillarPhishingResilience][2],
				recs[PillarVisibility][0],
				recs[PillarVisibility][1],
			},
		},
		{
			name: "threshold is exclusive",
			values: map[PillarID]float64{
				PillarVisibility:            65,
				PillarPreventionCoaching:    65,
				PillarInvestigationEvidence: 65,
				PillarIdentitySaaS:          65,
				PillarPhishingResilience:    64,
			},
			expected: recs[PillarPhishingResilience],
		},
		{
			name: "no weak pillars",
			values: map[PillarID]float64{
				PillarVisibility:            90,
				PillarPreventionCoaching:    90,
				PillarInvestigationEvidence: 90,
				PillarIdentitySaaS:          90,
				PillarPhishingResilience:    90,
			},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := createTestEngine(t)
			result, err := engine.Score(answerAll(engine.Catalog(), byPillar(tt.values)), OrgMeta{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Recommendations)
		})
	}
}

func TestEngine_Score_RecommendationsUncapped(t *testing.T) {
	c := DefaultCatalog()
	c.Version = "uncapped"
	c.MaxRecommendations = 0

	engine, err := NewEngine(c)
	require.NoError(t, err)

	result, err := engine.Score(answerAll(c, uniform(10)), OrgMeta{})
	require.NoError(t, err)
	assert.Len(t, result.Recommendations, 15)
}

// ==========================
// Invariant Violations
// ==========================

func TestEngine_Score_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		answers []Answer
	}{
		{name: "unknown question", answers: []Answer{{QuestionID: "nope", Value: 10}}},
		{name: "duplicate answer", answers: []Answer{{QuestionID: "vis-01", Value: 10}, {QuestionID: "vis-01", Value: 20}}},
		{name: "value above range", answers: []Answer{{QuestionID: "vis-01", Value: 101}}},
		{name: "negative value", answers: []Answer{{QuestionID: "vis-01", Value: -1}}},
		{name: "not a number", answers: []Answer{{QuestionID: "vis-01", Value: math.NaN()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := createTestEngine(t)
			result, err := engine.Score(tt.answers, OrgMeta{})

			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

// ==========================
// Purity
// ==========================

func TestEngine_Score_Idempotent(t *testing.T) {
	engine := createTestEngine(t)
	answers := answerAll(engine.Catalog(), byPillar(map[PillarID]float64{
		PillarVisibility:         33,
		PillarPreventionCoaching: 71,
		PillarIdentitySaaS:       12,
	}))
	meta := OrgMeta{Industry: IndustryRetail, CompanySize: SizeEnterprise}

	first, err := engine.Score(answers, meta)
	require.NoError(t, err)
	second, err := engine.Score(answers, meta)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_Score_Concurrent(t *testing.T) {
	engine := createTestEngine(t)
	answers := answerAll(engine.Catalog(), uniform(50))

	var wg sync.WaitGroup
	results := make([]*Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := engine.Score(answers, OrgMeta{})
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 50, r.TotalScore)
	}
}

func TestNewEngine_CopiesCatalog(t *testing.T) {
	c := DefaultCatalog()
	engine, err := NewEngine(c)
	require.NoError(t, err)

	c.Pillars[0].Weight = 0
	c.Levels[0].Name = "changed"

	result, err := engine.Score(answerAll(engine.Catalog(), uniform(0)), OrgMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Ad Hoc", result.LevelName)
	assert.Equal(t, 25.0, result.PillarBreakdown[0].Weight)
}
