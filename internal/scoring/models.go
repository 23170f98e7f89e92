// internal/scoring/models.go
package scoring

// PillarID identifies one of the weighted risk categories of a catalog.
type PillarID string

const (
	PillarVisibility            PillarID = "visibility"
	PillarPreventionCoaching    PillarID = "prevention_coaching"
	PillarInvestigationEvidence PillarID = "investigation_evidence"
	PillarIdentitySaaS          PillarID = "identity_saas"
	PillarPhishingResilience    PillarID = "phishing_resilience"
)

// Answer is one submitted response to a catalog question.
type Answer struct {
	QuestionID string  `json:"questionId" validate:"required,max=64"`
	Value      float64 `json:"value" validate:"gte=0,lte=100"`
	Rationale  string  `json:"rationale,omitempty" validate:"max=2000"`
}

// OrgMeta is the canonical organization metadata used for cohort selection.
// Empty fields mean "unknown" and are never benchmarked.
type OrgMeta struct {
	Industry    Industry    `json:"industry,omitempty"`
	CompanySize CompanySize `json:"companySize,omitempty"`
	Region      Region      `json:"region,omitempty"`
}

// RawOrgMeta carries organization metadata exactly as a caller submitted it:
// canonical enum values, display labels or free text.
type RawOrgMeta struct {
	Industry    string `json:"industry,omitempty" validate:"max=128"`
	CompanySize string `json:"companySize,omitempty" validate:"max=128"`
	Region      string `json:"region,omitempty" validate:"max=128"`
}

// PillarScore is the derived per-pillar breakdown of a scored submission.
type PillarScore struct {
	PillarID            PillarID `json:"pillarId"`
	Name                string   `json:"name"`
	RawScore            float64  `json:"rawScore"`
	Weight              float64  `json:"weight"`
	ContributionToTotal float64  `json:"contributionToTotal"`
	AnsweredCount       int      `json:"answeredCount"`
	QuestionCount       int      `json:"questionCount"`
	Answered            bool     `json:"answered"`
}

// Result is the benchmark-free output of the scoring engine.
type Result struct {
	CatalogVersion   string        `json:"catalogVersion"`
	TotalScore       int           `json:"totalScore"`
	Level            int           `json:"level"`
	LevelName        string        `json:"levelName"`
	LevelDescription string        `json:"levelDescription"`
	PillarBreakdown  []PillarScore `json:"pillarBreakdown"`
	Strengths        []string      `json:"strengths"`
	Weaknesses       []string      `json:"weaknesses"`
	Recommendations  []string      `json:"recommendations"`
	Completion       float64       `json:"completion"`
	Org              OrgMeta       `json:"org"`
}

// Pillar looks up a pillar score by id.
func (r *Result) Pillar(id PillarID) (PillarScore, bool) {
	for _, ps := range r.PillarBreakdown {
		if ps.PillarID == id {
			return ps, true
		}
	}
	return PillarScore{}, false
}
