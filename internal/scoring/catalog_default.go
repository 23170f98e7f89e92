package scoring

// DefaultCatalogVersion is the questionnaire version new submissions are
// scored under unless a caller pins another one.
const DefaultCatalogVersion = "2024.1"

// DefaultCatalog returns a fresh copy of the built-in questionnaire.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Version: DefaultCatalogVersion,
		Pillars: []Pillar{
			{ID: PillarVisibility, Name: "Visibility", Weight: 25,
				Description: "Ability to see risky user activity across endpoints, SaaS and data stores."},
			{ID: PillarPreventionCoaching, Name: "Prevention & Coaching", Weight: 25,
				Description: "Controls and real-time coaching that stop risky behavior before data leaves."},
			{ID: PillarInvestigationEvidence, Name: "Investigation & Evidence", Weight: 20,
				Description: "Capacity to investigate incidents and preserve defensible evidence."},
			{ID: PillarIdentitySaaS, Name: "Identity & SaaS", Weight: 15,
				Description: "Governance of identities, access and sanctioned or shadow SaaS."},
			{ID: PillarPhishingResilience, Name: "Phishing Resilience", Weight: 15,
				Description: "Resistance of the workforce to phishing and social engineering."},
		},
		Questions: []Question{
			{ID: "vis-01", PillarID: PillarVisibility, Weight: 1,
				Prompt: "How completely do you monitor file movement to USB, cloud storage and personal email?"},
			{ID: "vis-02", PillarID: PillarVisibility, Weight: 1,
				Prompt: "How well can you attribute risky activity to a specific user and device?"},
			{ID: "vis-03", PillarID: PillarVisibility, Weight: 1,
				Prompt: "How much of your SaaS estate feeds activity logs into a central platform?"},
			{ID: "vis-04", PillarID: PillarVisibility, Weight: 1,
				Prompt: "How quickly do you detect unusual data access by departing employees?"},

			{ID: "prev-01", PillarID: PillarPreventionCoaching, Weight: 1,
				Prompt: "How consistently are data-handling policies enforced by technical controls?"},
			{ID: "prev-02", PillarID: PillarPreventionCoaching, Weight: 1,
				Prompt: "Do users receive in-the-moment coaching when they attempt a risky action?"},
			{ID: "prev-03", PillarID: PillarPreventionCoaching, Weight: 1,
				Prompt: "How mature is your security awareness program for insider risk scenarios?"},
			{ID: "prev-04", PillarID: PillarPreventionCoaching, Weight: 1,
				Prompt: "How well are high-risk groups (leavers, privileged users) given extra safeguards?"},

			{ID: "inv-01", PillarID: PillarInvestigationEvidence, Weight: 1,
				Prompt: "How documented and repeatable is your insider incident investigation process?"},
			{ID: "inv-02", PillarID: PillarInvestigationEvidence, Weight: 1,
				Prompt: "Can you reconstruct a user's activity timeline for a past incident?"},
			{ID: "inv-03", PillarID: PillarInvestigationEvidence, Weight: 1,
				Prompt: "How well is evidence preserved with chain of custody for HR or legal action?"},
			{ID: "inv-04", PillarID: PillarInvestigationEvidence, Weight: 1,
				Prompt: "How closely do security, HR and legal collaborate during investigations?"},

			{ID: "id-01", PillarID: PillarIdentitySaaS, Weight: 1,
				Prompt: "How promptly is access revoked when employees change roles or leave?"},
			{ID: "id-02", PillarID: PillarIdentitySaaS, Weight: 1,
				Prompt: "How completely is MFA enforced across workforce applications?"},
			{ID: "id-03", PillarID: PillarIdentitySaaS, Weight: 1,
				Prompt: "How well do you discover and govern unsanctioned SaaS applications?"},
			{ID: "id-04", PillarID: PillarIdentitySaaS, Weight: 1,
				Prompt: "How regularly are privileged and service accounts reviewed?"},

			{ID: "phish-01", PillarID: PillarPhishingResilience, Weight: 1,
				Prompt: "How often do you run realistic phishing simulations?"},
			{ID: "phish-02", PillarID: PillarPhishingResilience, Weight: 1,
				Prompt: "How easily can employees report suspected phishing?"},
			{ID: "phish-03", PillarID: PillarPhishingResilience, Weight: 1,
				Prompt: "How effective is email filtering against credential-harvesting campaigns?"},
			{ID: "phish-04", PillarID: PillarPhishingResilience, Weight: 1,
				Prompt: "How quickly are compromised credentials detected and contained?"},
		},
		Levels: []LevelBand{
			{Level: 1, Name: "Ad Hoc", Min: 0, Max: 24,
				Description: "Insider risk is handled reactively with little visibility or process."},
			{Level: 2, Name: "Emerging", Min: 25, Max: 44,
				Description: "Foundational controls exist but coverage and consistency are limited."},
			{Level: 3, Name: "Managed", Min: 45, Max: 64,
				Description: "A defined program covers the main risks with repeatable processes."},
			{Level: 4, Name: "Proactive", Min: 65, Max: 84,
				Description: "Risk is anticipated with broad telemetry, coaching and tested response."},
			{Level: 5, Name: "Optimized", Min: 85, Max: 100,
				Description: "The program is measured, continuously improved and embedded in the business."},
		},
		Recommendations: map[PillarID][]string{
			PillarVisibility: {
				"Deploy endpoint and SaaS telemetry that tracks file movement to unmanaged destinations.",
				"Correlate activity to identities so alerts name a user and device, not just an IP.",
				"Add a departing-employee watchlist with heightened monitoring for the last 30 days.",
			},
			PillarPreventionCoaching: {
				"Enforce data-handling policy with blocking controls for the highest-risk channels.",
				"Introduce real-time user coaching prompts on risky actions instead of silent blocks.",
				"Run targeted insider-risk awareness sessions for privileged and departing users.",
			},
			PillarInvestigationEvidence: {
				"Write an insider incident playbook with clear hand-offs between security, HR and legal.",
				"Retain activity history long enough to rebuild a complete user timeline.",
				"Adopt evidence preservation with chain of custody for every investigation.",
			},
			PillarIdentitySaaS: {
				"Automate access revocation from the HR system for movers and leavers.",
				"Close MFA gaps on every workforce application, starting with email and file sharing.",
				"Inventory shadow SaaS and route new applications through an approval workflow.",
			},
			PillarPhishingResilience: {
				"Run monthly phishing simulations with follow-up training for repeat clickers.",
				"Give every user a one-click report-phishing button wired to triage.",
				"Monitor for compromised credentials and force resets automatically.",
			},
		},
		NeedsAttentionThreshold: 65,
		MaxRecommendations:      5,
	}
}
