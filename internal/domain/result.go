package domain

// CriterionScore is one rubric criterion's slice of an evaluation.
type CriterionScore struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
}

// KPIDeltas are performance-number changes synthesized from a passing
// evaluation. They are derived from the score, never trusted from a
// remote payload.
type KPIDeltas struct {
	ConversionRate float64 `json:"conversion_rate,omitempty"`
	ROAS           float64 `json:"roas,omitempty"`
	Leads          int     `json:"leads,omitempty"`
	Revenue        float64 `json:"revenue,omitempty"`
}

// EvaluationResult is the canonical outcome of one submission attempt. It
// is ephemeral: each new attempt replaces the previous result.
type EvaluationResult struct {
	Score        int              `json:"score"` // 0..100, post-boost
	Passed       bool             `json:"passed"`
	Feedback     string           `json:"feedback"`
	Criteria     []CriterionScore `json:"criteria"`
	Improvement  string           `json:"improvement,omitempty"`
	CanRetry     bool             `json:"can_retry"`
	AttemptsLeft int              `json:"attempts_left"`
	KPI          KPIDeltas        `json:"kpi"`
	Mood         string           `json:"mood,omitempty"`
	Message      string           `json:"message,omitempty"`

	// Provenance. Degraded marks the network-free heuristic path so it is
	// never mistaken for genuine evaluation.
	Strategy string `json:"strategy"` // objective, ai, heuristic
	Provider string `json:"provider,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}
