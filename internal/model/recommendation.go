package model

import "time"

// ImpactTier grades the expected impact or required effort of an action.
type ImpactTier string

const (
	ImpactHigh   ImpactTier = "high"
	ImpactMedium ImpactTier = "medium"
	ImpactLow    ImpactTier = "low"
)

// Ordinal maps a tier to its numeric rank (high=3, medium=2, low=1).
func (t ImpactTier) Ordinal() int {
	switch t {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// InvertedOrdinal maps effort to its score contribution (low effort scores
// highest: low=3, medium=2, high=1).
func (t ImpactTier) InvertedOrdinal() int {
	switch t {
	case ImpactLow:
		return 3
	case ImpactMedium:
		return 2
	case ImpactHigh:
		return 1
	default:
		return 0
	}
}

// Category classifies which channel a recommendation spans.
type Category string

const (
	CategoryPaid    Category = "paid"
	CategoryOrganic Category = "organic"
	CategoryHybrid  Category = "hybrid"
)

// Action is one channel-specific action proposed by a specialist agent.
type Action struct {
	Description    string     `json:"description"`
	Scope          string     `json:"scope"`
	ExpectedImpact string     `json:"expected_impact"`
	Reasoning      string     `json:"reasoning"`
	Impact         ImpactTier `json:"impact"`
}

// AgentOutput is one specialist agent's validated result.
type AgentOutput struct {
	Channel    Category   `json:"channel"`
	Actions    []Action   `json:"actions"`
	TokenUsage TokenUsage `json:"token_usage"`
	ElapsedMS  int64      `json:"elapsed_ms"`
}

// Recommendation is a final, unified, prioritized action item produced by
// the Director phase. Persisted rows start in pending approval status owned
// by a downstream workflow.
type Recommendation struct {
	ID          string     `json:"id"`
	ReportID    string     `json:"report_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Impact      ImpactTier `json:"impact"`
	Effort      ImpactTier `json:"effort"`
	ActionItems []string   `json:"action_items"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RecommendationStatusPending is the only status the pipeline ever writes;
// the approval lifecycle beyond it is externally owned.
const RecommendationStatusPending = "pending"

// DirectorOutput is the synthesis phase result after deterministic filtering.
type DirectorOutput struct {
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	Fallback        bool             `json:"fallback,omitempty"`
	TokenUsage      TokenUsage       `json:"token_usage"`
	ElapsedMS       int64            `json:"elapsed_ms"`
}
