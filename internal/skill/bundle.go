// Package skill holds the per-business-type configuration bundles that
// parameterize every pipeline phase: deterministic triage rules for the
// scout, domain context for the specialist agents, and synthesis rules for
// the director. Bundles are versioned, immutable, and resolved once at
// pipeline start.
package skill

import "github.com/crossrank/adscope-cli/internal/model"

// BusinessType keys the registry. Closed set; unknown strings are rejected
// at parse time rather than dispatched dynamically.
type BusinessType string

const (
	BusinessEcommerce BusinessType = "ecommerce"
	BusinessLeadGen   BusinessType = "leadgen"
	BusinessSaaS      BusinessType = "saas"
	BusinessLocal     BusinessType = "local"
)

// Thresholds are the numeric knobs the triage rules read. Each bundle tunes
// these to its vertical.
type Thresholds struct {
	// HighSpend flags keywords burning budget (USD over the window).
	HighSpend float64
	// LowConversions is the ceiling under which spend counts as wasted.
	LowConversions int
	// MinImpressions gates rules that need statistical footing.
	MinImpressions int
	// LowCTR flags underperforming paid CTR (ratio, not percent).
	LowCTR float64
	// StrikingDistanceMin/Max bound organic positions worth fighting for.
	StrikingDistanceMin float64
	StrikingDistanceMax float64
	// HighBounceRate flags leaking landing pages (ratio).
	HighBounceRate float64
	// MinSessions gates page rules on traffic volume.
	MinSessions int
	// LowConversionRate flags pages that get traffic but not outcomes.
	LowConversionRate float64
}

// KeywordRule is one deterministic triage rule over keyword rows.
type KeywordRule struct {
	ID          string
	Description string
	Tier        model.PriorityTier
	Enabled     bool
	Condition   func(model.KeywordMetrics, Thresholds) bool
}

// PageRule is one deterministic triage rule over page rows.
type PageRule struct {
	ID          string
	Description string
	Tier        model.PriorityTier
	Enabled     bool
	Condition   func(model.PageMetrics, Thresholds) bool
}

// TriageConfig drives the scout phase.
type TriageConfig struct {
	Thresholds   Thresholds
	KeywordRules []KeywordRule
	PageRules    []PageRule
	MaxKeywords  int
	MaxPages     int
	// KeywordSortMetric and PageSortMetric extract the primary sort metric
	// used to break ties after priority tier, descending.
	KeywordSortMetric func(model.KeywordMetrics) float64
	PageSortMetric    func(model.PageMetrics) float64
}

// Example is a worked few-shot example embedded in a specialist prompt.
type Example struct {
	Situation string
	Action    string
}

// DeniedPattern marks output text that breaches a domain rule. Matches are
// recorded as violations, never fatal.
type DeniedPattern struct {
	RuleID  string
	Pattern string
}

// AgentContext is the domain knowledge a specialist agent embeds in its
// prompt, plus the output contract it enforces afterward.
type AgentContext struct {
	KPIs           []string
	Benchmarks     []string
	Patterns       []string
	AntiPatterns   []string
	Examples       []Example
	Constraints    []string
	AllowedScopes  []string
	DeniedPatterns []DeniedPattern
}

// ConflictRule tells the director how to reconcile contradictory specialist
// signals, pattern-matched by signal description.
type ConflictRule struct {
	PaidSignal    string
	OrganicSignal string
	Resolution    string
}

// SynergyRule tells the director which signal combinations compound.
type SynergyRule struct {
	Trigger string
	Synergy string
}

// SynthesisConfig drives the director's prompt and its deterministic
// post-filtering.
type SynthesisConfig struct {
	Conflicts           []ConflictRule
	Synergies           []SynergyRule
	PriorityAdjustments []string
	// MustInclude patterns pin recommendations (matched on category or
	// title substring); MustExclude removes them (category, title, or
	// description substring).
	MustInclude []string
	MustExclude []string
	MinImpact   model.ImpactTier
	// RevenueWeight scales the impact term and EffortWeight the inverted
	// effort term of the priority score. A single revenue weight applies
	// to all categories.
	RevenueWeight      float64
	EffortWeight       float64
	MaxRecommendations int
}

// Bundle is the full skill configuration for one business type.
type Bundle struct {
	Type      BusinessType
	Version   string
	Triage    TriageConfig
	Paid      AgentContext
	Organic   AgentContext
	Synthesis SynthesisConfig
}
