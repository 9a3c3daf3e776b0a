package model

// PriorityTier orders triage rules: critical matches outrank high, high
// outrank medium.
type PriorityTier string

const (
	TierCritical PriorityTier = "critical"
	TierHigh     PriorityTier = "high"
	TierMedium   PriorityTier = "medium"
)

// Ordinal returns the numeric rank of a tier (higher is more urgent).
func (t PriorityTier) Ordinal() int {
	switch t {
	case TierCritical:
		return 3
	case TierHigh:
		return 2
	case TierMedium:
		return 1
	default:
		return 0
	}
}

// BattlegroundKeyword is a keyword flagged by triage for deeper analysis.
type BattlegroundKeyword struct {
	Metrics   KeywordMetrics `json:"metrics"`
	RuleID    string         `json:"rule_id"`
	RuleDesc  string         `json:"rule_desc"`
	Tier      PriorityTier   `json:"tier"`
	SortValue float64        `json:"sort_value"`
}

// CriticalPage is a page flagged by triage for deeper analysis.
type CriticalPage struct {
	Metrics   PageMetrics  `json:"metrics"`
	RuleID    string       `json:"rule_id"`
	RuleDesc  string       `json:"rule_desc"`
	Tier      PriorityTier `json:"tier"`
	SortValue float64      `json:"sort_value"`
}

// ScoutFindings is the triage phase output: bounded, deterministic shortlists.
type ScoutFindings struct {
	Keywords     []BattlegroundKeyword `json:"keywords"`
	Pages        []CriticalPage        `json:"pages"`
	RowsScanned  int                   `json:"rows_scanned"`
	SkillVersion string                `json:"skill_version"`
}

// CompetitiveData is the enrichment fetched for one battleground keyword.
type CompetitiveData struct {
	Difficulty     *float64 `json:"difficulty,omitempty"`
	SearchVolume   *int     `json:"search_volume,omitempty"`
	TopCompetitors []string `json:"top_competitors,omitempty"`
	AvgCPC         *float64 `json:"avg_cpc,omitempty"`
}

// PageContent is the fetched content summary for one critical page.
type PageContent struct {
	Title      string `json:"title"`
	WordCount  int    `json:"word_count"`
	Excerpt    string `json:"excerpt"`
	StatusCode int    `json:"status_code"`
}

// EnrichedKeyword pairs a shortlisted keyword with whatever enrichment
// succeeded. Competitive is nil when the fetch failed or returned no data.
type EnrichedKeyword struct {
	BattlegroundKeyword
	Competitive *CompetitiveData `json:"competitive,omitempty"`
}

// EnrichedPage pairs a shortlisted page with its fetched content, if any.
type EnrichedPage struct {
	CriticalPage
	Content *PageContent `json:"content,omitempty"`
}

// ResearchData is the enrichment phase output.
type ResearchData struct {
	Keywords      []EnrichedKeyword `json:"keywords"`
	Pages         []EnrichedPage    `json:"pages"`
	FetchFailures int               `json:"fetch_failures"`
}
