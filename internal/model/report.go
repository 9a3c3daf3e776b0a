package model

import "time"

// ReportStatus represents the current state of an optimization report run.
type ReportStatus string

const (
	ReportStatusPending     ReportStatus = "pending"
	ReportStatusResearching ReportStatus = "researching"
	ReportStatusAnalyzing   ReportStatus = "analyzing"
	ReportStatusCompleted   ReportStatus = "completed"
	ReportStatusFailed      ReportStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusCompleted || s == ReportStatusFailed
}

// TriggerReason describes what caused a report run to start.
type TriggerReason string

const (
	TriggerCreation  TriggerReason = "creation"
	TriggerManual    TriggerReason = "manual"
	TriggerScheduled TriggerReason = "scheduled"
)

// DateRange is the analyzed historical window for a report.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the inclusive day count of the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Report is one pipeline invocation. Phase output fields are append-only:
// each phase writes only its own blob until a terminal status is reached.
type Report struct {
	ID           string          `json:"id"`
	Client       Client          `json:"client"`
	Trigger      TriggerReason   `json:"trigger"`
	Status       ReportStatus    `json:"status"`
	Range        DateRange       `json:"range"`
	Scout        *ScoutFindings  `json:"scout,omitempty"`
	Research     *ResearchData   `json:"research,omitempty"`
	Paid         *AgentOutput    `json:"paid,omitempty"`
	Organic      *AgentOutput    `json:"organic,omitempty"`
	Director     *DirectorOutput `json:"director,omitempty"`
	Violations   []Violation     `json:"violations,omitempty"`
	TokenUsage   TokenUsage      `json:"token_usage"`
	ElapsedMS    int64           `json:"elapsed_ms"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// Client identifies the advertiser account a report analyzes.
type Client struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Domain       string `json:"domain"`
	BusinessType string `json:"business_type"`
}

// TokenUsage tracks LLM token consumption across pipeline phases.
type TokenUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
}

// Add accumulates usage from another phase.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}

// Total returns combined input and output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}
