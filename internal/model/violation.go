package model

// maxViolationSnippet bounds the stored offending-text excerpt.
const maxViolationSnippet = 200

// Violation records a specialist output breaching a skill-declared domain
// rule. Quality signal only; never blocks the pipeline.
type Violation struct {
	Phase        string `json:"phase"`
	RuleID       string `json:"rule_id"`
	Snippet      string `json:"snippet"`
	SkillVersion string `json:"skill_version"`
}

// NewViolation builds a violation with the offending text truncated.
func NewViolation(phase, ruleID, text, skillVersion string) Violation {
	if len(text) > maxViolationSnippet {
		text = text[:maxViolationSnippet]
	}
	return Violation{
		Phase:        phase,
		RuleID:       ruleID,
		Snippet:      text,
		SkillVersion: skillVersion,
	}
}
