package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/skill"
)

// writeSection emits a markdown-style heading followed by bullet lines.
func writeSection(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("## " + heading + "\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

// specialistSystem builds the system prompt for a channel specialist from its
// skill context. The skill bundle carries all domain knowledge; this function
// only arranges it.
func specialistSystem(channel model.Category, client model.Client, ac skill.AgentContext) string {
	var b strings.Builder

	switch channel {
	case model.CategoryPaid:
		b.WriteString("You are a paid search specialist analyzing Google Ads performance for ")
	default:
		b.WriteString("You are an organic search specialist analyzing SEO performance for ")
	}
	fmt.Fprintf(&b, "%s (%s), a %s business.\n\n", client.Name, client.Domain, client.BusinessType)

	writeSection(&b, "KPIs to optimize", ac.KPIs)
	writeSection(&b, "Vertical benchmarks", ac.Benchmarks)
	writeSection(&b, "Proven patterns", ac.Patterns)
	writeSection(&b, "Anti-patterns to avoid", ac.AntiPatterns)
	writeSection(&b, "Hard constraints", ac.Constraints)

	if len(ac.Examples) > 0 {
		b.WriteString("## Worked examples\n")
		for _, ex := range ac.Examples {
			b.WriteString("- Situation: " + ex.Situation + "\n  Action: " + ex.Action + "\n")
		}
		b.WriteString("\n")
	}

	if len(ac.AllowedScopes) > 0 {
		b.WriteString("Every action's \"scope\" field must be one of: ")
		b.WriteString(strings.Join(ac.AllowedScopes, ", "))
		b.WriteString(".\n\n")
	}

	b.WriteString("Respond with a single JSON object of the form " +
		`{"actions": [{"description", "scope", "expected_impact", "reasoning", "impact"}]}` +
		" where impact is high, medium, or low. No prose outside the JSON.")
	return b.String()
}

// specialistPrompt serializes the enrichment output as the analysis payload.
func specialistPrompt(channel model.Category, data *model.ResearchData) (string, error) {
	var b strings.Builder

	switch channel {
	case model.CategoryPaid:
		b.WriteString("Analyze these battleground keywords and flagged pages from a paid search perspective. " +
			"Propose concrete actions for the paid channel.\n\n")
	default:
		b.WriteString("Analyze these battleground keywords and flagged pages from an organic search perspective. " +
			"Propose concrete actions for the organic channel.\n\n")
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	b.WriteString("```json\n")
	b.Write(payload)
	b.WriteString("\n```\n")
	return b.String(), nil
}

// directorSystem builds the synthesis system prompt from the bundle's
// conflict and synergy tables.
func directorSystem(client model.Client, sc skill.SynthesisConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the search performance director for %s (%s), a %s business. ",
		client.Name, client.Domain, client.BusinessType)
	b.WriteString("Two channel specialists have proposed actions. Merge them into a single " +
		"deduplicated, prioritized recommendation list.\n\n")

	if len(sc.Conflicts) > 0 {
		b.WriteString("## Conflict resolution rules\n")
		for _, c := range sc.Conflicts {
			fmt.Fprintf(&b, "- When paid says %q and organic says %q: %s\n", c.PaidSignal, c.OrganicSignal, c.Resolution)
		}
		b.WriteString("\n")
	}
	if len(sc.Synergies) > 0 {
		b.WriteString("## Synergies to exploit\n")
		for _, s := range sc.Synergies {
			fmt.Fprintf(&b, "- %s: %s\n", s.Trigger, s.Synergy)
		}
		b.WriteString("\n")
	}
	writeSection(&b, "Priority adjustments", sc.PriorityAdjustments)

	b.WriteString("Respond with a single JSON object of the form " +
		`{"summary": "...", "recommendations": [{"title", "description", "category", "impact", "effort", "action_items"}]}` +
		" where category is paid, organic, or hybrid, and impact and effort are high, medium, or low. " +
		"No prose outside the JSON.")
	return b.String()
}

// directorPrompt serializes both specialists' actions as the synthesis input.
func directorPrompt(paid, organic *model.AgentOutput) (string, error) {
	input := struct {
		Paid    []model.Action `json:"paid_actions"`
		Organic []model.Action `json:"organic_actions"`
	}{}
	if paid != nil {
		input.Paid = paid.Actions
	}
	if organic != nil {
		input.Organic = organic.Actions
	}

	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Synthesize these specialist proposals into unified recommendations.\n\n```json\n")
	b.Write(payload)
	b.WriteString("\n```\n")
	return b.String(), nil
}
