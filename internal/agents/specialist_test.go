package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/skill"
)

func TestSpecialistRun(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{{text: `{
		"actions": [
			{
				"description": "Reduce max CPC on 'running shoes' by 40%",
				"scope": "keyword",
				"expected_impact": "Recover ~$300/mo of wasted spend",
				"reasoning": "One conversion on $540 spend while ranking #6 organically",
				"impact": "high"
			}
		]
	}`}}}

	s := NewPaid(testGateway(client), "test-model")
	assert.Equal(t, model.CategoryPaid, s.Channel())

	out, violations, err := s.Run(context.Background(), testClient(), researchFixture(), ecommerceBundleForTest(t))
	require.NoError(t, err)
	assert.Empty(t, violations)
	assert.Equal(t, model.CategoryPaid, out.Channel)
	require.Len(t, out.Actions, 1)
	assert.Equal(t, "keyword", out.Actions[0].Scope)
	assert.Equal(t, model.ImpactHigh, out.Actions[0].Impact)
	assert.Equal(t, 200, out.TokenUsage.InputTokens)
}

func TestSpecialistRecordsScopeViolation(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{{text: `{
		"actions": [
			{
				"description": "Renegotiate agency fees",
				"scope": "budget",
				"expected_impact": "Lower overhead",
				"reasoning": "Fees exceed benchmarks",
				"impact": "low"
			}
		]
	}`}}}

	s := NewPaid(testGateway(client), "test-model")
	out, violations, err := s.Run(context.Background(), testClient(), researchFixture(), ecommerceBundleForTest(t))
	require.NoError(t, err)

	// The action is kept; the breach is recorded alongside it.
	require.Len(t, out.Actions, 1)
	require.Len(t, violations, 1)
	assert.Equal(t, "scope-not-allowed", violations[0].RuleID)
	assert.Equal(t, "paid-specialist", violations[0].Phase)
	assert.Equal(t, "ecommerce-v3", violations[0].SkillVersion)
	assert.Contains(t, violations[0].Snippet, "budget")
}

func TestSpecialistRecordsDeniedPatternViolation(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{{text: `{
		"actions": [
			{
				"description": "Optimize toward Cost Per Lead targets",
				"scope": "campaign",
				"expected_impact": "Better efficiency",
				"reasoning": "CPL is trending up",
				"impact": "medium"
			}
		]
	}`}}}

	s := NewPaid(testGateway(client), "test-model")
	_, violations, err := s.Run(context.Background(), testClient(), researchFixture(), ecommerceBundleForTest(t))
	require.NoError(t, err)

	require.Len(t, violations, 1)
	assert.Equal(t, "ecom-no-leadgen-metrics", violations[0].RuleID)
}

func TestSpecialistOrganicContext(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{{text: `{
		"actions": [
			{
				"description": "Consolidate thin variant pages",
				"scope": "page",
				"expected_impact": "Rank consolidation",
				"reasoning": "Duplicate intent across variants",
				"impact": "medium"
			}
		]
	}`}}}

	s := NewOrganic(testGateway(client), "test-model")
	out, violations, err := s.Run(context.Background(), testClient(), researchFixture(), ecommerceBundleForTest(t))
	require.NoError(t, err)
	assert.Empty(t, violations)
	assert.Equal(t, model.CategoryOrganic, out.Channel)
}

func TestSpecialistSurfacesExhaustedRetries(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{
		{text: "not json"},
		{text: "still not json"},
	}}

	s := NewPaid(testGateway(client), "test-model")
	_, _, err := s.Run(context.Background(), testClient(), researchFixture(), ecommerceBundleForTest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestCheckViolationsMultiplePerAction(t *testing.T) {
	t.Parallel()

	ac := skill.AgentContext{
		AllowedScopes: []string{"keyword"},
		DeniedPatterns: []skill.DeniedPattern{
			{RuleID: "no-form", Pattern: "form fill"},
		},
	}
	actions := []model.Action{
		{Description: "Chase form fill volume", Scope: "account", Reasoning: "", Impact: model.ImpactLow},
	}

	violations := checkViolations("paid-specialist", actions, ac, "v1")
	require.Len(t, violations, 2)
	assert.Equal(t, "scope-not-allowed", violations[0].RuleID)
	assert.Equal(t, "no-form", violations[1].RuleID)
}
