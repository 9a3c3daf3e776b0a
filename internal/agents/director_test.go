package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossrank/adscope-cli/internal/model"
)

func paidOutput(actions ...model.Action) *model.AgentOutput {
	return &model.AgentOutput{Channel: model.CategoryPaid, Actions: actions}
}

func organicOutput(actions ...model.Action) *model.AgentOutput {
	return &model.AgentOutput{Channel: model.CategoryOrganic, Actions: actions}
}

func sampleAction() model.Action {
	return model.Action{
		Description:    "Reduce max CPC on cannibalized terms",
		Scope:          "keyword",
		ExpectedImpact: "Recover wasted spend",
		Reasoning:      "Organic already ranks",
		Impact:         model.ImpactHigh,
	}
}

func TestDirectorSkipsSynthesisWithoutActions(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{}
	d := NewDirector(testGateway(client), "test-model")

	out, err := d.Run(context.Background(), testClient(), paidOutput(), organicOutput(), ecommerceBundleForTest(t))
	require.NoError(t, err)
	assert.Empty(t, out.Recommendations)
	assert.False(t, out.Fallback)
	assert.NotEmpty(t, out.Summary)
	// No model call was made.
	assert.Equal(t, 0, client.calls)
}

func TestDirectorNilOutputsShortCircuit(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{}
	d := NewDirector(testGateway(client), "test-model")

	out, err := d.Run(context.Background(), testClient(), nil, nil, ecommerceBundleForTest(t))
	require.NoError(t, err)
	assert.Empty(t, out.Recommendations)
	assert.Equal(t, 0, client.calls)
}

func TestDirectorSynthesis(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{{text: `{
		"summary": "Paid spend is leaking on terms the site already ranks for.",
		"recommendations": [
			{
				"title": "Stop wasted spend on cannibalized keywords",
				"description": "Reduce paid coverage where organic holds top positions",
				"category": "hybrid",
				"impact": "high",
				"effort": "low",
				"action_items": ["Add negatives for top-3 organic terms", "Reduce max CPC 40%"]
			},
			{
				"title": "Track store visit lift",
				"description": "Enable store visit conversions",
				"category": "paid",
				"impact": "medium",
				"effort": "medium",
				"action_items": ["Enable store visits"]
			}
		]
	}`}}}

	d := NewDirector(testGateway(client), "test-model")
	out, err := d.Run(context.Background(), testClient(), paidOutput(sampleAction()), organicOutput(), ecommerceBundleForTest(t))
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "Paid spend is leaking on terms the site already ranks for.", out.Summary)

	// The ecommerce bundle must-excludes "store visit".
	require.Len(t, out.Recommendations, 1)
	got := out.Recommendations[0]
	assert.Equal(t, "Stop wasted spend on cannibalized keywords", got.Title)
	assert.Equal(t, model.CategoryHybrid, got.Category)
	assert.Len(t, got.ActionItems, 2)
	assert.Equal(t, 280, out.TokenUsage.Total())
}

func TestDirectorEmptyRecommendationsFallback(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{{text: `{
		"summary": "Signals conflict; no unified plan this run.",
		"recommendations": []
	}`}}}

	d := NewDirector(testGateway(client), "test-model")
	out, err := d.Run(context.Background(), testClient(), paidOutput(sampleAction()), organicOutput(), ecommerceBundleForTest(t))
	require.NoError(t, err)

	assert.True(t, out.Fallback)
	assert.Equal(t, "Signals conflict; no unified plan this run.", out.Summary)
	assert.Empty(t, out.Recommendations)
	// The empty array is a deliberate answer: exactly one call, no retry.
	assert.Equal(t, 1, client.calls)
}

func TestDirectorEmptyRecommendationsWithoutSummary(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{{text: `{"recommendations": []}`}}}

	d := NewDirector(testGateway(client), "test-model")
	out, err := d.Run(context.Background(), testClient(), paidOutput(sampleAction()), organicOutput(), ecommerceBundleForTest(t))
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, fallbackSummary, out.Summary)
}

func TestDirectorMissingRecommendationsFieldIsNotFallback(t *testing.T) {
	t.Parallel()

	// Omitting the recommendations field entirely is a contract violation,
	// not a deliberate empty answer: it must be retried, never accepted.
	client := &scriptedClient{turns: []scriptedTurn{
		{text: `{"summary": "All quiet."}`},
		{text: `{"summary": "All quiet."}`},
	}}

	d := NewDirector(testGateway(client), "test-model")
	_, err := d.Run(context.Background(), testClient(), paidOutput(sampleAction()), organicOutput(), ecommerceBundleForTest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
	assert.Equal(t, 2, client.calls)
}

func TestDirectorRetriesMalformedThenSucceeds(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{turns: []scriptedTurn{
		{text: "no structured output here"},
		{text: `{
			"summary": "Recovered on retry.",
			"recommendations": [
				{
					"title": "Fix wasted spend",
					"description": "Cut budget on non-converting broad match",
					"category": "paid",
					"impact": "high",
					"effort": "low",
					"action_items": ["Pause broad match"]
				}
			]
		}`},
	}}

	d := NewDirector(testGateway(client), "test-model")
	out, err := d.Run(context.Background(), testClient(), paidOutput(sampleAction()), organicOutput(), ecommerceBundleForTest(t))
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	require.Len(t, out.Recommendations, 1)
}

func TestDirectorEmptyOutput(t *testing.T) {
	t.Parallel()

	d := NewDirector(testGateway(&scriptedClient{}), "test-model")
	out := d.EmptyOutput()
	assert.Empty(t, out.Recommendations)
	assert.NotEmpty(t, out.Summary)
}
