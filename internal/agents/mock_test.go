package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crossrank/adscope-cli/internal/ai"
	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/skill"
	"github.com/crossrank/adscope-cli/pkg/anthropic"
)

// scriptedClient returns canned model responses in order.
type scriptedClient struct {
	turns []scriptedTurn
	calls int
}

type scriptedTurn struct {
	text string
	err  error
}

func (c *scriptedClient) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if c.calls >= len(c.turns) {
		return nil, context.Canceled
	}
	turn := c.turns[c.calls]
	c.calls++
	if turn.err != nil {
		return nil, turn.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: turn.text}},
		Usage:   anthropic.TokenUsage{InputTokens: 200, OutputTokens: 80},
	}, nil
}

func testGateway(client anthropic.Client) *ai.Gateway {
	return ai.NewGateway(client, ai.Config{MaxAttempts: 2, BaseDelay: time.Millisecond})
}

func testClient() model.Client {
	return model.Client{
		ID:           "client-1",
		Name:         "Acme Footwear",
		Domain:       "acmefootwear.example",
		BusinessType: "ecommerce",
	}
}

func ecommerceBundleForTest(t *testing.T) *skill.Bundle {
	t.Helper()
	bundle, err := skill.Get(skill.BusinessEcommerce)
	require.NoError(t, err)
	return bundle
}

func researchFixture() *model.ResearchData {
	pos := 6.0
	return &model.ResearchData{
		Keywords: []model.EnrichedKeyword{
			{
				BattlegroundKeyword: model.BattlegroundKeyword{
					Metrics: model.KeywordMetrics{
						Keyword:         "running shoes",
						Spend:           540,
						Conversions:     1,
						OrganicPosition: &pos,
					},
					RuleID: "kw-high-spend-low-conv",
					Tier:   model.TierCritical,
				},
			},
		},
	}
}
