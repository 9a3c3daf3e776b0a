// Package agents holds the LLM-backed pipeline phases: the paid and organic
// channel specialists and the director that synthesizes their proposals into
// a unified recommendation list.
package agents

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crossrank/adscope-cli/internal/ai"
	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/skill"
)

const specialistMaxTokens = 4096

// Specialist is one channel agent (paid or organic) parameterized entirely by
// the skill bundle's context for its channel.
type Specialist struct {
	gw      *ai.Gateway
	model   string
	channel model.Category
}

// NewPaid creates the paid search specialist.
func NewPaid(gw *ai.Gateway, modelName string) *Specialist {
	return &Specialist{gw: gw, model: modelName, channel: model.CategoryPaid}
}

// NewOrganic creates the organic search specialist.
func NewOrganic(gw *ai.Gateway, modelName string) *Specialist {
	return &Specialist{gw: gw, model: modelName, channel: model.CategoryOrganic}
}

// Channel returns which channel this specialist analyzes.
func (s *Specialist) Channel() model.Category { return s.channel }

func (s *Specialist) context(bundle *skill.Bundle) skill.AgentContext {
	if s.channel == model.CategoryPaid {
		return bundle.Paid
	}
	return bundle.Organic
}

// Run analyzes the enriched shortlists and returns channel actions plus any
// domain-rule violations found in the output. Violations are a quality
// signal; they never fail the run.
func (s *Specialist) Run(ctx context.Context, client model.Client, data *model.ResearchData, bundle *skill.Bundle) (*model.AgentOutput, []model.Violation, error) {
	start := time.Now()
	ac := s.context(bundle)

	prompt, err := specialistPrompt(s.channel, data)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "agents: build %s prompt", s.channel)
	}

	result, err := s.gw.Complete(ctx, ai.Request{
		Phase:     string(s.channel) + "-specialist",
		Model:     s.model,
		System:    specialistSystem(s.channel, client, ac),
		Prompt:    prompt,
		MaxTokens: specialistMaxTokens,
		Schema:    actionListSchema,
	})
	if err != nil {
		return nil, nil, err
	}

	var parsed struct {
		Actions []model.Action `json:"actions"`
	}
	if err := json.Unmarshal([]byte(result.JSON), &parsed); err != nil {
		return nil, nil, eris.Wrapf(err, "agents: decode %s output", s.channel)
	}

	violations := checkViolations(string(s.channel)+"-specialist", parsed.Actions, ac, bundle.Version)

	out := &model.AgentOutput{
		Channel:    s.channel,
		Actions:    parsed.Actions,
		TokenUsage: result.Usage,
		ElapsedMS:  time.Since(start).Milliseconds(),
	}

	zap.L().Info("specialist complete",
		zap.String("channel", string(s.channel)),
		zap.Int("actions", len(out.Actions)),
		zap.Int("violations", len(violations)),
		zap.Int("attempts", result.Attempts),
		zap.Int("tokens", result.Usage.Total()),
	)
	return out, violations, nil
}

// checkViolations audits agent actions against the skill's output contract:
// scopes outside the allowed set and text matching denied patterns are
// recorded, with the offending action kept in place.
func checkViolations(phase string, actions []model.Action, ac skill.AgentContext, skillVersion string) []model.Violation {
	allowed := make(map[string]bool, len(ac.AllowedScopes))
	for _, s := range ac.AllowedScopes {
		allowed[s] = true
	}

	var violations []model.Violation
	for _, action := range actions {
		if len(allowed) > 0 && !allowed[action.Scope] {
			violations = append(violations, model.NewViolation(phase, "scope-not-allowed", action.Scope+": "+action.Description, skillVersion))
		}
		text := strings.ToLower(action.Description + " " + action.Reasoning)
		for _, dp := range ac.DeniedPatterns {
			if strings.Contains(text, strings.ToLower(dp.Pattern)) {
				violations = append(violations, model.NewViolation(phase, dp.RuleID, action.Description, skillVersion))
			}
		}
	}
	return violations
}
