package agents

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crossrank/adscope-cli/internal/ai"
	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/skill"
)

const directorMaxTokens = 8192

// emptyInputSummary is the completed-report summary when triage found nothing
// worth analyzing.
const emptyInputSummary = "No optimization opportunities were identified in this period. " +
	"All monitored keywords and pages are performing within expected ranges."

// fallbackSummary is used when the model declines to produce recommendations
// for non-empty specialist input.
const fallbackSummary = "Specialist findings were reviewed but no unified recommendations " +
	"could be synthesized this run. The underlying channel actions are preserved in the report trace."

// Director synthesizes both specialists' actions into a prioritized
// recommendation list, then applies the skill's deterministic post-filter.
type Director struct {
	gw    *ai.Gateway
	model string
}

// NewDirector creates the synthesis agent.
func NewDirector(gw *ai.Gateway, modelName string) *Director {
	return &Director{gw: gw, model: modelName}
}

type directorResponse struct {
	Summary         string `json:"summary"`
	Recommendations []struct {
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Category    model.Category   `json:"category"`
		Impact      model.ImpactTier `json:"impact"`
		Effort      model.ImpactTier `json:"effort"`
		ActionItems []string         `json:"action_items"`
	} `json:"recommendations"`
}

// Run merges specialist outputs into final recommendations.
//
// Two inputs short-circuit without a model call or with a local fallback:
// when both specialists produced zero actions, the report completes with an
// empty recommendation list; when the model returns a valid summary but an
// empty recommendation array, the director accepts the empty result rather
// than retrying, flagging the output as a fallback.
func (d *Director) Run(ctx context.Context, client model.Client, paid, organic *model.AgentOutput, bundle *skill.Bundle) (*model.DirectorOutput, error) {
	start := time.Now()

	if actionCount(paid)+actionCount(organic) == 0 {
		zap.L().Info("director: no specialist actions, skipping synthesis")
		return &model.DirectorOutput{
			Summary:   emptyInputSummary,
			ElapsedMS: time.Since(start).Milliseconds(),
		}, nil
	}

	prompt, err := directorPrompt(paid, organic)
	if err != nil {
		return nil, eris.Wrap(err, "agents: build director prompt")
	}

	result, err := d.gw.Complete(ctx, ai.Request{
		Phase:     "director",
		Model:     d.model,
		System:    directorSystem(client, bundle.Synthesis),
		Prompt:    prompt,
		MaxTokens: directorMaxTokens,
		Schema:    synthesisSchema,
		// An empty recommendation array is a deliberate model answer, not a
		// malformed one. Refuse the retry so it can be handled locally.
		ShouldRetry: func(err error) bool {
			if _, ok := emptyRecommendations(err); ok {
				return false
			}
			return ai.Retryable(err)
		},
	})
	if err != nil {
		if resp, ok := emptyRecommendations(err); ok {
			zap.L().Warn("director: model returned no recommendations, using fallback")
			summary := resp.Summary
			if summary == "" {
				summary = fallbackSummary
			}
			return &model.DirectorOutput{
				Summary:   summary,
				Fallback:  true,
				ElapsedMS: time.Since(start).Milliseconds(),
			}, nil
		}
		return nil, err
	}

	var parsed directorResponse
	if err := json.Unmarshal([]byte(result.JSON), &parsed); err != nil {
		return nil, eris.Wrap(err, "agents: decode director output")
	}

	recs := make([]model.Recommendation, 0, len(parsed.Recommendations))
	for _, r := range parsed.Recommendations {
		recs = append(recs, model.Recommendation{
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			Impact:      r.Impact,
			Effort:      r.Effort,
			ActionItems: r.ActionItems,
		})
	}

	filtered := applyFilter(recs, bundle.Synthesis)

	out := &model.DirectorOutput{
		Summary:         parsed.Summary,
		Recommendations: filtered,
		TokenUsage:      result.Usage,
		ElapsedMS:       time.Since(start).Milliseconds(),
	}

	zap.L().Info("director complete",
		zap.Int("proposed", len(recs)),
		zap.Int("final", len(filtered)),
		zap.Int("attempts", result.Attempts),
		zap.Int("tokens", result.Usage.Total()),
	)
	return out, nil
}

// EmptyOutput returns the completed-report output used when triage found
// nothing worth analyzing. No model call is involved.
func (d *Director) EmptyOutput() *model.DirectorOutput {
	return &model.DirectorOutput{Summary: emptyInputSummary}
}

func actionCount(out *model.AgentOutput) int {
	if out == nil {
		return 0
	}
	return len(out.Actions)
}

// emptyRecommendations reports whether err is the one schema failure the
// director handles locally: a document that is valid except for an empty
// recommendations array. Any other violation, including a missing
// recommendations field, stays in the retry path.
func emptyRecommendations(err error) (*directorResponse, bool) {
	var verr *ai.SchemaValidationError
	if !errors.As(err, &verr) {
		return nil, false
	}
	violatedMinItems := false
	for _, f := range verr.Fields {
		if f.Field == "recommendations" && f.Type == "array_min_items" {
			violatedMinItems = true
			break
		}
	}
	if !violatedMinItems {
		return nil, false
	}

	var resp directorResponse
	if jsonErr := json.Unmarshal([]byte(verr.Document), &resp); jsonErr != nil {
		return nil, false
	}
	if len(resp.Recommendations) != 0 {
		return nil, false
	}
	return &resp, true
}
