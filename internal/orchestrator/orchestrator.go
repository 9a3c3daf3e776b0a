// Package orchestrator drives a report through its phases: load metrics,
// triage, enrich, fan out to the channel specialists, synthesize, persist.
// The report row is the single source of truth for progress; each phase
// appends its output before the next phase starts.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crossrank/adscope-cli/internal/agents"
	"github.com/crossrank/adscope-cli/internal/metrics"
	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/research"
	"github.com/crossrank/adscope-cli/internal/scout"
	"github.com/crossrank/adscope-cli/internal/skill"
	"github.com/crossrank/adscope-cli/internal/store"
	"github.com/crossrank/adscope-cli/pkg/anthropic"
)

// Orchestrator wires the pipeline phases to their dependencies.
type Orchestrator struct {
	store      store.Store
	metrics    metrics.Provider
	researcher *research.Researcher
	paid       *agents.Specialist
	organic    *agents.Specialist
	director   *agents.Director

	// CostModel labels cost-attribution logs; phases may use different
	// models but attribution rolls up under the primary one.
	CostModel string
}

// New creates an orchestrator with all dependencies.
func New(
	st store.Store,
	provider metrics.Provider,
	researcher *research.Researcher,
	paid, organic *agents.Specialist,
	director *agents.Director,
	costModel string,
) *Orchestrator {
	return &Orchestrator{
		store:      st,
		metrics:    provider,
		researcher: researcher,
		paid:       paid,
		organic:    organic,
		director:   director,
		CostModel:  costModel,
	}
}

// GenerateReport runs the full pipeline for one client and date range. Any
// phase error moves the report to failed with the cause recorded; the report
// row always reaches a terminal status.
func (o *Orchestrator) GenerateReport(ctx context.Context, client model.Client, trigger model.TriggerReason, dateRange model.DateRange) (*model.Report, error) {
	businessType, err := skill.ParseBusinessType(client.BusinessType)
	if err != nil {
		return nil, err
	}
	bundle, err := skill.Get(businessType)
	if err != nil {
		return nil, err
	}

	report, err := o.store.CreateReport(ctx, client, trigger, dateRange)
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: create report")
	}

	log := zap.L().With(
		zap.String("report_id", report.ID),
		zap.String("client_id", client.ID),
		zap.String("skill", bundle.Version),
	)
	log.Info("report run starting", zap.String("trigger", string(trigger)))

	setStatus := func(status model.ReportStatus) {
		report.Status = status
		if statusErr := o.store.UpdateReportStatus(ctx, report.ID, status); statusErr != nil {
			log.Warn("failed to update report status", zap.Error(statusErr))
		}
	}

	start := time.Now()
	fail := func(phase string, phaseErr error) (*model.Report, error) {
		wrapped := eris.Wrapf(phaseErr, "orchestrator: %s phase", phase)
		report.Status = model.ReportStatusFailed
		report.Error = wrapped.Error()
		if failErr := o.store.FailReport(ctx, report.ID, wrapped.Error()); failErr != nil {
			log.Error("failed to mark report failed", zap.Error(failErr))
		}
		log.Error("report run failed",
			zap.String("phase", phase),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(phaseErr),
		)
		return report, wrapped
	}

	// Phase 1: load the unified dataset.
	keywords, err := o.metrics.Keywords(ctx, client.ID, dateRange)
	if err != nil {
		return fail("metrics", err)
	}
	pages, err := o.metrics.Pages(ctx, client.ID, dateRange)
	if err != nil {
		return fail("metrics", err)
	}

	// Phase 2: deterministic triage. The report leaves pending once the scout
	// shortlist is persisted.
	findings := scout.Run(keywords, pages, bundle)
	report.Scout = findings
	if saveErr := o.store.SaveScoutFindings(ctx, report.ID, findings); saveErr != nil {
		log.Warn("failed to save scout findings", zap.Error(saveErr))
	}
	setStatus(model.ReportStatusResearching)

	var totalUsage model.TokenUsage
	var violations []model.Violation

	if len(findings.Keywords) == 0 && len(findings.Pages) == 0 {
		// Nothing to analyze: complete with an empty recommendation list and
		// no model calls.
		log.Info("no triage findings, completing report without analysis")
		return o.complete(ctx, report, o.director.EmptyOutput(), totalUsage, start, log)
	}

	// Phase 3: enrichment.
	data, err := o.researcher.Run(ctx, findings)
	if err != nil {
		return fail("research", err)
	}
	report.Research = data
	if saveErr := o.store.SaveResearchData(ctx, report.ID, data); saveErr != nil {
		log.Warn("failed to save research data", zap.Error(saveErr))
	}

	// Phase 4: channel specialists in parallel.
	setStatus(model.ReportStatusAnalyzing)

	var mu sync.Mutex
	var paidOut, organicOut *model.AgentOutput

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, v, agentErr := o.paid.Run(gctx, client, data, bundle)
		if agentErr != nil {
			return agentErr
		}
		mu.Lock()
		paidOut = out
		violations = append(violations, v...)
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		out, v, agentErr := o.organic.Run(gctx, client, data, bundle)
		if agentErr != nil {
			return agentErr
		}
		mu.Lock()
		organicOut = out
		violations = append(violations, v...)
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail("specialist", err)
	}

	report.Paid = paidOut
	report.Organic = organicOut
	if paidOut != nil {
		totalUsage.Add(paidOut.TokenUsage)
	}
	if organicOut != nil {
		totalUsage.Add(organicOut.TokenUsage)
	}
	if saveErr := o.store.SaveAgentOutputs(ctx, report.ID, paidOut, organicOut); saveErr != nil {
		log.Warn("failed to save agent outputs", zap.Error(saveErr))
	}

	report.Violations = violations
	if len(violations) > 0 {
		if saveErr := o.store.SaveViolations(ctx, report.ID, violations); saveErr != nil {
			log.Warn("failed to save violations", zap.Error(saveErr))
		}
	}

	// Phase 5: synthesis.
	dirOut, err := o.director.Run(ctx, client, paidOut, organicOut, bundle)
	if err != nil {
		return fail("director", err)
	}
	totalUsage.Add(dirOut.TokenUsage)

	return o.complete(ctx, report, dirOut, totalUsage, start, log)
}

// complete stamps recommendation rows, persists the director output, and
// moves the report to completed.
func (o *Orchestrator) complete(ctx context.Context, report *model.Report, dirOut *model.DirectorOutput, usage model.TokenUsage, start time.Time, log *zap.Logger) (*model.Report, error) {
	now := time.Now().UTC()
	for i := range dirOut.Recommendations {
		dirOut.Recommendations[i].ID = uuid.New().String()
		dirOut.Recommendations[i].ReportID = report.ID
		dirOut.Recommendations[i].Status = model.RecommendationStatusPending
		dirOut.Recommendations[i].CreatedAt = now
	}
	if len(dirOut.Recommendations) > 0 {
		if err := o.store.CreateRecommendations(ctx, dirOut.Recommendations); err != nil {
			wrapped := eris.Wrap(err, "orchestrator: persist recommendations")
			report.Status = model.ReportStatusFailed
			report.Error = wrapped.Error()
			if failErr := o.store.FailReport(ctx, report.ID, wrapped.Error()); failErr != nil {
				log.Error("failed to mark report failed", zap.Error(failErr))
			}
			return report, wrapped
		}
	}

	elapsed := time.Since(start).Milliseconds()
	if err := o.store.CompleteReport(ctx, report.ID, dirOut, usage, elapsed); err != nil {
		wrapped := eris.Wrap(err, "orchestrator: complete report")
		report.Status = model.ReportStatusFailed
		report.Error = wrapped.Error()
		if failErr := o.store.FailReport(ctx, report.ID, wrapped.Error()); failErr != nil {
			log.Error("failed to mark report failed", zap.Error(failErr))
		}
		return report, wrapped
	}

	report.Director = dirOut
	report.TokenUsage = usage
	report.ElapsedMS = elapsed
	report.Status = model.ReportStatusCompleted
	report.CompletedAt = &now

	anthropic.TokenUsage{
		InputTokens:              int64(usage.InputTokens),
		OutputTokens:             int64(usage.OutputTokens),
		CacheCreationInputTokens: int64(usage.CacheCreationTokens),
		CacheReadInputTokens:     int64(usage.CacheReadTokens),
	}.LogCost(o.CostModel, "report")

	log.Info("report run complete",
		zap.Int("recommendations", len(dirOut.Recommendations)),
		zap.Bool("fallback", dirOut.Fallback),
		zap.Int("tokens", usage.Total()),
		zap.Int64("elapsed_ms", elapsed),
	)
	return report, nil
}
