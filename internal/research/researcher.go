// Package research is the enrichment phase: it fans out over the triage
// shortlists and augments each keyword with competitive metrics and each page
// with fetched content. Enrichment is best-effort; a provider failure leaves
// the item un-enriched and the pipeline moving.
package research

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/resilience"
	"github.com/crossrank/adscope-cli/pkg/pagefetch"
	"github.com/crossrank/adscope-cli/pkg/serpmetrics"
)

const (
	serviceSerpMetrics = "serpmetrics"
	servicePageFetch   = "pagefetch"

	maxExcerptLen = 500
)

// Researcher enriches scout shortlists via external providers.
type Researcher struct {
	serp     serpmetrics.Client
	pages    pagefetch.Client
	breakers *resilience.ServiceBreakers
	retry    resilience.RetryConfig

	// Concurrency bounds the number of in-flight provider calls.
	Concurrency int
}

// New creates a researcher with default retry and circuit breaker settings.
func New(serp serpmetrics.Client, pages pagefetch.Client) *Researcher {
	return &Researcher{
		serp:        serp,
		pages:       pages,
		breakers:    resilience.NewServiceBreakers(resilience.DefaultCircuitConfig()),
		retry:       resilience.DefaultRetryConfig(),
		Concurrency: 4,
	}
}

// Run enriches every shortlisted keyword and page concurrently. Individual
// fetch failures are counted and logged, never fatal; the only error returned
// is context cancellation.
func (r *Researcher) Run(ctx context.Context, findings *model.ScoutFindings) (*model.ResearchData, error) {
	start := time.Now()

	data := &model.ResearchData{
		Keywords: make([]model.EnrichedKeyword, len(findings.Keywords)),
		Pages:    make([]model.EnrichedPage, len(findings.Pages)),
	}

	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)

	for i, kw := range findings.Keywords {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data.Keywords[i] = model.EnrichedKeyword{BattlegroundKeyword: kw}

			comp, err := r.lookupKeyword(gctx, kw.Metrics.Keyword)
			if err != nil {
				failures.Add(1)
				zap.L().Warn("research: keyword enrichment failed",
					zap.String("keyword", kw.Metrics.Keyword),
					zap.Error(err),
				)
				return nil
			}
			data.Keywords[i].Competitive = comp
			return nil
		})
	}

	for i, page := range findings.Pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data.Pages[i] = model.EnrichedPage{CriticalPage: page}

			content, err := r.fetchPage(gctx, page.Metrics.URL)
			if err != nil {
				failures.Add(1)
				zap.L().Warn("research: page enrichment failed",
					zap.String("url", page.Metrics.URL),
					zap.Error(err),
				)
				return nil
			}
			data.Pages[i].Content = content
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.FetchFailures = int(failures.Load())

	zap.L().Info("research: enrichment complete",
		zap.Int("keywords", len(data.Keywords)),
		zap.Int("pages", len(data.Pages)),
		zap.Int("fetch_failures", data.FetchFailures),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

// lookupKeyword fetches competitive metrics through the provider's circuit
// breaker with retry. Returns nil data when the provider has nothing for the
// keyword.
func (r *Researcher) lookupKeyword(ctx context.Context, keyword string) (*model.CompetitiveData, error) {
	breaker := r.breakers.Get(serviceSerpMetrics)

	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger(serviceSerpMetrics, "lookup")

	raw, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*serpmetrics.KeywordData, error) {
		return resilience.BreakerVal(ctx, breaker, func(ctx context.Context) (*serpmetrics.KeywordData, error) {
			return r.serp.Lookup(ctx, keyword)
		})
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	return &model.CompetitiveData{
		Difficulty:     raw.Difficulty,
		SearchVolume:   raw.SearchVolume,
		AvgCPC:         raw.AvgCPC,
		TopCompetitors: raw.TopCompetitors,
	}, nil
}

// fetchPage fetches page content through the provider's circuit breaker with
// retry and summarizes it for prompt inclusion.
func (r *Researcher) fetchPage(ctx context.Context, url string) (*model.PageContent, error) {
	breaker := r.breakers.Get(servicePageFetch)

	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger(servicePageFetch, "fetch")

	raw, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*pagefetch.Page, error) {
		return resilience.BreakerVal(ctx, breaker, func(ctx context.Context) (*pagefetch.Page, error) {
			return r.pages.Fetch(ctx, url)
		})
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	return &model.PageContent{
		Title:      raw.Title,
		WordCount:  len(strings.Fields(raw.Content)),
		Excerpt:    excerpt(raw.Content),
		StatusCode: raw.StatusCode,
	}, nil
}

// excerpt trims content to a prompt-sized snippet, cutting at a word boundary.
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= maxExcerptLen {
		return content
	}
	cut := content[:maxExcerptLen]
	if idx := strings.LastIndexByte(cut, ' '); idx > maxExcerptLen/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
