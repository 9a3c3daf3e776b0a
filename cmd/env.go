package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/crossrank/adscope-cli/internal/agents"
	"github.com/crossrank/adscope-cli/internal/ai"
	"github.com/crossrank/adscope-cli/internal/metrics"
	"github.com/crossrank/adscope-cli/internal/orchestrator"
	"github.com/crossrank/adscope-cli/internal/research"
	"github.com/crossrank/adscope-cli/internal/skill"
	"github.com/crossrank/adscope-cli/internal/store"
	anthropicpkg "github.com/crossrank/adscope-cli/pkg/anthropic"
	"github.com/crossrank/adscope-cli/pkg/pagefetch"
	"github.com/crossrank/adscope-cli/pkg/serpmetrics"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "adscope.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// appEnv bundles the wired pipeline for commands that run reports.
type appEnv struct {
	Store store.Store
	Orch  *orchestrator.Orchestrator
}

func (e *appEnv) Close() {
	_ = e.Store.Close()
}

func initEnv(ctx context.Context) (*appEnv, error) {
	if cfg.Skills.OverlayPath != "" {
		overlay, err := skill.LoadOverlay(cfg.Skills.OverlayPath)
		if err != nil {
			return nil, err
		}
		overlay.Apply()
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	gateway := ai.NewGateway(anthropicpkg.NewClient(cfg.Anthropic.Key), ai.Config{
		MaxAttempts: cfg.Gateway.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Gateway.BaseDelaySecs) * time.Second,
	})

	serp := serpmetrics.New(cfg.SerpMetrics.BaseURL, cfg.SerpMetrics.Key,
		serpmetrics.WithRateLimit(cfg.SerpMetrics.RPS))
	pages := pagefetch.New(cfg.PageFetch.BaseURL, cfg.PageFetch.Key,
		pagefetch.WithRateLimit(cfg.PageFetch.RPS))

	researcher := research.New(serp, pages)
	if cfg.Research.Concurrency > 0 {
		researcher.Concurrency = cfg.Research.Concurrency
	}

	orch := orchestrator.New(
		st,
		metrics.NewStoreProvider(st),
		researcher,
		agents.NewPaid(gateway, cfg.Anthropic.Model),
		agents.NewOrganic(gateway, cfg.Anthropic.Model),
		agents.NewDirector(gateway, cfg.Anthropic.DirectorModel),
		cfg.Anthropic.Model,
	)

	return &appEnv{Store: st, Orch: orch}, nil
}
