// Package metrics supplies the unified dataset the pipeline analyzes:
// per-keyword and per-page rows aggregated over a report's date range.
package metrics

import (
	"context"

	"go.uber.org/zap"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/store"
)

// Provider abstracts where metric rows come from, so the pipeline can be fed
// from the store or from fixtures in tests.
type Provider interface {
	Keywords(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.KeywordMetrics, error)
	Pages(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.PageMetrics, error)
}

// StoreProvider reads aggregated metric rows from the store's raw daily
// tables.
type StoreProvider struct {
	store store.Store
}

// NewStoreProvider creates a store-backed metrics provider.
func NewStoreProvider(s store.Store) *StoreProvider {
	return &StoreProvider{store: s}
}

func (p *StoreProvider) Keywords(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.KeywordMetrics, error) {
	rows, err := p.store.KeywordMetricsForRange(ctx, clientID, dateRange)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("metrics: loaded keyword rows",
		zap.String("client_id", clientID),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

func (p *StoreProvider) Pages(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.PageMetrics, error) {
	rows, err := p.store.PageMetricsForRange(ctx, clientID, dateRange)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("metrics: loaded page rows",
		zap.String("client_id", clientID),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}
