package scout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/skill"
)

func f64(v float64) *float64 { return &v }

func ecommerce(t *testing.T) *skill.Bundle {
	t.Helper()
	bundle, err := skill.Get(skill.BusinessEcommerce)
	require.NoError(t, err)
	return bundle
}

func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	findings := Run(nil, nil, ecommerce(t))
	assert.Equal(t, 0, findings.RowsScanned)
	assert.Empty(t, findings.Keywords)
	assert.Empty(t, findings.Pages)
	assert.Equal(t, "ecommerce-v3", findings.SkillVersion)
}

func TestRunDeterministic(t *testing.T) {
	t.Parallel()

	keywords := []model.KeywordMetrics{
		{Keyword: "running shoes", Spend: 540, Conversions: 1, Impressions: 5000, Clicks: 40},
		{Keyword: "trail shoes", Spend: 120, Conversions: 8, Impressions: 9000, Clicks: 300, OrganicPosition: f64(6)},
		{Keyword: "sandals", Spend: 0, Conversions: 0, Impressions: 2000, Clicks: 10, OrganicPosition: f64(9)},
	}
	pages := []model.PageMetrics{
		{URL: "/shoes", Sessions: 400, Conversions: 2, BounceRate: f64(0.72)},
		{URL: "/sale", Sessions: 300, Conversions: 0},
	}
	bundle := ecommerce(t)

	first := Run(keywords, pages, bundle)
	second := Run(keywords, pages, bundle)
	assert.Equal(t, first, second)
	assert.Equal(t, 5, first.RowsScanned)
}

func TestKeywordRulePriority(t *testing.T) {
	t.Parallel()

	// Spends over HighSpend with one conversion and also overlaps organic
	// striking distance. The critical-tier rule must claim it first.
	row := model.KeywordMetrics{
		Keyword:         "wide fit boots",
		Spend:           350,
		Conversions:     1,
		Impressions:     3000,
		Clicks:          90,
		OrganicPosition: f64(5),
	}

	findings := Run([]model.KeywordMetrics{row}, nil, ecommerce(t))
	require.Len(t, findings.Keywords, 1)
	assert.Equal(t, "kw-high-spend-low-conv", findings.Keywords[0].RuleID)
	assert.Equal(t, model.TierCritical, findings.Keywords[0].Tier)
}

func TestKeywordShortlistOrderAndBound(t *testing.T) {
	t.Parallel()

	// 25 wasted-spend keywords; the ecommerce bundle caps at 20, sorted by
	// spend descending within the tier.
	var rows []model.KeywordMetrics
	for i := 0; i < 25; i++ {
		rows = append(rows, model.KeywordMetrics{
			Keyword:     string(rune('a'+i)) + "-term",
			Spend:       301 + float64(i),
			Conversions: 0,
			Impressions: 2000,
			Clicks:      50,
		})
	}

	findings := Run(rows, nil, ecommerce(t))
	require.Len(t, findings.Keywords, 20)
	assert.Equal(t, 325.0, findings.Keywords[0].Metrics.Spend)
	for i := 1; i < len(findings.Keywords); i++ {
		assert.GreaterOrEqual(t,
			findings.Keywords[i-1].SortValue,
			findings.Keywords[i].SortValue,
		)
	}
}

func TestTierOutranksSortMetric(t *testing.T) {
	t.Parallel()

	rows := []model.KeywordMetrics{
		// High tier (paid/organic overlap) with huge spend.
		{Keyword: "overlap", Spend: 900, Conversions: 12, Impressions: 8000, Clicks: 400, OrganicPosition: f64(7)},
		// Critical tier (wasted spend) with lower spend.
		{Keyword: "wasted", Spend: 310, Conversions: 0, Impressions: 2500, Clicks: 60},
	}

	findings := Run(rows, nil, ecommerce(t))
	require.Len(t, findings.Keywords, 2)
	assert.Equal(t, "wasted", findings.Keywords[0].Metrics.Keyword)
	assert.Equal(t, "overlap", findings.Keywords[1].Metrics.Keyword)
}

func TestPageRules(t *testing.T) {
	t.Parallel()

	pages := []model.PageMetrics{
		// Below MinSessions: no rule may claim it.
		{URL: "/quiet", Sessions: 50, Conversions: 0, BounceRate: f64(0.9)},
		// High bounce at volume: critical.
		{URL: "/landing", Sessions: 500, Conversions: 10, BounceRate: f64(0.70)},
		// Traffic with no conversions: high.
		{URL: "/blog", Sessions: 800, Conversions: 0},
	}

	findings := Run(nil, pages, ecommerce(t))
	require.Len(t, findings.Pages, 2)
	assert.Equal(t, "/landing", findings.Pages[0].Metrics.URL)
	assert.Equal(t, "pg-high-bounce", findings.Pages[0].RuleID)
	assert.Equal(t, "/blog", findings.Pages[1].Metrics.URL)
	assert.Equal(t, "pg-no-conversions", findings.Pages[1].RuleID)
}

func TestThresholdBoundaries(t *testing.T) {
	t.Parallel()

	// Exactly at HighSpend does not trigger; strictly over does.
	atThreshold := model.KeywordMetrics{Keyword: "at", Spend: 300, Conversions: 0}
	overThreshold := model.KeywordMetrics{Keyword: "over", Spend: 300.01, Conversions: 0}

	findings := Run([]model.KeywordMetrics{atThreshold, overThreshold}, nil, ecommerce(t))
	require.Len(t, findings.Keywords, 1)
	assert.Equal(t, "over", findings.Keywords[0].Metrics.Keyword)
}

func TestNilOptionalFieldsNeverMatchPositionRules(t *testing.T) {
	t.Parallel()

	rows := []model.KeywordMetrics{
		// No organic position: overlap and striking-distance rules must not
		// fire on a nil pointer.
		{Keyword: "no-organic", Spend: 50, Conversions: 5, Impressions: 4000, Clicks: 200},
	}

	findings := Run(rows, nil, ecommerce(t))
	assert.Empty(t, findings.Keywords)
}
