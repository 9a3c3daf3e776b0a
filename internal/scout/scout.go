// Package scout is the deterministic triage phase: it scans the unified
// dataset against skill-supplied rules and shortlists a bounded set of
// battleground keywords and critical pages. No I/O, no AI; identical input
// and skill bundle always produce identical output.
package scout

import (
	"sort"

	"go.uber.org/zap"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/skill"
)

// Run evaluates the bundle's triage rules against the metric rows. Rules are
// applied in priority-tier order (critical > high > medium); each row is
// claimed by the first rule that matches it. Shortlists are truncated to the
// bundle's maximums with ties broken by tier, then by the bundle's primary
// sort metric descending.
func Run(keywords []model.KeywordMetrics, pages []model.PageMetrics, bundle *skill.Bundle) *model.ScoutFindings {
	findings := &model.ScoutFindings{
		RowsScanned:  len(keywords) + len(pages),
		SkillVersion: bundle.Version,
	}

	findings.Keywords = triageKeywords(keywords, bundle.Triage)
	findings.Pages = triagePages(pages, bundle.Triage)

	zap.L().Info("scout: triage complete",
		zap.String("skill", bundle.Version),
		zap.Int("rows_scanned", findings.RowsScanned),
		zap.Int("battleground_keywords", len(findings.Keywords)),
		zap.Int("critical_pages", len(findings.Pages)),
	)
	return findings
}

func triageKeywords(rows []model.KeywordMetrics, cfg skill.TriageConfig) []model.BattlegroundKeyword {
	rules := orderedKeywordRules(cfg.KeywordRules)

	claimed := make(map[string]bool, len(rows))
	var matches []model.BattlegroundKeyword
	for _, rule := range rules {
		for _, row := range rows {
			if claimed[row.Keyword] || !rule.Condition(row, cfg.Thresholds) {
				continue
			}
			claimed[row.Keyword] = true
			matches = append(matches, model.BattlegroundKeyword{
				Metrics:   row,
				RuleID:    rule.ID,
				RuleDesc:  rule.Description,
				Tier:      rule.Tier,
				SortValue: cfg.KeywordSortMetric(row),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Tier.Ordinal() != matches[j].Tier.Ordinal() {
			return matches[i].Tier.Ordinal() > matches[j].Tier.Ordinal()
		}
		return matches[i].SortValue > matches[j].SortValue
	})

	if cfg.MaxKeywords > 0 && len(matches) > cfg.MaxKeywords {
		matches = matches[:cfg.MaxKeywords]
	}
	return matches
}

func triagePages(rows []model.PageMetrics, cfg skill.TriageConfig) []model.CriticalPage {
	rules := orderedPageRules(cfg.PageRules)

	claimed := make(map[string]bool, len(rows))
	var matches []model.CriticalPage
	for _, rule := range rules {
		for _, row := range rows {
			if claimed[row.URL] || !rule.Condition(row, cfg.Thresholds) {
				continue
			}
			claimed[row.URL] = true
			matches = append(matches, model.CriticalPage{
				Metrics:   row,
				RuleID:    rule.ID,
				RuleDesc:  rule.Description,
				Tier:      rule.Tier,
				SortValue: cfg.PageSortMetric(row),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Tier.Ordinal() != matches[j].Tier.Ordinal() {
			return matches[i].Tier.Ordinal() > matches[j].Tier.Ordinal()
		}
		return matches[i].SortValue > matches[j].SortValue
	})

	if cfg.MaxPages > 0 && len(matches) > cfg.MaxPages {
		matches = matches[:cfg.MaxPages]
	}
	return matches
}

// orderedKeywordRules returns enabled rules sorted by tier, preserving the
// declared order within a tier.
func orderedKeywordRules(rules []skill.KeywordRule) []skill.KeywordRule {
	out := make([]skill.KeywordRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tier.Ordinal() > out[j].Tier.Ordinal()
	})
	return out
}

func orderedPageRules(rules []skill.PageRule) []skill.PageRule {
	out := make([]skill.PageRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tier.Ordinal() > out[j].Tier.Ordinal()
	})
	return out
}
