package agents

import (
	"sort"
	"strings"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/skill"
)

// applyFilter runs the deterministic post-filter over the director's proposed
// recommendations, in order:
//
//  1. set aside recommendations matching a must-include pattern
//  2. drop anything else matching a must-exclude pattern
//  3. drop remaining recommendations below the minimum impact tier
//  4. sort the remainder by priority score descending
//  5. re-insert the must-include set at the front, in proposal order
//  6. truncate to the bundle's maximum
//
// Must-include entries are pinned: they win over must-exclude, skip the
// impact floor and the score sort, and truncation removes them last.
func applyFilter(recs []model.Recommendation, sc skill.SynthesisConfig) []model.Recommendation {
	var pinned, rest []model.Recommendation
	for _, rec := range recs {
		if matchesAny(rec, sc.MustInclude, false) {
			pinned = append(pinned, rec)
			continue
		}
		if matchesAny(rec, sc.MustExclude, true) {
			continue
		}
		rest = append(rest, rec)
	}

	if sc.MinImpact != "" {
		kept := rest[:0]
		for _, rec := range rest {
			if rec.Impact.Ordinal() >= sc.MinImpact.Ordinal() {
				kept = append(kept, rec)
			}
		}
		rest = kept
	}

	sort.SliceStable(rest, func(i, j int) bool {
		si, sj := score(rest[i], sc), score(rest[j], sc)
		if si != sj {
			return si > sj
		}
		// Equal scores: prefer the cheaper win.
		return rest[i].Effort.InvertedOrdinal() > rest[j].Effort.InvertedOrdinal()
	})

	final := make([]model.Recommendation, 0, len(pinned)+len(rest))
	final = append(final, pinned...)
	final = append(final, rest...)

	if sc.MaxRecommendations > 0 && len(final) > sc.MaxRecommendations {
		final = final[:sc.MaxRecommendations]
	}
	return final
}

// score computes the priority of a recommendation: impact weighted by the
// bundle's revenue weight plus inverted effort weighted by the effort weight.
func score(rec model.Recommendation, sc skill.SynthesisConfig) float64 {
	return float64(rec.Impact.Ordinal())*sc.RevenueWeight +
		float64(rec.Effort.InvertedOrdinal())*sc.EffortWeight
}

// matchesAny reports whether a pattern matches the recommendation's category
// exactly or appears in its title (and, for exclusions, its description).
// Matching is case-insensitive.
func matchesAny(rec model.Recommendation, patterns []string, includeDescription bool) bool {
	if len(patterns) == 0 {
		return false
	}
	title := strings.ToLower(rec.Title)
	desc := strings.ToLower(rec.Description)
	for _, p := range patterns {
		p = strings.ToLower(p)
		if string(rec.Category) == p {
			return true
		}
		if strings.Contains(title, p) {
			return true
		}
		if includeDescription && strings.Contains(desc, p) {
			return true
		}
	}
	return false
}
