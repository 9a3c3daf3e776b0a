package skill

import "github.com/crossrank/adscope-cli/internal/model"

// leadGenBundle tunes the pipeline for lead-capture accounts where a
// conversion is a form fill or call, not a purchase.
var leadGenBundle = &Bundle{
	Type:    BusinessLeadGen,
	Version: "leadgen-v2",
	Triage: TriageConfig{
		Thresholds: Thresholds{
			HighSpend:           200,
			LowConversions:      2,
			MinImpressions:      800,
			LowCTR:              0.02,
			StrikingDistanceMin: 4,
			StrikingDistanceMax: 12,
			HighBounceRate:      0.7,
			MinSessions:         100,
			LowConversionRate:   0.02,
		},
		KeywordRules: []KeywordRule{
			{ID: "kw-high-spend-low-conv", Description: "high spend, low conversions", Tier: model.TierCritical, Enabled: true, Condition: highSpendLowConversions},
			{ID: "kw-low-ctr", Description: "high impressions, weak ad CTR", Tier: model.TierHigh, Enabled: true, Condition: lowCTRHighImpressions},
			{ID: "kw-paid-organic-overlap", Description: "paying for clicks while ranking in striking distance", Tier: model.TierHigh, Enabled: true, Condition: paidOrganicOverlap},
			{ID: "kw-striking-distance", Description: "striking-distance rank with no paid coverage", Tier: model.TierMedium, Enabled: true, Condition: strikingDistanceNoSpend},
		},
		PageRules: []PageRule{
			{ID: "pg-no-conversions", Description: "traffic without form fills", Tier: model.TierCritical, Enabled: true, Condition: trafficNoConversions},
			{ID: "pg-high-bounce", Description: "high bounce on lead landing page", Tier: model.TierHigh, Enabled: true, Condition: highBounceLanding},
			{ID: "pg-low-engagement", Description: "low engagement on qualifying content", Tier: model.TierMedium, Enabled: true, Condition: lowEngagement},
		},
		MaxKeywords:       15,
		MaxPages:          8,
		KeywordSortMetric: keywordSpend,
		PageSortMetric:    pageSessions,
	},
	Paid: AgentContext{
		KPIs: []string{
			"Cost per qualified lead, not raw CPA",
			"Lead-to-opportunity rate by keyword theme",
			"Search impression share on high-intent problem terms",
		},
		Benchmarks: []string{
			"B2B lead-gen CTR: 2-4% on high-intent terms",
			"Cost per lead should stay under one third of average deal value contribution",
		},
		Patterns: []string{
			"Segment campaigns by intent stage; bid down research-stage terms",
			"Route high-intent keywords to dedicated landing pages with a single form",
			"Use call extensions on emergency or urgent-intent terms",
		},
		AntiPatterns: []string{
			"Never chase lead volume from terms with no sales acceptance history",
			"Do not recommend display expansion to fix a search volume problem",
		},
		Examples: []Example{
			{
				Situation: "Keyword 'accident lawyer near me' spends $420 for 1 form fill; the landing page is the homepage",
				Action:    "Point the ad to the practice-area landing page with the intake form above the fold; keep the bid, the term intent is right",
			},
		},
		Constraints: []string{
			"Measure success in leads and qualified pipeline, never in transaction revenue",
			"Every action must name the specific keyword or campaign it applies to",
		},
		AllowedScopes:  []string{"keyword", "ad_group", "campaign", "account"},
		DeniedPatterns: []DeniedPattern{
			{RuleID: "leadgen-no-retail-metrics", Pattern: "ROAS"},
			{RuleID: "leadgen-no-retail-metrics", Pattern: "cart"},
		},
	},
	Organic: AgentContext{
		KPIs: []string{
			"Organic-assisted form fills and calls",
			"Rankings on problem-aware and solution-aware query clusters",
		},
		Benchmarks: []string{
			"Service pages converting under 2% of sessions usually lack proof elements or a visible form",
		},
		Patterns: []string{
			"Build comparison and cost-guide content for solution-aware queries",
			"Add FAQ blocks answering the exact questions surfaced in paid search terms",
		},
		AntiPatterns: []string{
			"Do not gate educational content behind forms; it suppresses the rankings that feed the funnel",
		},
		Examples: []Example{
			{
				Situation: "A cost-guide page ranks #9 and drives 15% of organic leads despite low traffic",
				Action:    "Refresh the guide with current-year pricing data and internal-link it from the top navigation resources menu",
			},
		},
		Constraints: []string{
			"Reference only organic search and on-site engagement metrics",
			"Every action must name the target URL",
		},
		AllowedScopes:  []string{"page", "template", "section", "site"},
		DeniedPatterns: []DeniedPattern{
			{RuleID: "leadgen-no-product-schema", Pattern: "schema:Product"},
		},
	},
	Synthesis: SynthesisConfig{
		Conflicts: []ConflictRule{
			{
				PaidSignal:    "pause keyword for cost per lead",
				OrganicSignal: "keyword feeds qualified organic cluster",
				Resolution:    "Bid down instead of pausing; the paid search-term report feeds organic targeting",
			},
		},
		Synergies: []SynergyRule{
			{Trigger: "high-converting paid landing page with weak organic visibility", Synergy: "Open the landing page to indexing with a crawlable variant to capture the same intent organically"},
		},
		PriorityAdjustments: []string{
			"Lead quality signals outrank raw lead volume",
		},
		MustInclude:        []string{"wasted spend", "hybrid"},
		MustExclude:        []string{"shopping feed"},
		MinImpact:          model.ImpactLow,
		RevenueWeight:      1.5,
		EffortWeight:       1.0,
		MaxRecommendations: 6,
	},
}
