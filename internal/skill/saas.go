package skill

import "github.com/crossrank/adscope-cli/internal/model"

// saasBundle tunes the pipeline for subscription software accounts with
// trial/demo conversions and long comparison-shopping cycles.
var saasBundle = &Bundle{
	Type:    BusinessSaaS,
	Version: "saas-v2",
	Triage: TriageConfig{
		Thresholds: Thresholds{
			HighSpend:           500,
			LowConversions:      1,
			MinImpressions:      1500,
			LowCTR:              0.025,
			StrikingDistanceMin: 4,
			StrikingDistanceMax: 20,
			HighBounceRate:      0.6,
			MinSessions:         300,
			LowConversionRate:   0.015,
		},
		KeywordRules: []KeywordRule{
			{ID: "kw-high-spend-low-conv", Description: "high spend, low conversions", Tier: model.TierCritical, Enabled: true, Condition: highSpendLowConversions},
			{ID: "kw-paid-organic-overlap", Description: "paying for clicks while ranking in striking distance", Tier: model.TierHigh, Enabled: true, Condition: paidOrganicOverlap},
			{ID: "kw-converting-slipping", Description: "trial-driving keyword losing organic rank", Tier: model.TierHigh, Enabled: true, Condition: convertingKeywordSlippingOrganic},
			{ID: "kw-striking-distance", Description: "striking-distance rank with no paid coverage", Tier: model.TierMedium, Enabled: true, Condition: strikingDistanceNoSpend},
			{ID: "kw-low-ctr", Description: "high impressions, weak ad CTR", Tier: model.TierMedium, Enabled: false, Condition: lowCTRHighImpressions},
		},
		PageRules: []PageRule{
			{ID: "pg-no-conversions", Description: "traffic without trials or demos", Tier: model.TierCritical, Enabled: true, Condition: trafficNoConversions},
			{ID: "pg-high-bounce", Description: "high bounce on feature or pricing page", Tier: model.TierHigh, Enabled: true, Condition: highBounceLanding},
			{ID: "pg-revenue-slipping", Description: "pipeline-attributed page losing organic visibility", Tier: model.TierHigh, Enabled: true, Condition: revenuePageSlipping},
		},
		MaxKeywords:       25,
		MaxPages:          12,
		KeywordSortMetric: keywordSpend,
		PageSortMetric:    pageSessions,
	},
	Paid: AgentContext{
		KPIs: []string{
			"Cost per trial and cost per demo, tracked separately",
			"Trial-to-paid rate by keyword theme, where attribution allows",
			"Competitor-term efficiency versus category-term efficiency",
		},
		Benchmarks: []string{
			"Category-term CTR: 2.5-5%; competitor-term CTR runs roughly half that",
			"Competitor conquesting above 30% of budget rarely sustains acceptable cost per trial",
		},
		Patterns: []string{
			"Separate competitor, category, and feature-intent terms into distinct campaigns with their own budgets",
			"Route comparison queries to head-to-head landing pages, not the homepage",
			"Bid down research-stage 'what is' queries and let content capture them",
		},
		AntiPatterns: []string{
			"Never recommend broad match on competitor names",
			"Do not optimize to raw signups when demo-qualified volume is tracked",
		},
		Examples: []Example{
			{
				Situation: "Competitor term spends $800/mo at 0 trials while a comparison page ranks #5 for the same query",
				Action:    "Cut the competitor bid 50% and push the comparison page to top 3; revisit paid coverage after the organic gain",
			},
		},
		Constraints: []string{
			"Speak in trials, demos, and pipeline; never in cart or checkout metrics",
			"Every action must name the specific keyword or campaign it applies to",
		},
		AllowedScopes:  []string{"keyword", "ad_group", "campaign", "account"},
		DeniedPatterns: []DeniedPattern{
			{RuleID: "saas-no-retail-metrics", Pattern: "checkout"},
			{RuleID: "saas-no-retail-metrics", Pattern: "cart abandonment"},
		},
	},
	Organic: AgentContext{
		KPIs: []string{
			"Organic trials and demo requests by landing page",
			"Share of voice across the comparison-query cluster",
			"Feature-page rankings against the named competitor set",
		},
		Benchmarks: []string{
			"Comparison pages ranking 4-10 typically double assisted trials on reaching top 3",
			"Docs subdomains cannibalize marketing pages when both target the same feature term",
		},
		Patterns: []string{
			"Build 'X vs Y' and 'X alternatives' pages for every named competitor",
			"Consolidate overlapping feature pages competing for one term",
			"Use integration pages to capture long-tail ecosystem queries",
		},
		AntiPatterns: []string{
			"Do not recommend gating technical docs; indexed docs rank and convert developers",
		},
		Examples: []Example{
			{
				Situation: "An alternatives page ranks #12 for a 4k-volume competitor query with zero internal links",
				Action:    "Internal-link it from the pricing page and the two top-ranking blog posts in the cluster",
			},
		},
		Constraints: []string{
			"Reference only organic search and product-signup metrics",
			"Every action must name the target URL",
		},
		AllowedScopes:  []string{"page", "template", "section", "site"},
		DeniedPatterns: []DeniedPattern{
			{RuleID: "saas-no-local-schema", Pattern: "schema:LocalBusiness"},
		},
	},
	Synthesis: SynthesisConfig{
		Conflicts: []ConflictRule{
			{
				PaidSignal:    "increase competitor-term bids",
				OrganicSignal: "comparison page in striking distance for same competitor",
				Resolution:    "Fund the comparison page push first; competitor CPCs only rise over time",
			},
			{
				PaidSignal:    "pause keyword for wasted spend",
				OrganicSignal: "keyword feeds top-of-funnel content cluster",
				Resolution:    "Pause paid coverage but keep the query in the organic content plan",
			},
		},
		Synergies: []SynergyRule{
			{Trigger: "paid search-term data showing converting long-tail feature queries", Synergy: "Seed feature-page FAQ content from converting paid search terms"},
		},
		PriorityAdjustments: []string{
			"Demo-attributed actions outrank trial-attributed ones",
			"Comparison-cluster wins outrank generic category-term wins",
		},
		MustInclude:        []string{"wasted spend"},
		MustExclude:        []string{"store visit", "schema:LocalBusiness"},
		MinImpact:          model.ImpactMedium,
		RevenueWeight:      2.0,
		EffortWeight:       1.5,
		MaxRecommendations: 7,
	},
}
