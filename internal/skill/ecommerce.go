package skill

import "github.com/crossrank/adscope-cli/internal/model"

// ecommerceBundle tunes the pipeline for transactional retail accounts:
// revenue-weighted throughout, aggressive on wasted spend.
var ecommerceBundle = &Bundle{
	Type:    BusinessEcommerce,
	Version: "ecommerce-v3",
	Triage: TriageConfig{
		Thresholds: Thresholds{
			HighSpend:           300,
			LowConversions:      1,
			MinImpressions:      1000,
			LowCTR:              0.015,
			StrikingDistanceMin: 4,
			StrikingDistanceMax: 15,
			HighBounceRate:      0.65,
			MinSessions:         200,
			LowConversionRate:   0.01,
		},
		KeywordRules: []KeywordRule{
			{ID: "kw-high-spend-low-conv", Description: "high spend, low conversions", Tier: model.TierCritical, Enabled: true, Condition: highSpendLowConversions},
			{ID: "kw-paid-organic-overlap", Description: "paying for clicks while ranking in striking distance", Tier: model.TierHigh, Enabled: true, Condition: paidOrganicOverlap},
			{ID: "kw-converting-slipping", Description: "converting keyword losing organic rank", Tier: model.TierHigh, Enabled: true, Condition: convertingKeywordSlippingOrganic},
			{ID: "kw-low-ctr", Description: "high impressions, weak ad CTR", Tier: model.TierMedium, Enabled: true, Condition: lowCTRHighImpressions},
			{ID: "kw-striking-distance", Description: "striking-distance rank with no paid coverage", Tier: model.TierMedium, Enabled: true, Condition: strikingDistanceNoSpend},
		},
		PageRules: []PageRule{
			{ID: "pg-high-bounce", Description: "high-traffic landing page with high bounce", Tier: model.TierCritical, Enabled: true, Condition: highBounceLanding},
			{ID: "pg-no-conversions", Description: "traffic without conversions", Tier: model.TierHigh, Enabled: true, Condition: trafficNoConversions},
			{ID: "pg-revenue-slipping", Description: "revenue page losing organic visibility", Tier: model.TierHigh, Enabled: true, Condition: revenuePageSlipping},
		},
		MaxKeywords:       20,
		MaxPages:          10,
		KeywordSortMetric: keywordSpend,
		PageSortMetric:    pageRevenue,
	},
	Paid: AgentContext{
		KPIs: []string{
			"ROAS (revenue / ad spend) is the primary success metric",
			"CPA against blended product margin",
			"Impression share on branded and top category terms",
		},
		Benchmarks: []string{
			"Healthy retail search CTR: 1.5-3.5%",
			"Target ROAS floor: 3.0 for prospecting, 6.0 for brand",
			"Shopping campaigns should hold >60% impression share on own brand",
		},
		Patterns: []string{
			"Shift budget from broad keywords with CPA above margin to exact-match converters",
			"Split high-spend ad groups by product category for tighter ad relevance",
			"Use negative keywords to stop paid cannibalization of top-3 organic terms",
		},
		AntiPatterns: []string{
			"Never recommend pausing branded terms entirely; protect against competitor conquesting",
			"Do not recommend bid increases on keywords with zero conversion history",
		},
		Examples: []Example{
			{
				Situation: "Keyword 'running shoes sale' spent $540 with 1 conversion while the site ranks #6 organically",
				Action:    "Reduce max CPC 40% and add the exact term as a negative on broad campaigns; the organic listing already captures intent",
			},
			{
				Situation: "Category term with 2.8% CTR, ROAS 7.2, losing 35% impression share to budget",
				Action:    "Reallocate budget from sub-1.0 ROAS ad groups to this term until impression share loss is under 10%",
			},
		},
		Constraints: []string{
			"Reference only retail commerce metrics; never cite lead-form or booking metrics for this account",
			"Every action must name the specific keyword or campaign it applies to",
		},
		AllowedScopes:  []string{"keyword", "ad_group", "campaign", "account"},
		DeniedPatterns: []DeniedPattern{
			{RuleID: "ecom-no-leadgen-metrics", Pattern: "cost per lead"},
			{RuleID: "ecom-no-leadgen-metrics", Pattern: "form fill"},
		},
	},
	Organic: AgentContext{
		KPIs: []string{
			"Organic revenue per session on product and category pages",
			"Rank movement on striking-distance commercial terms",
			"Click share versus top paid competitors",
		},
		Benchmarks: []string{
			"Category pages at positions 4-10 typically gain 2-3x clicks reaching top 3",
			"Product page bounce above 65% signals intent mismatch or speed problems",
		},
		Patterns: []string{
			"Consolidate thin product variants into a single canonical page",
			"Add comparison and sizing content to striking-distance category pages",
			"Internal-link revenue pages from high-authority blog content",
		},
		AntiPatterns: []string{
			"Do not recommend new content creation for terms already ranking top 3",
			"Avoid technical migrations as a first-line recommendation",
		},
		Examples: []Example{
			{
				Situation: "Category page ranks #7 for a term with 12k monthly searches and converts at 2.1%",
				Action:    "Expand the page with buying-guide content targeting the term cluster and add internal links from the top 5 trafficked blog posts",
			},
		},
		Constraints: []string{
			"Reference only organic search and on-site engagement metrics",
			"Every action must name the target URL",
		},
		AllowedScopes:  []string{"page", "template", "section", "site"},
		DeniedPatterns: []DeniedPattern{
			{RuleID: "ecom-no-local-schema", Pattern: "schema:LocalBusiness"},
		},
	},
	Synthesis: SynthesisConfig{
		Conflicts: []ConflictRule{
			{
				PaidSignal:    "increase bids on keyword",
				OrganicSignal: "page ranks top 3 for same keyword",
				Resolution:    "Prefer the organic position; reduce paid coverage and reinvest in terms without organic presence",
			},
			{
				PaidSignal:    "pause keyword for wasted spend",
				OrganicSignal: "build content targeting same keyword",
				Resolution:    "Keep a minimal paid presence until the content ranks; schedule the pause as a follow-up",
			},
		},
		Synergies: []SynergyRule{
			{Trigger: "striking-distance keyword with proven paid conversion data", Synergy: "Use paid search-term conversion data to prioritize organic content targets"},
			{Trigger: "high-bounce landing page receiving paid traffic", Synergy: "A landing-page fix lifts both paid quality score and organic engagement"},
		},
		PriorityAdjustments: []string{
			"Revenue-bearing pages outrank traffic-only wins",
			"Actions executable within the ad platform outrank site changes at equal impact",
		},
		MustInclude:        []string{"wasted spend"},
		MustExclude:        []string{"schema:LocalBusiness", "store visit"},
		MinImpact:          model.ImpactLow,
		RevenueWeight:      2.0,
		EffortWeight:       1.0,
		MaxRecommendations: 8,
	},
}
