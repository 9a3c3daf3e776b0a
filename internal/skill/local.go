package skill

import "github.com/crossrank/adscope-cli/internal/model"

// localBundle tunes the pipeline for local service businesses where calls,
// bookings, and map-pack visibility dominate.
var localBundle = &Bundle{
	Type:    BusinessLocal,
	Version: "local-v1",
	Triage: TriageConfig{
		Thresholds: Thresholds{
			HighSpend:           150,
			LowConversions:      1,
			MinImpressions:      500,
			LowCTR:              0.03,
			StrikingDistanceMin: 4,
			StrikingDistanceMax: 10,
			HighBounceRate:      0.75,
			MinSessions:         50,
			LowConversionRate:   0.03,
		},
		KeywordRules: []KeywordRule{
			{ID: "kw-high-spend-low-conv", Description: "high spend, low conversions", Tier: model.TierCritical, Enabled: true, Condition: highSpendLowConversions},
			{ID: "kw-low-ctr", Description: "high impressions, weak ad CTR", Tier: model.TierHigh, Enabled: true, Condition: lowCTRHighImpressions},
			{ID: "kw-striking-distance", Description: "striking-distance rank with no paid coverage", Tier: model.TierMedium, Enabled: true, Condition: strikingDistanceNoSpend},
		},
		PageRules: []PageRule{
			{ID: "pg-no-conversions", Description: "traffic without calls or bookings", Tier: model.TierCritical, Enabled: true, Condition: trafficNoConversions},
			{ID: "pg-high-bounce", Description: "high bounce on service-area page", Tier: model.TierHigh, Enabled: true, Condition: highBounceLanding},
		},
		MaxKeywords:       10,
		MaxPages:          6,
		KeywordSortMetric: keywordSpend,
		PageSortMetric:    pageSessions,
	},
	Paid: AgentContext{
		KPIs: []string{
			"Cost per call and cost per booked job",
			"Ad coverage during business hours versus after hours",
		},
		Benchmarks: []string{
			"'Near me' and emergency terms convert 2-4x baseline; protect their budget first",
		},
		Patterns: []string{
			"Tighten geo targeting to the actual service radius before any bid change",
			"Schedule bids around staffed hours; after-hours clicks without call handling are wasted",
			"Use call-only ads on emergency-intent terms",
		},
		AntiPatterns: []string{
			"Never expand geo radius to fix low volume without checking job profitability by area",
		},
		Examples: []Example{
			{
				Situation: "Ads run 24/7 but 30% of spend lands between midnight and 6am with no tracked calls",
				Action:    "Restrict ad schedule to staffed hours plus one hour either side; redistribute the recovered budget to emergency terms",
			},
		},
		Constraints: []string{
			"Measure in calls and bookings; never in e-commerce or pipeline metrics",
			"Every action must name the specific keyword or campaign it applies to",
		},
		AllowedScopes:  []string{"keyword", "ad_group", "campaign", "account"},
		DeniedPatterns: []DeniedPattern{
			{RuleID: "local-no-retail-metrics", Pattern: "ROAS"},
		},
	},
	Organic: AgentContext{
		KPIs: []string{
			"Map-pack presence for service + city queries",
			"Calls and direction requests from organic landings",
		},
		Benchmarks: []string{
			"Service-area pages without unique local content rarely hold positions above #8",
		},
		Patterns: []string{
			"Build one service-area page per city with genuinely local proof (jobs, photos, reviews)",
			"Mark up locations with LocalBusiness structured data",
			"Keep name/address/phone consistent across directory citations",
		},
		AntiPatterns: []string{
			"Do not spin out near-duplicate city pages; thin doorway pages get filtered",
		},
		Examples: []Example{
			{
				Situation: "The plumbing service page ranks #6 for 'water heater repair <city>' with no reviews shown",
				Action:    "Embed recent review snippets and job photos from that city on the page, and request reviews mentioning the service",
			},
		},
		Constraints: []string{
			"Reference only local search and call/booking metrics",
			"Every action must name the target URL",
		},
		AllowedScopes:  []string{"page", "location", "listing", "site"},
		DeniedPatterns: []DeniedPattern{
			{RuleID: "local-no-saas-metrics", Pattern: "free trial"},
		},
	},
	Synthesis: SynthesisConfig{
		Conflicts: []ConflictRule{
			{
				PaidSignal:    "pause keyword for wasted spend",
				OrganicSignal: "map-pack presence weak for same service query",
				Resolution:    "Keep minimal paid coverage until map-pack visibility recovers; local organic swings too slowly to go dark",
			},
		},
		Synergies: []SynergyRule{
			{Trigger: "high-converting paid call terms", Synergy: "Mirror the converting paid headline language on the matching service-area page"},
		},
		PriorityAdjustments: []string{
			"Call-producing actions outrank traffic-producing ones",
		},
		MustInclude:        []string{"wasted spend"},
		MustExclude:        []string{"international", "hreflang"},
		MinImpact:          model.ImpactLow,
		RevenueWeight:      1.0,
		EffortWeight:       1.0,
		MaxRecommendations: 5,
	},
}
