package skill

import "github.com/crossrank/adscope-cli/internal/model"

// Shared rule conditions. Bundles compose these with vertical-specific
// thresholds; each reads only already-computed metrics.

func highSpendLowConversions(k model.KeywordMetrics, t Thresholds) bool {
	return k.Spend > t.HighSpend && k.Conversions <= t.LowConversions
}

func paidOrganicOverlap(k model.KeywordMetrics, t Thresholds) bool {
	return k.Spend > 0 && k.OrganicPosition != nil &&
		*k.OrganicPosition >= t.StrikingDistanceMin && *k.OrganicPosition <= t.StrikingDistanceMax
}

func lowCTRHighImpressions(k model.KeywordMetrics, t Thresholds) bool {
	return k.Impressions >= t.MinImpressions && k.CTR() < t.LowCTR
}

func strikingDistanceNoSpend(k model.KeywordMetrics, t Thresholds) bool {
	return k.Spend == 0 && k.OrganicPosition != nil &&
		*k.OrganicPosition >= t.StrikingDistanceMin && *k.OrganicPosition <= t.StrikingDistanceMax
}

func convertingKeywordSlippingOrganic(k model.KeywordMetrics, t Thresholds) bool {
	return k.Conversions > t.LowConversions && k.OrganicPosition != nil &&
		*k.OrganicPosition > t.StrikingDistanceMax
}

func highBounceLanding(p model.PageMetrics, t Thresholds) bool {
	return p.Sessions >= t.MinSessions && p.BounceRate != nil && *p.BounceRate > t.HighBounceRate
}

func trafficNoConversions(p model.PageMetrics, t Thresholds) bool {
	return p.Sessions >= t.MinSessions && p.ConversionRate() < t.LowConversionRate
}

func revenuePageSlipping(p model.PageMetrics, t Thresholds) bool {
	return p.Revenue != nil && *p.Revenue > 0 && p.OrganicPosition != nil &&
		*p.OrganicPosition > t.StrikingDistanceMax
}

func lowEngagement(p model.PageMetrics, t Thresholds) bool {
	return p.Sessions >= t.MinSessions && p.Engagement != nil && *p.Engagement < t.LowConversionRate
}

func keywordSpend(k model.KeywordMetrics) float64 { return k.Spend }

func pageRevenue(p model.PageMetrics) float64 {
	if p.Revenue != nil {
		return *p.Revenue
	}
	return 0
}

func pageSessions(p model.PageMetrics) float64 { return float64(p.Sessions) }
