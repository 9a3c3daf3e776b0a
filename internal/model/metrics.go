package model

// KeywordMetrics is one unified per-keyword row merged from paid and organic
// sources. Optional fields are pointers: absent means the upstream provider
// had no value, which is distinct from zero.
type KeywordMetrics struct {
	Keyword         string   `json:"keyword"`
	Spend           float64  `json:"spend"`
	Clicks          int      `json:"clicks"`
	Impressions     int      `json:"impressions"`
	Conversions     int      `json:"conversions"`
	OrganicPosition *float64 `json:"organic_position,omitempty"`
	OrganicCTR      *float64 `json:"organic_ctr,omitempty"`
	Revenue         *float64 `json:"revenue,omitempty"`
}

// CPA returns cost per acquisition, or 0 when there are no conversions.
func (k KeywordMetrics) CPA() float64 {
	if k.Conversions == 0 {
		return 0
	}
	return k.Spend / float64(k.Conversions)
}

// CTR returns the paid click-through rate.
func (k KeywordMetrics) CTR() float64 {
	if k.Impressions == 0 {
		return 0
	}
	return float64(k.Clicks) / float64(k.Impressions)
}

// PageMetrics is one unified per-page row.
type PageMetrics struct {
	URL             string   `json:"url"`
	Sessions        int      `json:"sessions"`
	Conversions     int      `json:"conversions"`
	BounceRate      *float64 `json:"bounce_rate,omitempty"`
	Engagement      *float64 `json:"engagement,omitempty"`
	Revenue         *float64 `json:"revenue,omitempty"`
	OrganicPosition *float64 `json:"organic_position,omitempty"`
	OrganicClicks   *int     `json:"organic_clicks,omitempty"`
}

// ConversionRate returns conversions per session.
func (p PageMetrics) ConversionRate() float64 {
	if p.Sessions == 0 {
		return 0
	}
	return float64(p.Conversions) / float64(p.Sessions)
}
