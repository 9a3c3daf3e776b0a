package skill

import (
	"sort"

	"github.com/rotisserie/eris"
)

var bundles = map[BusinessType]*Bundle{
	BusinessEcommerce: ecommerceBundle,
	BusinessLeadGen:   leadGenBundle,
	BusinessSaaS:      saasBundle,
	BusinessLocal:     localBundle,
}

// ParseBusinessType validates a business-type key.
func ParseBusinessType(s string) (BusinessType, error) {
	bt := BusinessType(s)
	if _, ok := bundles[bt]; !ok {
		return "", eris.Errorf("skill: unknown business type %q", s)
	}
	return bt, nil
}

// Get resolves the bundle for a business type. Bundles are immutable; the
// returned pointer must not be written through.
func Get(bt BusinessType) (*Bundle, error) {
	b, ok := bundles[bt]
	if !ok {
		return nil, eris.Errorf("skill: no bundle registered for %q", bt)
	}
	return b, nil
}

// Types lists the registered business types in stable order.
func Types() []BusinessType {
	out := make([]BusinessType, 0, len(bundles))
	for bt := range bundles {
		out = append(out, bt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
