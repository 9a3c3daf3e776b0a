package skill

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/crossrank/adscope-cli/internal/model"
)

// Overlay is an operator-supplied YAML file that tunes the numeric knobs of
// the built-in bundles without touching the rule code. Only the fields set in
// the file are overridden.
type Overlay struct {
	Bundles map[string]BundleOverlay `yaml:"bundles"`
}

// BundleOverlay tunes one business type.
type BundleOverlay struct {
	Version    *string           `yaml:"version"`
	Thresholds *ThresholdOverlay `yaml:"thresholds"`
	Synthesis  *SynthesisOverlay `yaml:"synthesis"`
}

// ThresholdOverlay overrides triage thresholds. Nil fields keep the built-in
// value.
type ThresholdOverlay struct {
	HighSpend           *float64 `yaml:"high_spend"`
	LowConversions      *int     `yaml:"low_conversions"`
	MinImpressions      *int     `yaml:"min_impressions"`
	LowCTR              *float64 `yaml:"low_ctr"`
	StrikingDistanceMin *float64 `yaml:"striking_distance_min"`
	StrikingDistanceMax *float64 `yaml:"striking_distance_max"`
	HighBounceRate      *float64 `yaml:"high_bounce_rate"`
	MinSessions         *int     `yaml:"min_sessions"`
	LowConversionRate   *float64 `yaml:"low_conversion_rate"`
}

// SynthesisOverlay overrides director post-filter knobs.
type SynthesisOverlay struct {
	MustInclude        []string `yaml:"must_include"`
	MustExclude        []string `yaml:"must_exclude"`
	MinImpact          *string  `yaml:"min_impact"`
	RevenueWeight      *float64 `yaml:"revenue_weight"`
	EffortWeight       *float64 `yaml:"effort_weight"`
	MaxRecommendations *int     `yaml:"max_recommendations"`
}

// LoadOverlay parses and validates an overlay file.
func LoadOverlay(path string) (*Overlay, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "skill: read overlay %s", path)
	}

	var o Overlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return nil, eris.Wrapf(err, "skill: parse overlay %s", path)
	}

	for key, bo := range o.Bundles {
		if _, ok := bundles[BusinessType(key)]; !ok {
			return nil, eris.Errorf("skill: overlay references unknown business type %q", key)
		}
		if bo.Synthesis != nil && bo.Synthesis.MinImpact != nil {
			switch model.ImpactTier(*bo.Synthesis.MinImpact) {
			case model.ImpactHigh, model.ImpactMedium, model.ImpactLow:
			default:
				return nil, eris.Errorf("skill: overlay %s: invalid min_impact %q", key, *bo.Synthesis.MinImpact)
			}
		}
	}
	return &o, nil
}

// Apply rebuilds the registry with the overlay's overrides. Call once at
// startup, before any pipeline runs; Get still hands out immutable bundles
// afterwards.
func (o *Overlay) Apply() {
	for key, bo := range o.Bundles {
		bt := BusinessType(key)
		base := bundles[bt]
		if base == nil {
			continue
		}
		tuned := *base
		if bo.Version != nil {
			tuned.Version = *bo.Version
		}
		if bo.Thresholds != nil {
			tuned.Triage.Thresholds = overrideThresholds(base.Triage.Thresholds, bo.Thresholds)
		}
		if bo.Synthesis != nil {
			tuned.Synthesis = overrideSynthesis(base.Synthesis, bo.Synthesis)
		}
		bundles[bt] = &tuned
	}
}

func overrideThresholds(t Thresholds, ov *ThresholdOverlay) Thresholds {
	if ov.HighSpend != nil {
		t.HighSpend = *ov.HighSpend
	}
	if ov.LowConversions != nil {
		t.LowConversions = *ov.LowConversions
	}
	if ov.MinImpressions != nil {
		t.MinImpressions = *ov.MinImpressions
	}
	if ov.LowCTR != nil {
		t.LowCTR = *ov.LowCTR
	}
	if ov.StrikingDistanceMin != nil {
		t.StrikingDistanceMin = *ov.StrikingDistanceMin
	}
	if ov.StrikingDistanceMax != nil {
		t.StrikingDistanceMax = *ov.StrikingDistanceMax
	}
	if ov.HighBounceRate != nil {
		t.HighBounceRate = *ov.HighBounceRate
	}
	if ov.MinSessions != nil {
		t.MinSessions = *ov.MinSessions
	}
	if ov.LowConversionRate != nil {
		t.LowConversionRate = *ov.LowConversionRate
	}
	return t
}

func overrideSynthesis(sc SynthesisConfig, ov *SynthesisOverlay) SynthesisConfig {
	if ov.MustInclude != nil {
		sc.MustInclude = ov.MustInclude
	}
	if ov.MustExclude != nil {
		sc.MustExclude = ov.MustExclude
	}
	if ov.MinImpact != nil {
		sc.MinImpact = model.ImpactTier(*ov.MinImpact)
	}
	if ov.RevenueWeight != nil {
		sc.RevenueWeight = *ov.RevenueWeight
	}
	if ov.EffortWeight != nil {
		sc.EffortWeight = *ov.EffortWeight
	}
	if ov.MaxRecommendations != nil {
		sc.MaxRecommendations = *ov.MaxRecommendations
	}
	return sc
}
