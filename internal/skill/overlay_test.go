package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossrank/adscope-cli/internal/model"
)

func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skills.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// restoreBundle puts the built-in bundle back after an Apply.
func restoreBundle(t *testing.T, bt BusinessType) {
	t.Helper()
	orig := bundles[bt]
	t.Cleanup(func() { bundles[bt] = orig })
}

func TestLoadOverlayAndApply(t *testing.T) {
	restoreBundle(t, BusinessEcommerce)

	path := writeOverlay(t, `
bundles:
  ecommerce:
    version: ecommerce-v3-tuned
    thresholds:
      high_spend: 500
      min_sessions: 100
    synthesis:
      max_recommendations: 12
      min_impact: medium
      must_exclude:
        - "store visit"
`)

	overlay, err := LoadOverlay(path)
	require.NoError(t, err)
	overlay.Apply()

	bundle, err := Get(BusinessEcommerce)
	require.NoError(t, err)
	assert.Equal(t, "ecommerce-v3-tuned", bundle.Version)
	assert.Equal(t, 500.0, bundle.Triage.Thresholds.HighSpend)
	assert.Equal(t, 100, bundle.Triage.Thresholds.MinSessions)
	assert.Equal(t, 12, bundle.Synthesis.MaxRecommendations)
	assert.Equal(t, model.ImpactMedium, bundle.Synthesis.MinImpact)
	assert.Equal(t, []string{"store visit"}, bundle.Synthesis.MustExclude)

	// Untouched knobs keep built-in values.
	assert.Equal(t, 1, bundle.Triage.Thresholds.LowConversions)
	assert.Equal(t, 2.0, bundle.Synthesis.RevenueWeight)

	// Other bundles are untouched.
	saas, err := Get(BusinessSaaS)
	require.NoError(t, err)
	assert.Equal(t, 7, saas.Synthesis.MaxRecommendations)
}

func TestLoadOverlayUnknownBusinessType(t *testing.T) {
	path := writeOverlay(t, `
bundles:
  dropshipping:
    synthesis:
      max_recommendations: 3
`)

	_, err := LoadOverlay(path)
	assert.ErrorContains(t, err, "unknown business type")
}

func TestLoadOverlayInvalidMinImpact(t *testing.T) {
	path := writeOverlay(t, `
bundles:
  saas:
    synthesis:
      min_impact: urgent
`)

	_, err := LoadOverlay(path)
	assert.ErrorContains(t, err, "invalid min_impact")
}

func TestLoadOverlayMissingFile(t *testing.T) {
	_, err := LoadOverlay(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadOverlayMalformedYAML(t *testing.T) {
	path := writeOverlay(t, "bundles: [not a map")
	_, err := LoadOverlay(path)
	assert.Error(t, err)
}
