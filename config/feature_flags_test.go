package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	flags := LoadFeatureFlags()

	for _, name := range []string{
		FeatureQueryRefinement,
		FeatureQueryRefinementCache,
		FeatureQueryExplain,
		FeatureAuditTrail,
		FeatureRosterAutoReload,
	} {
		assert.True(t, flags.IsEnabled(name, nil), name)
	}

	assert.False(t, flags.IsEnabled("no.such.feature", nil))
}

func TestFeatureFlags_EnvironmentOverride(t *testing.T) {
	t.Setenv("FEATURE_QUERY_REFINEMENT", "false")

	flags := LoadFeatureFlags()
	assert.False(t, flags.IsEnabled(FeatureQueryRefinement, nil))
}

func TestFeatureFlags_RolloutIsDeterministic(t *testing.T) {
	flags := LoadFeatureFlags()
	require.NoError(t, flags.SetRolloutPercent(FeatureQueryExplain, 50))

	ctx := &FeatureContext{AdminID: "amit"}
	first := flags.IsEnabled(FeatureQueryExplain, ctx)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, flags.IsEnabled(FeatureQueryExplain, ctx))
	}
}

func TestFeatureFlags_AdminOverrideWinsOverRollout(t *testing.T) {
	flags := LoadFeatureFlags()
	require.NoError(t, flags.SetRolloutPercent(FeatureQueryExplain, 0))

	flags.SetAdminOverride("amit", FeatureQueryExplain, true)

	assert.True(t, flags.IsEnabled(FeatureQueryExplain, &FeatureContext{AdminID: "amit"}))
	assert.False(t, flags.IsEnabled(FeatureQueryExplain, &FeatureContext{AdminID: "riya"}))

	flags.ClearAdminOverrides("amit")
	assert.False(t, flags.IsEnabled(FeatureQueryExplain, &FeatureContext{AdminID: "amit"}))
}

func TestFeatureFlags_DisableAndEnable(t *testing.T) {
	flags := LoadFeatureFlags()

	require.NoError(t, flags.DisableFeature(FeatureAuditTrail))
	assert.False(t, flags.IsEnabled(FeatureAuditTrail, nil))

	require.NoError(t, flags.EnableFeature(FeatureAuditTrail))
	assert.True(t, flags.IsEnabled(FeatureAuditTrail, nil))
}
