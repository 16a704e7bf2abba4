package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hyperpart/config"
	"github.com/katalvlaran/hyperpart/gainbucket"
	"github.com/katalvlaran/hyperpart/klfm"
)

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_Defaults verifies an absent file yields a usable default
// configuration.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	opts, err := cfg.ToOptions()
	require.NoError(t, err)
	assert.Equal(t, 1, opts.NumResources)
	assert.Equal(t, klfm.BucketSingleResource, opts.GainBucketType)
	assert.Equal(t, []float64{0.05}, opts.MaxImbalanceFractions)
	assert.True(t, opts.Multilevel)
	assert.Equal(t, 1, opts.NumRuns)
}

// TestLoad_FullFile verifies a populated file maps onto options field
// by field.
func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
resources:
  count: 3
  capacities: [1000, 2000, 3000]
  max_imbalance_fractions: [0.1, 0.2, 0.3]
  constrain_balance: [true, true, false]
  ratio_weights: [3, 2, 1]
partitioning:
  gain_bucket_type: multi_resource_mixed_adaptive
  selection_policy: best_gain_imbalance_affinities
  use_ratio_in_imbalance_score: true
  multilevel: false
  supernode_implementations_cap: 8
  rebalance_on_demand: true
  rebalance_on_demand_cap_per_run: 4
  rebalance_on_demand_cap_per_pass: 2
runtime:
  num_runs: 5
  max_passes: 42
  cap_passes: true
  seed: 77
  seed_mode: random
  use_entropy: true
  save_cutset: false
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	opts, err := cfg.ToOptions()
	require.NoError(t, err)

	assert.Equal(t, 3, opts.NumResources)
	assert.Equal(t, []int{1000, 2000, 3000}, opts.DeviceResourceCapacities)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, opts.MaxImbalanceFractions)
	assert.Equal(t, []bool{true, true, false}, opts.ConstrainBalanceByResource)
	assert.Equal(t, []int{3, 2, 1}, opts.ResourceRatioWeights)
	assert.Equal(t, klfm.BucketMultiResourceMixedAdaptive, opts.GainBucketType)
	assert.Equal(t, gainbucket.PolicyBestGainImbalanceScoreWithAffinities, opts.SelectionPolicy)
	assert.True(t, opts.UseRatioInImbalanceScore)
	assert.False(t, opts.Multilevel)
	assert.Equal(t, 8, opts.SupernodeImplementationsCap)
	assert.True(t, opts.RebalanceOnDemand)
	assert.Equal(t, 4, opts.RebalanceOnDemandCapPerRun)
	assert.Equal(t, 2, opts.RebalanceOnDemandCapPerPass)
	assert.Equal(t, 5, opts.NumRuns)
	assert.Equal(t, 42, opts.MaxPasses)
	assert.Equal(t, int64(77), opts.Seed)
	assert.True(t, opts.UseEntropy)
	assert.False(t, opts.SaveCutSet)
}

// TestLoad_ShapeMismatch verifies per-resource lists must match the
// declared count.
func TestLoad_ShapeMismatch(t *testing.T) {
	path := writeConfig(t, `
resources:
  count: 2
  max_imbalance_fractions: [0.1, 0.1, 0.1]
`)
	_, err := config.Load(path)
	assert.ErrorIs(t, err, config.ErrBadShape)
}

// TestToOptions_UnknownEnums verifies enum spellings are validated.
func TestToOptions_UnknownEnums(t *testing.T) {
	path := writeConfig(t, `
partitioning:
  gain_bucket_type: quantum_bucket
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	_, err = cfg.ToOptions()
	assert.ErrorIs(t, err, config.ErrUnknownEnum)

	path = writeConfig(t, `
partitioning:
  selection_policy: wishful_thinking
`)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	_, err = cfg.ToOptions()
	assert.ErrorIs(t, err, config.ErrUnknownEnum)
}

// TestToOptions_InvalidFraction verifies engine validation runs on the
// converted options.
func TestToOptions_InvalidFraction(t *testing.T) {
	path := writeConfig(t, `
resources:
  count: 1
  max_imbalance_fractions: [2.5]
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	_, err = cfg.ToOptions()
	assert.ErrorIs(t, err, klfm.ErrBadOptions)
}

// TestParseEnums_RoundTrip verifies every enum spelling resolves and
// matches its String form.
func TestParseEnums_RoundTrip(t *testing.T) {
	for _, name := range []string{
		"single_resource", "multi_resource_exclusive",
		"multi_resource_exclusive_adaptive", "multi_resource_mixed",
		"multi_resource_mixed_adaptive",
	} {
		parsed, err := config.ParseGainBucketType(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, parsed.String())
	}
	for _, name := range []string{
		"random_resource", "largest_resource_imbalance",
		"largest_unconstrained_gain", "largest_gain",
		"most_unbalanced_resource", "best_gain_imbalance_classic",
		"best_gain_imbalance_affinities",
	} {
		parsed, err := config.ParseSelectionPolicy(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, parsed.String())
	}
}
