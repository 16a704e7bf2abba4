// Package config loads partitioner configuration files and converts
// them into engine options.
//
// Configuration is YAML, read through viper with defaults applied
// first, so a missing file or a sparse one yields a fully usable
// configuration. The bucket type and selection policy fields use the
// spellings of the corresponding Go type's String method; seed_mode is
// "random" or "user_specified".
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/katalvlaran/hyperpart/gainbucket"
	"github.com/katalvlaran/hyperpart/klfm"
)

// Sentinel errors for configuration loading.
var (
	// ErrUnknownEnum indicates an enum field with an unrecognised value.
	ErrUnknownEnum = errors.New("config: unknown enum value")

	// ErrBadShape indicates per-resource lists whose lengths disagree with
	// the declared resource count.
	ErrBadShape = errors.New("config: per-resource list length mismatch")
)

// Config mirrors the configuration file. Field groups follow the file
// layout: device resources, algorithm selection, runtime control.
type Config struct {
	Resources    ResourcesConfig    `mapstructure:"resources"`
	Partitioning PartitioningConfig `mapstructure:"partitioning"`
	Runtime      RuntimeConfig      `mapstructure:"runtime"`
}

// ResourcesConfig describes the device's resources and balance targets.
type ResourcesConfig struct {
	Count                 int       `mapstructure:"count"`
	Capacities            []int     `mapstructure:"capacities"`
	MaxImbalanceFractions []float64 `mapstructure:"max_imbalance_fractions"`
	ConstrainBalance      []bool    `mapstructure:"constrain_balance"`
	RatioWeights          []int     `mapstructure:"ratio_weights"`
}

// PartitioningConfig selects the algorithm machinery.
type PartitioningConfig struct {
	GainBucketType             string `mapstructure:"gain_bucket_type"`
	SelectionPolicy            string `mapstructure:"selection_policy"`
	UseAdaptiveImplementations bool   `mapstructure:"use_adaptive_node_implementations"`
	UseRatioInImbalanceScore   bool   `mapstructure:"use_ratio_in_imbalance_score"`
	UseRatioInPartitionQuality bool   `mapstructure:"use_ratio_in_partition_quality"`
	Multilevel                 bool   `mapstructure:"multilevel"`
	ConstraintRelaxation       bool   `mapstructure:"multilevel_constraint_relaxation"`
	RestrictSupernodes         bool   `mapstructure:"restrict_supernodes_to_default"`
	SupernodeImplementationCap int    `mapstructure:"supernode_implementations_cap"`
	EnableMutation             bool   `mapstructure:"enable_mutation"`
	MutationRate               int    `mapstructure:"mutation_rate"`
	RebalanceOnStartOfPass     bool   `mapstructure:"rebalance_on_start_of_pass"`
	RebalanceOnEndOfRun        bool   `mapstructure:"rebalance_on_end_of_run"`
	RebalanceOnDemand          bool   `mapstructure:"rebalance_on_demand"`
	RebalanceCapPerRun         int    `mapstructure:"rebalance_on_demand_cap_per_run"`
	RebalanceCapPerPass        int    `mapstructure:"rebalance_on_demand_cap_per_pass"`
}

// RuntimeConfig controls run counts, termination, and reproducibility.
type RuntimeConfig struct {
	NumRuns             int   `mapstructure:"num_runs"`
	MaxPasses           int   `mapstructure:"max_passes"`
	CapPasses           bool  `mapstructure:"cap_passes"`
	ReuseImplementation bool  `mapstructure:"reuse_previous_run_implementations"`
	Seed                int64 `mapstructure:"seed"`
	SeedMode            string `mapstructure:"seed_mode"`
	UseEntropy          bool  `mapstructure:"use_entropy"`
	SaveCutSet          bool  `mapstructure:"save_cutset"`
}

// Load reads the configuration at path. An empty path or a missing file
// yields the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.checkShape(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers the baseline configuration: one resource, 5%
// imbalance, the single-resource bucket with the largest-gain policy,
// one multi-level run of at most 100 passes.
func setDefaults(v *viper.Viper) {
	v.SetDefault("resources.count", 1)
	v.SetDefault("resources.max_imbalance_fractions", []float64{0.05})
	v.SetDefault("resources.constrain_balance", []bool{true})
	v.SetDefault("resources.ratio_weights", []int{1})

	v.SetDefault("partitioning.gain_bucket_type", "single_resource")
	v.SetDefault("partitioning.selection_policy", "largest_gain")
	v.SetDefault("partitioning.multilevel", true)
	v.SetDefault("partitioning.supernode_implementations_cap", 16)
	v.SetDefault("partitioning.rebalance_on_demand_cap_per_run", 1)
	v.SetDefault("partitioning.rebalance_on_demand_cap_per_pass", 1)

	v.SetDefault("runtime.num_runs", 1)
	v.SetDefault("runtime.max_passes", 100)
	v.SetDefault("runtime.cap_passes", true)
	v.SetDefault("runtime.reuse_previous_run_implementations", true)
	v.SetDefault("runtime.seed", 1)
	v.SetDefault("runtime.seed_mode", "random")
	v.SetDefault("runtime.save_cutset", true)
}

// checkShape validates the per-resource list lengths against the
// declared count. Empty optional lists are allowed.
func (c *Config) checkShape() error {
	count := c.Resources.Count
	if count < 1 {
		return fmt.Errorf("%w: resources.count must be at least 1", ErrBadShape)
	}
	check := func(name string, have int) error {
		if have != 0 && have != count {
			return fmt.Errorf("%w: resources.%s has %d entries, want %d",
				ErrBadShape, name, have, count)
		}
		return nil
	}
	if err := check("capacities", len(c.Resources.Capacities)); err != nil {
		return err
	}
	if err := check("max_imbalance_fractions", len(c.Resources.MaxImbalanceFractions)); err != nil {
		return err
	}
	if err := check("constrain_balance", len(c.Resources.ConstrainBalance)); err != nil {
		return err
	}
	return check("ratio_weights", len(c.Resources.RatioWeights))
}

// ToOptions converts the configuration into validated engine options.
func (c *Config) ToOptions() (klfm.Options, error) {
	opts := klfm.DefaultOptions(c.Resources.Count)

	if len(c.Resources.Capacities) != 0 {
		opts.DeviceResourceCapacities = c.Resources.Capacities
	}
	if len(c.Resources.MaxImbalanceFractions) != 0 {
		opts.MaxImbalanceFractions = c.Resources.MaxImbalanceFractions
	}
	if len(c.Resources.ConstrainBalance) != 0 {
		opts.ConstrainBalanceByResource = c.Resources.ConstrainBalance
	}
	if len(c.Resources.RatioWeights) != 0 {
		opts.ResourceRatioWeights = c.Resources.RatioWeights
	}

	bucketType, err := ParseGainBucketType(c.Partitioning.GainBucketType)
	if err != nil {
		return opts, err
	}
	opts.GainBucketType = bucketType
	policy, err := ParseSelectionPolicy(c.Partitioning.SelectionPolicy)
	if err != nil {
		return opts, err
	}
	opts.SelectionPolicy = policy
	seedMode, err := ParseSeedMode(c.Runtime.SeedMode)
	if err != nil {
		return opts, err
	}
	opts.SeedMode = seedMode

	opts.UseAdaptiveNodeImplementations = c.Partitioning.UseAdaptiveImplementations
	opts.UseRatioInImbalanceScore = c.Partitioning.UseRatioInImbalanceScore
	opts.UseRatioInPartitionQuality = c.Partitioning.UseRatioInPartitionQuality
	opts.Multilevel = c.Partitioning.Multilevel
	opts.UseMultilevelConstraintRelaxation = c.Partitioning.ConstraintRelaxation
	opts.RestrictSupernodesToDefault = c.Partitioning.RestrictSupernodes
	opts.SupernodeImplementationsCap = c.Partitioning.SupernodeImplementationCap
	opts.EnableMutation = c.Partitioning.EnableMutation
	opts.MutationRate = c.Partitioning.MutationRate
	opts.RebalanceOnStartOfPass = c.Partitioning.RebalanceOnStartOfPass
	opts.RebalanceOnEndOfRun = c.Partitioning.RebalanceOnEndOfRun
	opts.RebalanceOnDemand = c.Partitioning.RebalanceOnDemand
	opts.RebalanceOnDemandCapPerRun = c.Partitioning.RebalanceCapPerRun
	opts.RebalanceOnDemandCapPerPass = c.Partitioning.RebalanceCapPerPass

	opts.NumRuns = c.Runtime.NumRuns
	opts.MaxPasses = c.Runtime.MaxPasses
	opts.CapPasses = c.Runtime.CapPasses
	opts.ReusePreviousRunImplementations = c.Runtime.ReuseImplementation
	opts.Seed = c.Runtime.Seed
	opts.UseEntropy = c.Runtime.UseEntropy
	opts.SaveCutSet = c.Runtime.SaveCutSet

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// ParseGainBucketType maps a configuration spelling onto the engine
// enum.
func ParseGainBucketType(s string) (klfm.GainBucketType, error) {
	switch s {
	case "single_resource":
		return klfm.BucketSingleResource, nil
	case "multi_resource_exclusive":
		return klfm.BucketMultiResourceExclusive, nil
	case "multi_resource_exclusive_adaptive":
		return klfm.BucketMultiResourceExclusiveAdaptive, nil
	case "multi_resource_mixed":
		return klfm.BucketMultiResourceMixed, nil
	case "multi_resource_mixed_adaptive":
		return klfm.BucketMultiResourceMixedAdaptive, nil
	default:
		return 0, fmt.Errorf("%w: gain_bucket_type %q", ErrUnknownEnum, s)
	}
}

// ParseSelectionPolicy maps a configuration spelling onto the bucket
// policy enum.
func ParseSelectionPolicy(s string) (gainbucket.SelectionPolicy, error) {
	switch s {
	case "random_resource":
		return gainbucket.PolicyRandomResource, nil
	case "largest_resource_imbalance":
		return gainbucket.PolicyLargestResourceImbalance, nil
	case "largest_unconstrained_gain":
		return gainbucket.PolicyLargestUnconstrainedGain, nil
	case "largest_gain":
		return gainbucket.PolicyLargestGain, nil
	case "most_unbalanced_resource":
		return gainbucket.PolicyMostUnbalancedResource, nil
	case "best_gain_imbalance_classic":
		return gainbucket.PolicyBestGainImbalanceScoreClassic, nil
	case "best_gain_imbalance_affinities":
		return gainbucket.PolicyBestGainImbalanceScoreWithAffinities, nil
	default:
		return 0, fmt.Errorf("%w: selection_policy %q", ErrUnknownEnum, s)
	}
}

// ParseSeedMode maps a configuration spelling onto the seed mode enum.
func ParseSeedMode(s string) (klfm.SeedMode, error) {
	switch s {
	case "random":
		return klfm.SeedRandom, nil
	case "user_specified":
		return klfm.SeedUserSpecified, nil
	default:
		return 0, fmt.Errorf("%w: seed_mode %q", ErrUnknownEnum, s)
	}
}
