// Package klfm types: engine options, enums, summaries, and sentinel
// errors.
//
// Errors:
//
//	ErrNilGraph         - nil graph handed to NewEngine.
//	ErrEmptyGraph       - graph without nodes handed to NewEngine.
//	ErrBadOptions       - option validation failed.
//	ErrResourceMismatch - per-resource option lengths disagree with
//	                      NumResources or with the graph.
//	ErrBadInitialSets   - user-specified initial partition does not cover
//	                      the graph.
package klfm

import (
	"errors"

	"github.com/katalvlaran/hyperpart/gainbucket"
)

// Sentinel errors returned by engine construction and execution.
var (
	// ErrNilGraph indicates a nil *hypergraph.Graph was passed to NewEngine.
	ErrNilGraph = errors.New("klfm: graph is nil")

	// ErrEmptyGraph indicates the graph has no nodes to partition.
	ErrEmptyGraph = errors.New("klfm: graph has no nodes")

	// ErrBadOptions indicates an invalid engine configuration.
	ErrBadOptions = errors.New("klfm: invalid options")

	// ErrResourceMismatch indicates per-resource configuration whose length
	// does not match the resource count.
	ErrResourceMismatch = errors.New("klfm: resource count mismatch")

	// ErrBadInitialSets indicates user-specified initial partitions that do
	// not exactly cover the graph's nodes.
	ErrBadInitialSets = errors.New("klfm: invalid user-specified initial partition")
)

// GainBucketType selects the gain bucket manager variant.
type GainBucketType int

const (
	// BucketSingleResource balances resource 0 only.
	BucketSingleResource GainBucketType = iota

	// BucketMultiResourceExclusive requires resource-pure weight vectors.
	BucketMultiResourceExclusive

	// BucketMultiResourceExclusiveAdaptive additionally lets buckets pick
	// among a node's implementations.
	BucketMultiResourceExclusiveAdaptive

	// BucketMultiResourceMixed allows weight vectors spanning resources.
	BucketMultiResourceMixed

	// BucketMultiResourceMixedAdaptive additionally lets buckets pick
	// among a node's implementations.
	BucketMultiResourceMixedAdaptive
)

// String returns the type's configuration-file spelling.
func (t GainBucketType) String() string {
	switch t {
	case BucketSingleResource:
		return "single_resource"
	case BucketMultiResourceExclusive:
		return "multi_resource_exclusive"
	case BucketMultiResourceExclusiveAdaptive:
		return "multi_resource_exclusive_adaptive"
	case BucketMultiResourceMixed:
		return "multi_resource_mixed"
	case BucketMultiResourceMixedAdaptive:
		return "multi_resource_mixed_adaptive"
	default:
		return "unknown"
	}
}

// adaptive reports whether the bucket type may re-select node
// implementations.
func (t GainBucketType) adaptive() bool {
	return t == BucketMultiResourceExclusiveAdaptive || t == BucketMultiResourceMixedAdaptive
}

// SeedMode selects how the initial partition of each run is produced.
type SeedMode int

const (
	// SeedRandom shuffles the nodes and greedily assigns each to the side
	// reducing the largest fractional imbalance.
	SeedRandom SeedMode = iota

	// SeedUserSpecified uses Options.InitialANodes / InitialBNodes.
	SeedUserSpecified
)

// Default structural knobs of the multi-level phase.
const (
	// defaultSupernodeCap bounds the implementations generated per
	// supernode.
	defaultSupernodeCap = 16

	// coarsenMaxNodesPerSupernode bounds how many nodes one clustering
	// round may merge into a single supernode.
	coarsenMaxNodesPerSupernode = 16

	// coarsenNeighborLimit bounds the candidate neighbours considered per
	// cluster, keeping worst-case coarsening complexity in check.
	coarsenNeighborLimit = 100

	// coarsePhasePassCap caps the pass count of the coarse and fine loops
	// of a multi-level run.
	coarsePhasePassCap = 30

	// rebalancePasses is how many sweeps over the nodes one rebalance
	// makes.
	rebalancePasses = 5
)

// Options configures a partitioning engine. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// NumResources is the weight vector length R shared by every node.
	NumResources int

	// DeviceResourceCapacities bounds the per-resource totals; purely a
	// sanity check against absurd inputs, zero disables the check.
	DeviceResourceCapacities []int

	// MaxImbalanceFractions is the allowed |balance|/total per resource.
	MaxImbalanceFractions []float64

	// ConstrainBalanceByResource excludes a resource from violation
	// checks when false.
	ConstrainBalanceByResource []bool

	// ResourceRatioWeights is the target ratio between per-resource
	// totals, used by ratio-aware scoring and rebalancing.
	ResourceRatioWeights []int

	// UseRatioInImbalanceScore adds ratio deviation to bucket selection
	// scores.
	UseRatioInImbalanceScore bool

	// UseRatioInPartitionQuality adds ratio deviation to the best-cost
	// tiebreak.
	UseRatioInPartitionQuality bool

	// GainBucketType selects the manager variant.
	GainBucketType GainBucketType

	// SelectionPolicy selects the manager's move-selection policy.
	SelectionPolicy gainbucket.SelectionPolicy

	// UseAdaptiveNodeImplementations promotes the multi-resource bucket
	// types to their adaptive variants, letting buckets switch a node's
	// implementation. Rebalancing and mutation may change implementations
	// regardless of this setting.
	UseAdaptiveNodeImplementations bool

	// UseMultilevelConstraintRelaxation relaxes resources 1..R-1 during
	// the coarse phase and re-tightens them for the fine phase.
	UseMultilevelConstraintRelaxation bool

	// RestrictSupernodesToDefault limits supernodes to their default
	// implementation.
	RestrictSupernodesToDefault bool

	// SupernodeImplementationsCap bounds the implementations generated
	// per supernode.
	SupernodeImplementationsCap int

	// ReusePreviousRunImplementations carries implementation selections
	// from one run into the next instead of resetting them.
	ReusePreviousRunImplementations bool

	// EnableMutation applies a pre-run random implementation mutation.
	EnableMutation bool

	// MutationRate is the per-node mutation probability in percent.
	MutationRate int

	// RebalanceOnStartOfPass runs an implementation rebalance before each
	// pass.
	RebalanceOnStartOfPass bool

	// RebalanceOnEndOfRun runs an implementation rebalance after each
	// run.
	RebalanceOnEndOfRun bool

	// RebalanceOnDemand rebalances mid-pass when balance is violated,
	// subject to the caps below.
	RebalanceOnDemand bool

	// RebalanceOnDemandCapPerRun caps on-demand rebalances per run.
	RebalanceOnDemandCapPerRun int

	// RebalanceOnDemandCapPerPass caps on-demand rebalances per pass.
	// Unbounded on-demand rebalancing makes a pass O(N^2).
	RebalanceOnDemandCapPerPass int

	// NumRuns is how many independent runs Execute performs.
	NumRuns int

	// MaxPasses caps passes per pass loop when CapPasses is set.
	MaxPasses int

	// CapPasses enables the MaxPasses cap.
	CapPasses bool

	// Multilevel enables coarsening before and uncoarsening after the
	// first pass loop of each run.
	Multilevel bool

	// SeedMode selects the initial partition policy.
	SeedMode SeedMode

	// InitialANodes / InitialBNodes are the user-specified initial sides
	// for SeedUserSpecified.
	InitialANodes []int
	InitialBNodes []int

	// UseEntropy weights edges by their entropy scalar instead of their
	// integer weight.
	UseEntropy bool

	// SaveCutSet records cut edge IDs and names in summaries. Disable to
	// save memory on large run counts.
	SaveCutSet bool

	// Seed drives every stochastic decision of the engine. Runs with the
	// same seed and configuration are identical.
	Seed int64
}

// DefaultOptions returns the baseline configuration for numResources
// resources: every resource constrained to a 5% imbalance, mixed
// buckets for multi-resource graphs, multi-level enabled, one run of at
// most 100 passes.
func DefaultOptions(numResources int) Options {
	opts := Options{
		NumResources:                numResources,
		MaxImbalanceFractions:       make([]float64, numResources),
		ConstrainBalanceByResource:  make([]bool, numResources),
		ResourceRatioWeights:        make([]int, numResources),
		GainBucketType:              BucketMultiResourceMixed,
		SelectionPolicy:             gainbucket.PolicyBestGainImbalanceScoreWithAffinities,
		SupernodeImplementationsCap: defaultSupernodeCap,
		ReusePreviousRunImplementations: true,
		RebalanceOnDemandCapPerRun:      1,
		RebalanceOnDemandCapPerPass:     1,
		NumRuns:                         1,
		MaxPasses:                       100,
		CapPasses:                       true,
		Multilevel:                      true,
		SaveCutSet:                      true,
		Seed:                            1,
	}
	for i := 0; i < numResources; i++ {
		opts.MaxImbalanceFractions[i] = 0.05
		opts.ConstrainBalanceByResource[i] = true
		opts.ResourceRatioWeights[i] = 1
	}
	if numResources == 1 {
		opts.GainBucketType = BucketSingleResource
	}
	return opts
}

// Validate checks the configuration for internal coherence. It does not
// look at any graph; graph-dependent checks happen in NewEngine.
func (o *Options) Validate() error {
	if o.NumResources < 1 {
		return errValidation("NumResources must be at least 1")
	}
	if len(o.MaxImbalanceFractions) != o.NumResources ||
		len(o.ConstrainBalanceByResource) != o.NumResources {
		return errResources("MaxImbalanceFractions / ConstrainBalanceByResource", o.NumResources)
	}
	if len(o.ResourceRatioWeights) != 0 && len(o.ResourceRatioWeights) != o.NumResources {
		return errResources("ResourceRatioWeights", o.NumResources)
	}
	if len(o.DeviceResourceCapacities) != 0 && len(o.DeviceResourceCapacities) != o.NumResources {
		return errResources("DeviceResourceCapacities", o.NumResources)
	}
	for i, f := range o.MaxImbalanceFractions {
		if f < 0 || f > 1 {
			return errValidation("MaxImbalanceFractions[%d] = %v outside [0, 1]", i, f)
		}
	}
	if o.MutationRate < 0 || o.MutationRate > 100 {
		return errValidation("MutationRate = %d outside [0, 100]", o.MutationRate)
	}
	if o.NumRuns < 1 {
		return errValidation("NumRuns must be at least 1")
	}
	if o.CapPasses && o.MaxPasses < 1 {
		return errValidation("MaxPasses must be at least 1 when CapPasses is set")
	}
	if o.SupernodeImplementationsCap < 1 {
		return errValidation("SupernodeImplementationsCap must be at least 1")
	}
	switch o.GainBucketType {
	case BucketSingleResource, BucketMultiResourceExclusive,
		BucketMultiResourceExclusiveAdaptive, BucketMultiResourceMixed,
		BucketMultiResourceMixedAdaptive:
	default:
		return errValidation("unknown gain bucket type %d", int(o.GainBucketType))
	}
	switch o.SeedMode {
	case SeedRandom:
	case SeedUserSpecified:
		if len(o.InitialANodes) == 0 || len(o.InitialBNodes) == 0 {
			return errValidation("SeedUserSpecified requires both initial node sets")
		}
	default:
		return errValidation("unknown seed mode %d", int(o.SeedMode))
	}
	return nil
}

// PartitionSummary reports one run's result (plus the optional
// violator-fix and ratio-only variants).
type PartitionSummary struct {
	// PartitionA and PartitionB are the final node sets, ascending.
	PartitionA []int
	PartitionB []int

	// CutEdgeIDs and CutEdgeNames describe the cut set; empty when
	// Options.SaveCutSet is disabled. Unnamed edges contribute no name.
	CutEdgeIDs   []int
	CutEdgeNames []string

	// TotalCost is the weighted sum of cut edges.
	TotalCost int

	// Balance is |balance|/total per resource (0 for unused resources).
	Balance []float64

	// TotalWeight is the per-resource total under the final
	// implementation selections.
	TotalWeight []int

	// PartitionResourceRatios is each side's resource mix, normalised to
	// that side's overall weight.
	PartitionResourceRatios [2][]float64

	// TotalResourceRatios is the whole graph's resource mix.
	TotalResourceRatios []float64

	// RMSResourceDeviation is the RMS over resources of the fractional
	// deviation from the target ratio weights, averaged over the sides.
	RMSResourceDeviation float64

	// SelectedImplementations maps every node to the weight vector index
	// it ended the run with, for solution writers.
	SelectedImplementations map[int]int

	// NumPassesUsed counts the passes of both pass loops of the run.
	NumPassesUsed int
}
