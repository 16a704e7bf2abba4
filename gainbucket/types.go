// Package gainbucket types: entries, the Manager interface, selection
// policies, and sentinel errors.
//
// Errors:
//
//	ErrEmptyBucket        - Top/Pop on an empty bucket or manager.
//	ErrNodeNotInBucket    - RemoveByID referenced an absent node.
//	ErrMixedWeightVector  - exclusive manager fed a vector with weight in
//	                        more than one resource.
//	ErrEmptyWeightVector  - exclusive manager fed an all-zero vector.
//	ErrUnsupportedPolicy  - policy not valid for the manager kind.
package gainbucket

import (
	"errors"

	"github.com/katalvlaran/hyperpart/hypergraph"
)

// Sentinel errors for gain bucket operations.
var (
	// ErrEmptyBucket indicates Top or Pop was called on an empty container.
	ErrEmptyBucket = errors.New("gainbucket: bucket is empty")

	// ErrNodeNotInBucket indicates an operation referenced a node that has
	// no live entry.
	ErrNodeNotInBucket = errors.New("gainbucket: node not in bucket")

	// ErrMixedWeightVector indicates a weight vector with non-zero weight
	// in more than one resource was handed to the exclusive manager.
	ErrMixedWeightVector = errors.New("gainbucket: weight vector spans multiple resources")

	// ErrEmptyWeightVector indicates an all-zero weight vector was handed
	// to the exclusive manager.
	ErrEmptyWeightVector = errors.New("gainbucket: weight vector is all-zero")

	// ErrUnsupportedPolicy indicates a selection policy that the manager
	// kind does not implement.
	ErrUnsupportedPolicy = errors.New("gainbucket: unsupported selection policy")
)

// maxConstrainedChecks bounds the search in a constrained bucket: the
// two-bucket selection steps over at most this many oversized entries
// below the top, and the largest-gain scan inspects at most this many
// entries per bucket, top included. Keeping it small keeps selection
// amortised O(1) at the cost of bounded suboptimality.
const maxConstrainedChecks = 1

// defaultBucketSearchDepth bounds how many entries per affinity bucket
// the mixed manager's affinity policy scores.
const defaultBucketSearchDepth = 3

// SelectionPolicy names a bucket-selection strategy. Policies are split
// between the exclusive and mixed managers; SetSelectionPolicy rejects a
// policy the manager kind does not implement.
type SelectionPolicy int

const (
	// PolicyRandomResource picks a random non-exhausted resource and
	// selects within it. Valid for the exclusive and mixed managers.
	PolicyRandomResource SelectionPolicy = iota

	// PolicyLargestResourceImbalance picks the resource with the largest
	// fractional imbalance. Exclusive manager.
	PolicyLargestResourceImbalance

	// PolicyLargestUnconstrainedGain picks the highest-gain entry among
	// all unconstrained sides. Exclusive manager.
	PolicyLargestUnconstrainedGain

	// PolicyLargestGain searches all buckets (bounded in constrained ones)
	// for the highest-gain entry that fits. Exclusive manager.
	PolicyLargestGain

	// PolicyMostUnbalancedResource picks the affinity pair of the most
	// unbalanced resource. Mixed manager.
	PolicyMostUnbalancedResource

	// PolicyBestGainImbalanceScoreClassic scores only the two master
	// tops. Mixed manager.
	PolicyBestGainImbalanceScoreClassic

	// PolicyBestGainImbalanceScoreWithAffinities scores a bounded number
	// of entries per affinity bucket. Mixed manager.
	PolicyBestGainImbalanceScoreWithAffinities
)

// String returns the policy's configuration-file spelling.
func (p SelectionPolicy) String() string {
	switch p {
	case PolicyRandomResource:
		return "random_resource"
	case PolicyLargestResourceImbalance:
		return "largest_resource_imbalance"
	case PolicyLargestUnconstrainedGain:
		return "largest_unconstrained_gain"
	case PolicyLargestGain:
		return "largest_gain"
	case PolicyMostUnbalancedResource:
		return "most_unbalanced_resource"
	case PolicyBestGainImbalanceScoreClassic:
		return "best_gain_imbalance_classic"
	case PolicyBestGainImbalanceScoreWithAffinities:
		return "best_gain_imbalance_affinities"
	default:
		return "unknown"
	}
}

// Entry is one (node, gain, implementation) candidate in a bucket. The
// node's full implementation list is copied in at add time so adaptive
// managers can re-select a vector without touching the node.
type Entry struct {
	// ID is the node's ID.
	ID int

	// Gain is the cost decrease of moving the node across the partition.
	Gain int

	weightVectors [][]int
	wvIndex       int
}

// NewEntry builds an entry for node with the given gain, carrying the
// node's implementation list and current selection.
func NewEntry(gain int, node *hypergraph.Node) Entry {
	return Entry{
		ID:            node.ID,
		Gain:          gain,
		weightVectors: node.WeightVectors(),
		wvIndex:       node.SelectedIndex(),
	}
}

// CurrentWeightVector returns the entry's selected implementation.
func (e *Entry) CurrentWeightVector() []int { return e.weightVectors[e.wvIndex] }

// WeightVectors returns the entry's full implementation list.
func (e *Entry) WeightVectors() [][]int { return e.weightVectors }

// WeightVectorIndex returns the index of the entry's selected
// implementation.
func (e *Entry) WeightVectorIndex() int { return e.wvIndex }

// SetWeightVectorIndex re-selects the entry's implementation. Used by
// adaptive managers; the engine applies the choice to the node when the
// entry is moved.
func (e *Entry) SetWeightVectorIndex(i int) { e.wvIndex = i }

// Manager is the capability set the pass engine needs from any gain
// bucket variant.
type Manager interface {
	// NextEntry removes and returns the entry the manager's policy picks
	// for the next move, given the current signed balance and total
	// weight per resource.
	NextEntry(balance, totalWeight []int) (Entry, error)

	// AddNode inserts the node with its initial gain on the given side.
	AddNode(gain int, node *hypergraph.Node, inPartA bool, totalWeight []int) error

	// UpdateGains adjusts gains by delta: incIDs on the side the node
	// moved from, decIDs on the side it moved to. IDs may repeat and are
	// honoured once per occurrence.
	UpdateGains(delta int, incIDs, decIDs []int, movedFromA bool)

	// UpdateNodeImplementation reconciles the manager's stored entry with
	// a node whose selected weight vector changed outside the manager.
	// A node with no live entry is ignored.
	UpdateNodeImplementation(node *hypergraph.Node)

	// Empty reports whether no unlocked nodes remain.
	Empty() bool

	// NumUnlockedNodes returns the number of nodes still movable.
	NumUnlockedNodes() int

	// SetSelectionPolicy switches the selection policy; returns
	// ErrUnsupportedPolicy for a policy the manager kind lacks.
	SetSelectionPolicy(p SelectionPolicy) error
}
