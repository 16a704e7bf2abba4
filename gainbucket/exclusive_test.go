package gainbucket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hyperpart/gainbucket"
	"github.com/katalvlaran/hyperpart/hypergraph"
)

// TestExclusive_RejectsMixedAndEmptyVectors verifies the exclusivity
// requirement is enforced at insertion.
func TestExclusive_RejectsMixedAndEmptyVectors(t *testing.T) {
	m := gainbucket.NewMultiResourceExclusive([]float64{0.1, 0.1},
		gainbucket.PolicyLargestGain, false, 1)

	mixed := hypergraph.NewNode(1, "")
	require.NoError(t, mixed.AddWeightVector([]int{2, 3}))
	assert.ErrorIs(t, m.AddNode(0, mixed, true, []int{10, 10}),
		gainbucket.ErrMixedWeightVector)

	empty := hypergraph.NewNode(2, "")
	require.NoError(t, empty.AddWeightVector([]int{0, 0}))
	assert.ErrorIs(t, m.AddNode(0, empty, true, []int{10, 10}),
		gainbucket.ErrEmptyWeightVector)
}

// TestExclusive_LargestGain verifies that the highest-gain fitting
// entry wins across resources and sides.
func TestExclusive_LargestGain(t *testing.T) {
	m := gainbucket.NewMultiResourceExclusive([]float64{0.5, 0.5},
		gainbucket.PolicyLargestGain, false, 1)
	total := []int{20, 20}

	addNode(t, m, 1, 2, true, total, 3, 0)
	addNode(t, m, 2, 7, false, total, 0, 3)
	addNode(t, m, 3, 4, true, total, 0, 3)

	entry, err := m.NextEntry([]int{0, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ID)
	assert.Equal(t, 2, m.NumUnlockedNodes())

	entry, err = m.NextEntry([]int{0, -2}, total)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.ID)

	entry, err = m.NextEntry([]int{0, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.True(t, m.Empty())
}

// TestExclusive_LargestGain_OversizedTopLosesToOtherBucket verifies
// that a constrained top too heavy for the remaining slack is passed
// over in favour of a fitting entry from another bucket, and returns
// to its own bucket untouched.
func TestExclusive_LargestGain_OversizedTopLosesToOtherBucket(t *testing.T) {
	m := gainbucket.NewMultiResourceExclusive([]float64{0.5},
		gainbucket.PolicyLargestGain, false, 1)
	total := []int{40}

	// Side B is constrained at balance 16: slack (20-16)/2 = 2.
	addNode(t, m, 1, 9, false, total, 10)
	addNode(t, m, 3, 1, true, total, 4)

	entry, err := m.NextEntry([]int{16}, total)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.ID, "only the fitting unconstrained entry qualifies")
	assert.Equal(t, 1, m.NumUnlockedNodes())
}

// TestExclusive_LargestUnconstrainedGain verifies the unconstrained
// scan.
func TestExclusive_LargestUnconstrainedGain(t *testing.T) {
	m := gainbucket.NewMultiResourceExclusive([]float64{0.5, 0.5},
		gainbucket.PolicyLargestUnconstrainedGain, false, 1)
	total := []int{20, 20}

	// Balance positive in both resources: side A is unconstrained.
	addNode(t, m, 1, 3, true, total, 2, 0)
	addNode(t, m, 2, 8, true, total, 0, 2)
	addNode(t, m, 3, 9, false, total, 2, 0)

	entry, err := m.NextEntry([]int{4, 4}, total)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ID, "node 3's higher gain sits on the constrained side")

	// Node 1 is still on resource 0's unconstrained side, so the scan
	// produces an entry without the fallback.
	entry, err = m.NextEntry([]int{4, 4}, total)
	require.NoError(t, err)
	assert.Contains(t, []int{1, 3}, entry.ID)
}

// TestExclusive_LargestResourceImbalance verifies resource choice by
// fractional imbalance.
func TestExclusive_LargestResourceImbalance(t *testing.T) {
	m := gainbucket.NewMultiResourceExclusive([]float64{0.5, 0.5},
		gainbucket.PolicyLargestResourceImbalance, false, 1)
	total := []int{20, 20}

	addNode(t, m, 1, 1, true, total, 2, 0)
	addNode(t, m, 2, 1, true, total, 0, 2)

	// Resource 1 is the most unbalanced; its unconstrained side is A.
	entry, err := m.NextEntry([]int{2, 8}, total)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ID)
}

// TestExclusive_AdaptiveEntries verifies a multi-implementation node is
// filed once per resource and all copies vanish on selection.
func TestExclusive_AdaptiveEntries(t *testing.T) {
	m := gainbucket.NewMultiResourceExclusive([]float64{0.5, 0.5},
		gainbucket.PolicyLargestGain, true, 1)
	total := []int{20, 20}

	n := hypergraph.NewNode(1, "")
	require.NoError(t, n.AddWeightVector([]int{4, 0}))
	require.NoError(t, n.AddWeightVector([]int{0, 6}))
	require.NoError(t, m.AddNode(5, n, true, total))
	require.Equal(t, 1, m.NumUnlockedNodes())

	entry, err := m.NextEntry([]int{0, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.True(t, m.Empty(), "all per-resource copies are purged")
}

// TestExclusive_UpdateGainsFansOutByResource verifies updates reach the
// bucket a node is filed under.
func TestExclusive_UpdateGainsFansOutByResource(t *testing.T) {
	m := gainbucket.NewMultiResourceExclusive([]float64{0.5, 0.5},
		gainbucket.PolicyLargestGain, false, 1)
	total := []int{20, 20}
	addNode(t, m, 1, 0, true, total, 2, 0)
	addNode(t, m, 2, 0, false, total, 0, 2)

	m.UpdateGains(3, []int{1}, []int{2}, true)

	entry, err := m.NextEntry([]int{0, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.Equal(t, 3, entry.Gain)

	entry, err = m.NextEntry([]int{0, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, -3, entry.Gain)
}

// TestExclusive_PolicyValidation verifies mixed-only policies are
// rejected.
func TestExclusive_PolicyValidation(t *testing.T) {
	m := gainbucket.NewMultiResourceExclusive([]float64{0.5},
		gainbucket.PolicyLargestGain, false, 1)
	assert.ErrorIs(t, m.SetSelectionPolicy(gainbucket.PolicyBestGainImbalanceScoreClassic),
		gainbucket.ErrUnsupportedPolicy)
	assert.NoError(t, m.SetSelectionPolicy(gainbucket.PolicyRandomResource))
}
