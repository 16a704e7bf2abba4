package gainbucket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hyperpart/gainbucket"
	"github.com/katalvlaran/hyperpart/hypergraph"
)

// addNode inserts a fresh node with one weight vector into a manager.
func addNode(t *testing.T, m gainbucket.Manager, id, gain int, inPartA bool,
	totalWeight []int, wv ...int) {
	t.Helper()
	n := hypergraph.NewNode(id, "")
	require.NoError(t, n.AddWeightVector(wv))
	require.NoError(t, m.AddNode(gain, n, inPartA, totalWeight))
}

// TestSingleResource_UnconstrainedWins verifies that the heavier side's
// top is taken when the constrained top does not out-gain it.
func TestSingleResource_UnconstrainedWins(t *testing.T) {
	m := gainbucket.NewSingleResource(0, 0.5)
	total := []int{20}
	addNode(t, m, 1, 3, true, total, 5)  // side A
	addNode(t, m, 2, 3, false, total, 5) // side B

	// A is heavier, so B is constrained; on a gain tie the unconstrained
	// side wins.
	entry, err := m.NextEntry([]int{4}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.Equal(t, 1, m.NumUnlockedNodes())
}

// TestSingleResource_ConstrainedNeedsStrictlyMoreGainAndFit verifies
// both conditions on taking the constrained top.
func TestSingleResource_ConstrainedNeedsStrictlyMoreGainAndFit(t *testing.T) {
	total := []int{20}

	// Constrained top out-gains and fits: slack is (10-2)/2 = 4 >= 3.
	m := gainbucket.NewSingleResource(0, 0.5)
	addNode(t, m, 1, 1, true, total, 1)
	addNode(t, m, 2, 8, false, total, 3)
	entry, err := m.NextEntry([]int{2}, total)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ID)

	// Same gains but the constrained node is too heavy for the slack.
	m = gainbucket.NewSingleResource(0, 0.5)
	addNode(t, m, 1, 1, true, total, 1)
	addNode(t, m, 2, 8, false, total, 9)
	entry, err = m.NextEntry([]int{2}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.True(t, m.NumUnlockedNodes() == 1, "rejected constrained entry returns to its bucket")
}

// TestSingleResource_EmptySideFallback verifies selection when one side
// is exhausted.
func TestSingleResource_EmptySideFallback(t *testing.T) {
	m := gainbucket.NewSingleResource(0, 0.5)
	total := []int{10}
	addNode(t, m, 1, -2, false, total, 1)

	entry, err := m.NextEntry([]int{2}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.True(t, m.Empty())
}

// TestSingleResource_UpdateGains verifies the from-side/to-side fanout.
func TestSingleResource_UpdateGains(t *testing.T) {
	m := gainbucket.NewSingleResource(0, 0.5)
	total := []int{10}
	addNode(t, m, 1, 0, true, total, 1)
	addNode(t, m, 2, 0, false, total, 1)

	// A node moved from A: increases land in A's bucket, decreases in
	// B's.
	m.UpdateGains(4, []int{1}, []int{2}, true)

	entry, err := m.NextEntry([]int{0}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.Equal(t, 4, entry.Gain)

	entry, err = m.NextEntry([]int{0}, total)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ID)
	assert.Equal(t, -4, entry.Gain)
}

// TestSingleResource_UpdateNodeImplementation verifies the stored
// weight vector index follows external changes.
func TestSingleResource_UpdateNodeImplementation(t *testing.T) {
	m := gainbucket.NewSingleResource(0, 0.5)
	n := hypergraph.NewNode(1, "")
	require.NoError(t, n.AddWeightVector([]int{2}))
	require.NoError(t, n.AddWeightVector([]int{6}))
	require.NoError(t, m.AddNode(0, n, true, []int{8}))

	require.NoError(t, n.SetSelectedWeightVector(1))
	m.UpdateNodeImplementation(n)

	entry, err := m.NextEntry([]int{0}, []int{8})
	require.NoError(t, err)
	assert.Equal(t, 1, entry.WeightVectorIndex())
	assert.Equal(t, []int{6}, entry.CurrentWeightVector())
}

// TestSingleResource_PolicyUnsupported verifies the manager rejects
// policy switches.
func TestSingleResource_PolicyUnsupported(t *testing.T) {
	m := gainbucket.NewSingleResource(0, 0.5)
	assert.ErrorIs(t, m.SetSelectionPolicy(gainbucket.PolicyLargestGain),
		gainbucket.ErrUnsupportedPolicy)
}
