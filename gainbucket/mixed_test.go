package gainbucket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hyperpart/gainbucket"
	"github.com/katalvlaran/hyperpart/hypergraph"
)

// newMixed builds a mixed manager with two resources and the given
// policy.
func newMixed(policy gainbucket.SelectionPolicy, adaptive bool) *gainbucket.MultiResourceMixed {
	return gainbucket.NewMultiResourceMixed([]float64{0.5, 0.5}, policy,
		adaptive, false, []int{1, 1}, 1)
}

// TestMixed_ClassicPrefersFittingMove verifies that the classic policy
// scores the two master tops by violator imbalance power minus gain.
func TestMixed_ClassicPrefersFittingMove(t *testing.T) {
	m := newMixed(gainbucket.PolicyBestGainImbalanceScoreClassic, false)
	total := []int{20, 20}

	// Moving node 1 (A -> B) would push resource 0 into violation;
	// moving node 2 (B -> A) fits despite the smaller gain.
	addNode(t, m, 1, 6, true, total, 8, 1)
	addNode(t, m, 2, 1, false, total, 1, 1)

	entry, err := m.NextEntry([]int{-6, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ID)
	assert.Equal(t, 1, m.NumUnlockedNodes())
}

// TestMixed_ClassicTieGoesToFullerSide verifies the tiebreak on equal
// scores.
func TestMixed_ClassicTieGoesToFullerSide(t *testing.T) {
	m := newMixed(gainbucket.PolicyBestGainImbalanceScoreClassic, false)
	total := []int{40, 40}

	// All moves fit comfortably; equal gains tie the scores, so the side
	// with more waiting nodes wins.
	addNode(t, m, 1, 2, true, total, 1, 0)
	addNode(t, m, 2, 2, true, total, 1, 0)
	addNode(t, m, 3, 2, false, total, 1, 0)

	entry, err := m.NextEntry([]int{0, 0}, total)
	require.NoError(t, err)
	assert.Contains(t, []int{1, 2}, entry.ID)
}

// TestMixed_AffinityPolicyPicksBestScore verifies candidate scoring
// across affinity buckets and that losers keep their place via Touch.
func TestMixed_AffinityPolicyPicksBestScore(t *testing.T) {
	m := newMixed(gainbucket.PolicyBestGainImbalanceScoreWithAffinities, false)
	total := []int{20, 20}

	addNode(t, m, 1, 5, true, total, 1, 0)
	addNode(t, m, 2, 3, false, total, 0, 1)
	addNode(t, m, 3, -1, true, total, 1, 1)

	entry, err := m.NextEntry([]int{0, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID, "highest gain wins when every move fits")
	assert.Equal(t, 2, m.NumUnlockedNodes())

	entry, err = m.NextEntry([]int{0, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ID)
}

// TestMixed_RandomResourceSelectsFromChosenPair verifies the
// random-resource policy only consults one affinity pair and prefers
// fitting moves within it.
func TestMixed_RandomResourceSelectsFromChosenPair(t *testing.T) {
	m := newMixed(gainbucket.PolicyRandomResource, false)
	total := []int{20, 20}

	// Both nodes share affinity resource 0, so the random pick is forced.
	addNode(t, m, 1, 4, true, total, 8, 0)
	addNode(t, m, 2, 2, false, total, 1, 0)

	// At balance -6, moving node 1 out of A would violate resource 0;
	// node 2's move fits.
	entry, err := m.NextEntry([]int{-6, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ID)
}

// TestMixed_AdaptiveReselectsImplementation verifies that adaptive
// classic selection may swap the entry's implementation to the one
// minimising post-move imbalance.
func TestMixed_AdaptiveReselectsImplementation(t *testing.T) {
	m := newMixed(gainbucket.PolicyBestGainImbalanceScoreClassic, true)
	total := []int{20, 20}

	n := hypergraph.NewNode(1, "")
	require.NoError(t, n.AddWeightVector([]int{8, 0}))
	require.NoError(t, n.AddWeightVector([]int{0, 2}))
	require.NoError(t, m.AddNode(3, n, true, total))

	// Moving [8,0] out of A at balance -4 lands resource 0 far out of
	// balance; the [0,2] implementation is the cheaper move.
	entry, err := m.NextEntry([]int{-4, 0}, total)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.Equal(t, 1, entry.WeightVectorIndex())
}

// TestMixed_UpdateNodeImplementation verifies the master entry tracks
// external implementation changes.
func TestMixed_UpdateNodeImplementation(t *testing.T) {
	m := newMixed(gainbucket.PolicyBestGainImbalanceScoreClassic, false)
	n := hypergraph.NewNode(1, "")
	require.NoError(t, n.AddWeightVector([]int{2, 0}))
	require.NoError(t, n.AddWeightVector([]int{0, 2}))
	require.NoError(t, m.AddNode(0, n, true, []int{10, 10}))

	require.NoError(t, n.SetSelectedWeightVector(1))
	m.UpdateNodeImplementation(n)

	entry, err := m.NextEntry([]int{0, 0}, []int{10, 10})
	require.NoError(t, err)
	assert.Equal(t, 1, entry.WeightVectorIndex())
}

// TestMixed_PolicyValidation verifies exclusive-only policies are
// rejected.
func TestMixed_PolicyValidation(t *testing.T) {
	m := newMixed(gainbucket.PolicyRandomResource, false)
	assert.ErrorIs(t, m.SetSelectionPolicy(gainbucket.PolicyLargestGain),
		gainbucket.ErrUnsupportedPolicy)
	assert.NoError(t, m.SetSelectionPolicy(gainbucket.PolicyMostUnbalancedResource))
}
