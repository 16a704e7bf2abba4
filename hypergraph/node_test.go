package hypergraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hyperpart/hypergraph"
)

// baseNode builds a base node with the given weight vectors.
func baseNode(t *testing.T, id int, wvs ...[]int) *hypergraph.Node {
	t.Helper()
	n := hypergraph.NewNode(id, "")
	for _, wv := range wvs {
		require.NoError(t, n.AddWeightVector(wv))
	}
	return n
}

// TestSelectWeightVector_Rollback verifies that a selection made with
// rollback support can be reverted exactly once.
func TestSelectWeightVector_Rollback(t *testing.T) {
	n := baseNode(t, 1, []int{4, 0}, []int{0, 7}, []int{2, 2})
	require.Equal(t, 0, n.SelectedIndex())

	// Select with rollback, then revert: back at the original index.
	require.NoError(t, n.SetSelectedWeightVectorWithRollback(2))
	assert.Equal(t, 2, n.SelectedIndex())
	assert.Equal(t, []int{2, 2}, n.SelectedWeightVector())

	n.RevertSelectedWeightVector()
	assert.Equal(t, 0, n.SelectedIndex())

	// A second revert without an intervening change has no further effect.
	n.RevertSelectedWeightVector()
	assert.Equal(t, 0, n.SelectedIndex())
}

// TestSelectWeightVector_IndexOutOfRange verifies the index guard.
func TestSelectWeightVector_IndexOutOfRange(t *testing.T) {
	n := baseNode(t, 1, []int{1})
	assert.ErrorIs(t, n.SetSelectedWeightVector(3), hypergraph.ErrWeightVectorIndex)
	assert.ErrorIs(t, n.SetSelectedWeightVectorWithRollback(-1), hypergraph.ErrWeightVectorIndex)
}

// TestSetSelectedWeightVector_NoRollbackTracking verifies that the
// plain setter leaves the rollback index alone.
func TestSetSelectedWeightVector_NoRollbackTracking(t *testing.T) {
	n := baseNode(t, 1, []int{1}, []int{2}, []int{3})

	require.NoError(t, n.SetSelectedWeightVectorWithRollback(1))
	require.NoError(t, n.SetSelectedWeightVector(2))

	// Revert restores the index saved by the rollback-aware setter, not
	// the one replaced by the plain setter.
	n.RevertSelectedWeightVector()
	assert.Equal(t, 0, n.SelectedIndex())
}

// TestAddWeightVector_OnSupernode verifies that supernode
// implementation lists cannot be extended by hand.
func TestAddWeightVector_OnSupernode(t *testing.T) {
	sn := hypergraph.NewNode(10, "sn")
	require.NoError(t, sn.AddInternalNode(baseNode(t, 1, []int{1})))
	assert.ErrorIs(t, sn.AddWeightVector([]int{1}), hypergraph.ErrIsSupernode)
}

// TestEdgeConnectionBookkeeping covers the node-side edge reference
// operations, including the swap used by boundary-edge surgery.
func TestEdgeConnectionBookkeeping(t *testing.T) {
	n := baseNode(t, 1, []int{1})
	n.ConnectEdge(100)
	n.ConnectEdge(50)
	assert.Equal(t, []int{50, 100}, n.EdgeIDs())
	assert.True(t, n.HasEdge(50))
	assert.Equal(t, 2, n.Degree())

	require.NoError(t, n.SwapEdgeConnection(50, 75))
	assert.False(t, n.HasEdge(50))
	assert.True(t, n.HasEdge(75))
	assert.ErrorIs(t, n.SwapEdgeConnection(50, 60), hypergraph.ErrEdgeNotFound)

	n.DisconnectEdge(75)
	assert.Equal(t, []int{100}, n.EdgeIDs())
}

// TestClone_Independence verifies that a clone shares no mutable state
// with the original.
func TestClone_Independence(t *testing.T) {
	n := baseNode(t, 1, []int{1, 2}, []int{3, 4})
	n.ConnectEdge(7)
	require.NoError(t, n.SetSelectedWeightVectorWithRollback(1))

	c := n.Clone()
	require.Equal(t, 1, c.SelectedIndex())
	require.Equal(t, []int{7}, c.EdgeIDs())

	c.RevertSelectedWeightVector()
	c.ConnectEdge(8)
	assert.Equal(t, 1, n.SelectedIndex())
	assert.Equal(t, []int{7}, n.EdgeIDs())
}
