package hypergraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hyperpart/hypergraph"
)

// buildPath constructs a path graph n1 - n2 - n3 with unit weights.
func buildPath(t *testing.T) *hypergraph.Graph {
	t.Helper()
	g := hypergraph.NewGraph()
	for id := 1; id <= 3; id++ {
		require.NoError(t, g.AddNode(baseNode(t, id, []int{1})))
	}
	require.NoError(t, g.AddEdge(hypergraph.NewEdge(11, "e12", 1)))
	require.NoError(t, g.AddEdge(hypergraph.NewEdge(12, "e23", 1)))
	require.NoError(t, g.Connect(1, 11))
	require.NoError(t, g.Connect(2, 11))
	require.NoError(t, g.Connect(2, 12))
	require.NoError(t, g.Connect(3, 12))
	return g
}

// TestGraph_DuplicateIDs verifies that re-inserting a live ID fails.
func TestGraph_DuplicateIDs(t *testing.T) {
	g := buildPath(t)
	assert.ErrorIs(t, g.AddNode(baseNode(t, 1, []int{1})), hypergraph.ErrDuplicateID)
	assert.ErrorIs(t, g.AddEdge(hypergraph.NewEdge(11, "", 1)), hypergraph.ErrDuplicateID)
}

// TestGraph_ConnectAndRemove verifies symmetric wiring and unwiring.
func TestGraph_ConnectAndRemove(t *testing.T) {
	g := buildPath(t)
	assert.Equal(t, []int{1, 2}, g.Edge(11).Connections())
	assert.True(t, g.Node(2).HasEdge(11))

	require.NoError(t, g.RemoveConnection(2, 11))
	assert.Equal(t, []int{1}, g.Edge(11).Connections())
	assert.False(t, g.Node(2).HasEdge(11))

	assert.ErrorIs(t, g.Connect(99, 11), hypergraph.ErrNodeNotFound)
	assert.ErrorIs(t, g.Connect(1, 99), hypergraph.ErrEdgeNotFound)
}

// TestGraph_CheckWeightVectors verifies the arity check names the
// offending node.
func TestGraph_CheckWeightVectors(t *testing.T) {
	g := buildPath(t)
	require.NoError(t, g.CheckWeightVectors(1))
	assert.ErrorIs(t, g.CheckWeightVectors(2), hypergraph.ErrWeightVectorArity)

	require.NoError(t, g.AddNode(hypergraph.NewNode(4, "bare")))
	assert.ErrorIs(t, g.CheckWeightVectors(1), hypergraph.ErrNoWeightVectors)
}

// TestGraph_IDUniqueness verifies the node/edge ID collision check.
func TestGraph_IDUniqueness(t *testing.T) {
	g := buildPath(t)
	require.NoError(t, g.CheckIDUniqueness())
	require.NoError(t, g.AddEdge(hypergraph.NewEdge(1, "collides", 1)))
	assert.ErrorIs(t, g.CheckIDUniqueness(), hypergraph.ErrDuplicateID)
}

// TestGraph_CloneIsDeep verifies that engine working copies cannot leak
// mutations back into the parsed graph.
func TestGraph_CloneIsDeep(t *testing.T) {
	g := buildPath(t)
	c := g.Clone()

	c.Edge(11).AddConnection(3)
	require.NoError(t, c.RemoveConnection(3, 12))
	assert.Equal(t, []int{1, 2}, g.Edge(11).Connections())
	assert.True(t, g.Node(3).HasEdge(12))
}

// TestIDAllocator verifies monotonic unique issue across kinds.
func TestIDAllocator(t *testing.T) {
	a := hypergraph.AcquireNodeID()
	b := hypergraph.AcquireEdgeID()
	c := hypergraph.AcquireNodeID()
	assert.Greater(t, b, a)
	assert.Greater(t, c, b)
	assert.NotEqual(t, hypergraph.ReservedTerminalID, a)
}

// TestEdge_ConnectionsStaySorted exercises the sorted connection list.
func TestEdge_ConnectionsStaySorted(t *testing.T) {
	e := hypergraph.NewEdge(1, "", 3)
	for _, id := range []int{9, 3, 7, 3, 1} {
		e.AddConnection(id)
	}
	assert.Equal(t, []int{1, 3, 7, 9}, e.Connections())
	assert.Equal(t, 4, e.Degree())

	e.RemoveConnection(7)
	e.RemoveConnection(42)
	assert.Equal(t, []int{1, 3, 9}, e.Connections())
	assert.True(t, e.HasConnection(3))
	assert.False(t, e.HasConnection(7))
}

// TestEdge_EffectiveWeight covers the entropy weighting switch.
func TestEdge_EffectiveWeight(t *testing.T) {
	e := hypergraph.NewEdge(1, "", 5)
	e.Entropy = 2.9
	assert.Equal(t, 5, e.EffectiveWeight(false))
	assert.Equal(t, 2, e.EffectiveWeight(true))

	e.Entropy = 0.2
	assert.Equal(t, 1, e.EffectiveWeight(true), "entropy weights clamp to at least 1")

	assert.Equal(t, 1, hypergraph.NewEdge(2, "", 0).Weight, "weights clamp to at least 1")
}
