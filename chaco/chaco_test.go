package chaco_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hyperpart/chaco"
)

// TestParse_PlainGraph covers the weightless format: a triangle listed
// from both endpoints.
func TestParse_PlainGraph(t *testing.T) {
	input := `% a triangle
3 3
2 3
1 3
1 2
`
	g, err := chaco.Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 3, g.NumEdges())
	require.NoError(t, g.CheckWeightVectors(1))
	require.NoError(t, g.CheckIDUniqueness())

	// Every node carries the synthetic unit weight vector.
	for _, id := range g.NodeIDs() {
		assert.Equal(t, []int{1}, g.Node(id).SelectedWeightVector())
	}
	// Every edge has exactly two endpoints.
	for _, id := range g.EdgeIDs() {
		assert.Equal(t, 2, g.Edge(id).Degree())
		assert.Equal(t, 1, g.Edge(id).Weight)
	}
}

// TestParse_VertexAndEdgeWeights covers format code 11 with two vertex
// weights per node.
func TestParse_VertexAndEdgeWeights(t *testing.T) {
	input := `3 2 11 2
4 7 2 5
1 3 1 5 3 9
2 2 2 9
`
	g, err := chaco.Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 3, g.NumNodes())
	require.Equal(t, 2, g.NumEdges())
	require.NoError(t, g.CheckWeightVectors(2))

	ids := g.NodeIDs()
	assert.Equal(t, []int{4, 7}, g.Node(ids[0]).SelectedWeightVector())
	assert.Equal(t, []int{1, 3}, g.Node(ids[1]).SelectedWeightVector())
	assert.Equal(t, []int{2, 2}, g.Node(ids[2]).SelectedWeightVector())

	// Edge weights follow their neighbour references.
	weights := make(map[int]bool)
	for _, id := range g.EdgeIDs() {
		weights[g.Edge(id).Weight] = true
	}
	assert.True(t, weights[5] && weights[9])
}

// TestParse_SkipsDuplicatesAndLoops verifies self-loops are dropped and
// the mirrored mention of an edge is not duplicated.
func TestParse_SkipsDuplicatesAndLoops(t *testing.T) {
	input := `2 1
1 2
1
`
	g, err := chaco.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, 1, g.NumEdges())
}

// TestParse_Errors covers malformed inputs.
func TestParse_Errors(t *testing.T) {
	_, err := chaco.Parse(strings.NewReader("not a header\n"))
	assert.ErrorIs(t, err, chaco.ErrBadHeader)

	_, err = chaco.Parse(strings.NewReader("2 1\n5\n1\n"))
	assert.ErrorIs(t, err, chaco.ErrBadNeighbor)

	_, err = chaco.Parse(strings.NewReader("2 1 11\nx 2\n1\n"))
	assert.ErrorIs(t, err, chaco.ErrBadVertexLine)

	// Truncated vertex list.
	_, err = chaco.Parse(strings.NewReader("3 2\n2\n1\n"))
	assert.ErrorIs(t, err, chaco.ErrBadVertexLine)
}
