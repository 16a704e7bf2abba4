package hypergraph

import (
	"fmt"
	"sort"
)

// NewEdge returns an edge with the given ID, name, and weight. Weights
// below 1 are clamped to 1; a zero-weight edge would make its cut
// invisible to the cost function.
func NewEdge(id int, name string, weight int) *Edge {
	if weight < 1 {
		weight = 1
	}
	return &Edge{ID: id, Name: name, Weight: weight}
}

// AddConnection records that the node with connID touches this edge,
// keeping the connection list sorted. Adding an existing connection is
// a no-op.
// Complexity: O(degree).
func (e *Edge) AddConnection(connID int) {
	i := sort.SearchInts(e.conns, connID)
	if i < len(e.conns) && e.conns[i] == connID {
		return
	}
	e.conns = append(e.conns, 0)
	copy(e.conns[i+1:], e.conns[i:])
	e.conns[i] = connID
}

// RemoveConnection removes connID from the connection list. Removing an
// absent connection is a no-op.
// Complexity: O(degree).
func (e *Edge) RemoveConnection(connID int) {
	i := sort.SearchInts(e.conns, connID)
	if i < len(e.conns) && e.conns[i] == connID {
		e.conns = append(e.conns[:i], e.conns[i+1:]...)
	}
}

// HasConnection reports whether connID touches this edge.
// Complexity: O(log degree).
func (e *Edge) HasConnection(connID int) bool {
	i := sort.SearchInts(e.conns, connID)
	return i < len(e.conns) && e.conns[i] == connID
}

// Connections returns the sorted IDs touching this edge. The slice is
// live; callers must not modify it.
func (e *Edge) Connections() []int { return e.conns }

// Degree returns the number of connections of the hyperedge.
func (e *Edge) Degree() int { return len(e.conns) }

// EffectiveWeight returns the weight used in gain arithmetic: the
// integer weight, or the entropy scalar truncated to an integer (at
// least 1) when entropy weighting is enabled.
func (e *Edge) EffectiveWeight(useEntropy bool) int {
	if !useEntropy {
		return e.Weight
	}
	w := int(e.Entropy)
	if w < 1 {
		w = 1
	}
	return w
}

// SplitName derives the name for the external half of a split boundary
// edge from this edge's name.
func (e *Edge) SplitName(newID int) string {
	if e.Name == "" {
		return ""
	}
	return fmt.Sprintf("%s_split_%d", e.Name, newID)
}

// Clone returns a copy of the edge with its own connection list.
func (e *Edge) Clone() *Edge {
	c := *e
	c.conns = append([]int(nil), e.conns...)
	return &c
}
