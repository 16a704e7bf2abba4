package hypergraph

import (
	"fmt"
	"sort"
)

// AddNode inserts node into the graph. Inserting a second node with the
// same ID is an invariant violation and returns ErrDuplicateID.
func (g *Graph) AddNode(n *Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: node %d", ErrDuplicateID, n.ID)
	}
	g.nodes[n.ID] = n
	return nil
}

// AddEdge inserts edge into the graph. Inserting a second edge with the
// same ID is an invariant violation and returns ErrDuplicateID.
func (g *Graph) AddEdge(e *Edge) error {
	if _, ok := g.edges[e.ID]; ok {
		return fmt.Errorf("%w: edge %d", ErrDuplicateID, e.ID)
	}
	g.edges[e.ID] = e
	return nil
}

// Connect wires node nodeID and edge edgeID to each other.
func (g *Graph) Connect(nodeID, edgeID int) error {
	n, ok := g.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, nodeID)
	}
	e, ok := g.edges[edgeID]
	if !ok {
		return fmt.Errorf("%w: edge %d", ErrEdgeNotFound, edgeID)
	}
	n.ConnectEdge(edgeID)
	e.AddConnection(nodeID)
	return nil
}

// RemoveConnection unwires node nodeID from edge edgeID on both sides.
func (g *Graph) RemoveConnection(nodeID, edgeID int) error {
	n, ok := g.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, nodeID)
	}
	e, ok := g.edges[edgeID]
	if !ok {
		return fmt.Errorf("%w: edge %d", ErrEdgeNotFound, edgeID)
	}
	n.DisconnectEdge(edgeID)
	e.RemoveConnection(nodeID)
	return nil
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id int) *Node { return g.nodes[id] }

// Edge returns the edge with the given ID, or nil.
func (g *Graph) Edge(id int) *Edge { return g.edges[id] }

// Nodes returns the graph's node map. The map is live; callers must not
// modify it directly.
func (g *Graph) Nodes() map[int]*Node { return g.nodes }

// Edges returns the graph's edge map. The map is live; callers must not
// modify it directly.
func (g *Graph) Edges() map[int]*Edge { return g.edges }

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// NodeIDs returns all node IDs in ascending order.
func (g *Graph) NodeIDs() []int {
	ids := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// EdgeIDs returns all edge IDs in ascending order.
func (g *Graph) EdgeIDs() []int {
	ids := make([]int, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// NumResources returns the weight vector length shared by all nodes, or
// 0 for an empty graph.
func (g *Graph) NumResources() int {
	for _, n := range g.nodes {
		return n.NumResources()
	}
	return 0
}

// CheckWeightVectors verifies that every weight vector of every node
// has exactly numResources entries. Returns ErrWeightVectorArity naming
// the first offending node.
func (g *Graph) CheckWeightVectors(numResources int) error {
	for _, id := range g.NodeIDs() {
		n := g.nodes[id]
		for i := 0; i < n.NumWeightVectors(); i++ {
			if len(n.WeightVector(i)) != numResources {
				return fmt.Errorf("%w: node %d vector %d has %d resources, want %d",
					ErrWeightVectorArity, id, i, len(n.WeightVector(i)), numResources)
			}
		}
		if n.NumWeightVectors() == 0 {
			return fmt.Errorf("%w: node %d", ErrNoWeightVectors, id)
		}
	}
	return nil
}

// CheckIDUniqueness verifies that no node and edge share an ID.
func (g *Graph) CheckIDUniqueness() error {
	for id := range g.nodes {
		if _, ok := g.edges[id]; ok {
			return fmt.Errorf("%w: id %d is both a node and an edge", ErrDuplicateID, id)
		}
	}
	return nil
}

// Clone returns a deep copy of the graph. Engines operate on clones so
// that a single parsed graph can feed several concurrent engines.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	c.Name = g.Name
	for id, n := range g.nodes {
		c.nodes[id] = n.Clone()
	}
	for id, e := range g.edges {
		c.edges[id] = e.Clone()
	}
	return c
}
