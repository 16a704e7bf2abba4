package hypergraph

import (
	"fmt"
	"sort"
)

// MakeSupernode consolidates the nodes named by componentIDs into a
// fresh supernode. The nodes and every edge touching them must be
// present in nodes / edges; both maps are updated to remove the
// consolidated members and insert the supernode and the external halves
// of its split boundary edges. The supernode takes ownership of the
// removed nodes and edges.
//
// Boundary edges are split: the original edge keeps its ID, becomes
// internal to the supernode, and is terminated at a fresh port; a new
// edge with a new ID takes over all external connections plus the
// supernode itself. Wholly internal edges move unchanged.
//
// The supernode's implementation list is rebuilt per
// PopulateSupernodeWeightVectors with the given restriction and cap.
// The default implementation is selected on return, so consolidation
// never changes the graph's total weight.
//
// Returns the supernode. Consolidating a single node is a no-op that
// returns that node unchanged.
func MakeSupernode(componentIDs []int, nodes map[int]*Node, edges map[int]*Edge,
	totalWeight []int, restrictToDefault bool, maxImplementations int) (*Node, error) {

	if len(componentIDs) == 0 {
		return nil, fmt.Errorf("%w: empty component set", ErrNodeNotFound)
	}
	if len(componentIDs) == 1 {
		n, ok := nodes[componentIDs[0]]
		if !ok {
			return nil, fmt.Errorf("%w: node %d", ErrNodeNotFound, componentIDs[0])
		}
		return n, nil
	}

	members := make(map[int]struct{}, len(componentIDs))
	for _, id := range componentIDs {
		if _, ok := nodes[id]; !ok {
			return nil, fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
		}
		members[id] = struct{}{}
	}

	snID := AcquireNodeID()
	sn := NewNode(snID, fmt.Sprintf("sn_%d", snID))

	// Collect every edge touching a member, then classify it as wholly
	// internal or boundary.
	touching := make(map[int]struct{})
	for id := range members {
		for _, eid := range nodes[id].EdgeIDs() {
			touching[eid] = struct{}{}
		}
	}
	touchingIDs := make([]int, 0, len(touching))
	for eid := range touching {
		touchingIDs = append(touchingIDs, eid)
	}
	sort.Ints(touchingIDs)

	var internalEdges, boundaryEdges []int
	for _, eid := range touchingIDs {
		e, ok := edges[eid]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d", ErrEdgeNotFound, eid)
		}
		wholly := true
		for _, conn := range e.Connections() {
			if _, in := members[conn]; !in {
				wholly = false
				break
			}
		}
		if wholly {
			internalEdges = append(internalEdges, eid)
		} else {
			boundaryEdges = append(boundaryEdges, eid)
		}
	}

	if err := splitBoundaryEdges(sn, members, boundaryEdges, nodes, edges); err != nil {
		return nil, err
	}

	for _, eid := range internalEdges {
		if err := sn.AddInternalEdge(edges[eid]); err != nil {
			return nil, err
		}
		delete(edges, eid)
	}
	for _, id := range componentIDs {
		if err := sn.AddInternalNode(nodes[id]); err != nil {
			return nil, err
		}
		delete(nodes, id)
	}

	if err := sn.PopulateSupernodeWeightVectors(totalWeight, restrictToDefault, maxImplementations); err != nil {
		return nil, err
	}

	nodes[snID] = sn
	return sn, nil
}

// splitBoundaryEdges performs the edge surgery for MakeSupernode: each
// boundary edge keeps its ID inside the supernode, terminated at a
// fresh port, while a new edge with a new ID takes over the external
// side.
func splitBoundaryEdges(sn *Node, members map[int]struct{}, boundaryEdges []int,
	nodes map[int]*Node, edges map[int]*Edge) error {

	for _, eid := range boundaryEdges {
		edge := edges[eid]
		if err := sn.AddInternalEdge(edge); err != nil {
			return err
		}
		delete(edges, eid)

		outerID := AcquireEdgeID()
		outer := NewEdge(outerID, edge.SplitName(outerID), edge.Weight)
		outer.Entropy = edge.Entropy
		outer.AddConnection(sn.ID)
		sn.ConnectEdge(outerID)
		edges[outerID] = outer

		// Move all external endpoints to the outer edge and re-point
		// their node-side references from the old ID to the new one.
		var externals []int
		for _, conn := range edge.Connections() {
			if _, in := members[conn]; !in {
				externals = append(externals, conn)
			}
		}
		for _, conn := range externals {
			outer.AddConnection(conn)
			edge.RemoveConnection(conn)
			n, ok := nodes[conn]
			if !ok {
				return fmt.Errorf("%w: node %d on edge %d", ErrNodeNotFound, conn, eid)
			}
			if err := n.SwapEdgeConnection(eid, outerID); err != nil {
				return err
			}
		}

		// Terminate the internal half at a fresh port on the supernode.
		portID := AcquireNodeID()
		edge.AddConnection(portID)
		if err := sn.AddPort(Port{
			ID:             portID,
			InternalEdgeID: eid,
			ExternalEdgeID: outerID,
			Direction:      PortDontCare,
			Name:           fmt.Sprintf("%s_port_%d", sn.Name, portID),
		}); err != nil {
			return err
		}
	}
	return nil
}

// ExpandSupernode breaks the supernode with the given ID back into its
// internal graph, one hierarchy level deep. The supernode's selected
// implementation is pushed to its children first, so the expansion
// preserves total weight. The external half of every split boundary
// edge is merged back into the internal half (which keeps its original
// ID) and removed.
//
// Returns false without modifying anything if the named node is not a
// supernode.
func ExpandSupernode(supernodeID int, nodes map[int]*Node, edges map[int]*Edge) (bool, error) {
	sn, ok := nodes[supernodeID]
	if !ok {
		return false, fmt.Errorf("%w: node %d", ErrNodeNotFound, supernodeID)
	}
	if !sn.IsSupernode() {
		return false, nil
	}

	if err := sn.PushSelectedToChildren(); err != nil {
		return false, err
	}

	if err := mergeBoundaryEdges(sn, nodes, edges); err != nil {
		return false, err
	}

	for id, child := range sn.InternalNodes() {
		if _, dup := nodes[id]; dup {
			return false, fmt.Errorf("%w: node %d", ErrDuplicateID, id)
		}
		nodes[id] = child
	}
	for id, e := range sn.InternalEdges() {
		if _, dup := edges[id]; dup {
			return false, fmt.Errorf("%w: edge %d", ErrDuplicateID, id)
		}
		edges[id] = e
	}
	clear(sn.InternalNodes())
	clear(sn.InternalEdges())

	delete(nodes, supernodeID)
	ReleaseID(supernodeID)
	return true, nil
}

// mergeBoundaryEdges reverses splitBoundaryEdges for every port of the
// supernode: external connections are pushed onto the internal edge,
// external endpoints are re-pointed to the internal edge's ID, and the
// external edge is removed.
//
// Two adjacent supernodes can share an external edge. The first
// expansion merges it into the first supernode's internal edge and
// re-points the second supernode's port at that edge, which is now in
// the map; the second expansion merges and removes it in turn, so each
// external edge is removed exactly once. A port whose external edge is
// missing from the map is skipped.
func mergeBoundaryEdges(sn *Node, nodes map[int]*Node, edges map[int]*Edge) error {
	portIDs := make([]int, 0, len(sn.Ports()))
	for pid := range sn.Ports() {
		portIDs = append(portIDs, pid)
	}
	sort.Ints(portIDs)

	for _, pid := range portIDs {
		port := sn.Ports()[pid]
		internal := sn.InternalEdge(port.InternalEdgeID)
		if internal == nil {
			return fmt.Errorf("%w: internal edge %d of supernode %d",
				ErrEdgeNotFound, port.InternalEdgeID, sn.ID)
		}
		internal.RemoveConnection(pid)

		external, ok := edges[port.ExternalEdgeID]
		if !ok {
			// External edge is not in the working map.
			continue
		}

		for _, conn := range external.Connections() {
			if conn == sn.ID {
				continue
			}
			internal.AddConnection(conn)
			n, found := nodes[conn]
			if !found {
				return fmt.Errorf("%w: node %d on edge %d",
					ErrNodeNotFound, conn, external.ID)
			}
			if err := n.SwapEdgeConnection(external.ID, internal.ID); err != nil {
				return err
			}
		}

		delete(edges, external.ID)
		ReleaseID(external.ID)
	}
	return nil
}
