package hypergraph

import (
	"fmt"
	"math/rand"
	"sort"
)

// supernodeFillSeed is the fixed seed used when padding a supernode's
// implementation list with random child combinations. A fixed value
// keeps repeated runs on the same graph identical.
const supernodeFillSeed int64 = 1

// NewNode returns a base node with the given ID and optional name.
// Weight vectors are added separately with AddWeightVector.
// Complexity: O(1).
func NewNode(id int, name string) *Node {
	return &Node{
		ID:            id,
		Name:          name,
		edgeIDs:       make(map[int]struct{}),
		ports:         make(map[int]Port),
		internalNodes: make(map[int]*Node),
		internalEdges: make(map[int]*Edge),
	}
}

// IsSupernode reports whether the node owns an internal sub-graph.
func (n *Node) IsSupernode() bool {
	return len(n.internalNodes) != 0 || len(n.internalEdges) != 0
}

// AddWeightVector appends an implementation to a base node.
// Supernode implementation lists are built exclusively by
// PopulateSupernodeWeightVectors, so calling this on a supernode is an
// error.
func (n *Node) AddWeightVector(wv []int) error {
	if n.IsSupernode() {
		return fmt.Errorf("%w: node %d", ErrIsSupernode, n.ID)
	}
	n.weightVectors = append(n.weightVectors, wv)
	return nil
}

// WeightVectors returns the node's implementation list. The returned
// slice is live; callers must not modify it.
func (n *Node) WeightVectors() [][]int { return n.weightVectors }

// WeightVector returns the implementation at index i.
func (n *Node) WeightVector(i int) []int { return n.weightVectors[i] }

// NumWeightVectors returns the number of implementations.
func (n *Node) NumWeightVectors() int { return len(n.weightVectors) }

// SelectedIndex returns the index of the currently selected
// implementation.
func (n *Node) SelectedIndex() int { return n.selectedWV }

// SelectedWeightVector returns the currently selected implementation.
//
// A supernode whose implementation list has not been populated yet
// falls back to the componentwise sum of its children's selected
// vectors, which is what PopulateSupernodeWeightVectors stores as the
// default implementation.
func (n *Node) SelectedWeightVector() []int {
	if len(n.weightVectors) == 0 && n.IsSupernode() {
		sum, _ := n.totalInternalSelectedWeight(false)
		return sum
	}
	return n.weightVectors[n.selectedWV]
}

// NumResources returns the length of the node's weight vectors.
func (n *Node) NumResources() int {
	return len(n.SelectedWeightVector())
}

// SetSelectedWeightVector selects implementation index without touching
// the rollback index. Used when restoring a known-good selection.
func (n *Node) SetSelectedWeightVector(index int) error {
	if index < 0 || index >= len(n.weightVectors) {
		return fmt.Errorf("%w: node %d index %d of %d",
			ErrWeightVectorIndex, n.ID, index, len(n.weightVectors))
	}
	n.selectedWV = index
	return nil
}

// SetSelectedWeightVectorWithRollback selects implementation index and
// remembers the previous selection so that RevertSelectedWeightVector
// can undo this one change in O(1).
func (n *Node) SetSelectedWeightVectorWithRollback(index int) error {
	if index < 0 || index >= len(n.weightVectors) {
		return fmt.Errorf("%w: node %d index %d of %d",
			ErrWeightVectorIndex, n.ID, index, len(n.weightVectors))
	}
	n.prevSelectedWV = n.selectedWV
	n.selectedWV = index
	return nil
}

// RevertSelectedWeightVector restores the selection that was current
// before the most recent SetSelectedWeightVectorWithRollback. Calling it
// repeatedly between changes has no further effect.
func (n *Node) RevertSelectedWeightVector() {
	n.selectedWV = n.prevSelectedWV
}

// ConnectEdge records that edge edgeID touches this node.
func (n *Node) ConnectEdge(edgeID int) {
	n.edgeIDs[edgeID] = struct{}{}
}

// DisconnectEdge removes the record that edge edgeID touches this node.
func (n *Node) DisconnectEdge(edgeID int) {
	delete(n.edgeIDs, edgeID)
}

// HasEdge reports whether edge edgeID touches this node.
func (n *Node) HasEdge(edgeID int) bool {
	_, ok := n.edgeIDs[edgeID]
	return ok
}

// EdgeIDs returns the IDs of the edges touching this node in ascending
// order. For a supernode these are the external edge IDs of its ports.
func (n *Node) EdgeIDs() []int {
	ids := make([]int, 0, len(n.edgeIDs))
	for id := range n.edgeIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Degree returns the number of edges touching this node.
func (n *Node) Degree() int { return len(n.edgeIDs) }

// SwapEdgeConnection rewrites this node's reference to edge oldID so it
// refers to edge newID. On a supernode, any port whose external edge is
// oldID is re-pointed as well. Returns ErrEdgeNotFound if the node does
// not reference oldID.
func (n *Node) SwapEdgeConnection(oldID, newID int) error {
	if _, ok := n.edgeIDs[oldID]; !ok {
		return fmt.Errorf("%w: node %d has no edge %d", ErrEdgeNotFound, n.ID, oldID)
	}
	delete(n.edgeIDs, oldID)
	n.edgeIDs[newID] = struct{}{}
	for pid, p := range n.ports {
		if p.ExternalEdgeID == oldID {
			p.ExternalEdgeID = newID
			n.ports[pid] = p
		}
	}
	return nil
}

// AddPort attaches a port to a supernode.
func (n *Node) AddPort(p Port) error {
	if _, ok := n.ports[p.ID]; ok {
		return fmt.Errorf("%w: port %d on node %d", ErrDuplicateID, p.ID, n.ID)
	}
	n.ports[p.ID] = p
	return nil
}

// Ports returns the node's port map. The map is live; callers must not
// modify it. Empty for base nodes.
func (n *Node) Ports() map[int]Port { return n.ports }

// AddInternalNode transfers ownership of child to this node, making it
// a supernode.
func (n *Node) AddInternalNode(child *Node) error {
	if _, ok := n.internalNodes[child.ID]; ok {
		return fmt.Errorf("%w: internal node %d in %d", ErrDuplicateID, child.ID, n.ID)
	}
	n.internalNodes[child.ID] = child
	return nil
}

// AddInternalEdge transfers ownership of e to this node.
func (n *Node) AddInternalEdge(e *Edge) error {
	if _, ok := n.internalEdges[e.ID]; ok {
		return fmt.Errorf("%w: internal edge %d in %d", ErrDuplicateID, e.ID, n.ID)
	}
	n.internalEdges[e.ID] = e
	return nil
}

// InternalNodes returns the supernode's owned children. The map is
// live; callers must not modify it.
func (n *Node) InternalNodes() map[int]*Node { return n.internalNodes }

// InternalEdges returns the supernode's owned edges. The map is live;
// callers must not modify it.
func (n *Node) InternalEdges() map[int]*Edge { return n.internalEdges }

// InternalNode returns the child with the given ID, or nil.
func (n *Node) InternalNode(id int) *Node { return n.internalNodes[id] }

// InternalEdge returns the owned edge with the given ID, or nil.
func (n *Node) InternalEdge(id int) *Edge { return n.internalEdges[id] }

// sortedInternalNodeIDs returns the children's IDs in ascending order.
// All composition sweeps iterate children in this order so that results
// are independent of map iteration order.
func (n *Node) sortedInternalNodeIDs() []int {
	ids := make([]int, 0, len(n.internalNodes))
	for id := range n.internalNodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// totalInternalSelectedWeight sums the children's selected weight
// vectors. When record is true it also returns the (child, index) pairs
// behind the sum, in ascending child-ID order.
func (n *Node) totalInternalSelectedWeight(record bool) ([]int, []ChildSelection) {
	ids := n.sortedInternalNodeIDs()
	var sum []int
	var sels []ChildSelection
	for _, id := range ids {
		child := n.internalNodes[id]
		wv := child.SelectedWeightVector()
		if sum == nil {
			sum = make([]int, len(wv))
		}
		for i, w := range wv {
			sum[i] += w
		}
		if record {
			sels = append(sels, ChildSelection{NodeID: id, WVIndex: child.SelectedIndex()})
		}
	}
	return sum, sels
}

// addSupernodeWeightVector stores wv along with the child selections
// that produce it, keeping the two lists index-aligned.
func (n *Node) addSupernodeWeightVector(wv []int, sels []ChildSelection) {
	n.weightVectors = append(n.weightVectors, wv)
	n.childSelections = append(n.childSelections, sels)
}

// ChildSelections returns the (child, index) pairs recorded for the
// supernode weight vector at index i.
func (n *Node) ChildSelections(i int) []ChildSelection { return n.childSelections[i] }

// PopulateSupernodeWeightVectors rebuilds the supernode's implementation
// list from its children's implementations.
//
// The list always starts with the default implementation: the sum of the
// children's currently selected vectors. If restrictToDefault is set or
// only one combination exists, that is the whole list. If the number of
// combinations is at most maxImplementations, all of them are
// enumerated. Otherwise a bounded set is constructed:
//
//  1. one resource-heavy vector per resource r, greedily picking each
//     child's implementation with the largest r-weight;
//  2. two balance sweeps (one forward, one reverse over the children),
//     each greedily minimising the running sum of absolute components;
//  3. random child combinations, drawn from a fixed-seed generator,
//     until maxImplementations is reached.
//
// The (child, index) map behind every stored vector is recorded, and
// the default implementation is selected on return.
//
// The totalWeight argument is the graph's current per-resource total.
// It is accepted for interface stability; the balance sweeps minimise
// absolute component sums and are ratio-agnostic.
func (n *Node) PopulateSupernodeWeightVectors(totalWeight []int, restrictToDefault bool, maxImplementations int) error {
	if !n.IsSupernode() {
		return fmt.Errorf("%w: node %d", ErrNotSupernode, n.ID)
	}
	n.weightVectors = nil
	n.childSelections = nil
	n.selectedWV = 0
	n.prevSelectedWV = 0

	ids := n.sortedInternalNodeIDs()
	numRes := n.internalNodes[ids[0]].NumResources()

	maxPossible := 1
	for _, id := range ids {
		maxPossible *= n.internalNodes[id].NumWeightVectors()
		if maxPossible > maxImplementations {
			// Only the comparison against the cap matters; clamp to avoid
			// overflow on deep supernodes.
			maxPossible = maxImplementations + 1
			break
		}
	}

	// The default implementation is always present and always selected.
	defaultWV, defaultSels := n.totalInternalSelectedWeight(true)
	n.addSupernodeWeightVector(defaultWV, defaultSels)

	if maxPossible == 1 || restrictToDefault {
		return nil
	}

	if maxPossible <= maxImplementations {
		n.enumerateAllCombinations(ids, numRes)
		return nil
	}

	n.buildBoundedCombinations(ids, numRes, maxImplementations)
	return nil
}

// enumerateAllCombinations appends every child-implementation
// combination as a supernode weight vector. Called only when the
// product of implementation counts is within the configured cap.
func (n *Node) enumerateAllCombinations(ids []int, numRes int) {
	sums := [][]int{make([]int, numRes)}
	sels := [][]ChildSelection{nil}
	for _, id := range ids {
		child := n.internalNodes[id]
		nextSums := make([][]int, 0, len(sums)*child.NumWeightVectors())
		nextSels := make([][]ChildSelection, 0, len(sums)*child.NumWeightVectors())
		for p := range sums {
			for wvIdx := 0; wvIdx < child.NumWeightVectors(); wvIdx++ {
				wv := child.WeightVector(wvIdx)
				combined := make([]int, numRes)
				copy(combined, sums[p])
				for i, w := range wv {
					combined[i] += w
				}
				chain := make([]ChildSelection, len(sels[p]), len(sels[p])+1)
				copy(chain, sels[p])
				chain = append(chain, ChildSelection{NodeID: id, WVIndex: wvIdx})
				nextSums = append(nextSums, combined)
				nextSels = append(nextSels, chain)
			}
		}
		sums = nextSums
		sels = nextSels
	}
	for i := range sums {
		n.addSupernodeWeightVector(sums[i], sels[i])
	}
}

// buildBoundedCombinations appends a capped implementation set: one
// resource-heavy vector per resource, two greedy balance sweeps, and
// deterministic-random fill up to the cap.
func (n *Node) buildBoundedCombinations(ids []int, numRes, maxImplementations int) {
	// One implementation maximally weighted toward each resource.
	for res := 0; res < numRes; res++ {
		sum := make([]int, numRes)
		sels := make([]ChildSelection, 0, len(ids))
		for _, id := range ids {
			child := n.internalNodes[id]
			maxIdx, maxWeight := 0, 0
			for wvIdx := 0; wvIdx < child.NumWeightVectors(); wvIdx++ {
				if w := child.WeightVector(wvIdx)[res]; w > maxWeight {
					maxWeight = w
					maxIdx = wvIdx
				}
			}
			for i, w := range child.WeightVector(maxIdx) {
				sum[i] += w
			}
			sels = append(sels, ChildSelection{NodeID: id, WVIndex: maxIdx})
		}
		n.addSupernodeWeightVector(sum, sels)
	}

	// Two balance sweeps over the children, forward then reverse, each
	// greedily minimising the running sum of absolute components.
	n.addSupernodeWeightVector(n.balanceSweep(ids, numRes))
	reversed := make([]int, len(ids))
	for i, id := range ids {
		reversed[len(ids)-1-i] = id
	}
	n.addSupernodeWeightVector(n.balanceSweep(reversed, numRes))

	// Deterministic-random fill to the cap. Duplicates are possible and
	// harmless.
	rng := rand.New(rand.NewSource(supernodeFillSeed))
	for len(n.weightVectors) < maxImplementations {
		sum := make([]int, numRes)
		sels := make([]ChildSelection, 0, len(ids))
		for _, id := range ids {
			child := n.internalNodes[id]
			wvIdx := rng.Intn(child.NumWeightVectors())
			for i, w := range child.WeightVector(wvIdx) {
				sum[i] += w
			}
			sels = append(sels, ChildSelection{NodeID: id, WVIndex: wvIdx})
		}
		n.addSupernodeWeightVector(sum, sels)
	}
}

// balanceSweep walks the children in the given order, at each step
// picking the implementation that minimises the running sum of absolute
// components across resources.
func (n *Node) balanceSweep(order []int, numRes int) ([]int, []ChildSelection) {
	sum := make([]int, numRes)
	sels := make([]ChildSelection, 0, len(order))
	for _, id := range order {
		child := n.internalNodes[id]
		bestIdx := -1
		bestDiff := int(^uint(0) >> 1)
		for wvIdx := 0; wvIdx < child.NumWeightVectors(); wvIdx++ {
			wv := child.WeightVector(wvIdx)
			diff := 0
			for i, w := range wv {
				v := sum[i] + w
				if v < 0 {
					v = -v
				}
				diff += v
			}
			if diff < bestDiff {
				bestDiff = diff
				bestIdx = wvIdx
			}
		}
		for i, w := range child.WeightVector(bestIdx) {
			sum[i] += w
		}
		sels = append(sels, ChildSelection{NodeID: id, WVIndex: bestIdx})
	}
	return sum, sels
}

// PushSelectedToChildren sets each child's selected implementation to
// the one recorded for the supernode's currently selected weight
// vector. The children's weight state is allowed to drift between
// supernode selection changes, so this is called on demand, in
// particular right before the supernode is expanded.
func (n *Node) PushSelectedToChildren() error {
	if !n.IsSupernode() {
		return fmt.Errorf("%w: node %d", ErrNotSupernode, n.ID)
	}
	if len(n.weightVectors) == 0 {
		return nil
	}
	if len(n.weightVectors) != len(n.childSelections) {
		return fmt.Errorf("%w: node %d has %d vectors but %d selection maps",
			ErrSupernodeWeightSum, n.ID, len(n.weightVectors), len(n.childSelections))
	}
	for _, sel := range n.childSelections[n.selectedWV] {
		child, ok := n.internalNodes[sel.NodeID]
		if !ok {
			return fmt.Errorf("%w: child %d of supernode %d", ErrNodeNotFound, sel.NodeID, n.ID)
		}
		if err := child.SetSelectedWeightVector(sel.WVIndex); err != nil {
			return err
		}
	}
	return nil
}

// CheckSupernodeWeightVector verifies, recursively, that the selected
// supernode weight vector equals the componentwise sum of the
// children's selected vectors after PushSelectedToChildren. Base nodes
// pass trivially.
func (n *Node) CheckSupernodeWeightVector() error {
	if !n.IsSupernode() {
		return nil
	}
	if err := n.PushSelectedToChildren(); err != nil {
		return err
	}
	want := n.SelectedWeightVector()
	got := make([]int, len(want))
	for _, id := range n.sortedInternalNodeIDs() {
		child := n.internalNodes[id]
		if err := child.CheckSupernodeWeightVector(); err != nil {
			return err
		}
		for i, w := range child.SelectedWeightVector() {
			got[i] += w
		}
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("%w: supernode %d resource %d: have %d want %d",
				ErrSupernodeWeightSum, n.ID, i, got[i], want[i])
		}
	}
	return nil
}

// Clone returns a deep copy of the node, including its internal
// sub-graph. The copy shares no mutable state with the original; weight
// vector contents are shared because they are never mutated in place.
func (n *Node) Clone() *Node {
	c := NewNode(n.ID, n.Name)
	c.Locked = n.Locked
	c.selectedWV = n.selectedWV
	c.prevSelectedWV = n.prevSelectedWV
	for id := range n.edgeIDs {
		c.edgeIDs[id] = struct{}{}
	}
	for id, p := range n.ports {
		c.ports[id] = p
	}
	c.weightVectors = append([][]int(nil), n.weightVectors...)
	c.childSelections = append([][]ChildSelection(nil), n.childSelections...)
	for id, child := range n.internalNodes {
		c.internalNodes[id] = child.Clone()
	}
	for id, e := range n.internalEdges {
		c.internalEdges[id] = e.Clone()
	}
	return c
}
