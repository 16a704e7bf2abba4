package klfm

import "github.com/katalvlaran/hyperpart/hypergraph"

// edgeState carries the per-pass KLFM bookkeeping of one hyperedge:
// which connected nodes sit on which side, split into locked and
// unlocked, plus the criticality flags that gate gain updates.
//
// The four slices partition the edge's node connections exactly: every
// connected node appears in exactly one of them at all times.
type edgeState struct {
	edge *hypergraph.Edge

	// isCritical means some side has zero locked and at most two unlocked
	// nodes, so moving an unlocked node on this edge changes the cost or
	// some other node's gain.
	isCritical bool

	// lockedNoncritical means both sides hold a locked node; the edge can
	// no longer become critical this pass.
	lockedNoncritical bool

	aUnlocked []int
	bUnlocked []int
	aLocked   []int
	bLocked   []int
}

// reset rebuilds the state for the start of a pass: all nodes unlocked,
// sides taken from the current partition, criticality from side sizes
// alone (no node is locked yet).
func (s *edgeState) reset(partA, partB map[int]struct{}) {
	s.aUnlocked = s.aUnlocked[:0]
	s.bUnlocked = s.bUnlocked[:0]
	s.aLocked = s.aLocked[:0]
	s.bLocked = s.bLocked[:0]
	s.lockedNoncritical = false
	for _, conn := range s.edge.Connections() {
		if _, inA := partA[conn]; inA {
			s.aUnlocked = append(s.aUnlocked, conn)
		} else if _, inB := partB[conn]; inB {
			s.bUnlocked = append(s.bUnlocked, conn)
		}
	}
	s.isCritical = len(s.aUnlocked) <= 2 || len(s.bUnlocked) <= 2
}

// inGroup reports whether id is present in group. The sides of a
// hyperedge are short in practice, so a linear scan beats maintaining
// per-edge indices.
func inGroup(group []int, id int) bool {
	for _, g := range group {
		if g == id {
			return true
		}
	}
	return false
}

// removeFrom deletes id from group, preserving order.
func removeFrom(group []int, id int) []int {
	for i, g := range group {
		if g == id {
			return append(group[:i], group[i+1:]...)
		}
	}
	return group
}

// moveNode commits the move of nodeID across the partition on this
// edge: the node leaves its side's unlocked set and joins the other
// side's locked set. It returns the IDs of connected nodes whose gains
// must increase (always on the side the node left) and decrease (always
// on the side it joined), each scaled by the edge weight by the caller.
// An ID may appear several times across edges; every occurrence must be
// applied.
//
// The four transition cases only matter while the edge is critical; a
// non-critical edge's move changes no gains.
func (s *edgeState) moveNode(nodeID int) (inc, dec []int) {
	fromA := inGroup(s.aUnlocked, nodeID)

	fromUnlocked, fromLocked := &s.aUnlocked, &s.aLocked
	toUnlocked, toLocked := &s.bUnlocked, &s.bLocked
	if !fromA {
		fromUnlocked, fromLocked = &s.bUnlocked, &s.bLocked
		toUnlocked, toLocked = &s.aUnlocked, &s.aLocked
	}

	*fromUnlocked = removeFrom(*fromUnlocked, nodeID)
	*toLocked = append(*toLocked, nodeID)

	if s.isCritical {
		if len(*toLocked) == 1 {
			switch len(*toUnlocked) {
			case 0:
				// Destination was empty: the edge just became cut, every
				// unlocked node left behind goes from negative to zero gain.
				inc = append(inc, *fromUnlocked...)
			case 1:
				// Destination's solo unlocked node gained a locked partner
				// and loses its uniqueness bonus.
				dec = append(dec, (*toUnlocked)[0])
			}
		}
		if len(*fromLocked) == 0 {
			switch len(*fromUnlocked) {
			case 0:
				// Source is now empty: the edge is uncuttable from the
				// destination side, its unlocked nodes drop to negative gain.
				dec = append(dec, *toUnlocked...)
			case 1:
				// A lone unlocked node remains on the source side; moving it
				// would uncut the edge.
				inc = append(inc, (*fromUnlocked)[0])
			}
		}
	}

	// Refresh criticality. Once both sides hold a locked node the edge is
	// non-critical for the rest of the pass.
	s.isCritical = false
	if !s.lockedNoncritical {
		if len(*fromLocked) != 0 {
			s.lockedNoncritical = true
		} else if len(*fromUnlocked) < 3 {
			s.isCritical = true
		}
	}
	return inc, dec
}

// sideCounts returns how many connected nodes sit on each side.
func (s *edgeState) sideCounts() (a, b int) {
	return len(s.aUnlocked) + len(s.aLocked), len(s.bUnlocked) + len(s.bLocked)
}

// crossesPartitions reports whether the edge currently spans both
// sides.
func (s *edgeState) crossesPartitions() bool {
	a, b := s.sideCounts()
	return a != 0 && b != 0
}
