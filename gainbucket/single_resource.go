package gainbucket

import "github.com/katalvlaran/hyperpart/hypergraph"

// SingleResource manages one bucket per partition side and selects
// moves against a single resource's balance limit.
//
// Selection keeps the constrained side (the one whose movement would
// push the balance further toward its limit) honest: its top entry is
// taken only when it strictly out-gains the unconstrained top and its
// weight fits in the remaining slack. A bounded number of oversized
// constrained entries may be stepped over; they are returned to their
// bucket afterwards.
type SingleResource struct {
	// resourceIndex selects which component of the weight vectors this
	// manager balances.
	resourceIndex int

	// maxImbalanceFraction is the allowed |balance|/total for the
	// resource.
	maxImbalanceFraction float64

	bucketA *Bucket
	bucketB *Bucket
}

// NewSingleResource returns a single-resource manager balancing the
// given component of every weight vector.
func NewSingleResource(resourceIndex int, maxImbalanceFraction float64) *SingleResource {
	return &SingleResource{
		resourceIndex:        resourceIndex,
		maxImbalanceFraction: maxImbalanceFraction,
		bucketA:              NewBucket(),
		bucketB:              NewBucket(),
	}
}

// NextEntry implements Manager.
func (m *SingleResource) NextEntry(balance, totalWeight []int) (Entry, error) {
	res := m.resourceIndex
	weightBalance := balance[res]

	// Moving a node out of the heavier side always fits, so that side is
	// unconstrained; the lighter side is constrained.
	constrained, unconstrained := m.bucketA, m.bucketB
	if weightBalance > 0 {
		constrained, unconstrained = m.bucketB, m.bucketA
	}

	// A move subtracts the node's weight from one side and adds it to the
	// other, shifting the balance by twice the weight; halve the slack.
	slack := int(m.maxImbalanceFraction*float64(totalWeight[res])) - abs(weightBalance)
	maxConstrainedWeight := slack / 2

	if constrained.Empty() {
		return unconstrained.Pop()
	}
	if unconstrained.Empty() {
		return constrained.Pop()
	}

	constrainedTop, _ := constrained.Top()
	unconstrainedTop, _ := unconstrained.Top()

	// Finding the true best fitting entry is O(n); inspect only a bounded
	// number of constrained entries beyond the top and put the rejected
	// ones back afterwards.
	checked := 1
	maxChecks := constrained.Len() - 1
	if maxChecks > maxConstrainedChecks {
		maxChecks = maxConstrainedChecks
	}
	var passed []Entry
	for constrainedTop.Gain > unconstrainedTop.Gain &&
		constrainedTop.CurrentWeightVector()[res] > maxConstrainedWeight &&
		checked <= maxChecks {
		e, _ := constrained.Pop()
		passed = append(passed, e)
		constrainedTop, _ = constrained.Top()
		checked++
	}

	useConstrained := constrainedTop.Gain > unconstrainedTop.Gain &&
		constrainedTop.CurrentWeightVector()[res] <= maxConstrainedWeight

	var selected Entry
	if useConstrained {
		selected, _ = constrained.Pop()
	} else {
		selected, _ = unconstrained.Pop()
	}
	for _, e := range passed {
		constrained.Add(e)
	}
	return selected, nil
}

// AddNode implements Manager.
func (m *SingleResource) AddNode(gain int, node *hypergraph.Node, inPartA bool, _ []int) error {
	entry := NewEntry(gain, node)
	if inPartA {
		m.bucketA.Add(entry)
	} else {
		m.bucketB.Add(entry)
	}
	return nil
}

// UpdateGains implements Manager. Gain increases always land on the
// side the node moved from, decreases on the side it moved to.
func (m *SingleResource) UpdateGains(delta int, incIDs, decIDs []int, movedFromA bool) {
	if movedFromA {
		m.bucketA.UpdateGains(delta, incIDs)
		m.bucketB.UpdateGains(-delta, decIDs)
	} else {
		m.bucketB.UpdateGains(delta, incIDs)
		m.bucketA.UpdateGains(-delta, decIDs)
	}
}

// UpdateNodeImplementation implements Manager by rewriting the stored
// weight vector index in the node's live entry, if any.
func (m *SingleResource) UpdateNodeImplementation(node *hypergraph.Node) {
	if e := m.bucketA.EntryByID(node.ID); e != nil {
		e.SetWeightVectorIndex(node.SelectedIndex())
		return
	}
	if e := m.bucketB.EntryByID(node.ID); e != nil {
		e.SetWeightVectorIndex(node.SelectedIndex())
	}
}

// Empty implements Manager.
func (m *SingleResource) Empty() bool { return m.NumUnlockedNodes() == 0 }

// NumUnlockedNodes implements Manager.
func (m *SingleResource) NumUnlockedNodes() int {
	return m.bucketA.Len() + m.bucketB.Len()
}

// SetSelectionPolicy implements Manager. The single-resource manager
// has exactly one selection strategy.
func (m *SingleResource) SetSelectionPolicy(SelectionPolicy) error {
	return ErrUnsupportedPolicy
}

// abs returns the absolute value of x.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
