package gainbucket

import (
	"fmt"
	"math/rand"

	"github.com/katalvlaran/hyperpart/hypergraph"
)

// MultiResourceExclusive manages one bucket pair per resource and
// requires every weight vector to have non-zero weight in exactly one
// resource, so each entry belongs to exactly one resource's pair.
//
// In adaptive mode a node contributes up to one entry per resource: for
// each resource, the implementation with the largest weight in it. The
// engine applies whichever implementation the selected entry carries.
type MultiResourceExclusive struct {
	numResources int
	fractions    []float64
	policy       SelectionPolicy
	adaptive     bool

	bucketsA []*Bucket
	bucketsB []*Bucket

	// nodeResources records, per node, the resource indices of its live
	// entries. Adaptive nodes may appear under several resources.
	nodeResources map[int][]int

	numNodes int
	rng      *rand.Rand
}

// NewMultiResourceExclusive returns an exclusive manager for
// len(maxImbalanceFractions) resources. The seed drives tie-break
// shuffles and the random-resource policy; fixed seeds give
// reproducible runs.
func NewMultiResourceExclusive(maxImbalanceFractions []float64, policy SelectionPolicy,
	adaptive bool, seed int64) *MultiResourceExclusive {

	m := &MultiResourceExclusive{
		numResources:  len(maxImbalanceFractions),
		fractions:     maxImbalanceFractions,
		policy:        policy,
		adaptive:      adaptive,
		nodeResources: make(map[int][]int),
		rng:           rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < m.numResources; i++ {
		m.bucketsA = append(m.bucketsA, NewBucket())
		m.bucketsB = append(m.bucketsB, NewBucket())
	}
	return m
}

// NextEntry implements Manager.
func (m *MultiResourceExclusive) NextEntry(balance, totalWeight []int) (Entry, error) {
	if m.numNodes == 0 {
		return Entry{}, ErrEmptyBucket
	}
	var entry Entry
	var err error
	switch m.policy {
	case PolicyRandomResource:
		entry, err = m.nextRandomResource(balance, totalWeight)
	case PolicyLargestResourceImbalance:
		entry, err = m.nextLargestImbalanceResource(balance, totalWeight)
	case PolicyLargestUnconstrainedGain:
		entry, err = m.nextLargestUnconstrainedGain(balance, totalWeight)
	case PolicyLargestGain:
		entry, err = m.nextLargestGain(balance, totalWeight)
	default:
		return Entry{}, fmt.Errorf("%w: %s for multi-resource-exclusive", ErrUnsupportedPolicy, m.policy)
	}
	if err != nil {
		return Entry{}, err
	}
	// Purge duplicate entries the node may hold under other resources.
	m.removeNode(entry.ID)
	return entry, nil
}

// nextRandomResource picks a uniformly random non-exhausted resource
// and applies constrained-versus-unconstrained selection within it.
func (m *MultiResourceExclusive) nextRandomResource(balance, totalWeight []int) (Entry, error) {
	maxImb := MaxImbalance(m.fractions, totalWeight)
	var resources []int
	for i := 0; i < m.numResources; i++ {
		if !(m.bucketsA[i].Empty() && m.bucketsB[i].Empty()) {
			resources = append(resources, i)
		}
	}
	if len(resources) == 0 {
		return Entry{}, ErrEmptyBucket
	}
	res := resources[m.rng.Intn(len(resources))]
	constrained, unconstrained := m.sidesFor(res, balance)
	return selectBetweenBuckets(constrained, unconstrained, res, constrainedSlack(maxImb[res], balance[res]))
}

// nextLargestImbalanceResource picks the resource with the largest
// fractional imbalance among non-exhausted resources.
func (m *MultiResourceExclusive) nextLargestImbalanceResource(balance, totalWeight []int) (Entry, error) {
	maxImb := MaxImbalance(m.fractions, totalWeight)
	res, largest := -1, -1.0
	for i := 0; i < m.numResources; i++ {
		if m.bucketsA[i].Empty() && m.bucketsB[i].Empty() {
			continue
		}
		frac := float64(abs(balance[i])) / float64(maxImb[i])
		if frac >= largest {
			res = i
			largest = frac
		}
	}
	if res < 0 {
		return Entry{}, ErrEmptyBucket
	}
	constrained, unconstrained := m.sidesFor(res, balance)
	return selectBetweenBuckets(constrained, unconstrained, res, constrainedSlack(maxImb[res], balance[res]))
}

// nextLargestUnconstrainedGain takes the single highest-gain entry
// among all unconstrained sides, falling back to the random-resource
// policy when every unconstrained side is empty.
func (m *MultiResourceExclusive) nextLargestUnconstrainedGain(balance, totalWeight []int) (Entry, error) {
	var candidates []*Bucket
	for i := 0; i < m.numResources; i++ {
		_, unconstrained := m.sidesFor(i, balance)
		if !unconstrained.Empty() {
			candidates = append(candidates, unconstrained)
		}
	}
	if len(candidates) == 0 {
		// Only constrained entries remain, which happens near the end of a
		// pass; the policy used no longer matters much.
		return m.nextRandomResource(balance, totalWeight)
	}
	best := 0
	bestTop, _ := candidates[0].Top()
	for i := 1; i < len(candidates); i++ {
		top, _ := candidates[i].Top()
		if top.Gain > bestTop.Gain {
			best = i
			bestTop = top
		}
	}
	return candidates[best].Pop()
}

// nextLargestGain searches every bucket, bounded in constrained ones,
// for the highest-gain entry that fits, shuffling ties to avoid
// resource-order bias. When nothing fits (possible in adaptive mode),
// the first available entry is returned so the pass can proceed; the
// rollback phase discards the move if it hurt.
func (m *MultiResourceExclusive) nextLargestGain(balance, totalWeight []int) (Entry, error) {
	maxImb := MaxImbalance(m.fractions, totalWeight)

	type sideBucket struct {
		constrained bool
		res         int
		bucket      *Bucket
	}
	var buckets []sideBucket
	for i := 0; i < m.numResources; i++ {
		partAConstrained := balance[i] < 0
		if !m.bucketsA[i].Empty() {
			buckets = append(buckets, sideBucket{partAConstrained, i, m.bucketsA[i]})
		}
		if !m.bucketsB[i].Empty() {
			buckets = append(buckets, sideBucket{!partAConstrained, i, m.bucketsB[i]})
		}
	}
	if len(buckets) == 0 {
		return Entry{}, ErrEmptyBucket
	}

	type topEntry struct {
		bucketIdx int
		entry     Entry
	}
	var tops []topEntry
	for bi, sb := range buckets {
		var passed []Entry
		found := false
		var entry Entry
		for checks := 0; checks < maxConstrainedChecks && !sb.bucket.Empty(); checks++ {
			entry, _ = sb.bucket.Pop()
			fits := !sb.constrained ||
				abs(entry.CurrentWeightVector()[sb.res]) <= constrainedSlack(maxImb[sb.res], balance[sb.res])
			if fits {
				found = true
				break
			}
			passed = append(passed, entry)
		}
		if found {
			tops = append(tops, topEntry{bucketIdx: bi, entry: entry})
		}
		for _, p := range passed {
			sb.bucket.Add(p)
		}
	}

	if len(tops) == 0 {
		// Adaptive implementation choices on earlier moves can paint the
		// pass into a corner where no remaining entry fits.
		top, err := buckets[0].bucket.Top()
		if err != nil {
			return Entry{}, err
		}
		return *top, nil
	}

	m.rng.Shuffle(len(tops), func(i, j int) { tops[i], tops[j] = tops[j], tops[i] })

	best := 0
	for i := 1; i < len(tops); i++ {
		if tops[i].entry.Gain > tops[best].entry.Gain {
			buckets[tops[best].bucketIdx].bucket.Add(tops[best].entry)
			best = i
		} else {
			buckets[tops[i].bucketIdx].bucket.Add(tops[i].entry)
		}
	}
	return tops[best].entry, nil
}

// sidesFor returns the (constrained, unconstrained) bucket pair for
// resource res: the heavier side is unconstrained because moving weight
// out of it always reduces imbalance.
func (m *MultiResourceExclusive) sidesFor(res int, balance []int) (constrained, unconstrained *Bucket) {
	if balance[res] < 0 {
		return m.bucketsA[res], m.bucketsB[res]
	}
	return m.bucketsB[res], m.bucketsA[res]
}

// constrainedSlack returns the largest single-node weight the
// constrained side may move without violating the limit. The factor of
// two accounts for the move shifting balance by twice the node weight.
func constrainedSlack(maxImbalance, balance int) int {
	slack := (maxImbalance - abs(balance)) / 2
	if slack < 0 {
		return 0
	}
	return slack
}

// selectBetweenBuckets weighs the constrained bucket's top entries
// against the unconstrained top, stepping over at most
// maxConstrainedChecks oversized constrained entries. The chosen entry
// is popped; stepped-over entries are returned to their bucket.
func selectBetweenBuckets(constrained, unconstrained *Bucket, res, maxConstrainedWeight int) (Entry, error) {
	if constrained.Empty() {
		return unconstrained.Pop()
	}
	if unconstrained.Empty() {
		return constrained.Pop()
	}

	constrainedTop, _ := constrained.Top()
	unconstrainedTop, _ := unconstrained.Top()

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

// AddNode implements Manager. Non-adaptive mode inserts one entry under
// the vector's single resource; adaptive mode inserts up to one entry
// per resource, choosing for each the implementation heaviest in it.
func (m *MultiResourceExclusive) AddNode(gain int, node *hypergraph.Node, inPartA bool, _ []int) error {
	entry := NewEntry(gain, node)
	if m.adaptive {
		type candidate struct {
			wvIndex int
			weight  int
		}
		best := make([]candidate, m.numResources)
		for i := range best {
			best[i].wvIndex = -1
		}
		for wvIdx, wv := range node.WeightVectors() {
			for res, w := range wv {
				if w == 0 {
					continue
				}
				if best[res].wvIndex < 0 || w > best[res].weight {
					best[res] = candidate{wvIndex: wvIdx, weight: w}
				}
				break
			}
		}
		for _, c := range best {
			if c.wvIndex < 0 {
				continue
			}
			entry.SetWeightVectorIndex(c.wvIndex)
			if err := m.addEntry(entry, inPartA); err != nil {
				return err
			}
		}
	} else {
		if err := m.addEntry(entry, inPartA); err != nil {
			return err
		}
	}
	m.numNodes++
	return nil
}

// addEntry places an entry into the bucket of its vector's single
// non-zero resource, enforcing the exclusivity requirement.
func (m *MultiResourceExclusive) addEntry(entry Entry, inPartA bool) error {
	res := -1
	for i, w := range entry.CurrentWeightVector() {
		if w == 0 {
			continue
		}
		if res >= 0 {
			return fmt.Errorf("%w: node %d", ErrMixedWeightVector, entry.ID)
		}
		res = i
	}
	if res < 0 {
		return fmt.Errorf("%w: node %d", ErrEmptyWeightVector, entry.ID)
	}
	if inPartA {
		m.bucketsA[res].Add(entry)
	} else {
		m.bucketsB[res].Add(entry)
	}
	m.nodeResources[entry.ID] = append(m.nodeResources[entry.ID], res)
	return nil
}

// removeNode purges every entry of the node from every bucket. Safe to
// call for nodes with no live entries.
func (m *MultiResourceExclusive) removeNode(nodeID int) {
	if _, ok := m.nodeResources[nodeID]; !ok {
		return
	}
	delete(m.nodeResources, nodeID)
	for _, b := range m.bucketsA {
		if b.Has(nodeID) {
			_, _ = b.RemoveByID(nodeID)
		}
	}
	for _, b := range m.bucketsB {
		if b.Has(nodeID) {
			_, _ = b.RemoveByID(nodeID)
		}
	}
	m.numNodes--
}

// UpdateGains implements Manager, fanning each ID out to the buckets of
// the resources it is filed under.
func (m *MultiResourceExclusive) UpdateGains(delta int, incIDs, decIDs []int, movedFromA bool) {
	inc := make([][]int, m.numResources)
	dec := make([][]int, m.numResources)
	for _, id := range incIDs {
		for _, res := range m.nodeResources[id] {
			inc[res] = append(inc[res], id)
		}
	}
	for _, id := range decIDs {
		for _, res := range m.nodeResources[id] {
			dec[res] = append(dec[res], id)
		}
	}
	for res := 0; res < m.numResources; res++ {
		if len(inc[res]) != 0 {
			if movedFromA {
				m.bucketsA[res].UpdateGains(delta, inc[res])
			} else {
				m.bucketsB[res].UpdateGains(delta, inc[res])
			}
		}
		if len(dec[res]) != 0 {
			if movedFromA {
				m.bucketsB[res].UpdateGains(-delta, dec[res])
			} else {
				m.bucketsA[res].UpdateGains(-delta, dec[res])
			}
		}
	}
}

// UpdateNodeImplementation implements Manager. Adaptive mode already
// holds one entry per resource and needs no change; non-adaptive mode
// re-files the node under its newly selected vector's resource.
func (m *MultiResourceExclusive) UpdateNodeImplementation(node *hypergraph.Node) {
	if m.adaptive {
		return
	}
	resources, ok := m.nodeResources[node.ID]
	if !ok || len(resources) == 0 {
		return
	}
	res := resources[0]
	var from *Bucket
	var inPartA bool
	if m.bucketsA[res].Has(node.ID) {
		from, inPartA = m.bucketsA[res], true
	} else if m.bucketsB[res].Has(node.ID) {
		from, inPartA = m.bucketsB[res], false
	} else {
		return
	}
	old, _ := from.RemoveByID(node.ID)
	delete(m.nodeResources, node.ID)
	m.numNodes--
	_ = m.AddNode(old.Gain, node, inPartA, nil)
}

// Empty implements Manager.
func (m *MultiResourceExclusive) Empty() bool { return m.numNodes == 0 }

// NumUnlockedNodes implements Manager.
func (m *MultiResourceExclusive) NumUnlockedNodes() int { return m.numNodes }

// SetSelectionPolicy implements Manager.
func (m *MultiResourceExclusive) SetSelectionPolicy(p SelectionPolicy) error {
	switch p {
	case PolicyRandomResource, PolicyLargestResourceImbalance,
		PolicyLargestUnconstrainedGain, PolicyLargestGain:
		m.policy = p
		return nil
	default:
		return fmt.Errorf("%w: %s for multi-resource-exclusive", ErrUnsupportedPolicy, p)
	}
}
