package gainbucket

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/hyperpart/hypergraph"
)

// MultiResourceMixed manages nodes whose implementations may span
// several resources. It keeps one master bucket per partition side with
// exactly one entry per node, plus one affinity bucket pair per
// resource holding the node under its dominant resource (in adaptive
// mode, up to one entry per resource, each carrying the implementation
// heaviest in it).
//
// Selection scores candidates by imbalance power minus gain; lower is
// better, so a fitting move beats a violating one and gain breaks ties.
type MultiResourceMixed struct {
	numResources int
	fractions    []float64
	policy       SelectionPolicy
	adaptive     bool
	useRatio     bool
	ratioWeights []int

	// searchDepth bounds how many entries per affinity bucket the
	// affinity-scored policies inspect.
	searchDepth int

	bucketsA []*Bucket
	bucketsB []*Bucket
	masterA  *Bucket
	masterB  *Bucket

	// nodeResources records the affinity buckets each node is filed in.
	nodeResources map[int][]int

	rng *rand.Rand
}

// NewMultiResourceMixed returns a mixed manager for
// len(maxImbalanceFractions) resources. useRatio adds ratio deviation
// to adaptive selection scores against ratioWeights.
func NewMultiResourceMixed(maxImbalanceFractions []float64, policy SelectionPolicy,
	adaptive, useRatio bool, ratioWeights []int, seed int64) *MultiResourceMixed {

	m := &MultiResourceMixed{
		numResources:  len(maxImbalanceFractions),
		fractions:     maxImbalanceFractions,
		policy:        policy,
		adaptive:      adaptive,
		useRatio:      useRatio,
		ratioWeights:  ratioWeights,
		searchDepth:   defaultBucketSearchDepth,
		masterA:       NewBucket(),
		masterB:       NewBucket(),
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
func (m *MultiResourceMixed) NextEntry(balance, totalWeight []int) (Entry, error) {
	if m.Empty() {
		return Entry{}, ErrEmptyBucket
	}
	var entry Entry
	var err error
	switch m.policy {
	case PolicyRandomResource:
		entry, err = m.nextRandomResource(balance, totalWeight)
	case PolicyMostUnbalancedResource:
		entry, err = m.nextMostUnbalancedResource(balance, totalWeight)
	case PolicyBestGainImbalanceScoreClassic:
		entry, err = m.nextBestScoreClassic(balance, totalWeight)
	case PolicyBestGainImbalanceScoreWithAffinities:
		entry, err = m.nextBestScoreWithAffinities(balance, totalWeight)
	default:
		return Entry{}, fmt.Errorf("%w: %s for multi-resource-mixed", ErrUnsupportedPolicy, m.policy)
	}
	if err != nil {
		return Entry{}, err
	}
	m.removeNode(entry.ID)
	return entry, nil
}

// nextRandomResource picks a uniformly random non-exhausted affinity
// pair and selects within it by imbalance power.
func (m *MultiResourceMixed) nextRandomResource(balance, totalWeight []int) (Entry, error) {
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
	return m.selectBetweenBucketsByImbalancePower(
		m.bucketsA[res], m.bucketsB[res], balance, totalWeight, m.searchDepth)
}

// nextMostUnbalancedResource picks the affinity pair of the resource
// with the largest fractional imbalance.
func (m *MultiResourceMixed) nextMostUnbalancedResource(balance, totalWeight []int) (Entry, error) {
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
	return m.selectBetweenBucketsByImbalancePower(
		m.bucketsA[res], m.bucketsB[res], balance, totalWeight, m.searchDepth)
}

// nextBestScoreClassic inspects only the two master tops. In adaptive
// mode each top's implementation is first re-selected to minimise
// imbalance power; the side with the smaller score wins, ties going to
// the fuller master bucket.
func (m *MultiResourceMixed) nextBestScoreClassic(balance, totalWeight []int) (Entry, error) {
	var entryA, entryB Entry
	powerA, powerB := math.MaxFloat64, math.MaxFloat64
	if !m.masterA.Empty() {
		top, _ := m.masterA.Top()
		entryA = *top
		if m.adaptive {
			powerA = m.setBestWeightVectorByImbalancePower(&entryA, balance, totalWeight, true, false)
		} else {
			// The violator variant makes a stuck partition pay for moves
			// that keep it in violation.
			powerA = m.imbalancePowerIfMoved(entryA.CurrentWeightVector(), balance, totalWeight, true, true)
		}
	}
	if !m.masterB.Empty() {
		top, _ := m.masterB.Top()
		entryB = *top
		if m.adaptive {
			powerB = m.setBestWeightVectorByImbalancePower(&entryB, balance, totalWeight, false, false)
		} else {
			powerB = m.imbalancePowerIfMoved(entryB.CurrentWeightVector(), balance, totalWeight, false, true)
		}
	}

	var useA bool
	switch {
	case m.masterA.Empty():
		useA = false
	case m.masterB.Empty():
		useA = true
	default:
		scoreA := gainImbalanceScore(entryA.Gain, powerA)
		scoreB := gainImbalanceScore(entryB.Gain, powerB)
		if scoreA == scoreB {
			useA = m.masterA.Len() > m.masterB.Len()
		} else {
			useA = scoreA < scoreB
		}
	}
	if useA {
		return entryA, nil
	}
	return entryB, nil
}

// nextBestScoreWithAffinities scores up to searchDepth entries per
// affinity bucket on both sides, picks the minimum score, and touches
// the unchosen candidates to restore their selection order.
func (m *MultiResourceMixed) nextBestScoreWithAffinities(balance, totalWeight []int) (Entry, error) {
	type candidate struct {
		fromPartA bool
		res       int
		entry     *Entry
		score     float64
	}
	var candidates []candidate
	appendSide := func(bucket *Bucket, res int, fromPartA bool) {
		for depth := 0; depth < m.searchDepth; depth++ {
			e := bucket.Peek(depth)
			if e == nil {
				break
			}
			power := m.imbalancePowerIfMoved(e.CurrentWeightVector(), balance, totalWeight, fromPartA, false)
			if m.useRatio && m.adaptive {
				power += m.ratioPowerIfChangedByEntry(e, totalWeight)
			}
			candidates = append(candidates, candidate{
				fromPartA: fromPartA,
				res:       res,
				entry:     e,
				score:     gainImbalanceScore(e.Gain, power),
			})
		}
	}
	for res := 0; res < m.numResources; res++ {
		appendSide(m.bucketsA[res], res, true)
		appendSide(m.bucketsB[res], res, false)
	}
	if len(candidates) == 0 {
		return Entry{}, ErrEmptyBucket
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		// Gain is part of the score already, but a perfectly balanced
		// partition scores every candidate zero; break those ties by gain.
		if candidates[i].score < candidates[best].score ||
			(candidates[i].score == candidates[best].score &&
				candidates[i].entry.Gain > candidates[best].entry.Gain) {
			best = i
		}
	}
	selected := *candidates[best].entry

	for i, c := range candidates {
		affinity := m.bucketsA
		if !c.fromPartA {
			affinity = m.bucketsB
		}
		if i == best {
			_, _ = affinity[c.res].RemoveByID(c.entry.ID)
		} else {
			affinity[c.res].Touch(c.entry.ID)
		}
	}
	return selected, nil
}

// selectBetweenBucketsByImbalancePower pops up to searchDepth entries
// from each side, scores the hypothetical move of each by violator
// imbalance power, keeps the best-scoring candidate per side (first
// wins ties, preserving gain order), and chooses between the sides by
// lower power, then higher gain. Unchosen entries return to their
// buckets.
func (m *MultiResourceMixed) selectBetweenBucketsByImbalancePower(bucketA, bucketB *Bucket,
	balance, totalWeight []int, searchDepth int) (Entry, error) {

	if bucketA.Empty() && bucketB.Empty() {
		return Entry{}, ErrEmptyBucket
	}
	if bucketA.Empty() {
		return bucketB.Pop()
	}
	if bucketB.Empty() {
		return bucketA.Pop()
	}

	type scored struct {
		power float64
		entry Entry
	}
	drain := func(bucket *Bucket, fromPartA bool) []scored {
		var out []scored
		for i := 0; i < searchDepth; i++ {
			e, err := bucket.Pop()
			if err != nil {
				break
			}
			power := m.imbalancePowerIfMoved(e.CurrentWeightVector(), balance, totalWeight, fromPartA, true)
			if m.useRatio && m.adaptive {
				power += m.ratioPowerIfChangedByEntry(&e, totalWeight)
			}
			out = append(out, scored{power: power, entry: e})
			// A zero violator power means the move fits; deeper entries
			// only have lower gain.
			if power == 0 {
				break
			}
		}
		return out
	}
	entriesA := drain(bucketA, true)
	entriesB := drain(bucketB, false)

	bestOf := func(entries []scored) int {
		best := 0
		for i := 1; i < len(entries); i++ {
			// Strict less-than keeps the earliest (highest-gain) entry on
			// ties.
			if entries[i].power < entries[best].power {
				best = i
			}
		}
		return best
	}
	bestA := bestOf(entriesA)
	bestB := bestOf(entriesB)

	var useA bool
	if entriesA[bestA].power == entriesB[bestB].power {
		useA = entriesA[bestA].entry.Gain > entriesB[bestB].entry.Gain
	} else {
		useA = entriesA[bestA].power < entriesB[bestB].power
	}

	var selected Entry
	for i, s := range entriesA {
		if useA && i == bestA {
			selected = s.entry
		} else {
			bucketA.Add(s.entry)
		}
	}
	for i, s := range entriesB {
		if !useA && i == bestB {
			selected = s.entry
		} else {
			bucketB.Add(s.entry)
		}
	}
	return selected, nil
}

// imbalancePowerIfMoved computes the imbalance power of the balance
// vector after hypothetically moving a node with the given weight
// across the partition. The violator variant returns zero unless the
// move would leave some resource in violation.
func (m *MultiResourceMixed) imbalancePowerIfMoved(nodeWeight, balance, totalWeight []int,
	fromPartA, useViolator bool) float64 {

	adjBalance := make([]int, len(nodeWeight))
	for i, w := range nodeWeight {
		change := 2 * w
		if fromPartA {
			adjBalance[i] = balance[i] - change
		} else {
			adjBalance[i] = balance[i] + change
		}
	}
	if useViolator {
		maxImb := MaxImbalance(m.fractions, totalWeight)
		for i, b := range adjBalance {
			if abs(b) > maxImb[i] {
				return ImbalancePower(adjBalance, maxImb)
			}
		}
		return 0
	}
	return ImbalancePower(adjBalance, MaxImbalance(m.fractions, totalWeight))
}

// ratioPowerIfChangedByEntry scores the total-weight shift of adopting
// the entry's implementation instead of the one recorded in the node's
// master entry.
func (m *MultiResourceMixed) ratioPowerIfChangedByEntry(entry *Entry, totalWeight []int) float64 {
	master := m.masterA.EntryByID(entry.ID)
	if master == nil {
		master = m.masterB.EntryByID(entry.ID)
	}
	if master == nil {
		return 0
	}
	return RatioPowerIfChanged(master.CurrentWeightVector(), entry.CurrentWeightVector(),
		m.ratioWeights, totalWeight)
}

// setBestWeightVectorByImbalancePower re-selects the entry's
// implementation to the one minimising post-move imbalance power (plus
// ratio deviation when enabled) and returns that power.
func (m *MultiResourceMixed) setBestWeightVectorByImbalancePower(entry *Entry,
	balance, totalWeight []int, fromPartA, useViolator bool) float64 {

	current := entry.CurrentWeightVector()
	bestIdx := -1
	bestPower := math.MaxFloat64
	for i, wv := range entry.WeightVectors() {
		power := m.imbalancePowerIfMoved(wv, balance, totalWeight, fromPartA, useViolator)
		if m.useRatio {
			power += RatioPowerIfChanged(current, wv, m.ratioWeights, totalWeight)
		}
		if power < bestPower {
			bestPower = power
			bestIdx = i
		}
	}
	entry.SetWeightVectorIndex(bestIdx)
	return bestPower
}

// gainImbalanceScore folds gain into an imbalance power; lower is
// better.
func gainImbalanceScore(gain int, imbalancePower float64) float64 {
	return imbalancePower - float64(gain)
}

// removeNode purges the node's master entry and all affinity entries.
func (m *MultiResourceMixed) removeNode(nodeID int) {
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
	if m.masterA.Has(nodeID) {
		_, _ = m.masterA.RemoveByID(nodeID)
	} else if m.masterB.Has(nodeID) {
		_, _ = m.masterB.RemoveByID(nodeID)
	}
}

// AddNode implements Manager: one master entry per node, plus affinity
// entries (one in non-adaptive mode, up to one per resource in adaptive
// mode, each carrying the implementation heaviest in its resource).
func (m *MultiResourceMixed) AddNode(gain int, node *hypergraph.Node, inPartA bool, totalWeight []int) error {
	entry := NewEntry(gain, node)
	if inPartA {
		m.masterA.Add(entry)
	} else {
		m.masterB.Add(entry)
	}
	maxImb := MaxImbalance(m.fractions, totalWeight)
	if m.adaptive {
		resToWV := make([]int, m.numResources)
		for i := range resToWV {
			resToWV[i] = -1
		}
		for wvIdx, wv := range node.WeightVectors() {
			affinity := ResourceAffinity(wv, maxImb)
			prev := resToWV[affinity]
			if prev < 0 || wv[affinity] > node.WeightVector(prev)[affinity] {
				resToWV[affinity] = wvIdx
			}
		}
		for res, wvIdx := range resToWV {
			if wvIdx < 0 {
				continue
			}
			entry.SetWeightVectorIndex(wvIdx)
			m.addAffinityEntry(entry, res, inPartA)
		}
	} else {
		affinity := ResourceAffinity(entry.CurrentWeightVector(), maxImb)
		m.addAffinityEntry(entry, affinity, inPartA)
	}
	return nil
}

// addAffinityEntry files an entry under one resource's affinity bucket.
func (m *MultiResourceMixed) addAffinityEntry(entry Entry, res int, inPartA bool) {
	if inPartA {
		m.bucketsA[res].Add(entry)
	} else {
		m.bucketsB[res].Add(entry)
	}
	m.nodeResources[entry.ID] = append(m.nodeResources[entry.ID], res)
}

// UpdateGains implements Manager, updating the affinity buckets the IDs
// are filed under and both master buckets.
func (m *MultiResourceMixed) UpdateGains(delta int, incIDs, decIDs []int, movedFromA bool) {
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
	if movedFromA {
		m.masterA.UpdateGains(delta, incIDs)
		m.masterB.UpdateGains(-delta, decIDs)
	} else {
		m.masterB.UpdateGains(delta, incIDs)
		m.masterA.UpdateGains(-delta, decIDs)
	}
}

// UpdateNodeImplementation implements Manager by rewriting the stored
// index in the node's master entry. Affinity entries are left alone:
// the operations that change implementations also change total weight,
// which determines affinity, so re-filing would chase a moving target.
func (m *MultiResourceMixed) UpdateNodeImplementation(node *hypergraph.Node) {
	if _, ok := m.nodeResources[node.ID]; !ok {
		return
	}
	if e := m.masterA.EntryByID(node.ID); e != nil {
		e.SetWeightVectorIndex(node.SelectedIndex())
		return
	}
	if e := m.masterB.EntryByID(node.ID); e != nil {
		e.SetWeightVectorIndex(node.SelectedIndex())
	}
}

// Empty implements Manager.
func (m *MultiResourceMixed) Empty() bool { return m.NumUnlockedNodes() == 0 }

// NumUnlockedNodes implements Manager.
func (m *MultiResourceMixed) NumUnlockedNodes() int {
	return m.masterA.Len() + m.masterB.Len()
}

// SetSelectionPolicy implements Manager.
func (m *MultiResourceMixed) SetSelectionPolicy(p SelectionPolicy) error {
	switch p {
	case PolicyRandomResource, PolicyMostUnbalancedResource,
		PolicyBestGainImbalanceScoreClassic, PolicyBestGainImbalanceScoreWithAffinities:
		m.policy = p
		return nil
	default:
		return fmt.Errorf("%w: %s for multi-resource-mixed", ErrUnsupportedPolicy, p)
	}
}
