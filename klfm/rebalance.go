package klfm

import (
	"sort"

	"github.com/katalvlaran/hyperpart/gainbucket"
	"github.com/katalvlaran/hyperpart/hypergraph"
)

// rebalanceImplementations sweeps the nodes several times in a shuffled
// order, switching each multi-implementation node to the implementation
// that minimises near-violation imbalance power and/or ratio deviation.
// A switch that would introduce a violation where there was none is
// undone on the spot; balance and cached totals are updated in place
// and the gain bucket manager is told about every change it keeps.
//
// Nodes with a single implementation are never changed. Safe to call
// between passes and, capped, during one; it ignores lock state.
func (e *Engine) rebalanceImplementations(part *partition, balance []int,
	useImbalance, useRatio bool) {

	if !useImbalance && !useRatio {
		return
	}
	ids := make([]int, 0, len(part.a)+len(part.b))
	for id := range part.a {
		ids = append(ids, id)
	}
	for id := range part.b {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	e.rngRebalance.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	prevExceeds := e.exceedsMaxImbalance(balance)
	for pass := 0; pass < rebalancePasses; pass++ {
		for _, id := range ids {
			node := e.nodes[id]
			if node.NumWeightVectors() < 2 {
				continue
			}
			inA := part.inA(id)
			prevIdx := node.SelectedIndex()
			prevWV := node.SelectedWeightVector()

			if !e.setWeightVectorToMinimizeImbalance(node, balance, inA, useImbalance, useRatio) {
				continue
			}
			newWV := node.SelectedWeightVector()
			e.updateTotalWeightsForImplementationChange(prevWV, newWV)

			newExceeds := e.exceedsMaxImbalance(balance)
			if newExceeds && !prevExceeds {
				// The switch introduced a violation; take it back.
				_ = node.SetSelectedWeightVector(prevIdx)
				e.updateTotalWeightsForImplementationChange(newWV, prevWV)
				for i := range balance {
					if inA {
						balance[i] += prevWV[i] - newWV[i]
					} else {
						balance[i] -= prevWV[i] - newWV[i]
					}
				}
				newExceeds = e.exceedsMaxImbalance(balance)
			} else {
				e.manager.UpdateNodeImplementation(node)
			}
			prevExceeds = newExceeds
		}
	}
}

// setWeightVectorToMinimizeImbalance scores every implementation of
// node by the balance it would produce and adopts the best one,
// mutating balance accordingly. Reports whether the selection changed.
func (e *Engine) setWeightVectorToMinimizeImbalance(node *hypergraph.Node,
	balance []int, inA, useImbalance, useRatio bool) bool {

	selected := node.SelectedWeightVector()
	bestIdx := -1
	bestScore := 0.0
	var bestBalance []int

	candidate := make([]int, e.numResources)
	for i := 0; i < node.NumWeightVectors(); i++ {
		wv := node.WeightVector(i)
		for r := range candidate {
			delta := wv[r] - selected[r]
			if inA {
				candidate[r] = balance[r] + delta
			} else {
				candidate[r] = balance[r] - delta
			}
		}
		score := 0.0
		if useImbalance {
			score += gainbucket.NearViolatorImbalancePower(candidate, e.maxImbalance)
		}
		if useRatio {
			score += gainbucket.RatioPowerIfChanged(selected, wv,
				e.opts.ResourceRatioWeights, e.totalWeight)
		}
		if bestIdx < 0 || score < bestScore {
			bestIdx = i
			bestScore = score
			bestBalance = append(bestBalance[:0], candidate...)
		}
	}
	if bestIdx == node.SelectedIndex() {
		return false
	}
	_ = node.SetSelectedWeightVector(bestIdx)
	copy(balance, bestBalance)
	return true
}

// mutateImplementations randomly re-selects implementations: each
// multi-implementation node has rate/100 probability of jumping to a
// uniformly random implementation. Balance and totals are not updated
// here; callers recompute them.
func (e *Engine) mutateImplementations(rate int) {
	for _, id := range e.sortedNodeIDs() {
		node := e.nodes[id]
		numImpls := node.NumWeightVectors()
		if numImpls < 2 {
			continue
		}
		if e.rngMutate.Intn(100) < rate {
			_ = node.SetSelectedWeightVector(e.rngMutate.Intn(numImpls))
		}
	}
}
