package klfm

import (
	"github.com/katalvlaran/hyperpart/gainbucket"
)

// passBest snapshots the best state seen during a pass: cost and
// balance only. The partition itself is recovered by rolling the moves
// made after the snapshot back, which is O(moves) instead of a full
// copy per improvement.
type passBest struct {
	cost    int
	balance []int
	power   float64
}

// runPassLoop repeats passes on part until a pass yields no improvement
// or the cap is hit. Returns the number of passes taken.
func (e *Engine) runPassLoop(part *partition, cost *int, balance *[]int,
	maxPasses int, capped bool) (int, error) {

	passes := 0
	for passes < maxPasses || !capped {
		if e.opts.RebalanceOnStartOfPass {
			e.rebalanceImplementations(part, *balance, false, e.opts.UseRatioInImbalanceScore)
			e.rebalanceImplementations(part, *balance, true, e.opts.UseRatioInImbalanceScore)
		}
		changed, err := e.executePass(part, cost, balance)
		if err != nil {
			return passes, err
		}
		passes++
		e.log.Debug().Int("pass", passes).Int("cost", *cost).Msg("pass complete")
		if !changed {
			break
		}
	}
	return passes, nil
}

// executePass runs one full KLFM pass: unlock everything, seed the gain
// buckets, move every node exactly once in manager order, then roll
// back to the best balanced state seen. Reports whether the pass
// improved on (changed) its starting partition.
func (e *Engine) executePass(part *partition, cost *int, balance *[]int) (bool, error) {
	bal := *balance

	best := passBest{
		cost:    *cost,
		balance: append([]int(nil), bal...),
		power:   e.partitionQualityPower(bal),
	}
	preBestCost := best.cost

	e.rebalancesThisPass = 0
	e.rebalanceUsedThisPass = false

	if err := e.resetPassState(part); err != nil {
		return false, err
	}

	// Node IDs moved after the best snapshot, in move order. Rolling them
	// back restores the snapshot partition exactly.
	var movesSinceBest []int
	moveCount, bestAtMove := 0, 0

	for !e.manager.Empty() {
		moveCount++
		if err := e.makeMove(part, cost, bal, &best, &movesSinceBest, moveCount, &bestAtMove); err != nil {
			return false, err
		}
	}

	// The pass is a no-op when cost did not improve and either nothing
	// moved since the best state or everything did (the latter means the
	// "best" was the pre-pass partition itself).
	total := len(part.a) + len(part.b)
	changed := !(preBestCost == best.cost &&
		(len(movesSinceBest) == 0 || len(movesSinceBest) == total))

	e.rollBackToBest(part, cost, &bal, movesSinceBest, best)
	*balance = bal
	return changed, nil
}

// resetPassState unlocks every node, rebuilds the per-edge KLFM state
// from the current partition, and seeds the gain buckets with every
// node's initial gain.
func (e *Engine) resetPassState(part *partition) error {
	for _, n := range e.nodes {
		n.Locked = false
	}
	e.edgeStates = make(map[int]*edgeState, len(e.edges))
	for id, edge := range e.edges {
		st := &edgeState{edge: edge}
		st.reset(part.a, part.b)
		e.edgeStates[id] = st
	}
	for _, id := range e.sortedNodeIDs() {
		inA := part.inA(id)
		gain := e.computeNodeGain(id, inA)
		if err := e.manager.AddNode(gain, e.nodes[id], inA, e.totalWeight); err != nil {
			return err
		}
	}
	return nil
}

// computeNodeGain returns the node's initial gain: the sum over its
// edges of +weight where the node is alone on its side (moving it
// uncuts the edge) and -weight where the other side is empty (moving it
// cuts the edge). Locked nodes have zero gain.
func (e *Engine) computeNodeGain(nodeID int, inA bool) int {
	gain := 0
	for _, eid := range e.nodes[nodeID].EdgeIDs() {
		st := e.edgeStates[eid]
		myUnlocked, myLocked := st.aUnlocked, st.aLocked
		otherUnlocked, otherLocked := st.bUnlocked, st.bLocked
		if !inA {
			myUnlocked, myLocked = st.bUnlocked, st.bLocked
			otherUnlocked, otherLocked = st.aUnlocked, st.aLocked
		}
		if inGroup(myLocked, nodeID) {
			return 0
		}
		if len(myUnlocked) == 1 && len(myLocked) == 0 {
			gain += e.edgeWeight(st.edge)
		} else if len(otherUnlocked) == 0 && len(otherLocked) == 0 {
			gain -= e.edgeWeight(st.edge)
		}
	}
	return gain
}

// partitionQualityPower is the tiebreak score for equal-cost states:
// imbalance power, plus ratio deviation when configured.
func (e *Engine) partitionQualityPower(balance []int) float64 {
	power := gainbucket.ImbalancePower(balance, e.maxImbalance)
	if e.opts.UseRatioInPartitionQuality {
		power += gainbucket.RatioPower(e.opts.ResourceRatioWeights, e.totalWeight)
	}
	return power
}

// makeMove performs one KLFM move: pop the manager's pick, apply its
// implementation choice, flip the node's side, update edge state and
// neighbour gains, track cost, optionally rebalance on demand, and
// refresh the best snapshot.
func (e *Engine) makeMove(part *partition, cost *int, bal []int, best *passBest,
	movesSinceBest *[]int, moveCount int, bestAtMove *int) error {

	entry, err := e.manager.NextEntry(bal, e.totalWeight)
	if err != nil {
		return err
	}
	nodeID := entry.ID
	fromA := part.inA(nodeID)
	node := e.nodes[nodeID]

	// The manager may have picked a different implementation than the
	// node currently carries, and rebalancing or mutation may have
	// changed the node since the entry was filed; apply the entry's
	// choice unconditionally, with rollback support.
	prevWV := node.SelectedWeightVector()
	if err := node.SetSelectedWeightVectorWithRollback(entry.WeightVectorIndex()); err != nil {
		return err
	}
	newWV := node.SelectedWeightVector()
	e.updateTotalWeightsForImplementationChange(prevWV, newWV)

	// Flip the node's side. The old implementation leaves one side and
	// the new one enters the other, so the balance shifts by the sum of
	// both vectors.
	if fromA {
		delete(part.a, nodeID)
		part.b[nodeID] = struct{}{}
		for i := range bal {
			bal[i] -= newWV[i] + prevWV[i]
		}
	} else {
		delete(part.b, nodeID)
		part.a[nodeID] = struct{}{}
		for i := range bal {
			bal[i] += newWV[i] + prevWV[i]
		}
	}
	node.Locked = true

	for _, eid := range node.EdgeIDs() {
		st := e.edgeStates[eid]
		inc, dec := st.moveNode(nodeID)
		if len(inc) != 0 || len(dec) != 0 {
			e.manager.UpdateGains(e.edgeWeight(st.edge), inc, dec, fromA)
		}
	}

	*cost -= entry.Gain

	e.balanceExceeded = e.exceedsMaxImbalance(bal)
	if e.opts.RebalanceOnDemand && e.balanceExceeded &&
		e.rebalancesThisRun < e.opts.RebalanceOnDemandCapPerRun &&
		e.rebalancesThisPass < e.opts.RebalanceOnDemandCapPerPass {
		e.rebalanceImplementations(part, bal, true, e.opts.UseRatioInImbalanceScore)
		e.rebalancesThisRun++
		e.rebalancesThisPass++
		e.rebalanceUsedThisPass = true
		e.balanceExceeded = e.exceedsMaxImbalance(bal)
	}

	power := e.partitionQualityPower(bal)
	if !e.balanceExceeded &&
		(*cost < best.cost || (*cost == best.cost && power < best.power)) {
		best.cost = *cost
		best.balance = append(best.balance[:0], bal...)
		best.power = power
		*bestAtMove = moveCount
		*movesSinceBest = (*movesSinceBest)[:0]
	} else {
		*movesSinceBest = append(*movesSinceBest, nodeID)
	}
	return nil
}

// rollBackToBest reverts every move made after the best snapshot, in
// order: partition membership flips back and the implementation change
// of each move is undone. Cost is restored from the snapshot.
//
// The snapshot balance is only trustworthy if no on-demand rebalance
// ran during the pass; a rebalance rewrites selections on nodes that
// were never moved, which the snapshot cannot account for. In that case
// balance and cached totals are recomputed from the graph.
func (e *Engine) rollBackToBest(part *partition, cost *int, bal *[]int,
	movesSinceBest []int, best passBest) {

	for _, id := range movesSinceBest {
		if part.inA(id) {
			delete(part.a, id)
			part.b[id] = struct{}{}
		} else {
			delete(part.b, id)
			part.a[id] = struct{}{}
		}
		node := e.nodes[id]
		current := node.SelectedWeightVector()
		node.RevertSelectedWeightVector()
		e.updateTotalWeightsForImplementationChange(current, node.SelectedWeightVector())
	}
	*cost = best.cost
	if e.rebalanceUsedThisPass {
		e.recomputeTotalWeightAndMaxImbalance()
		*bal = e.recomputeBalance(part)
	} else {
		*bal = append([]int(nil), best.balance...)
	}
}
