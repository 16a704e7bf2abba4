package klfm

import "fmt"

// generateInitialPartition fills part according to the configured seed
// mode and computes the starting cost and balance. If the result
// violates the balance limits, one implementation rebalance is
// attempted; a partition still in violation is reported and accepted,
// since the pass loop only snapshots balanced states.
func (e *Engine) generateInitialPartition(part *partition, cost *int, balance *[]int) error {
	clear(part.a)
	clear(part.b)
	switch e.opts.SeedMode {
	case SeedRandom:
		e.generateInitialPartitionRandom(part)
	case SeedUserSpecified:
		if err := e.applyUserPartition(part); err != nil {
			return err
		}
	}
	*balance = e.recomputeBalance(part)
	*cost = e.recomputeCost(part)

	if e.exceedsMaxImbalance(*balance) {
		e.log.Info().Msg("initial partition out of balance, attempting rebalance")
		e.rebalanceImplementations(part, *balance, true, false)
		if e.exceedsMaxImbalance(*balance) {
			e.log.Warn().Msg("initial partition still exceeds the imbalance limit")
		}
	}
	return nil
}

// generateInitialPartitionRandom shuffles the nodes and assigns each to
// the side that reduces the currently worst fractional imbalance among
// the resources the node actually uses.
func (e *Engine) generateInitialPartitionRandom(part *partition) {
	ids := e.sortedNodeIDs()
	e.rngInitial.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	balance := make([]int, e.numResources)
	for _, id := range ids {
		wv := e.nodes[id].SelectedWeightVector()

		// Pick the most fractionally unbalanced resource the node has
		// weight in, and place the node on the lighter side of it.
		chosen, worstFrac := 0, -1.0
		for r := 0; r < e.numResources; r++ {
			if wv[r] == 0 {
				continue
			}
			bal := balance[r]
			if bal < 0 {
				bal = -bal
			}
			frac := float64(bal) / float64(e.maxImbalance[r])
			if frac >= worstFrac {
				worstFrac = frac
				chosen = r
			}
		}
		if balance[chosen] >= 0 {
			part.b[id] = struct{}{}
			for i, w := range wv {
				balance[i] -= w
			}
		} else {
			part.a[id] = struct{}{}
			for i, w := range wv {
				balance[i] += w
			}
		}
	}
}

// applyUserPartition copies the configured initial sets, verifying they
// exactly cover the working graph. With multi-level enabled the working
// graph holds supernodes whose IDs the caller cannot know, so the
// user-specified mode requires Multilevel to be off.
func (e *Engine) applyUserPartition(part *partition) error {
	for _, id := range e.opts.InitialANodes {
		if _, ok := e.nodes[id]; !ok {
			return fmt.Errorf("%w: node %d not in working graph", ErrBadInitialSets, id)
		}
		part.a[id] = struct{}{}
	}
	for _, id := range e.opts.InitialBNodes {
		if _, ok := e.nodes[id]; !ok {
			return fmt.Errorf("%w: node %d not in working graph", ErrBadInitialSets, id)
		}
		if _, dup := part.a[id]; dup {
			return fmt.Errorf("%w: node %d in both sides", ErrBadInitialSets, id)
		}
		part.b[id] = struct{}{}
	}
	if len(part.a)+len(part.b) != len(e.nodes) {
		return fmt.Errorf("%w: %d nodes assigned, graph has %d",
			ErrBadInitialSets, len(part.a)+len(part.b), len(e.nodes))
	}
	return nil
}
