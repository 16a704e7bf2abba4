package klfm

import "math"

// buildRunSummaries produces the run's summaries: the plain result
// always; a violator-fix variant when the run ended out of balance (all
// resources constrained, balance-only rebalance); and a ratio-only
// variant that rebalances toward the target resource ratios, mutating
// first if some resource's total has collapsed to zero (a resource with
// no weight anywhere can never be reintroduced by rebalancing alone).
// The ratio-only variant is dropped if it cannot stay within balance.
func (e *Engine) buildRunSummaries(part *partition, cost int, balance []int,
	numPasses int) []PartitionSummary {

	var summaries []PartitionSummary
	for variant := 0; variant < 3; variant++ {
		switch variant {
		case 1:
			if !e.exceedsMaxImbalance(balance) {
				continue
			}
			e.log.Info().Msg("attempting to rebalance violating partition")
			for i := range e.constrain {
				e.constrain[i] = true
			}
			e.recomputeTotalWeightAndMaxImbalance()
			e.rebalanceImplementations(part, balance, true, false)
		case 2:
			needMutate := false
			for _, tw := range e.totalWeight {
				if tw == 0 {
					needMutate = true
					break
				}
			}
			if needMutate {
				e.log.Info().Msg("mutating implementations to revive empty resources")
				e.mutateImplementations(100)
				e.recomputeTotalWeightAndMaxImbalance()
				copy(balance, e.recomputeBalance(part))
			}
			if e.exceedsMaxImbalance(balance) {
				e.rebalanceImplementations(part, balance, true, true)
			} else {
				e.rebalanceImplementations(part, balance, false, true)
			}
			if e.exceedsMaxImbalance(balance) {
				e.log.Info().Msg("ratio-only rebalance could not keep balance, dropping variant")
				continue
			}
		}
		summaries = append(summaries, e.buildSummary(part, cost, balance, numPasses))
	}
	return summaries
}

// buildSummary assembles one PartitionSummary from the current engine
// state. Resources with zero total weight contribute zero fractions
// throughout.
func (e *Engine) buildSummary(part *partition, cost int, balance []int,
	numPasses int) PartitionSummary {

	summary := PartitionSummary{
		TotalCost:     cost,
		NumPassesUsed: numPasses,
		TotalWeight:   append([]int(nil), e.totalWeight...),
	}
	summary.PartitionA, summary.PartitionB = part.sortedSides()
	if e.opts.SaveCutSet {
		summary.CutEdgeIDs, summary.CutEdgeNames = e.cutSet(part)
	}
	summary.SelectedImplementations = make(map[int]int, len(e.nodes))
	for id, n := range e.nodes {
		summary.SelectedImplementations[id] = n.SelectedIndex()
	}

	summary.Balance = make([]float64, e.numResources)
	for i := 0; i < e.numResources; i++ {
		if e.totalWeight[i] != 0 {
			bal := balance[i]
			if bal < 0 {
				bal = -bal
			}
			summary.Balance[i] = float64(bal) / float64(e.totalWeight[i])
		}
	}

	partAWeight := make([]int, e.numResources)
	partBWeight := make([]int, e.numResources)
	sumA, sumB, sumTotal := 0, 0, 0
	for i := 0; i < e.numResources; i++ {
		partAWeight[i] = (e.totalWeight[i] + balance[i]) / 2
		partBWeight[i] = (e.totalWeight[i] - balance[i]) / 2
		sumA += partAWeight[i]
		sumB += partBWeight[i]
		sumTotal += e.totalWeight[i]
	}

	summary.TotalResourceRatios = make([]float64, e.numResources)
	summary.PartitionResourceRatios[0] = make([]float64, e.numResources)
	summary.PartitionResourceRatios[1] = make([]float64, e.numResources)
	for i := 0; i < e.numResources; i++ {
		if sumTotal != 0 {
			summary.TotalResourceRatios[i] = float64(e.totalWeight[i]) / float64(sumTotal)
		}
		if sumA != 0 {
			summary.PartitionResourceRatios[0][i] = float64(partAWeight[i]) / float64(sumA)
		}
		if sumB != 0 {
			summary.PartitionResourceRatios[1][i] = float64(partBWeight[i]) / float64(sumB)
		}
	}

	summary.RMSResourceDeviation = e.rmsResourceDeviation(partAWeight, partBWeight, sumA, sumB)
	return summary
}

// rmsResourceDeviation averages, over the two sides, the RMS of each
// resource's fractional deviation from the weight the target ratios
// would assign it.
func (e *Engine) rmsResourceDeviation(partAWeight, partBWeight []int, sumA, sumB int) float64 {
	ratioWeights := e.opts.ResourceRatioWeights
	sumRatio := 0
	for _, rw := range ratioWeights {
		sumRatio += rw
	}
	if sumRatio == 0 || e.numResources == 0 {
		return 0
	}

	sideRMS := func(weights []int, sum int) float64 {
		squares := 0.0
		for i, rw := range ratioWeights {
			if weights[i] == 0 {
				continue
			}
			target := float64(sum) * float64(rw) / float64(sumRatio)
			frac := math.Abs(target-float64(weights[i])) / float64(weights[i])
			squares += frac * frac
		}
		return math.Sqrt(squares / float64(e.numResources))
	}
	return (sideRMS(partAWeight, sumA) + sideRMS(partBWeight, sumB)) / 2
}
