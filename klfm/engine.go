package klfm

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/hyperpart/gainbucket"
	"github.com/katalvlaran/hyperpart/hypergraph"
)

// unconstrainedImbalance is the sentinel limit for resources excluded
// from balance checks. A third of the int range leaves room for the
// doublings in slack arithmetic without overflow checks.
const unconstrainedImbalance = math.MaxInt / 3

// partition is a pair of disjoint node-ID sets covering the working
// graph.
type partition struct {
	a map[int]struct{}
	b map[int]struct{}
}

func newPartition() *partition {
	return &partition{a: make(map[int]struct{}), b: make(map[int]struct{})}
}

// inA reports whether id sits in side A.
func (p *partition) inA(id int) bool {
	_, ok := p.a[id]
	return ok
}

// sortedSides returns both sides as ascending slices.
func (p *partition) sortedSides() (a, b []int) {
	a = make([]int, 0, len(p.a))
	for id := range p.a {
		a = append(a, id)
	}
	b = make([]int, 0, len(p.b))
	for id := range p.b {
		b = append(b, id)
	}
	sort.Ints(a)
	sort.Ints(b)
	return a, b
}

// Engine performs KLFM bipartitioning on its own working copy of a
// graph. An Engine is not safe for concurrent use; run one Execute at a
// time per engine, and give each concurrent engine its own graph copy.
type Engine struct {
	opts Options
	log  zerolog.Logger

	// nodes and edges are the working graph, owned by the engine.
	nodes map[int]*hypergraph.Node
	edges map[int]*hypergraph.Edge

	// edgeStates carries the per-pass KLFM state, rebuilt at every pass
	// start and after structural changes.
	edgeStates map[int]*edgeState

	manager      gainbucket.Manager
	numResources int

	// constrain is the working copy of ConstrainBalanceByResource; the
	// multi-level relaxation toggles entries during a run.
	constrain []bool

	totalWeight  []int
	maxImbalance []int

	rngInitial   *rand.Rand
	rngCoarsen   *rand.Rand
	rngRebalance *rand.Rand
	rngMutate    *rand.Rand

	// Pass-scoped accounting.
	balanceExceeded       bool
	rebalancesThisRun     int
	rebalancesThisPass    int
	rebalanceUsedThisPass bool
}

// NewEngine builds an engine over a private copy of graph. The graph
// itself is left untouched and may seed any number of engines.
//
// Construction fails on invalid options, a nil or empty graph, weight
// vectors whose length disagrees with Options.NumResources, or node and
// edge IDs that collide.
func NewEngine(graph *hypergraph.Graph, opts Options, logger zerolog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if graph == nil {
		return nil, ErrNilGraph
	}
	if graph.NumNodes() == 0 {
		return nil, ErrEmptyGraph
	}
	if err := graph.CheckWeightVectors(opts.NumResources); err != nil {
		return nil, err
	}
	if err := graph.CheckIDUniqueness(); err != nil {
		return nil, err
	}

	working := graph.Clone()
	e := &Engine{
		opts:         opts,
		log:          logger,
		nodes:        working.Nodes(),
		edges:        working.Edges(),
		edgeStates:   make(map[int]*edgeState),
		numResources: opts.NumResources,
		constrain:    append([]bool(nil), opts.ConstrainBalanceByResource...),
		rngInitial:   rngFor(opts.Seed, streamInitial),
		rngCoarsen:   rngFor(opts.Seed, streamCoarsen),
		rngRebalance: rngFor(opts.Seed, streamRebalance),
		rngMutate:    rngFor(opts.Seed, streamMutate),
	}
	for _, n := range e.nodes {
		n.Locked = false
	}
	e.recomputeTotalWeightAndMaxImbalance()

	// Supernode surgery mints fresh node, port, and edge IDs; make sure
	// they can never collide with IDs assigned by whoever built the
	// graph.
	maxID := 0
	for id := range e.nodes {
		if id > maxID {
			maxID = id
		}
	}
	for id := range e.edges {
		if id > maxID {
			maxID = id
		}
	}
	hypergraph.EnsureIDsAbove(maxID)

	if err := e.checkCapacities(); err != nil {
		return nil, err
	}
	e.warnOversizedNodes()

	bucketSeed := deriveSeed(opts.Seed, streamBuckets)
	bucketType := opts.GainBucketType
	if opts.UseAdaptiveNodeImplementations {
		switch bucketType {
		case BucketMultiResourceExclusive:
			bucketType = BucketMultiResourceExclusiveAdaptive
		case BucketMultiResourceMixed:
			bucketType = BucketMultiResourceMixedAdaptive
		}
	}
	switch bucketType {
	case BucketSingleResource:
		e.manager = gainbucket.NewSingleResource(0, opts.MaxImbalanceFractions[0])
	case BucketMultiResourceExclusive:
		e.manager = gainbucket.NewMultiResourceExclusive(
			opts.MaxImbalanceFractions, opts.SelectionPolicy, false, bucketSeed)
	case BucketMultiResourceExclusiveAdaptive:
		e.manager = gainbucket.NewMultiResourceExclusive(
			opts.MaxImbalanceFractions, opts.SelectionPolicy, true, bucketSeed)
	case BucketMultiResourceMixed:
		e.manager = gainbucket.NewMultiResourceMixed(
			opts.MaxImbalanceFractions, opts.SelectionPolicy, false,
			opts.UseRatioInImbalanceScore, opts.ResourceRatioWeights, bucketSeed)
	case BucketMultiResourceMixedAdaptive:
		e.manager = gainbucket.NewMultiResourceMixed(
			opts.MaxImbalanceFractions, opts.SelectionPolicy, true,
			opts.UseRatioInImbalanceScore, opts.ResourceRatioWeights, bucketSeed)
	}
	return e, nil
}

// checkCapacities rejects graphs whose totals exceed the declared
// device capacities.
func (e *Engine) checkCapacities() error {
	for i, capacity := range e.opts.DeviceResourceCapacities {
		if capacity > 0 && e.totalWeight[i] > capacity {
			return fmt.Errorf("%w: resource %d total %d exceeds capacity %d",
				ErrBadOptions, i, e.totalWeight[i], capacity)
		}
	}
	return nil
}

// warnOversizedNodes logs once if any single node's weight alone spans
// the allowed imbalance; such nodes can pin a pass in violation.
func (e *Engine) warnOversizedNodes() {
	for _, id := range e.sortedNodeIDs() {
		wv := e.nodes[id].SelectedWeightVector()
		for r := 0; r < e.numResources; r++ {
			if !e.constrain[r] {
				continue
			}
			if wv[r] >= 2*e.maxImbalance[r] {
				e.log.Warn().
					Int("node", id).
					Int("resource", r).
					Int("weight", wv[r]).
					Int("max_imbalance", e.maxImbalance[r]).
					Msg("node weight exceeds the imbalance allowance")
				return
			}
		}
	}
}

// sortedNodeIDs returns the working node IDs in ascending order.
func (e *Engine) sortedNodeIDs() []int {
	ids := make([]int, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// sortedEdgeIDs returns the working edge IDs in ascending order.
func (e *Engine) sortedEdgeIDs() []int {
	ids := make([]int, 0, len(e.edges))
	for id := range e.edges {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// edgeWeight returns the weight an edge contributes to gains and cost.
func (e *Engine) edgeWeight(edge *hypergraph.Edge) int {
	return edge.EffectiveWeight(e.opts.UseEntropy)
}

// recomputeTotalWeightAndMaxImbalance rebuilds the per-resource totals
// from the selected weight vectors and derives the absolute imbalance
// limits: fraction * total (at least 1) for constrained resources, the
// sentinel for unconstrained ones.
func (e *Engine) recomputeTotalWeightAndMaxImbalance() {
	e.totalWeight = make([]int, e.numResources)
	for _, n := range e.nodes {
		for i, w := range n.SelectedWeightVector() {
			e.totalWeight[i] += w
		}
	}
	e.maxImbalance = make([]int, e.numResources)
	for i := 0; i < e.numResources; i++ {
		if !e.constrain[i] {
			e.maxImbalance[i] = unconstrainedImbalance
			continue
		}
		limit := int(float64(e.totalWeight[i]) * e.opts.MaxImbalanceFractions[i])
		if limit <= 0 {
			limit = 1
		}
		e.maxImbalance[i] = limit
	}
}

// updateTotalWeightsForImplementationChange folds one node's
// implementation swap into the cached totals and limits.
func (e *Engine) updateTotalWeightsForImplementationChange(oldWV, newWV []int) {
	for i := range oldWV {
		e.totalWeight[i] += newWV[i] - oldWV[i]
		if !e.constrain[i] {
			continue
		}
		limit := int(float64(e.totalWeight[i]) * e.opts.MaxImbalanceFractions[i])
		if limit <= 0 {
			limit = 1
		}
		e.maxImbalance[i] = limit
	}
}

// exceedsMaxImbalance reports whether any constrained resource's
// balance magnitude is over its limit.
func (e *Engine) exceedsMaxImbalance(balance []int) bool {
	for r := 0; r < e.numResources; r++ {
		if !e.constrain[r] {
			continue
		}
		bal := balance[r]
		if bal < 0 {
			bal = -bal
		}
		if bal > e.maxImbalance[r] {
			return true
		}
	}
	return false
}

// recomputeBalance derives the signed per-resource balance (side A
// minus side B) from the partition and the selected weight vectors.
func (e *Engine) recomputeBalance(part *partition) []int {
	balance := make([]int, e.numResources)
	for id := range part.a {
		for i, w := range e.nodes[id].SelectedWeightVector() {
			balance[i] += w
		}
	}
	for id := range part.b {
		for i, w := range e.nodes[id].SelectedWeightVector() {
			balance[i] -= w
		}
	}
	return balance
}

// recomputeCost sums the weights of edges spanning both sides.
func (e *Engine) recomputeCost(part *partition) int {
	cost := 0
	for _, edge := range e.edges {
		if e.edgeCrosses(edge, part) {
			cost += e.edgeWeight(edge)
		}
	}
	return cost
}

// edgeCrosses reports whether edge has connections on both sides of
// part.
func (e *Engine) edgeCrosses(edge *hypergraph.Edge, part *partition) bool {
	seenA, seenB := false, false
	for _, conn := range edge.Connections() {
		if _, inA := part.a[conn]; inA {
			seenA = true
		} else if _, inB := part.b[conn]; inB {
			seenB = true
		}
		if seenA && seenB {
			return true
		}
	}
	return false
}

// cutSet returns the IDs and non-empty names of the edges crossing the
// partition, ascending by ID.
func (e *Engine) cutSet(part *partition) (ids []int, names []string) {
	for _, id := range e.sortedEdgeIDs() {
		edge := e.edges[id]
		if e.edgeCrosses(edge, part) {
			ids = append(ids, id)
			if edge.Name != "" {
				names = append(names, edge.Name)
			}
		}
	}
	return ids, names
}

// Execute performs the configured number of runs and returns their
// summaries (each run contributes up to three: the plain result, a
// violator-fix variant when the run ended out of balance, and a
// ratio-only variant). Execute may be called again; a later call starts
// from the implementations left by earlier ones. With
// ReusePreviousRunImplementations off, every run after the first of one
// call restores the selections that call started with.
func (e *Engine) Execute() ([]PartitionSummary, error) {
	var initialImpls map[int]int
	if !e.opts.ReusePreviousRunImplementations {
		initialImpls = e.storeImplementations()
	}

	var summaries []PartitionSummary
	for run := 0; run < e.opts.NumRuns; run++ {
		if !e.opts.ReusePreviousRunImplementations && run != 0 {
			e.restoreImplementations(initialImpls)
			e.recomputeTotalWeightAndMaxImbalance()
		}
		e.log.Info().Int("run", run+1).Int("of", e.opts.NumRuns).Msg("begin run")
		runSummaries, err := e.executeRun()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, runSummaries...)
	}
	return summaries, nil
}

// storeImplementations snapshots every node's selected index.
func (e *Engine) storeImplementations() map[int]int {
	impls := make(map[int]int, len(e.nodes))
	for id, n := range e.nodes {
		impls[id] = n.SelectedIndex()
	}
	return impls
}

// restoreImplementations resets selections to a snapshot. Nodes created
// after the snapshot (none, in the current lifecycle) are skipped.
func (e *Engine) restoreImplementations(impls map[int]int) {
	for id, idx := range impls {
		if n, ok := e.nodes[id]; ok {
			_ = n.SetSelectedWeightVector(idx)
		}
	}
}

// executeRun performs one full run: mutation, coarsening, coarse
// passes, uncoarsening, fine passes, and summary construction.
func (e *Engine) executeRun() ([]PartitionSummary, error) {
	e.rebalancesThisRun = 0
	// The summary variants of a previous run may have constrained extra
	// resources; every run starts from the configured constraint set.
	copy(e.constrain, e.opts.ConstrainBalanceByResource)
	e.recomputeTotalWeightAndMaxImbalance()

	if e.opts.EnableMutation && e.opts.MutationRate > 0 {
		e.mutateImplementations(e.opts.MutationRate)
		e.recomputeTotalWeightAndMaxImbalance()
	}

	if e.opts.Multilevel {
		before := len(e.nodes)
		if err := e.coarsenHierarchicalInterconnection(
			coarsenMaxNodesPerSupernode, coarsenNeighborLimit); err != nil {
			return nil, err
		}
		e.log.Debug().Int("from", before).Int("to", len(e.nodes)).Msg("coarsened")
	}

	part := newPartition()
	cost := 0
	var balance []int
	if err := e.generateInitialPartition(part, &cost, &balance); err != nil {
		return nil, err
	}
	e.log.Debug().Int("initial_cost", cost).Msg("initial partition")

	if e.opts.UseMultilevelConstraintRelaxation {
		for i := 1; i < e.numResources; i++ {
			e.constrain[i] = false
		}
		e.recomputeTotalWeightAndMaxImbalance()
	}

	// Coarse phase.
	passCap, capped := e.phasePassCap()
	numPasses, err := e.runPassLoop(part, &cost, &balance, passCap, capped)
	if err != nil {
		return nil, err
	}

	if e.opts.Multilevel {
		if err := e.decoarsen(part); err != nil {
			return nil, err
		}
	}

	if e.opts.UseMultilevelConstraintRelaxation {
		for i := 1; i < e.numResources; i++ {
			e.constrain[i] = e.opts.ConstrainBalanceByResource[i]
		}
		e.recomputeTotalWeightAndMaxImbalance()
		// Re-tightening usually leaves the fine graph in violation; fix
		// ratio first, then balance and ratio together.
		e.rebalanceImplementations(part, balance, false, true)
		e.rebalanceImplementations(part, balance, true, true)
	}

	// Fine phase.
	finePasses, err := e.runPassLoop(part, &cost, &balance, passCap, capped)
	if err != nil {
		return nil, err
	}
	numPasses += finePasses

	if e.opts.RebalanceOnEndOfRun {
		e.rebalanceImplementations(part, balance, true, e.opts.UseRatioInImbalanceScore)
	}

	return e.buildRunSummaries(part, cost, balance, numPasses), nil
}

// phasePassCap returns the pass cap for one pass loop. Multi-level runs
// bound both phases so a pathological coarse graph cannot starve the
// fine phase.
func (e *Engine) phasePassCap() (int, bool) {
	if e.opts.Multilevel {
		limit := coarsePhasePassCap
		if e.opts.CapPasses && e.opts.MaxPasses < limit {
			limit = e.opts.MaxPasses
		}
		return limit, true
	}
	return e.opts.MaxPasses, e.opts.CapPasses
}
