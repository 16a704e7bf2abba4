// Package hyperpart is a multi-resource, multi-level KLFM hypergraph
// bipartitioner for hardware netlists.
//
// 🚀 What is hyperpart?
//
//	A library plus CLI that splits a weighted hypergraph into two
//	balanced halves while minimising the weighted cut:
//
//	  • Nodes carry alternative implementations: per-resource cost
//	    vectors (LUT vs. DSP vs. BRAM), one selected at a time
//	  • Gain buckets pick moves that respect every resource's balance
//	    limit and optional resource-ratio targets
//	  • Multi-level clustering coarsens large graphs into supernodes
//	    before refinement and expands them afterwards
//
// Everything is organized under a few focused subpackages:
//
//	hypergraph/ - nodes, hyperedges, ports, weight vectors, supernodes
//	gainbucket/ - gain-ordered containers & resource-aware selection
//	klfm/       - the pass engine: moves, rollback, coarsening, rebalance
//	config/     - YAML configuration loading
//	chaco/      - CHACO/METIS graph-format parser
//	solution/   - SCIP .sol / Gurobi .mst writers
//
// Quick sketch of a bipartition:
//
//	    A───B │ E───F
//	    │   ├─┼─┐   │
//	    C───D │ G───H
//
//	two balanced halves, one cut edge.
//
// Runs are deterministic: every stochastic decision derives from the
// configured seed, so identical configurations reproduce identical
// partitions.
//
//	go get github.com/katalvlaran/hyperpart
package hyperpart
