// Package klfm implements the multi-resource, multi-level, adaptive
// Kernighan-Lin / Fiduccia-Mattheyses bipartitioning engine.
//
// The engine owns a working copy of a hypergraph.Graph and minimises
// the weighted sum of cut edges subject to per-resource balance limits
// and optional per-resource ratio targets. Nodes may carry several
// alternative implementations (weight vectors); the engine, its gain
// buckets, and the rebalancing phases may switch implementations to
// satisfy the constraints.
//
// A run proceeds as: optional mutation, hierarchical-interconnection
// coarsening into supernodes, initial partition, coarse pass loop,
// uncoarsening, fine pass loop, summaries. Within a pass every node is
// moved exactly once in gain order; the pass then rolls back to the
// best balanced state it saw, so a pass that finds no improvement
// leaves the partition untouched.
//
// Engines are single-threaded: one Execute call owns its graph
// exclusively and runs a tight CPU-bound loop with no suspension
// points. Several engines may run concurrently on separate graph
// copies; they share no mutable state. All randomness is drawn from
// engine-local generators seeded from Options.Seed, so identical
// configurations produce identical results.
package klfm
