// Package gainbucket provides the gain-ordered node containers used by
// the KLFM pass loop: a standard bucket with O(1) top / pop /
// remove-by-id / touch, and three manager variants that layer
// resource-aware move selection on top of it.
//
// A bucket holds (node, gain, weight-vector) entries keyed by integer
// gain. Entries of equal gain form a chain served newest first, not
// first-in-first-out; Touch moves an entry to the front of its own
// chain without otherwise disturbing the order, which keeps selection
// deterministic for a fixed seed.
//
// Manager variants:
//
//   - SingleResource: two buckets (partition A and B); selection weighs
//     the constrained side's top entries against the unconstrained top.
//   - MultiResourceExclusive: one bucket pair per resource; every weight
//     vector must be non-zero in exactly one resource.
//   - MultiResourceMixed: a master bucket pair plus one affinity bucket
//     pair per resource; vectors may span resources and selection scores
//     candidates by imbalance power minus gain.
//
// The adaptive variants let a manager pick a different implementation
// (weight vector) for a node than the one currently selected; the
// engine applies that choice when it moves the node.
package gainbucket
