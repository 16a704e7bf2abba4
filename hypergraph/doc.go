// Package hypergraph provides the weighted hypergraph model used by the
// partitioning engine: nodes with alternative per-resource weight vectors
// (implementations), hyperedges connecting two or more nodes, and
// supernodes that own an internal sub-graph and expose ports across
// split boundary edges.
//
// The model is deliberately identifier-based: nodes and edges refer to
// each other by stable integer IDs issued by a process-wide allocator,
// never by pointer. This keeps supernode composition and decomposition
// (MakeSupernode / ExpandSupernode) free of back-reference cycles and
// makes partitions plain sets of ints.
//
// Weight vectors:
//
//	Every node carries one or more weight vectors of identical length R
//	(the resource count of the graph). Exactly one vector is selected at
//	any time; the previously selected index is retained so that a single
//	change can be rolled back in O(1).
//
// Supernodes:
//
//	A supernode owns internal nodes and internal edges. Each of its
//	weight vectors is the componentwise sum of one chosen weight vector
//	per child, and the (child, index) choices behind every stored vector
//	are recorded so that selecting a supernode implementation can be
//	pushed down to the children exactly.
//
// Concurrency: a Graph and its nodes are not safe for concurrent
// mutation. The ID allocator is safe for concurrent use, but IDs are
// expected to be acquired during graph construction, before any engine
// runs.
package hypergraph
