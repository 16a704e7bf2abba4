package hypergraph

import "sync/atomic"

// ReservedTerminalID marks the absence of an external connection, e.g.
// on a port whose edge terminates at the graph boundary. It is never
// issued by the allocator.
const ReservedTerminalID = -1

// nextID is the process-wide monotonic ID counter shared by nodes,
// edges, and ports. IDs are not recycled within a run; ReleaseID exists
// for symmetry and is a no-op.
var nextID atomic.Int64

// AcquireNodeID returns a fresh unique ID for a node or port.
// Safe for concurrent use. Complexity: O(1).
func AcquireNodeID() int {
	return int(nextID.Add(1))
}

// AcquireEdgeID returns a fresh unique ID for an edge. Node and edge IDs
// share one space so that an edge's connection list can be searched
// without knowing the kind of each entry.
// Safe for concurrent use. Complexity: O(1).
func AcquireEdgeID() int {
	return int(nextID.Add(1))
}

// ReleaseID is a no-op: IDs are not recycled within a run.
func ReleaseID(int) {}

// ResetIDs restarts the allocator so the next acquired ID is next.
// Only meaningful during graph construction, before engines execute.
func ResetIDs(next int) {
	nextID.Store(int64(next - 1))
}

// EnsureIDsAbove advances the allocator so that every ID issued from
// now on is strictly greater than id. Graphs whose IDs were assigned
// externally call this before any supernode surgery mints new IDs.
// Safe for concurrent use; the counter never moves backwards.
func EnsureIDsAbove(id int) {
	for {
		current := nextID.Load()
		if current >= int64(id) {
			return
		}
		if nextID.CompareAndSwap(current, int64(id)) {
			return
		}
	}
}
