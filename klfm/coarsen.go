package klfm

import (
	"sort"

	"github.com/katalvlaran/hyperpart/hypergraph"
)

// Connectivity scoring constants of the clustering heuristic. An edge
// into the absorbing cluster counts clusterEdgeFactor times an edge
// into another candidate; a candidate with no connectivity at all
// scores disconnectedSizeFactor per member so that small disconnected
// clusters still merge ahead of huge ones.
const (
	clusterEdgeFactor      = 10
	disconnectedSizeFactor = 24
)

// coarsenHierarchicalInterconnection clusters the working graph into
// supernodes of at most maxNodesPerSupernode members.
//
// Every node starts as a singleton cluster. A cursor scans the
// non-finalised clusters, wrapping around; each visit either finalises
// the current cluster (no viable neighbour remains) or absorbs the
// neighbouring cluster with the best connectivity-per-size score.
// Absorbed clusters are finalised so each cluster makes at most one
// absorb-or-finalise decision per visit, which lets every cluster keep
// consolidating over multiple sweeps until nothing can merge.
//
// neighborLimit caps the candidate neighbours examined per visit (0
// disables the cap); it bounds worst-case complexity on dense graphs.
func (e *Engine) coarsenHierarchicalInterconnection(maxNodesPerSupernode, neighborLimit int) error {
	ids := e.sortedNodeIDs()

	clusters := make([][]int, len(ids))
	nodeToCluster := make(map[int]int, len(ids))
	finalized := make([]bool, len(ids))
	for i, id := range ids {
		clusters[i] = []int{id}
		nodeToCluster[id] = i
	}
	remaining := len(ids)

	cursor := 0
	advance := func() {
		for remaining > 0 {
			cursor = (cursor + 1) % len(clusters)
			if !finalized[cursor] {
				return
			}
		}
	}
	for finalized[cursor] && remaining > 0 {
		advance()
	}

	for remaining > 0 {
		s := cursor

		// Collect viable neighbour clusters: reachable from a member,
		// not finalised, and small enough to merge.
		viable := make(map[int]struct{})
		sizeS := len(clusters[s])
	scan:
		for _, nodeID := range clusters[s] {
			for _, eid := range e.nodes[nodeID].EdgeIDs() {
				for _, conn := range e.edges[eid].Connections() {
					t, ok := nodeToCluster[conn]
					if !ok || t == s || finalized[t] {
						continue
					}
					if sizeS+len(clusters[t]) > maxNodesPerSupernode {
						continue
					}
					viable[t] = struct{}{}
					if neighborLimit != 0 && len(viable) >= neighborLimit {
						break scan
					}
				}
			}
		}

		if len(viable) == 0 {
			finalized[s] = true
			remaining--
			if remaining == 0 {
				break
			}
			advance()
			continue
		}

		viableIDs := make([]int, 0, len(viable))
		for t := range viable {
			viableIDs = append(viableIDs, t)
		}
		sort.Ints(viableIDs)

		// Score each candidate: smaller is better. Connectivity counts
		// every (edge, connection) incidence between the candidate's
		// members and the absorbing cluster or the other candidates.
		bestT, bestScore := -1, 0
		for _, t := range viableIDs {
			cx := 0
			for _, memberID := range clusters[t] {
				for _, eid := range e.nodes[memberID].EdgeIDs() {
					edge := e.edges[eid]
					w := e.edgeWeight(edge)
					for _, conn := range edge.Connections() {
						c, ok := nodeToCluster[conn]
						if !ok {
							continue
						}
						if c == s {
							cx += clusterEdgeFactor * w
						} else if _, isViable := viable[c]; isViable && c != t {
							cx += w
						}
					}
				}
			}
			size := len(clusters[t])
			var score int
			if cx > 0 {
				score = size / cx
			} else {
				score = disconnectedSizeFactor * size
			}
			if bestT < 0 || score < bestScore {
				bestT = t
				bestScore = score
			}
		}

		// Absorb the winner and finalise it; its members now answer for
		// the absorbing cluster.
		for _, moved := range clusters[bestT] {
			nodeToCluster[moved] = s
		}
		clusters[s] = append(clusters[s], clusters[bestT]...)
		clusters[bestT] = nil
		finalized[bestT] = true
		remaining--
		if remaining == 0 {
			break
		}
		advance()
	}

	// A clustering that swallowed the whole graph leaves nothing to
	// bipartition; keep the graph uncoarsened in that case.
	for _, members := range clusters {
		if len(members) == len(ids) {
			return nil
		}
	}

	for _, members := range clusters {
		if len(members) < 2 {
			continue
		}
		sort.Ints(members)
		if _, err := hypergraph.MakeSupernode(members, e.nodes, e.edges,
			e.totalWeight, e.opts.RestrictSupernodesToDefault,
			e.opts.SupernodeImplementationsCap); err != nil {
			return err
		}
	}
	return nil
}

// decoarsen expands every supernode in the working graph one level and
// rewrites part so each side holds the supernodes' children instead of
// the supernodes themselves. Expansion pushes each supernode's selected
// implementation down first, so cost, balance, and total weight are
// preserved exactly.
func (e *Engine) decoarsen(part *partition) error {
	for _, side := range []map[int]struct{}{part.a, part.b} {
		expanded := make(map[int]struct{}, len(side))
		for id := range side {
			n := e.nodes[id]
			if n.IsSupernode() {
				for childID := range n.InternalNodes() {
					expanded[childID] = struct{}{}
				}
			} else {
				expanded[id] = struct{}{}
			}
		}
		clear(side)
		for id := range expanded {
			side[id] = struct{}{}
		}
	}

	for _, id := range e.sortedNodeIDs() {
		if _, err := hypergraph.ExpandSupernode(id, e.nodes, e.edges); err != nil {
			return err
		}
	}
	return nil
}
