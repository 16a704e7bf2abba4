package klfm_test

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/hyperpart/hypergraph"
	"github.com/katalvlaran/hyperpart/klfm"
)

// ExampleEngine partitions a small unit-weight cycle and reports the
// cut.
func ExampleEngine() {
	g := hypergraph.NewGraph()
	for id := 1; id <= 4; id++ {
		n := hypergraph.NewNode(id, "")
		_ = n.AddWeightVector([]int{1})
		_ = g.AddNode(n)
	}
	edges := [][2]int{{1, 2}, {2, 3}, {3, 4}, {4, 1}}
	for i, pair := range edges {
		e := hypergraph.NewEdge(100+i, "", 1)
		_ = g.AddEdge(e)
		_ = g.Connect(pair[0], e.ID)
		_ = g.Connect(pair[1], e.ID)
	}

	opts := klfm.DefaultOptions(1)
	opts.MaxImbalanceFractions = []float64{0.5}
	opts.Multilevel = false
	opts.Seed = 7

	engine, err := klfm.NewEngine(g, opts, zerolog.Nop())
	if err != nil {
		panic(err)
	}
	summaries, err := engine.Execute()
	if err != nil {
		panic(err)
	}

	best := summaries[0]
	fmt.Printf("cost=%d sides=%d/%d cut_edges=%d\n",
		best.TotalCost, len(best.PartitionA), len(best.PartitionB), len(best.CutEdgeIDs))
	// Output: cost=2 sides=2/2 cut_edges=2
}
