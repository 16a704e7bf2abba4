// Package solution writes final partitions as solver warm-start files:
// SCIP .sol and Gurobi .mst. Both formats map one binary variable per
// node to its partition side (0 for side A, 1 for side B).
//
// The writers depend only on the partition summary's node sets and an
// optional node-name table, matching the narrow contract the
// partitioning core exposes to downstream tooling.
package solution

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/katalvlaran/hyperpart/klfm"
)

// ErrNilSummary indicates a nil summary was passed to a writer.
var ErrNilSummary = errors.New("solution: summary is nil")

// variableName renders a node's solver variable. Named nodes use their
// name, anonymous ones their ID.
func variableName(id int, names map[int]string) string {
	if name, ok := names[id]; ok && name != "" {
		return "x_" + name
	}
	return fmt.Sprintf("x_n%d", id)
}

// WriteSol emits a SCIP .sol file: one "<variable> <value>" line per
// node, side A as 0 and side B as 1, preceded by the objective value.
func WriteSol(w io.Writer, summary *klfm.PartitionSummary, names map[int]string) error {
	if summary == nil {
		return ErrNilSummary
	}
	if _, err := fmt.Fprintf(w, "objective value: %d\n", summary.TotalCost); err != nil {
		return err
	}
	for _, id := range summary.PartitionA {
		if _, err := fmt.Fprintf(w, "%s 0\n", variableName(id, names)); err != nil {
			return err
		}
	}
	for _, id := range summary.PartitionB {
		if _, err := fmt.Fprintf(w, "%s 1\n", variableName(id, names)); err != nil {
			return err
		}
	}
	return nil
}

// WriteMst emits a Gurobi .mst file with the same variable mapping.
func WriteMst(w io.Writer, summary *klfm.PartitionSummary, names map[int]string) error {
	if summary == nil {
		return ErrNilSummary
	}
	if _, err := fmt.Fprintf(w, "# MIP start, objective %d\n", summary.TotalCost); err != nil {
		return err
	}
	for _, id := range summary.PartitionA {
		if _, err := fmt.Fprintf(w, "%s 0\n", variableName(id, names)); err != nil {
			return err
		}
	}
	for _, id := range summary.PartitionB {
		if _, err := fmt.Fprintf(w, "%s 1\n", variableName(id, names)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSolFile writes WriteSol output to path.
func WriteSolFile(path string, summary *klfm.PartitionSummary, names map[int]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("solution: %w", err)
	}
	defer f.Close()
	return WriteSol(f, summary, names)
}

// WriteMstFile writes WriteMst output to path.
func WriteMstFile(path string, summary *klfm.PartitionSummary, names map[int]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("solution: %w", err)
	}
	defer f.Close()
	return WriteMst(f, summary, names)
}
