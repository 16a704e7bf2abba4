// Package chaco parses graphs in the CHACO / METIS text format into
// the hypergraph model.
//
// The format is line oriented. The header line is
//
//	<#vertices> <#edges> [fmt] [#vertex-weights]
//
// followed by one line per vertex listing its neighbours (1-based).
// The optional fmt code is up to three digits "abc": a != 0 means
// lines start with a vertex number (ignored here), b != 0 means each
// line starts with the vertex's weights, and c != 0 means every
// neighbour is followed by an edge weight. Lines starting with '%' are
// comments.
//
// Every vertex becomes a base node with a single weight vector (its
// declared weights, or [1] when the format carries none), and every
// undirected neighbour pair becomes a two-point edge. Node and edge IDs
// are drawn from the process-wide allocator, so a parsed graph can be
// handed straight to an engine.
package chaco

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/hyperpart/hypergraph"
)

// Sentinel errors for CHACO parsing.
var (
	// ErrBadHeader indicates a missing or malformed header line.
	ErrBadHeader = errors.New("chaco: malformed header")

	// ErrBadVertexLine indicates a vertex line that does not match the
	// declared format.
	ErrBadVertexLine = errors.New("chaco: malformed vertex line")

	// ErrBadNeighbor indicates a neighbour index outside 1..#vertices.
	ErrBadNeighbor = errors.New("chaco: neighbor index out of range")
)

// format holds the decoded header fmt code.
type format struct {
	hasVertexNumbers bool
	hasVertexWeights bool
	hasEdgeWeights   bool
	numVertexWeights int
}

// ParseFile reads the CHACO graph at path.
func ParseFile(path string) (*hypergraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chaco: %w", err)
	}
	defer f.Close()
	g, err := Parse(f)
	if err != nil {
		return nil, err
	}
	g.Name = path
	return g, nil
}

// Parse reads a CHACO graph from r.
func Parse(r io.Reader) (*hypergraph.Graph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header, err := nextContentLine(scanner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	numVertices, numEdges, fmtCode, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	g := hypergraph.NewGraph()

	// Allocate all node IDs up front so neighbour references can be
	// resolved while scanning.
	nodeIDs := make([]int, numVertices)
	for i := 0; i < numVertices; i++ {
		nodeIDs[i] = hypergraph.AcquireNodeID()
		node := hypergraph.NewNode(nodeIDs[i], fmt.Sprintf("v%d", i+1))
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	// seenEdges dedupes the two mentions of each undirected edge.
	type pair struct{ lo, hi int }
	seenEdges := make(map[pair]struct{}, numEdges)

	for vertex := 0; vertex < numVertices; vertex++ {
		line, err := nextContentLine(scanner)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d: %v", ErrBadVertexLine, vertex+1, err)
		}
		fields := strings.Fields(line)
		pos := 0

		if fmtCode.hasVertexNumbers {
			pos++
		}

		weights := []int{1}
		if fmtCode.hasVertexWeights {
			if len(fields) < pos+fmtCode.numVertexWeights {
				return nil, fmt.Errorf("%w: vertex %d: missing weights", ErrBadVertexLine, vertex+1)
			}
			weights = make([]int, fmtCode.numVertexWeights)
			for i := range weights {
				w, convErr := strconv.Atoi(fields[pos])
				if convErr != nil {
					return nil, fmt.Errorf("%w: vertex %d: %v", ErrBadVertexLine, vertex+1, convErr)
				}
				weights[i] = w
				pos++
			}
		}
		if err := g.Node(nodeIDs[vertex]).AddWeightVector(weights); err != nil {
			return nil, err
		}

		for pos < len(fields) {
			neighbor, convErr := strconv.Atoi(fields[pos])
			if convErr != nil {
				return nil, fmt.Errorf("%w: vertex %d: %v", ErrBadVertexLine, vertex+1, convErr)
			}
			pos++
			weight := 1
			if fmtCode.hasEdgeWeights {
				if pos >= len(fields) {
					return nil, fmt.Errorf("%w: vertex %d: missing edge weight", ErrBadVertexLine, vertex+1)
				}
				weight, convErr = strconv.Atoi(fields[pos])
				if convErr != nil {
					return nil, fmt.Errorf("%w: vertex %d: %v", ErrBadVertexLine, vertex+1, convErr)
				}
				pos++
			}
			if neighbor < 1 || neighbor > numVertices {
				return nil, fmt.Errorf("%w: vertex %d references %d", ErrBadNeighbor, vertex+1, neighbor)
			}
			if neighbor-1 == vertex {
				// Self-loops carry no cut information.
				continue
			}

			p := pair{lo: vertex, hi: neighbor - 1}
			if p.lo > p.hi {
				p.lo, p.hi = p.hi, p.lo
			}
			if _, dup := seenEdges[p]; dup {
				continue
			}
			seenEdges[p] = struct{}{}

			edgeID := hypergraph.AcquireEdgeID()
			edge := hypergraph.NewEdge(edgeID, fmt.Sprintf("e%d_%d", p.lo+1, p.hi+1), weight)
			if err := g.AddEdge(edge); err != nil {
				return nil, err
			}
			if err := g.Connect(nodeIDs[p.lo], edgeID); err != nil {
				return nil, err
			}
			if err := g.Connect(nodeIDs[p.hi], edgeID); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// parseHeader decodes "<#vertices> <#edges> [fmt] [#vertex-weights]".
func parseHeader(line string) (numVertices, numEdges int, fmtCode format, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 4 {
		return 0, 0, fmtCode, fmt.Errorf("%w: %q", ErrBadHeader, line)
	}
	numVertices, err = strconv.Atoi(fields[0])
	if err != nil || numVertices < 0 {
		return 0, 0, fmtCode, fmt.Errorf("%w: vertex count %q", ErrBadHeader, fields[0])
	}
	numEdges, err = strconv.Atoi(fields[1])
	if err != nil || numEdges < 0 {
		return 0, 0, fmtCode, fmt.Errorf("%w: edge count %q", ErrBadHeader, fields[1])
	}
	if len(fields) >= 3 {
		code, convErr := strconv.Atoi(fields[2])
		if convErr != nil || code < 0 || code > 111 {
			return 0, 0, fmtCode, fmt.Errorf("%w: format code %q", ErrBadHeader, fields[2])
		}
		fmtCode.hasEdgeWeights = code%10 != 0
		fmtCode.hasVertexWeights = (code/10)%10 != 0
		fmtCode.hasVertexNumbers = (code/100)%10 != 0
	}
	fmtCode.numVertexWeights = 1
	if len(fields) == 4 {
		n, convErr := strconv.Atoi(fields[3])
		if convErr != nil || n < 1 {
			return 0, 0, fmtCode, fmt.Errorf("%w: weight count %q", ErrBadHeader, fields[3])
		}
		fmtCode.numVertexWeights = n
	}
	return numVertices, numEdges, fmtCode, nil
}

// nextContentLine returns the next non-comment, non-blank line.
func nextContentLine(scanner *bufio.Scanner) (string, error) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		return line, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}
