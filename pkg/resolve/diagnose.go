package resolve

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/warptools/scriptorder/pkg/script"
	"github.com/warptools/scriptorder/pkg/scriptorderapi"
)

// Graph builds a graph library view of the scripts, for analysis and drawing.
// Edges point from a dependency to its dependent, same as the resolver's own graph.
// Repeated dependencies collapse into one edge.
// Dangling dependency ids are handled according to the policy;
// with DanglingImplicit the unknown ids become vertices holding a dependency-free script.
//
// Errors:
//
//   - scriptorder-error-invalid-reference -- if policy is DanglingReject and a dependency id names no script.
func Graph(scripts []script.Script, policy DanglingPolicy) (graph.Graph[int, script.Script], error) {
	g := graph.New(
		script.Script.ID,
		graph.Directed(),
	)
	for _, s := range scripts {
		if err := g.AddVertex(s); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, err
		}
	}
	for _, s := range scripts {
		for _, dep := range s.Dependencies() {
			if _, err := g.Vertex(dep); errors.Is(err, graph.ErrVertexNotFound) {
				switch policy {
				case DanglingReject:
					return nil, scriptorderapi.ErrorInvalidReference(s.ID(), dep)
				case DanglingImplicit:
					if err := g.AddVertex(script.New(dep), graph.VertexAttribute("style", "dashed")); err != nil {
						return nil, err
					}
				default:
					continue
				}
			}
			if err := g.AddEdge(dep, s.ID()); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, err
			}
		}
	}
	return g, nil
}

// Cycles lists the groups of scripts that are stuck behind each other.
// Each group is a strongly connected component that actually loops:
// either more than one script, or a single script that depends on itself.
// Ids within a group are ascending, and groups are ordered by their smallest id.
// An acyclic input gives an empty result.
//
// ResolveOrder only says that a cycle exists; this is the function to call to find out where.
//
// Errors:
//
//   - scriptorder-error-invalid-reference -- if policy is DanglingReject and a dependency id names no script.
func Cycles(scripts []script.Script, policy DanglingPolicy) ([][]int, error) {
	g, err := Graph(scripts, policy)
	if err != nil {
		return nil, err
	}
	return cyclesIn(g)
}

func cyclesIn(g graph.Graph[int, script.Script]) ([][]int, error) {
	components, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return nil, fmt.Errorf("resolve: finding cycles: %w", err)
	}
	cycles := [][]int{}
	for _, component := range components {
		if len(component) == 1 {
			if _, err := g.Edge(component[0], component[0]); err != nil {
				continue
			}
		}
		sorted := append([]int(nil), component...)
		sort.Ints(sorted)
		cycles = append(cycles, sorted)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}

// WriteDOT renders the scripts as a graphviz digraph.
// Scripts caught in a cycle are drawn in red.
//
// Errors:
//
//   - scriptorder-error-invalid-reference -- if policy is DanglingReject and a dependency id names no script.
//   - scriptorder-error-io -- if writing fails.
func WriteDOT(w io.Writer, scripts []script.Script, policy DanglingPolicy) error {
	g, err := Graph(scripts, policy)
	if err != nil {
		return err
	}
	cycles, err := cyclesIn(g)
	if err != nil {
		return err
	}
	// The attributes map is shared with the graph's store, so this colors the vertex in place.
	for _, cycle := range cycles {
		for _, id := range cycle {
			_, props, err := g.VertexWithProperties(id)
			if err != nil {
				return err
			}
			props.Attributes["color"] = "red"
		}
	}
	if err := draw.DOT(g, w, draw.GraphAttribute("label", "script dependencies")); err != nil {
		return scriptorderapi.ErrorIO(err, "rendering dot")
	}
	return nil
}
