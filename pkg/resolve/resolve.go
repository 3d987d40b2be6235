package resolve

import (
	"github.com/warptools/scriptorder/pkg/script"
	"github.com/warptools/scriptorder/pkg/scriptorderapi"
)

// ResolveOrder returns the ids of the given scripts in an order where every script
// comes strictly after all of its dependencies.
// Dependencies on ids that aren't among the scripts are ignored (see DanglingIgnore).
//
// Errors:
//
//   - scriptorder-error-cycle-detected -- if the dependencies form a cycle, including a script depending on itself.
func ResolveOrder(scripts []script.Script) ([]int, error) {
	return ResolveOrderWith(scripts, DanglingIgnore)
}

// ResolveOrderWith is ResolveOrder with an explicit policy for dangling dependency ids.
//
// The order is computed with Kahn's algorithm.
// Scripts that become eligible at the same time are emitted in the order they became eligible,
// and the initial set is taken in input order, so a fixed input always gives the same output.
//
// Errors:
//
//   - scriptorder-error-cycle-detected -- if the dependencies form a cycle, including a script depending on itself.
//   - scriptorder-error-invalid-reference -- if policy is DanglingReject and a dependency id names no script.
func ResolveOrderWith(scripts []script.Script, policy DanglingPolicy) ([]int, error) {
	g, err := buildGraph(scripts, policy)
	if err != nil {
		return nil, err
	}
	order := g.drain()
	if len(order) != len(g.keys) {
		return nil, scriptorderapi.ErrorCycleDetected()
	}
	return order, nil
}

// depgraph is the per-call working state.
// keys holds every node id in first-appearance order; the maps are never iterated.
type depgraph struct {
	keys      []int
	adjacency map[int][]int // dependency -> dependents, duplicates kept.
	inDegree  map[int]int   // unresolved dependency count.
}

func buildGraph(scripts []script.Script, policy DanglingPolicy) (*depgraph, error) {
	g := &depgraph{
		keys:      make([]int, 0, len(scripts)),
		adjacency: make(map[int][]int, len(scripts)),
		inDegree:  make(map[int]int, len(scripts)),
	}
	for _, s := range scripts {
		g.addNode(s.ID())
	}
	for _, s := range scripts {
		id := s.ID()
		for _, dep := range s.Dependencies() {
			if _, known := g.inDegree[dep]; !known {
				switch policy {
				case DanglingReject:
					return nil, scriptorderapi.ErrorInvalidReference(id, dep)
				case DanglingImplicit:
					g.addNode(dep)
				default:
					continue
				}
			}
			g.adjacency[dep] = append(g.adjacency[dep], id)
			g.inDegree[id]++
		}
	}
	return g, nil
}

// addNode registers id with no edges.  Repeats are no-ops, so the first appearance fixes the position.
func (g *depgraph) addNode(id int) {
	if _, exists := g.inDegree[id]; exists {
		return
	}
	g.keys = append(g.keys, id)
	g.adjacency[id] = nil
	g.inDegree[id] = 0
}

// drain runs the frontier loop and returns whatever it managed to emit.
// Anything short of len(g.keys) means some node was stuck behind a cycle.
func (g *depgraph) drain() []int {
	queue := make([]int, 0, len(g.keys))
	for _, id := range g.keys {
		if g.inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	order := make([]int, 0, len(g.keys))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		for _, n := range g.adjacency[current] {
			g.inDegree[n]--
			if g.inDegree[n] == 0 {
				queue = append(queue, n)
			}
		}
	}
	return order
}
