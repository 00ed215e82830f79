package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is matched by every [*CycleError].
var ErrCycle = errors.New("dag: cycle detected")

// CycleError reports a dependency cycle. Path starts and ends with the same ID.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dag: cycle detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

type node struct {
	id         string
	order      int
	deps       map[string]*node
	dependents []*node
}

// Graph is a directed graph where an edge from -> to means "to depends on from".
// Graph is not safe for concurrent mutation.
type Graph struct {
	nodes map[string]*node
	list  []*node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a node. Adding an existing ID is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	n := &node{id: id, order: len(g.list), deps: make(map[string]*node)}
	g.nodes[id] = n
	g.list = append(g.list, n)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.list) }

// AddEdge records that toID depends on fromID. Duplicate edges are ignored.
// A self edge is kept: it is reported as a one-node cycle by Sort.
func (g *Graph) AddEdge(fromID, toID string) error {
	from, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("dag: source node not found: %s", fromID)
	}
	to, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("dag: destination node not found: %s", toID)
	}
	if _, dup := to.deps[fromID]; dup {
		return nil
	}
	to.deps[fromID] = from
	from.dependents = append(from.dependents, to)
	return nil
}

// Dependencies returns the IDs id depends on, in insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("dag: node not found: %s", id)
	}
	out := make([]string, 0, len(n.deps))
	for _, m := range g.list {
		if _, ok := n.deps[m.id]; ok {
			out = append(out, m.id)
		}
	}
	return out, nil
}

// Sort returns all node IDs so that every node follows its dependencies.
// Ties are broken by insertion order.
func (g *Graph) Sort() ([]string, error) {
	indeg := make([]int, len(g.list))
	for _, n := range g.list {
		indeg[n.order] = len(n.deps)
	}

	ready := &readyQueue{}
	for _, n := range g.list {
		if indeg[n.order] == 0 {
			ready.push(n.order)
		}
	}

	sorted := make([]string, 0, len(g.list))
	for ready.len() > 0 {
		n := g.list[ready.pop()]
		sorted = append(sorted, n.id)
		for _, d := range n.dependents {
			indeg[d.order]--
			if indeg[d.order] == 0 {
				ready.push(d.order)
			}
		}
	}

	if len(sorted) == len(g.list) {
		return sorted, nil
	}
	return nil, &CycleError{Path: g.findCycle(indeg)}
}

// findCycle walks dependency edges among the nodes Kahn could not release.
// Every such node has at least one unreleased dependency, so the walk must
// revisit a node.
func (g *Graph) findCycle(indeg []int) []string {
	var start *node
	for _, n := range g.list {
		if indeg[n.order] > 0 {
			start = n
			break
		}
	}
	if start == nil {
		return nil
	}

	seen := make(map[string]int)
	var walk []*node
	cur := start
	for {
		if at, ok := seen[cur.id]; ok {
			cycle := walk[at:]
			// walk follows dependencies backwards; report in evaluation direction
			path := make([]string, 0, len(cycle)+1)
			for i := len(cycle) - 1; i >= 0; i-- {
				path = append(path, cycle[i].id)
			}
			return append(path, path[0])
		}
		seen[cur.id] = len(walk)
		walk = append(walk, cur)

		var next *node
		for _, m := range g.list {
			if dep, ok := cur.deps[m.id]; ok && indeg[dep.order] > 0 {
				next = dep
				break
			}
		}
		cur = next
	}
}

// readyQueue is a min-heap of insertion indices.
type readyQueue struct{ items []int }

func (q *readyQueue) len() int { return len(q.items) }

func (q *readyQueue) push(v int) {
	q.items = append(q.items, v)
	i := len(q.items) - 1
	for i > 0 {
		p := (i - 1) / 2
		if q.items[p] <= q.items[i] {
			break
		}
		q.items[p], q.items[i] = q.items[i], q.items[p]
		i = p
	}
}

func (q *readyQueue) pop() int {
	top := q.items[0]
	last := len(q.items) - 1
	q.items[0] = q.items[last]
	q.items = q.items[:last]
	i := 0
	for {
		l, r := 2*i+1, 2*i+2
		small := i
		if l < len(q.items) && q.items[l] < q.items[small] {
			small = l
		}
		if r < len(q.items) && q.items[r] < q.items[small] {
			small = r
		}
		if small == i {
			break
		}
		q.items[i], q.items[small] = q.items[small], q.items[i]
		i = small
	}
	return top
}
