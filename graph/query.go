package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-varsel/model"
)

// Get returns the node for a component id, or nil if not found.
func (g *Graph) Get(key Key) *Node {
	return g.Nodes[key]
}

// GetByModule returns the selected node of a module, or nil.
func (g *Graph) GetByModule(module model.ModuleID) *Node {
	for _, key := range g.Keys() {
		if key.ModuleID() == module {
			return g.Nodes[key]
		}
	}
	return nil
}

// Contains returns true if the graph contains the given component.
func (g *Graph) Contains(key Key) bool {
	_, ok := g.Nodes[key]
	return ok
}

// Keys returns every node id sorted by string form.
func (g *Graph) Keys() []Key {
	keys := make([]Key, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// DirectDeps returns the direct dependencies of a component.
func (g *Graph) DirectDeps(key Key) []Key {
	if node := g.Nodes[key]; node != nil {
		return node.Dependencies
	}
	return nil
}

// DirectDependents returns the nodes that directly depend on the component.
func (g *Graph) DirectDependents(key Key) []Key {
	if node := g.Nodes[key]; node != nil {
		return node.Dependents
	}
	return nil
}

// TransitiveDeps returns all transitive dependencies in breadth-first order.
func (g *Graph) TransitiveDeps(key Key) []Key {
	return g.walk(key, func(n *Node) []Key { return n.Dependencies })
}

// TransitiveDependents returns all nodes that transitively depend on the
// component, closest first.
func (g *Graph) TransitiveDependents(key Key) []Key {
	return g.walk(key, func(n *Node) []Key { return n.Dependents })
}

func (g *Graph) walk(start Key, next func(*Node) []Key) []Key {
	seen := map[Key]bool{start: true}
	out := []Key{}
	for frontier := []Key{start}; len(frontier) > 0; {
		var upcoming []Key
		for _, k := range frontier {
			n := g.Nodes[k]
			if n == nil {
				continue
			}
			for _, m := range next(n) {
				if seen[m] {
					continue
				}
				seen[m] = true
				out = append(out, m)
				upcoming = append(upcoming, m)
			}
		}
		frontier = upcoming
	}
	return out
}

// Path returns a shortest chain of dependencies leading from one component
// to another, or nil when to is unreachable.
func (g *Graph) Path(from, to Key) []Key {
	parent := map[Key]Key{}
	reached := map[Key]bool{from: true}
	for frontier := []Key{from}; len(frontier) > 0 && !reached[to]; {
		var upcoming []Key
		for _, k := range frontier {
			for _, m := range g.DirectDeps(k) {
				if reached[m] {
					continue
				}
				reached[m], parent[m] = true, k
				upcoming = append(upcoming, m)
			}
		}
		frontier = upcoming
	}
	if !reached[to] {
		return nil
	}
	chain := []Key{to}
	for k := to; k != from; {
		k = parent[k]
		chain = append(chain, k)
	}
	slices.Reverse(chain)
	return chain
}

// AllPaths lists every simple path from one component to another. The count
// grows quickly on diamond-heavy graphs.
func (g *Graph) AllPaths(from, to Key) [][]Key {
	var paths [][]Key
	onPath := map[Key]bool{}
	var extend func(trail []Key)
	extend = func(trail []Key) {
		last := trail[len(trail)-1]
		if last == to {
			paths = append(paths, slices.Clone(trail))
			return
		}
		onPath[last] = true
		for _, m := range g.DirectDeps(last) {
			if !onPath[m] {
				extend(append(trail, m))
			}
		}
		delete(onPath, last)
	}
	extend([]Key{from})
	return paths
}

// Explain returns why a module is at its current version and variant.
func (g *Graph) Explain(module model.ModuleID) (*Explanation, error) {
	node := g.GetByModule(module)
	if node == nil {
		return nil, fmt.Errorf("module %q not found in graph", module)
	}

	explanation := &Explanation{
		Component: node.Key,
		Candidate: node.Candidate,
		Selection: node.Selection,
	}

	for _, path := range g.AllPaths(g.Root, node.Key) {
		chain := Chain{Path: path}
		if len(path) >= 2 {
			parent := path[len(path)-2]
			if v, ok := node.AskedFor[parent]; ok {
				chain.Asked = v
			}
		}
		explanation.Chains = append(explanation.Chains, chain)
	}

	explanation.Requests = requestSummary(node)
	return explanation, nil
}

func requestSummary(node *Node) string {
	d := node.Selection
	if d == nil || len(d.Candidates) == 0 {
		return fmt.Sprintf("%s is at version %s", node.Key.ModuleID(), node.Key.Version)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s version selection:", node.Key.ModuleID())
	for _, req := range d.Candidates {
		v := cmp.Or(req.Version, "(latest)")
		who := make([]string, 0, len(req.RequestedBy))
		for _, r := range req.RequestedBy {
			who = append(who, r.String())
		}
		fmt.Fprintf(&sb, "\n  %s requested by: %s", v, strings.Join(who, ", "))
		if req.Selected {
			sb.WriteString(" (selected)")
		}
	}
	fmt.Fprintf(&sb, "\nStrategy: %s (%s)", d.Strategy, d.Reason)
	return sb.String()
}

// WhyIncluded returns all dependency chains that cause a module to be included.
func (g *Graph) WhyIncluded(module model.ModuleID) ([]Chain, error) {
	node := g.GetByModule(module)
	if node == nil {
		return nil, fmt.Errorf("module %q not found in graph", module)
	}

	paths := g.AllPaths(g.Root, node.Key)
	chains := make([]Chain, len(paths))
	for i, path := range paths {
		chains[i] = Chain{Path: path}
	}
	return chains, nil
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	var stats Stats
	for _, node := range g.Nodes {
		if node.IsRoot {
			continue
		}
		stats.TotalComponents++
		if node.Project {
			stats.ProjectComponents++
		}
	}
	if root := g.Nodes[g.Root]; root != nil {
		stats.DirectDependencies = len(root.Dependencies)
	}
	stats.TransitiveDependencies = max(stats.TotalComponents-stats.DirectDependencies, 0)
	stats.MaxDepth = g.maxDepth()
	return stats
}

func (g *Graph) maxDepth() int {
	depths := make(map[Key]int)
	onPath := make(map[Key]bool)
	var maxDepth int

	var dfs func(key Key, depth int)
	dfs = func(key Key, depth int) {
		// A node already on the current path is a cycle back-edge.
		if onPath[key] {
			return
		}
		if d, ok := depths[key]; ok && d >= depth {
			return
		}
		depths[key] = depth
		maxDepth = max(maxDepth, depth)

		node := g.Nodes[key]
		if node == nil {
			return
		}
		onPath[key] = true
		for _, dep := range node.Dependencies {
			dfs(dep, depth+1)
		}
		delete(onPath, key)
	}

	dfs(g.Root, 0)
	return maxDepth
}

// Leaves returns all nodes without dependencies, sorted.
func (g *Graph) Leaves() []Key {
	var leaves []Key
	for _, key := range g.Keys() {
		if len(g.Nodes[key].Dependencies) == 0 {
			leaves = append(leaves, key)
		}
	}
	return leaves
}

// HasCycles returns true if the graph contains cycles.
func (g *Graph) HasCycles() bool {
	return len(g.Cycles()) > 0
}

// Cycles returns the cycles found by a depth-first walk over sorted nodes.
// Each cycle starts at the node the walk re-entered.
func (g *Graph) Cycles() [][]Key {
	var (
		cycles [][]Key
		done   = map[Key]bool{}
		stack  []Key
	)
	var visit func(Key)
	visit = func(k Key) {
		done[k] = true
		stack = append(stack, k)
		for _, m := range g.DirectDeps(k) {
			if i := slices.Index(stack, m); i >= 0 {
				cycles = append(cycles, slices.Clone(stack[i:]))
			} else if !done[m] {
				visit(m)
			}
		}
		stack = stack[:len(stack)-1]
	}
	for _, k := range g.Keys() {
		if !done[k] {
			visit(k)
		}
	}
	return cycles
}
