package graph

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-varsel/model"
	"github.com/albertocavalcante/go-varsel/version"
)

// Builder constructs a Graph during resolution. It is not safe for
// concurrent use.
type Builder struct {
	root Key

	// requests maps module -> requested version -> requesters.
	requests map[model.ModuleID]map[string][]Key

	decisions map[model.ModuleID]verdict
	nodes     map[Key]*Node
	edges     map[Key][]Key
}

type verdict struct {
	strategy Strategy
	factor   string
}

// NewBuilder creates a builder whose graph is rooted at root.
func NewBuilder(root Key) *Builder {
	return &Builder{
		root:      root,
		requests:  make(map[model.ModuleID]map[string][]Key),
		decisions: make(map[model.ModuleID]verdict),
		nodes:     make(map[Key]*Node),
		edges:     make(map[Key][]Key),
	}
}

// RecordRequest records that requester asked for version of module.
func (b *Builder) RecordRequest(module model.ModuleID, version string, requester Key) {
	if b.requests[module] == nil {
		b.requests[module] = make(map[string][]Key)
	}
	if !slices.Contains(b.requests[module][version], requester) {
		b.requests[module][version] = append(b.requests[module][version], requester)
	}
}

// RecordDecision records how the version of module was chosen.
func (b *Builder) RecordDecision(module model.ModuleID, s Strategy, factor string) {
	b.decisions[module] = verdict{strategy: s, factor: factor}
}

// AddNode records a selected candidate of component id.
func (b *Builder) AddNode(id Key, c model.Candidate, project bool) {
	n := &Node{Key: id, Project: project}
	if !c.IsZero() {
		n.Candidate = c.Name()
		n.Kind = c.Kind().String()
	}
	b.nodes[id] = n
}

// AddEdge records that from depends on to.
func (b *Builder) AddEdge(from, to Key) {
	if !slices.Contains(b.edges[from], to) {
		b.edges[from] = append(b.edges[from], to)
	}
}

// Build returns the graph. Edges to components that were never added are
// dropped.
func (b *Builder) Build() *Graph {
	g := &Graph{Root: b.root, Nodes: make(map[Key]*Node, len(b.nodes)+1)}

	root := &Node{
		Key:       b.root,
		IsRoot:    true,
		Selection: &Decision{Strategy: StrategyRoot, Version: b.root.Version},
	}
	g.Nodes[b.root] = root

	for id, n := range b.nodes {
		node := *n
		node.AskedFor = make(map[Key]string)
		node.Selection = b.decide(id)
		g.Nodes[id] = &node
	}

	for from, tos := range b.edges {
		fromNode := g.Nodes[from]
		if fromNode == nil {
			continue
		}
		for _, to := range tos {
			toNode := g.Nodes[to]
			if toNode == nil {
				continue
			}
			fromNode.Dependencies = append(fromNode.Dependencies, to)
			toNode.Dependents = append(toNode.Dependents, from)
			if v, ok := b.requestedBy(to.ModuleID(), from); ok {
				toNode.AskedFor[from] = v
			}
		}
	}

	for _, n := range g.Nodes {
		sortKeys(n.Dependencies)
		sortKeys(n.Dependents)
	}
	return g
}

func (b *Builder) requestedBy(module model.ModuleID, requester Key) (string, bool) {
	for v, rs := range b.requests[module] {
		if slices.Contains(rs, requester) {
			return v, true
		}
	}
	return "", false
}

func (b *Builder) decide(id Key) *Decision {
	module := id.ModuleID()
	info := &Decision{Version: id.Version}

	versions := make([]string, 0, len(b.requests[module]))
	for v := range b.requests[module] {
		versions = append(versions, v)
	}
	version.Sort(versions)

	for _, v := range versions {
		requesters := slices.Clone(b.requests[module][v])
		sortKeys(requesters)
		c := VersionRequest{
			Version:     v,
			RequestedBy: requesters,
			Selected:    v == id.Version || (v == "" && len(versions) == 1),
		}
		if !c.Selected {
			c.LostBecause = "conflict resolved in favor of " + id.String()
		}
		info.Candidates = append(info.Candidates, c)
	}

	if d, ok := b.decisions[module]; ok {
		info.Strategy = d.strategy
		info.Reason = d.factor
		return info
	}
	info.Strategy = StrategyRequested
	if len(info.Candidates) <= 1 {
		info.Reason = "only version requested"
	} else {
		info.Reason = "highest version among candidates"
	}
	return info
}

func sortKeys(keys []Key) {
	slices.SortFunc(keys, func(a, b Key) int {
		return strings.Compare(a.String(), b.String())
	})
}
