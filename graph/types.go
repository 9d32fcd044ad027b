package graph

import (
	"strings"

	"github.com/albertocavalcante/go-varsel/model"
)

// Key identifies a node. It is the component id of the selected component.
type Key = model.ComponentID

// Graph is the outcome of a resolution as nodes and edges, indexed both
// ways so that queries can walk toward dependencies or toward dependents.
type Graph struct {
	// Root is the consuming project.
	Root Key

	// Nodes contains every selected component and the root, keyed by id.
	Nodes map[Key]*Node
}

// Node represents one selected component.
type Node struct {
	Key Key

	// Candidate is the name of the selected variant or configuration.
	Candidate string

	// Kind is "variant" or "configuration". Empty for the root.
	Kind string

	// Dependencies are the components this node depends on.
	Dependencies []Key

	// Dependents are the nodes that depend on this one (reverse edges).
	Dependents []Key

	// AskedFor maps each dependent to the version it asked for.
	AskedFor map[Key]string

	// Selection records how the version of the node was settled.
	Selection *Decision

	IsRoot bool

	// Project is true for components built by the current project.
	Project bool
}

// Decision is the outcome of version selection for one module.
type Decision struct {
	Strategy Strategy

	Version string

	// Candidates holds one entry per distinct requested version, ascending.
	Candidates []VersionRequest

	// Reason is the resolver's account of the choice.
	Reason string
}

// Strategy indicates how a version was selected.
type Strategy string

const (
	// StrategyRoot marks the root node.
	StrategyRoot Strategy = "root"

	// StrategyRequested means only one version was requested.
	StrategyRequested Strategy = "requested"

	// StrategyConflict means a module conflict resolver chose the version.
	StrategyConflict Strategy = "conflict"

	// StrategyCapability means a capability conflict replaced another module
	// with this one.
	StrategyCapability Strategy = "capability"
)

// VersionRequest is one requested version and the nodes that asked for it.
type VersionRequest struct {
	Version string

	RequestedBy []Key

	Selected bool

	// LostBecause is set on versions that were evicted.
	LostBecause string
}

// Explanation tells why a module is at its current version and variant.
type Explanation struct {
	Component Key

	Candidate string

	Selection *Decision

	// Chains are the simple paths from the root to the component.
	Chains []Chain

	// Requests is a printable digest of Selection.Candidates.
	Requests string
}

// Chain is a path from the root to a component.
type Chain struct {
	Path []Key

	// Asked is the version the last edge of the path requested.
	Asked string
}

// String joins the path with arrows, e.g. "app -> org:a:1.0 (requested 1.0)".
func (c Chain) String() string {
	s := strings.Join(strs(c.Path), " -> ")
	if c.Asked != "" && s != "" {
		s += " (requested " + c.Asked + ")"
	}
	return s
}

// Stats holds summary counts for a graph.
type Stats struct {
	// TotalComponents counts selected components, excluding the root.
	TotalComponents int

	// DirectDependencies counts the edges leaving the root.
	DirectDependencies int

	// TransitiveDependencies counts components reached only indirectly.
	TransitiveDependencies int

	// MaxDepth is the longest acyclic distance from the root.
	MaxDepth int

	ProjectComponents int
}
