package varsel

import (
	"errors"
	"slices"

	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/graph"
	"github.com/albertocavalcante/go-varsel/model"
)

// Root is the consuming project whose dependencies are resolved.
type Root struct {
	ID model.ComponentID

	// Attributes are the consumer attributes applied to every edge of the
	// graph. Attributes requested by an edge itself take precedence.
	Attributes attribute.Set

	Dependencies []model.Dependency
}

// Result is the outcome of one resolution.
type Result struct {
	// SessionID identifies the resolution in logs and traces.
	SessionID string

	Root model.ComponentID

	// Selections lists every selected component sorted by id.
	Selections []Selection

	// Edges lists every dependency edge of the final graph in discovery
	// order, including edges whose selection failed.
	Edges []EdgeResult

	// Conflicts lists module conflicts sorted by module, followed by
	// capability conflicts in the order they were decided.
	Conflicts []ConflictRecord

	// Failures are the unresolved capability conflicts. Edge failures are
	// kept on the edges.
	Failures []error

	Graph *graph.Graph

	// Rounds is the number of breadth-first rounds walked over all passes.
	Rounds int
}

// Selection is a component chosen for the graph and the candidates chosen
// from it.
type Selection struct {
	Component model.ComponentID

	// Candidates names the selected variants or configurations, in the
	// order they were first selected.
	Candidates []string

	Kind    model.Kind
	Project bool
}

// EdgeResult is the selection made for one dependency edge.
type EdgeResult struct {
	From       model.ComponentID
	Dependency model.Dependency

	// Target is the component the edge resolved to after conflict
	// resolution. It is empty when the edge failed before a target was
	// known.
	Target model.ComponentID

	Candidate model.Candidate

	// Rerouted is true when a capability conflict moved the edge to another
	// module.
	Rerouted bool

	Err error
}

// ConflictKind distinguishes module and capability conflicts.
type ConflictKind string

const (
	ConflictModule     ConflictKind = "module"
	ConflictCapability ConflictKind = "capability"
)

// ConflictRecord describes one conflict and how it was decided.
type ConflictRecord struct {
	Kind ConflictKind

	// Subject is the module id or the capability group:name.
	Subject string

	Candidates []model.ComponentID
	Winner     model.ComponentID
	Resolved   bool
	Reason     string

	// Resolver names the capability resolver that decided. Empty for module
	// conflicts.
	Resolver string
}

// Err joins every failure of the resolution, or returns nil when all edges
// were resolved.
func (r *Result) Err() error {
	var errs []error
	for _, e := range r.Edges {
		if e.Err != nil {
			errs = append(errs, e.Err)
		}
	}
	errs = append(errs, r.Failures...)
	return errors.Join(errs...)
}

// Selection returns the selection for a module, if one was made.
func (r *Result) Selection(module model.ModuleID) (Selection, bool) {
	i := slices.IndexFunc(r.Selections, func(s Selection) bool {
		return s.Component.ModuleID() == module
	})
	if i < 0 {
		return Selection{}, false
	}
	return r.Selections[i], true
}

// FailedEdges returns the edges whose selection failed.
func (r *Result) FailedEdges() []EdgeResult {
	var out []EdgeResult
	for _, e := range r.Edges {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}
