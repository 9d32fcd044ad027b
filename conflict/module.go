package conflict

import (
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-varsel/failure"
	"github.com/albertocavalcante/go-varsel/model"
	"github.com/albertocavalcante/go-varsel/version"
)

// Module conflict policy names.
const (
	PolicyLatest        = "latest"
	PolicyPreferProject = "prefer-project"
)

// ModuleDecision is the outcome of a module conflict.
type ModuleDecision struct {
	Winner   *model.Component
	Resolved bool
	Reason   string
}

// Failure returns the unresolved decision as a failure, or nil when a winner
// was chosen.
func (d ModuleDecision) Failure(module model.ModuleID, candidates []*model.Component) error {
	if d.Resolved {
		return nil
	}
	ids := make([]model.ComponentID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	failure.SortIDs(ids)
	return &failure.ModuleConflictError{Module: module, Candidates: ids, Reason: d.Reason}
}

func unresolvedModule(reason string) ModuleDecision {
	return ModuleDecision{Reason: reason}
}

// ModuleResolver chooses one component among versions of the same module.
type ModuleResolver interface {
	Resolve(rc *model.ResolutionContext, candidates []*model.Component) ModuleDecision
}

// ModuleResolverFunc adapts a function to ModuleResolver.
type ModuleResolverFunc func(rc *model.ResolutionContext, candidates []*model.Component) ModuleDecision

// Resolve calls f.
func (f ModuleResolverFunc) Resolve(rc *model.ResolutionContext, candidates []*model.Component) ModuleDecision {
	return f(rc, candidates)
}

// LatestResolver picks the highest version. A nil Comparator uses
// version.Default.
type LatestResolver struct {
	Comparator version.Comparator
}

// Resolve implements ModuleResolver.
func (r LatestResolver) Resolve(rc *model.ResolutionContext, candidates []*model.Component) ModuleDecision {
	if len(candidates) == 0 {
		return unresolvedModule("no candidates")
	}
	cmp := r.Comparator
	if cmp == nil {
		cmp = version.Default
	}

	sorted := sortedComponents(candidates)
	best := sorted[0]
	for _, c := range sorted[1:] {
		n, err := cmp.Compare(c.ID.Version, best.ID.Version)
		if err != nil {
			return unresolvedModule(fmt.Sprintf("cannot compare versions: %v", err))
		}
		if n > 0 {
			best = c
		}
	}

	d := ModuleDecision{Winner: best, Resolved: true}
	if len(sorted) == 1 {
		d.Reason = "requested"
	} else {
		d.Reason = fmt.Sprintf("latest version among %s", versions(sorted))
	}
	rc.Log().Debug("module conflict resolved",
		"module", best.ID.ModuleID().String(), "winner", best.ID.Version, "reason", d.Reason)
	return d
}

// ProjectResolver prefers components built by the current project over
// published ones, regardless of version. Ties are passed to Fallback, or to
// a LatestResolver when Fallback is nil.
type ProjectResolver struct {
	Fallback ModuleResolver
}

// Resolve implements ModuleResolver.
func (r ProjectResolver) Resolve(rc *model.ResolutionContext, candidates []*model.Component) ModuleDecision {
	fallback := r.Fallback
	if fallback == nil {
		fallback = LatestResolver{}
	}

	var projects []*model.Component
	for _, c := range candidates {
		if c.Project {
			projects = append(projects, c)
		}
	}
	switch len(projects) {
	case 0:
		return fallback.Resolve(rc, candidates)
	case 1:
		d := ModuleDecision{Winner: projects[0], Resolved: true, Reason: "project preferred"}
		rc.Log().Debug("module conflict resolved",
			"module", projects[0].ID.ModuleID().String(), "winner", projects[0].ID.Version, "reason", d.Reason)
		return d
	default:
		return fallback.Resolve(rc, projects)
	}
}

// ModulePolicy returns the resolver for a policy name. An empty name selects
// PolicyLatest.
func ModulePolicy(name string, cmp version.Comparator) (ModuleResolver, error) {
	latest := LatestResolver{Comparator: cmp}
	switch name {
	case "", PolicyLatest:
		return latest, nil
	case PolicyPreferProject:
		return ProjectResolver{Fallback: latest}, nil
	}
	return nil, fmt.Errorf("unknown conflict policy %q", name)
}

func sortedComponents(cs []*model.Component) []*model.Component {
	out := slices.Clone(cs)
	slices.SortFunc(out, func(a, b *model.Component) int {
		if n := version.Compare(a.ID.Version, b.ID.Version); n != 0 {
			return n
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func versions(cs []*model.Component) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.ID.Version
	}
	return strings.Join(parts, ", ")
}
