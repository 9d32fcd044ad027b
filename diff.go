package varsel

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-varsel/version"
)

// ComponentChange represents an added or removed component in a diff.
type ComponentChange struct {
	// Module is "group:module".
	Module string `json:"module"`

	Version string `json:"version"`

	Candidates []string `json:"candidates,omitempty"`
}

// VersionChange represents a version change of a module present in both
// results.
type VersionChange struct {
	Module     string `json:"module"`
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
}

// CandidateChange represents a module whose version is unchanged but whose
// selected candidates differ.
type CandidateChange struct {
	Module        string   `json:"module"`
	Version       string   `json:"version"`
	OldCandidates []string `json:"old_candidates"`
	NewCandidates []string `json:"new_candidates"`
}

// ResultDiff describes the differences between two resolutions.
//
// Example usage:
//
//	before, _ := engine.Resolve(ctx, oldRoot)
//	after, _ := engine.Resolve(ctx, newRoot)
//	diff := varsel.DiffResults(before, after)
//	if !diff.IsEmpty() {
//	    fmt.Printf("%d changes\n", diff.TotalChanges())
//	}
type ResultDiff struct {
	// Added contains modules present in new but not in old.
	Added []ComponentChange `json:"added,omitempty"`

	// Removed contains modules present in old but not in new.
	Removed []ComponentChange `json:"removed,omitempty"`

	// Upgraded contains modules where the new version is higher.
	Upgraded []VersionChange `json:"upgraded,omitempty"`

	// Downgraded contains modules where the new version is lower.
	Downgraded []VersionChange `json:"downgraded,omitempty"`

	// Reselected contains modules with the same version but different
	// selected variants or configurations.
	Reselected []CandidateChange `json:"reselected,omitempty"`
}

// IsEmpty returns true if there are no differences between the results.
func (d *ResultDiff) IsEmpty() bool {
	return d.TotalChanges() == 0
}

// TotalChanges returns the number of changed modules.
func (d *ResultDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Upgraded) + len(d.Downgraded) + len(d.Reselected)
}

// DiffResults computes the difference between two resolution results. A nil
// result is treated as empty. Versions are ordered with version.Compare.
// Every list is sorted by module.
func DiffResults(old, new *Result) *ResultDiff {
	diff := &ResultDiff{}

	oldSel := selectionsByModule(old)
	newSel := selectionsByModule(new)

	for module, n := range newSel {
		o, existed := oldSel[module]
		switch {
		case !existed:
			diff.Added = append(diff.Added, ComponentChange{
				Module:     module,
				Version:    n.Component.Version,
				Candidates: n.Candidates,
			})
		case o.Component.Version != n.Component.Version:
			change := VersionChange{Module: module, OldVersion: o.Component.Version, NewVersion: n.Component.Version}
			if version.Compare(n.Component.Version, o.Component.Version) > 0 {
				diff.Upgraded = append(diff.Upgraded, change)
			} else {
				diff.Downgraded = append(diff.Downgraded, change)
			}
		case !slices.Equal(sortedCopy(o.Candidates), sortedCopy(n.Candidates)):
			diff.Reselected = append(diff.Reselected, CandidateChange{
				Module:        module,
				Version:       n.Component.Version,
				OldCandidates: o.Candidates,
				NewCandidates: n.Candidates,
			})
		}
	}

	for module, o := range oldSel {
		if _, ok := newSel[module]; !ok {
			diff.Removed = append(diff.Removed, ComponentChange{
				Module:     module,
				Version:    o.Component.Version,
				Candidates: o.Candidates,
			})
		}
	}

	byModule := func(a, b ComponentChange) int { return strings.Compare(a.Module, b.Module) }
	slices.SortFunc(diff.Added, byModule)
	slices.SortFunc(diff.Removed, byModule)
	byVersionChange := func(a, b VersionChange) int { return strings.Compare(a.Module, b.Module) }
	slices.SortFunc(diff.Upgraded, byVersionChange)
	slices.SortFunc(diff.Downgraded, byVersionChange)
	slices.SortFunc(diff.Reselected, func(a, b CandidateChange) int { return strings.Compare(a.Module, b.Module) })

	return diff
}

func selectionsByModule(r *Result) map[string]Selection {
	out := make(map[string]Selection)
	if r == nil {
		return out
	}
	for _, s := range r.Selections {
		out[s.Component.ModuleID().String()] = s
	}
	return out
}

func sortedCopy(s []string) []string {
	c := slices.Clone(s)
	slices.Sort(c)
	return c
}
