package conflict

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-varsel/capability"
	"github.com/albertocavalcante/go-varsel/failure"
	"github.com/albertocavalcante/go-varsel/model"
	"github.com/albertocavalcante/go-varsel/version"
)

// CapabilityCandidate is one selected variant that provides a contested
// capability.
type CapabilityCandidate struct {
	Component model.ComponentID
	Variant   string

	// Capability is the provided capability, including its version.
	Capability capability.Capability

	// Order is the position at which the candidate was discovered. Higher
	// values were discovered later.
	Order int
}

// CapabilityConflict groups the candidates of different modules that
// provide the same capability.
type CapabilityConflict struct {
	Capability capability.Capability
	Candidates []CapabilityCandidate
}

// IDs returns the candidate components sorted by id.
func (c CapabilityConflict) IDs() []model.ComponentID {
	ids := make([]model.ComponentID, 0, len(c.Candidates))
	for _, cand := range c.Candidates {
		if !slices.Contains(ids, cand.Component) {
			ids = append(ids, cand.Component)
		}
	}
	failure.SortIDs(ids)
	return ids
}

// CapabilityDecision is the outcome of a capability conflict.
type CapabilityDecision struct {
	Winner   CapabilityCandidate
	Resolved bool
	Reason   string

	// Resolver names the resolver that decided.
	Resolver string
}

// Failure returns the unresolved decision as a failure, or nil when a winner
// was chosen.
func (d CapabilityDecision) Failure(c CapabilityConflict) error {
	if d.Resolved {
		return nil
	}
	return &failure.CapabilityConflictError{
		Capability: c.Capability,
		Candidates: c.IDs(),
		Reason:     d.Reason,
	}
}

// CapabilityResolver tries to decide a capability conflict. It returns
// false to pass the conflict to the next resolver of a chain.
type CapabilityResolver interface {
	Name() string
	Attempt(rc *model.ResolutionContext, c CapabilityConflict) (CapabilityDecision, bool)
}

// CapabilityChain asks resolvers in order.
type CapabilityChain []CapabilityResolver

// DefaultChain returns user rules, then LastCandidate, then RejectRemaining.
func DefaultChain(rules UserRules) CapabilityChain {
	return CapabilityChain{rules, LastCandidate{}, RejectRemaining{}}
}

// Resolve returns the first decision of the chain. Candidates are ordered by
// discovery before any resolver sees them.
func (ch CapabilityChain) Resolve(rc *model.ResolutionContext, c CapabilityConflict) CapabilityDecision {
	c.Candidates = slices.Clone(c.Candidates)
	slices.SortStableFunc(c.Candidates, func(a, b CapabilityCandidate) int {
		return cmp.Compare(a.Order, b.Order)
	})

	log := rc.Log()
	for _, r := range ch {
		d, ok := r.Attempt(rc, c)
		if !ok {
			continue
		}
		d.Resolver = r.Name()
		if d.Resolved {
			log.Debug("capability conflict resolved",
				"capability", c.Capability.Key(),
				"winner", d.Winner.Component.String(),
				"resolver", d.Resolver,
				"reason", d.Reason)
		} else {
			log.Debug("capability conflict rejected",
				"capability", c.Capability.Key(), "resolver", d.Resolver)
		}
		return d
	}
	return CapabilityDecision{Reason: "no resolver made a decision"}
}

// CapabilityRule is a build-declared preference for a capability conflict.
// Exactly one of Select and SelectHighestVersion must be set.
type CapabilityRule struct {
	// Capability is "group:name".
	Capability string `toml:"capability" yaml:"capability" validate:"required"`

	// Select is the "group:module" that wins.
	Select string `toml:"select" yaml:"select,omitempty"`

	// SelectHighestVersion picks the candidate providing the highest
	// capability version.
	SelectHighestVersion bool `toml:"select_highest_version" yaml:"select_highest_version,omitempty"`

	Reason string `toml:"reason" yaml:"reason,omitempty"`
}

// Validate checks that the rule names a capability and one way to select.
func (r CapabilityRule) Validate() error {
	if _, err := capability.Parse(r.Capability); err != nil {
		return err
	}
	switch {
	case r.Select != "" && r.SelectHighestVersion:
		return fmt.Errorf("rule for %s: select and select_highest_version are exclusive", r.Capability)
	case r.Select == "" && !r.SelectHighestVersion:
		return fmt.Errorf("rule for %s: nothing to select", r.Capability)
	case r.Select != "":
		if _, err := model.ParseModuleID(r.Select); err != nil {
			return fmt.Errorf("rule for %s: %w", r.Capability, err)
		}
	}
	return nil
}

// UserRules decides conflicts for which a rule was declared.
type UserRules struct {
	Rules []CapabilityRule

	// Comparator orders capability versions. Nil means version.Default.
	Comparator version.Comparator
}

// Validate checks every rule.
func (u UserRules) Validate() error {
	var errs []error
	for _, r := range u.Rules {
		errs = append(errs, r.Validate())
	}
	return errors.Join(errs...)
}

// Name implements CapabilityResolver.
func (UserRules) Name() string { return "user-rules" }

// Attempt implements CapabilityResolver. A rule whose selected module is not
// among the candidates does not decide.
func (u UserRules) Attempt(rc *model.ResolutionContext, c CapabilityConflict) (CapabilityDecision, bool) {
	for _, r := range u.Rules {
		want, err := capability.Parse(r.Capability)
		if err != nil || !want.Matches(c.Capability) {
			continue
		}
		if r.SelectHighestVersion {
			if w, ok := u.highest(rc, c.Candidates); ok {
				return CapabilityDecision{Winner: w, Resolved: true, Reason: reason(r, "highest capability version")}, true
			}
			continue
		}
		for _, cand := range c.Candidates {
			if cand.Component.ModuleID().String() == r.Select {
				return CapabilityDecision{Winner: cand, Resolved: true, Reason: reason(r, "selected by rule")}, true
			}
		}
		rc.Log().Debug("capability rule selects a module outside the conflict",
			"capability", c.Capability.Key(), "select", r.Select)
	}
	return CapabilityDecision{}, false
}

func (u UserRules) highest(rc *model.ResolutionContext, cands []CapabilityCandidate) (CapabilityCandidate, bool) {
	if len(cands) == 0 {
		return CapabilityCandidate{}, false
	}
	vc := u.Comparator
	if vc == nil {
		vc = version.Default
	}
	best := cands[0]
	for _, c := range cands[1:] {
		n, err := vc.Compare(c.Capability.Version, best.Capability.Version)
		if err != nil {
			rc.Log().Debug("cannot compare capability versions", "error", err)
			return CapabilityCandidate{}, false
		}
		if n > 0 {
			best = c
		}
	}
	return best, true
}

func reason(r CapabilityRule, fallback string) string {
	if r.Reason != "" {
		return r.Reason
	}
	return fallback
}

// LastCandidate picks the later discovered of exactly two candidates.
type LastCandidate struct{}

// Name implements CapabilityResolver.
func (LastCandidate) Name() string { return "last-candidate" }

// Attempt implements CapabilityResolver.
func (LastCandidate) Attempt(_ *model.ResolutionContext, c CapabilityConflict) (CapabilityDecision, bool) {
	if len(c.Candidates) != 2 {
		return CapabilityDecision{}, false
	}
	w := slices.MaxFunc(c.Candidates, func(a, b CapabilityCandidate) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return CapabilityDecision{Winner: w, Resolved: true, Reason: "latest discovered candidate"}, true
}

// RejectRemaining fails every conflict it sees.
type RejectRemaining struct{}

// Name implements CapabilityResolver.
func (RejectRemaining) Name() string { return "reject" }

// Attempt implements CapabilityResolver.
func (RejectRemaining) Attempt(_ *model.ResolutionContext, c CapabilityConflict) (CapabilityDecision, bool) {
	return CapabilityDecision{
		Reason: fmt.Sprintf("%d modules provide %s and no rule selects one", len(c.IDs()), c.Capability.Key()),
	}, true
}
