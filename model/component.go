package model

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/capability"
)

// DefaultConfiguration is the configuration selected when a dependency on a
// configuration-only component does not name one.
const DefaultConfiguration = "default"

// Artifact is a file published by a variant.
type Artifact struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Extension  string `json:"extension,omitempty"`
	Classifier string `json:"classifier,omitempty"`
}

// Variant is one selectable flavour of a component.
type Variant struct {
	Name         string
	Component    ComponentID
	Attributes   attribute.Set
	Capabilities capability.Set
	Artifacts    []Artifact
	Dependencies []Dependency

	// DeprecatedForConsumption triggers a deprecation notice when the
	// variant is selected.
	DeprecatedForConsumption bool
}

// Configuration is a legacy named bucket of artifacts and dependencies.
type Configuration struct {
	Variant

	// CanBeConsumed is false for configurations that exist only for
	// resolution inside the producing build.
	CanBeConsumed bool
}

// AsVariant exposes the configuration's variant fields.
func (c *Configuration) AsVariant() *Variant {
	return &c.Variant
}

// Component is one version of a module together with everything it
// publishes.
type Component struct {
	ID          ComponentID
	DisplayName string

	// Project marks components built from source in the current build
	// rather than fetched from a repository.
	Project bool

	Variants       []*Variant
	Configurations []*Configuration

	// Schema carries the producer's attribute rules. It may be nil.
	Schema attribute.Schema
}

func (c *Component) String() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Project {
		return "project " + c.ID.String()
	}
	return c.ID.String()
}

// UsesVariants reports whether candidates are chosen by attribute matching.
// Components without variants are selected from by configuration name.
func (c *Component) UsesVariants() bool {
	return len(c.Variants) > 0
}

// ImplicitCapability is the capability every variant of the component
// provides when it declares none.
func (c *Component) ImplicitCapability() capability.Capability {
	return capability.Capability{Group: c.ID.Group, Name: c.ID.Module, Version: c.ID.Version}
}

// Configuration returns the named configuration.
func (c *Component) Configuration(name string) (*Configuration, bool) {
	for _, conf := range c.Configurations {
		if conf.Name == name {
			return conf, true
		}
	}
	return nil, false
}

// VariantCandidates returns the component's variants as candidates, sorted
// by name.
func (c *Component) VariantCandidates() []Candidate {
	out := make([]Candidate, 0, len(c.Variants))
	for _, v := range c.Variants {
		out = append(out, VariantCandidate(v))
	}
	SortCandidates(out)
	return out
}

// ConfigurationNames returns the names of all configurations, sorted.
func (c *Component) ConfigurationNames() []string {
	names := make([]string, 0, len(c.Configurations))
	for _, conf := range c.Configurations {
		names = append(names, conf.Name)
	}
	slices.Sort(names)
	return names
}

// SortCandidates orders candidates by name.
func SortCandidates(cs []Candidate) {
	slices.SortStableFunc(cs, func(a, b Candidate) int {
		return strings.Compare(a.Name(), b.Name())
	})
}
