package model

import (
	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/capability"
)

// Kind distinguishes the two forms a Candidate can take.
type Kind int

// Candidate kinds. The zero Kind marks an empty Candidate.
const (
	KindNone Kind = iota
	KindVariant
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindVariant:
		return "variant"
	case KindConfiguration:
		return "configuration"
	}
	return "none"
}

// Candidate is either a Variant or a legacy Configuration.
type Candidate struct {
	kind          Kind
	variant       *Variant
	configuration *Configuration
}

// VariantCandidate wraps a variant.
func VariantCandidate(v *Variant) Candidate {
	return Candidate{kind: KindVariant, variant: v}
}

// ConfigurationCandidate wraps a legacy configuration.
func ConfigurationCandidate(c *Configuration) Candidate {
	return Candidate{kind: KindConfiguration, configuration: c}
}

// Kind returns which form the candidate holds.
func (c Candidate) Kind() Kind { return c.kind }

// IsZero reports whether the candidate holds nothing.
func (c Candidate) IsZero() bool { return c.kind == KindNone }

// Variant returns the wrapped variant.
func (c Candidate) Variant() (*Variant, bool) {
	return c.variant, c.kind == KindVariant
}

// Configuration returns the wrapped configuration.
func (c Candidate) Configuration() (*Configuration, bool) {
	return c.configuration, c.kind == KindConfiguration
}

// AsVariant returns the variant fields of either form.
func (c Candidate) AsVariant() *Variant {
	switch c.kind {
	case KindVariant:
		return c.variant
	case KindConfiguration:
		return c.configuration.AsVariant()
	case KindNone:
	}
	return nil
}

// Name returns the variant or configuration name.
func (c Candidate) Name() string {
	if v := c.AsVariant(); v != nil {
		return v.Name
	}
	return ""
}

// Component returns the id of the owning component.
func (c Candidate) Component() ComponentID {
	if v := c.AsVariant(); v != nil {
		return v.Component
	}
	return ComponentID{}
}

// Attributes returns the candidate's attributes.
func (c Candidate) Attributes() attribute.Set {
	if v := c.AsVariant(); v != nil {
		return v.Attributes
	}
	return attribute.Set{}
}

// Capabilities returns the capabilities the candidate declares.
func (c Candidate) Capabilities() capability.Set {
	if v := c.AsVariant(); v != nil {
		return v.Capabilities
	}
	return capability.Set{}
}

// ProvidedCapabilities returns the declared capabilities, or implicit when
// nothing is declared.
func (c Candidate) ProvidedCapabilities(implicit capability.Capability) capability.Set {
	caps := c.Capabilities()
	if caps.IsEmpty() {
		return capability.NewSet(implicit)
	}
	return caps
}

// Artifacts returns the candidate's artifacts.
func (c Candidate) Artifacts() []Artifact {
	if v := c.AsVariant(); v != nil {
		return v.Artifacts
	}
	return nil
}

// Dependencies returns the candidate's outgoing dependencies.
func (c Candidate) Dependencies() []Dependency {
	if v := c.AsVariant(); v != nil {
		return v.Dependencies
	}
	return nil
}

// DeprecatedForConsumption reports whether selecting the candidate should
// produce a deprecation notice.
func (c Candidate) DeprecatedForConsumption() bool {
	if v := c.AsVariant(); v != nil {
		return v.DeprecatedForConsumption
	}
	return false
}

func (c Candidate) String() string {
	switch c.kind {
	case KindVariant:
		return "variant '" + c.variant.Name + "'"
	case KindConfiguration:
		return "configuration '" + c.configuration.Name + "'"
	case KindNone:
	}
	return "<none>"
}
