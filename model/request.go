package model

import (
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/capability"
)

// ArtifactSelector asks for a specific artifact of the selected variant.
type ArtifactSelector struct {
	Name       string `json:"name,omitempty"`
	Type       string `json:"type,omitempty"`
	Extension  string `json:"extension,omitempty"`
	Classifier string `json:"classifier,omitempty"`
}

// Request describes what a consumer wants from the target of an edge.
type Request struct {
	Attributes   attribute.Set
	Capabilities []capability.Capability
	Artifacts    []ArtifactSelector
}

// Classifier returns the requested classifier when exactly one artifact is
// requested and it carries a classifier.
func (r Request) Classifier() (string, bool) {
	if len(r.Artifacts) != 1 || r.Artifacts[0].Classifier == "" {
		return "", false
	}
	return r.Artifacts[0].Classifier, true
}

// Classifiers lists the classifiers of all requested artifacts.
func (r Request) Classifiers() []string {
	var out []string
	for _, a := range r.Artifacts {
		if a.Classifier != "" {
			out = append(out, a.Classifier)
		}
	}
	return out
}

// WithConsumerAttributes returns a copy whose attributes are the consumer's
// attributes overridden by the request's own.
func (r Request) WithConsumerAttributes(consumer attribute.Set) Request {
	r.Attributes = consumer.Merge(r.Attributes)
	return r
}

// Key encodes the request so equal requests have equal keys.
func (r Request) Key() string {
	var b strings.Builder
	b.WriteString(r.Attributes.Key())
	b.WriteByte('|')
	b.WriteString(capability.NewSet(r.Capabilities...).String())
	b.WriteByte('|')
	for _, a := range r.Artifacts {
		fmt.Fprintf(&b, "%s/%s/%s/%s,", a.Name, a.Type, a.Extension, a.Classifier)
	}
	return b.String()
}

func (r Request) String() string {
	parts := []string{"attributes " + r.Attributes.String()}
	if len(r.Capabilities) > 0 {
		parts = append(parts, "capabilities "+capability.NewSet(r.Capabilities...).String())
	}
	if cs := r.Classifiers(); len(cs) > 0 {
		parts = append(parts, "classifiers ["+strings.Join(cs, ", ")+"]")
	}
	return strings.Join(parts, ", ")
}

// Dependency is a declared edge to a module.
type Dependency struct {
	Module ModuleID

	// Version is the requested version. Empty means any version, which
	// resolves to the latest the provider knows about.
	Version string

	Request Request

	// Configuration names a legacy configuration to select. Empty means
	// attribute matching, or the default configuration for components
	// without variants.
	Configuration string
}

// Target returns the component the dependency asks for.
func (d Dependency) Target() ComponentID {
	return d.Module.At(d.Version)
}

func (d Dependency) String() string {
	s := d.Target().String()
	if d.Configuration != "" {
		s += " (configuration " + d.Configuration + ")"
	}
	return s
}
