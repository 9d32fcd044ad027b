// Package assess classifies how a candidate's attributes line up with a
// request.
//
// For one (request, candidate) pair every attribute named on either side
// lands in exactly one partition: compatible, incompatible, requested only,
// or provided only. The same computation backs attribute matching and the
// diagnostics attached to selection failures.
package assess

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-varsel/attribute"
)

// Attribute records one attribute with its requested and provided values.
// A side that does not carry the attribute has a nil value.
type Attribute struct {
	Attribute attribute.Attribute `json:"attribute"`
	Requested any                 `json:"requested,omitempty"`
	Provided  any                 `json:"provided,omitempty"`
}

// Candidate is the assessment of one candidate against a request.
type Candidate struct {
	Name       string        `json:"name"`
	Attributes attribute.Set `json:"-"`
	Requested  attribute.Set `json:"-"`

	Compatible    []Attribute `json:"compatible,omitempty"`
	Incompatible  []Attribute `json:"incompatible,omitempty"`
	RequestedOnly []Attribute `json:"requestedOnly,omitempty"`
	ProvidedOnly  []Attribute `json:"providedOnly,omitempty"`
}

// IsCompatible reports whether no attribute was incompatible.
func (c Candidate) IsCompatible() bool {
	return len(c.Incompatible) == 0
}

// Equal reports whether two assessments hold the same partitions.
func (c Candidate) Equal(other Candidate) bool {
	return c.Name == other.Name &&
		c.Attributes.Equal(other.Attributes) &&
		c.Requested.Equal(other.Requested) &&
		slices.Equal(c.Compatible, other.Compatible) &&
		slices.Equal(c.Incompatible, other.Incompatible) &&
		slices.Equal(c.RequestedOnly, other.RequestedOnly) &&
		slices.Equal(c.ProvidedOnly, other.ProvidedOnly)
}

// Assessor assesses candidates against one request.
type Assessor struct {
	requested attribute.Set
	schema    attribute.Schema
}

// New returns an assessor for requested. A nil schema means exact matching.
func New(requested attribute.Set, schema attribute.Schema) *Assessor {
	if schema == nil {
		schema = attribute.Exact
	}
	return &Assessor{requested: requested, schema: schema}
}

// Requested returns the attributes candidates are assessed against.
func (a *Assessor) Requested() attribute.Set {
	return a.requested
}

// Compatible reports whether provided satisfies the requested value of attr.
func (a *Assessor) Compatible(attr attribute.Attribute, requested, provided any) bool {
	return a.schema.IsCompatible(attr, requested, provided)
}

// Assess classifies the attributes of one candidate.
func (a *Assessor) Assess(name string, candidate attribute.Set) Candidate {
	out := Candidate{Name: name, Attributes: candidate, Requested: a.requested}

	names := append(a.requested.Names(), candidate.Names()...)
	slices.Sort(names)
	names = slices.Compact(names)

	for _, n := range names {
		req, hasReq := a.requested.Get(n)
		prov, hasProv := candidate.Get(n)
		switch {
		case hasReq && hasProv:
			attr := req.Attribute
			entry := Attribute{Attribute: attr, Requested: req.Value, Provided: prov.Value}
			if a.Compatible(attr, req.Value, prov.Value) {
				out.Compatible = append(out.Compatible, entry)
			} else {
				out.Incompatible = append(out.Incompatible, entry)
			}
		case hasReq:
			out.RequestedOnly = append(out.RequestedOnly, Attribute{Attribute: req.Attribute, Requested: req.Value})
		case hasProv:
			out.ProvidedOnly = append(out.ProvidedOnly, Attribute{Attribute: prov.Attribute, Provided: prov.Value})
		}
	}
	return out
}

// Named is anything with a name and attributes.
type Named interface {
	Name() string
	Attributes() attribute.Set
}

// AssessAll assesses every candidate and returns the results sorted by name.
func AssessAll[T Named](a *Assessor, candidates []T) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, a.Assess(c.Name(), c.Attributes()))
	}
	slices.SortStableFunc(out, func(x, y Candidate) int {
		return strings.Compare(x.Name, y.Name)
	})
	return out
}
