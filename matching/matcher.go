// Package matching selects attribute-compatible candidates and narrows
// them down by Pareto dominance.
//
// A candidate is compatible with a request when every requested attribute
// is either absent from the candidate or has a value the schema accepts.
// Among several compatible candidates, a candidate is dropped when another
// one is at least as good on every attribute and strictly better on one.
// Candidates that remain are equally good as far as the schema can tell;
// deciding between them is left to the caller.
package matching

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-varsel/assess"
	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/model"
)

// DiscardReason says why a candidate did not survive matching.
type DiscardReason int

const (
	// Incompatible candidates have a requested attribute with an unacceptable value.
	Incompatible DiscardReason = iota
	// Dominated candidates were beaten by another compatible candidate.
	Dominated
)

func (r DiscardReason) String() string {
	if r == Dominated {
		return "dominated"
	}
	return "incompatible"
}

// Discard records a candidate that matching removed and the attribute
// responsible.
type Discard struct {
	Candidate model.Candidate
	Attribute attribute.Attribute
	Reason    DiscardReason

	// By names the dominating candidate for Dominated discards.
	By string

	// Requested is the requested value of Attribute, nil when the request
	// does not name it.
	Requested any
	// Provided is the discarded candidate's value.
	Provided any
}

// Result is the outcome of matching a candidate list against a request.
// Both slices are sorted by candidate name and must not be modified.
type Result struct {
	Matches   []model.Candidate
	Discarded []Discard
}

// Matcher matches candidates under one attribute schema.
type Matcher struct {
	schema attribute.Schema
	cache  Cache
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithCache memoizes Matches results. The cache may be shared by matchers
// whose schema depends only on the candidates' component.
func WithCache(c Cache) Option {
	return func(m *Matcher) {
		if c != nil {
			m.cache = c
		}
	}
}

// New returns a matcher for schema. A nil schema means exact matching.
func New(schema attribute.Schema, opts ...Option) *Matcher {
	if schema == nil {
		schema = attribute.Exact
	}
	m := &Matcher{schema: schema, cache: NoopCache{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Schema returns the matcher's schema.
func (m *Matcher) Schema() attribute.Schema {
	return m.schema
}

// IsMatching reports whether candidate satisfies every requested attribute
// it carries.
func (m *Matcher) IsMatching(requested, candidate attribute.Set) bool {
	_, ok := m.firstIncompatible(assess.New(requested, m.schema), candidate)
	return !ok
}

func (m *Matcher) firstIncompatible(a *assess.Assessor, candidate attribute.Set) (assess.Attribute, bool) {
	assessed := a.Assess("", candidate)
	if len(assessed.Incompatible) == 0 {
		return assess.Attribute{}, false
	}
	return assessed.Incompatible[0], true
}

// Matches returns the compatible candidates that no other compatible
// candidate dominates. owner is the component the candidates belong to and
// scopes the cache entry.
func (m *Matcher) Matches(owner model.ComponentID, candidates []model.Candidate, requested attribute.Set) Result {
	if len(candidates) == 0 {
		return Result{}
	}
	res := m.cache.GetOrCompute(cacheKey(owner, candidates, requested), func() Result {
		return m.matches(candidates, requested)
	})
	return Result{
		Matches:   slices.Clone(res.Matches),
		Discarded: slices.Clone(res.Discarded),
	}
}

func (m *Matcher) matches(candidates []model.Candidate, requested attribute.Set) Result {
	sorted := slices.Clone(candidates)
	model.SortCandidates(sorted)

	var (
		res        Result
		compatible []model.Candidate
		a          = assess.New(requested, m.schema)
	)
	for _, c := range sorted {
		if bad, ok := m.firstIncompatible(a, c.Attributes()); ok {
			res.Discarded = append(res.Discarded, Discard{
				Candidate: c,
				Attribute: bad.Attribute,
				Reason:    Incompatible,
				Requested: bad.Requested,
				Provided:  bad.Provided,
			})
			continue
		}
		compatible = append(compatible, c)
	}

	if len(compatible) <= 1 {
		res.Matches = compatible
		return res
	}

	for i, c := range compatible {
		dominated := false
		for j, other := range compatible {
			if i == j {
				continue
			}
			if attr, ok := m.dominates(requested, other.Attributes(), c.Attributes()); ok {
				res.Discarded = append(res.Discarded, Discard{
					Candidate: c,
					Attribute: attr,
					Reason:    Dominated,
					By:        other.Name(),
					Requested: requested.Value(attr.Name),
					Provided:  c.Attributes().Value(attr.Name),
				})
				dominated = true
				break
			}
		}
		if !dominated {
			res.Matches = append(res.Matches, c)
		}
	}

	slices.SortStableFunc(res.Discarded, func(x, y Discard) int {
		return strings.Compare(x.Candidate.Name(), y.Candidate.Name())
	})
	return res
}

// dominates reports whether b is at least as good as a on every attribute
// and strictly better on one, returning the first attribute where b wins.
func (m *Matcher) dominates(requested, b, a attribute.Set) (attribute.Attribute, bool) {
	names := append(requested.Names(), a.Names()...)
	names = append(names, b.Names()...)
	slices.Sort(names)
	names = slices.Compact(names)

	var (
		better attribute.Attribute
		strict bool
	)
	for _, name := range names {
		switch m.compareOn(name, requested, b, a) {
		case attribute.Greater:
			if !strict {
				strict = true
				better = attributeOf(name, requested, b)
			}
		case attribute.Equal:
		case attribute.Less, attribute.Incomparable:
			return attribute.Attribute{}, false
		}
	}
	return better, strict
}

// compareOn orders the values of one attribute on two compatible candidates.
func (m *Matcher) compareOn(name string, requested, x, y attribute.Set) attribute.Ordering {
	ex, okX := x.Get(name)
	ey, okY := y.Get(name)
	switch {
	case !okX && !okY:
		return attribute.Equal
	case !okX || !okY:
		return attribute.Incomparable
	}

	if req, ok := requested.Get(name); ok {
		exactX := ex.Value == req.Value
		exactY := ey.Value == req.Value
		switch {
		case exactX && !exactY:
			return attribute.Greater
		case exactY && !exactX:
			return attribute.Less
		}
	}
	return m.schema.Compare(ex.Attribute, ex.Value, ey.Value)
}

func attributeOf(name string, sets ...attribute.Set) attribute.Attribute {
	for _, s := range sets {
		if e, ok := s.Get(name); ok {
			return e.Attribute
		}
	}
	return attribute.Of(name)
}

func cacheKey(owner model.ComponentID, candidates []model.Candidate, requested attribute.Set) string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Kind().String() + "#" + c.Name()
	}
	slices.Sort(ids)
	return owner.String() + "|" + requested.Key() + "|" + strings.Join(ids, ",")
}
