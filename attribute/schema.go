package attribute

import (
	"fmt"
	"slices"
	"strings"
)

// Ordering is the result of comparing two provided values of one attribute.
type Ordering int

// Orderings. Greater means the first value is preferred.
const (
	Incomparable Ordering = iota
	Less
	Equal
	Greater
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "LESS"
	case Equal:
		return "EQUAL"
	case Greater:
		return "GREATER"
	}
	return "INCOMPARABLE"
}

// Reverse swaps Less and Greater.
func (o Ordering) Reverse() Ordering {
	switch o {
	case Less:
		return Greater
	case Greater:
		return Less
	}
	return o
}

// Schema decides compatibility and preference for attribute values.
// Implementations must treat equal values as compatible and Equal.
type Schema interface {
	// IsCompatible reports whether provided satisfies requested.
	IsCompatible(attr Attribute, requested, provided any) bool
	// Compare orders two provided values; Greater means a is preferred.
	Compare(attr Attribute, a, b any) Ordering
}

// CompatibilityFunc reports whether provided satisfies requested for one
// attribute. It is only consulted for unequal values.
type CompatibilityFunc func(requested, provided any) bool

// RuleSchema is a Schema built from per-attribute rules.
// The zero value accepts exact matches only.
type RuleSchema struct {
	accepted    map[string]map[any][]any
	funcs       map[string][]CompatibilityFunc
	preferences map[string][]any
}

// SchemaOption configures a RuleSchema.
type SchemaOption func(*RuleSchema)

// NewSchema builds a rule schema.
func NewSchema(opts ...SchemaOption) *RuleSchema {
	s := &RuleSchema{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithCompatibility declares that a request for requested on attribute name
// is satisfied by any of the accepted values.
func WithCompatibility(name string, requested any, accepted ...any) SchemaOption {
	return func(s *RuleSchema) {
		if s.accepted == nil {
			s.accepted = make(map[string]map[any][]any)
		}
		if s.accepted[name] == nil {
			s.accepted[name] = make(map[any][]any)
		}
		s.accepted[name][requested] = append(s.accepted[name][requested], accepted...)
	}
}

// WithCompatibilityFunc adds a compatibility rule for attribute name.
func WithCompatibilityFunc(name string, fn CompatibilityFunc) SchemaOption {
	return func(s *RuleSchema) {
		if s.funcs == nil {
			s.funcs = make(map[string][]CompatibilityFunc)
		}
		s.funcs[name] = append(s.funcs[name], fn)
	}
}

// WithPreference declares a preference order for attribute name. Values
// listed earlier are preferred; values not listed are incomparable to
// everything but themselves.
func WithPreference(name string, values ...any) SchemaOption {
	return func(s *RuleSchema) {
		if s.preferences == nil {
			s.preferences = make(map[string][]any)
		}
		s.preferences[name] = slices.Clone(values)
	}
}

// IsCompatible implements Schema.
func (s *RuleSchema) IsCompatible(attr Attribute, requested, provided any) bool {
	if requested == provided {
		return true
	}
	if s == nil {
		return false
	}
	if slices.Contains(s.accepted[attr.Name][requested], provided) {
		return true
	}
	for _, fn := range s.funcs[attr.Name] {
		if fn(requested, provided) {
			return true
		}
	}
	return false
}

// Compare implements Schema.
func (s *RuleSchema) Compare(attr Attribute, a, b any) Ordering {
	if a == b {
		return Equal
	}
	if s == nil {
		return Incomparable
	}
	order, ok := s.preferences[attr.Name]
	if !ok {
		return Incomparable
	}
	ia, ib := slices.Index(order, a), slices.Index(order, b)
	if ia < 0 || ib < 0 {
		return Incomparable
	}
	if ia < ib {
		return Greater
	}
	return Less
}

// HasRules reports whether the schema declares anything for attribute name.
func (s *RuleSchema) HasRules(name string) bool {
	if s == nil {
		return false
	}
	_, a := s.accepted[name]
	_, f := s.funcs[name]
	_, p := s.preferences[name]
	return a || f || p
}

// String lists the attributes that carry rules.
func (s *RuleSchema) String() string {
	if s == nil {
		return "schema{}"
	}
	names := make(map[string]struct{})
	for n := range s.accepted {
		names[n] = struct{}{}
	}
	for n := range s.funcs {
		names[n] = struct{}{}
	}
	for n := range s.preferences {
		names[n] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	slices.Sort(sorted)
	return fmt.Sprintf("schema{%s}", strings.Join(sorted, ", "))
}

// Exact is the schema with no rules.
var Exact Schema = (*RuleSchema)(nil)

type mergedSchema struct {
	consumer, producer Schema
}

// Merge combines a consumer schema with a producer schema. A value is
// compatible if either schema accepts it; ordering asks the consumer first
// and falls back to the producer when the consumer cannot order the values.
// Either argument may be nil.
func Merge(consumer, producer Schema) Schema {
	switch {
	case consumer == nil && producer == nil:
		return Exact
	case producer == nil:
		return consumer
	case consumer == nil:
		return producer
	}
	return mergedSchema{consumer: consumer, producer: producer}
}

func (m mergedSchema) IsCompatible(attr Attribute, requested, provided any) bool {
	return m.consumer.IsCompatible(attr, requested, provided) ||
		m.producer.IsCompatible(attr, requested, provided)
}

func (m mergedSchema) Compare(attr Attribute, a, b any) Ordering {
	if o := m.consumer.Compare(attr, a, b); o != Incomparable {
		return o
	}
	return m.producer.Compare(attr, a, b)
}
