package attribute

import (
	"fmt"
	"strings"
)

// Describer renders attribute sets for diagnostics. It never takes part in
// selection decisions.
type Describer interface {
	Describe(s Set) string
	DescribeValue(attr Attribute, value any) string
}

// DefaultDescriber prints attributes as "name 'value'" pairs.
type DefaultDescriber struct{}

// Describe implements Describer.
func (DefaultDescriber) Describe(s Set) string {
	if s.IsEmpty() {
		return "no attributes"
	}
	parts := make([]string, 0, s.Len())
	for _, attr := range s.Keys() {
		parts = append(parts, fmt.Sprintf("%s %s", attr.Name, DefaultDescriber{}.DescribeValue(attr, s.Value(attr.Name))))
	}
	return strings.Join(parts, ", ")
}

// DescribeValue implements Describer.
func (DefaultDescriber) DescribeValue(attr Attribute, value any) string {
	if value == nil {
		return "(none)"
	}
	if attr.Type == TypeString {
		return fmt.Sprintf("'%v'", value)
	}
	return fmt.Sprintf("%v", value)
}
