package attribute

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Type tags the Go type carried by an attribute's values.
type Type string

// Supported attribute value types.
const (
	TypeString Type = "string"
	TypeBool   Type = "bool"
	TypeInt    Type = "int"
)

// ParseType returns the Type named by s. An empty string means TypeString.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "", TypeString:
		return TypeString, nil
	case TypeBool, TypeInt:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown attribute type %q", s)
}

// Attribute is a named, typed dimension. Two attributes are the same
// attribute when their names are equal.
type Attribute struct {
	Name string
	Type Type
}

// Of returns a string attribute.
func Of(name string) Attribute {
	return Attribute{Name: name, Type: TypeString}
}

func (a Attribute) String() string {
	return a.Name
}

// Entry is an attribute together with its value.
type Entry struct {
	Attribute Attribute
	Value     any
}

// String returns a string-typed entry.
func String(name, value string) Entry {
	return Entry{Attribute: Attribute{Name: name, Type: TypeString}, Value: value}
}

// Bool returns a bool-typed entry.
func Bool(name string, value bool) Entry {
	return Entry{Attribute: Attribute{Name: name, Type: TypeBool}, Value: value}
}

// Int returns an int-typed entry.
func Int(name string, value int64) Entry {
	return Entry{Attribute: Attribute{Name: name, Type: TypeInt}, Value: value}
}

// Parse converts the textual form of a value to an entry of type t.
func Parse(name string, t Type, raw string) (Entry, error) {
	switch t {
	case "", TypeString:
		return String(name, raw), nil
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Entry{}, fmt.Errorf("attribute %s: %w", name, err)
		}
		return Bool(name, b), nil
	case TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("attribute %s: %w", name, err)
		}
		return Int(name, n), nil
	}
	return Entry{}, fmt.Errorf("attribute %s: unknown type %q", name, t)
}

// Set is an immutable mapping from attribute name to value.
// The zero Set is empty and ready to use.
type Set struct {
	entries map[string]Entry
	key     string
}

// NewSet builds a set from entries. Later entries replace earlier ones with
// the same name.
func NewSet(entries ...Entry) Set {
	if len(entries) == 0 {
		return Set{}
	}
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Attribute.Name] = e
	}
	return Set{entries: m, key: canonicalKey(m)}
}

// FromStrings builds a set of string attributes.
func FromStrings(values map[string]string) Set {
	entries := make([]Entry, 0, len(values))
	for _, name := range slices.Sorted(maps.Keys(values)) {
		entries = append(entries, String(name, values[name]))
	}
	return NewSet(entries...)
}

func canonicalKey(m map[string]Entry) string {
	var b strings.Builder
	for i, name := range slices.Sorted(maps.Keys(m)) {
		if i > 0 {
			b.WriteByte(';')
		}
		e := m[name]
		fmt.Fprintf(&b, "%s:%s=%v", name, e.Attribute.Type, e.Value)
	}
	return b.String()
}

// IsEmpty reports whether the set has no attributes.
func (s Set) IsEmpty() bool { return len(s.entries) == 0 }

// Len returns the number of attributes in the set.
func (s Set) Len() int { return len(s.entries) }

// Keys returns the attributes in the set, sorted by name.
func (s Set) Keys() []Attribute {
	out := make([]Attribute, 0, len(s.entries))
	for _, name := range slices.Sorted(maps.Keys(s.entries)) {
		out = append(out, s.entries[name].Attribute)
	}
	return out
}

// Names returns the attribute names in the set, sorted.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s.entries))
}

// Get returns the entry for the named attribute.
func (s Set) Get(name string) (Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Value returns the value of the named attribute, or nil.
func (s Set) Value(name string) any {
	return s.entries[name].Value
}

// Key returns a canonical encoding of the set. Equal sets have equal keys.
func (s Set) Key() string { return s.key }

// Equal reports whether both sets hold the same attributes and values.
func (s Set) Equal(other Set) bool { return s.key == other.key }

// Merge returns a set holding the attributes of s and other. Values from
// other win on conflict.
func (s Set) Merge(other Set) Set {
	if other.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return other
	}
	m := maps.Clone(s.entries)
	maps.Copy(m, other.entries)
	return Set{entries: m, key: canonicalKey(m)}
}

// String formats the set as {name=value, ...} in name order.
func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range s.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", name, s.entries[name].Value)
	}
	b.WriteByte('}')
	return b.String()
}
