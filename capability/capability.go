// Package capability models the named things a variant provides and
// filters candidates by the capabilities a consumer asks for.
//
// Every component implicitly provides the capability named after its own
// coordinates. A variant that declares no capabilities provides only that
// implicit one. Capability identity is group and name; the version only
// matters when two modules claim the same capability and a conflict has to
// be arbitrated.
package capability

import (
	"fmt"
	"slices"
	"strings"
)

// Capability is a (group, name, version) triple.
type Capability struct {
	Group   string `json:"group" yaml:"group"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// New returns a capability without a version.
func New(group, name string) Capability {
	return Capability{Group: group, Name: name}
}

// Parse reads "group:name" or "group:name:version".
func Parse(s string) (Capability, error) {
	parts := strings.Split(s, ":")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return Capability{Group: parts[0], Name: parts[1]}, nil
	case len(parts) == 3 && parts[0] != "" && parts[1] != "":
		return Capability{Group: parts[0], Name: parts[1], Version: parts[2]}, nil
	}
	return Capability{}, fmt.Errorf("invalid capability %q: want group:name[:version]", s)
}

// Key identifies the capability for matching purposes.
func (c Capability) Key() string {
	return c.Group + ":" + c.Name
}

// Matches reports whether both capabilities have the same group and name.
func (c Capability) Matches(other Capability) bool {
	return c.Group == other.Group && c.Name == other.Name
}

func (c Capability) String() string {
	if c.Version == "" {
		return c.Key()
	}
	return c.Key() + ":" + c.Version
}

// Set is an immutable list of capabilities with distinct keys, sorted by
// key. The zero Set is empty.
type Set struct {
	items []Capability
}

// NewSet builds a set. When two capabilities share a key the first wins.
func NewSet(caps ...Capability) Set {
	if len(caps) == 0 {
		return Set{}
	}
	items := make([]Capability, 0, len(caps))
	seen := make(map[string]bool, len(caps))
	for _, c := range caps {
		if seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		items = append(items, c)
	}
	slices.SortFunc(items, func(a, b Capability) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return Set{items: items}
}

// Len returns the number of capabilities.
func (s Set) Len() int { return len(s.items) }

// IsEmpty reports whether the set declares nothing.
func (s Set) IsEmpty() bool { return len(s.items) == 0 }

// All returns the capabilities sorted by key.
func (s Set) All() []Capability { return slices.Clone(s.items) }

// Contains reports whether the set has a capability matching c.
func (s Set) Contains(c Capability) bool {
	_, ok := s.Find(c)
	return ok
}

// Find returns the capability in s matching c, including its version.
func (s Set) Find(c Capability) (Capability, bool) {
	i, ok := slices.BinarySearchFunc(s.items, c.Key(), func(item Capability, key string) int {
		return strings.Compare(item.Key(), key)
	})
	if !ok {
		return Capability{}, false
	}
	return s.items[i], true
}

func (s Set) String() string {
	parts := make([]string, len(s.items))
	for i, c := range s.items {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
