package model

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	coordinatePartRegex = regexp.MustCompile(`^[A-Za-z0-9_]([A-Za-z0-9._-]*[A-Za-z0-9_])?$`)
	versionRegex        = regexp.MustCompile(`^[A-Za-z0-9._+-]*$`)
)

// ModuleID identifies a module independent of version.
type ModuleID struct {
	Group  string `json:"group"`
	Module string `json:"module"`
}

// NewModuleID creates a validated ModuleID.
func NewModuleID(group, module string) (ModuleID, error) {
	if err := validatePart("group", group); err != nil {
		return ModuleID{}, err
	}
	if err := validatePart("module", module); err != nil {
		return ModuleID{}, err
	}
	return ModuleID{Group: group, Module: module}, nil
}

// ParseModuleID reads "group:module".
func ParseModuleID(s string) (ModuleID, error) {
	group, module, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(module, ":") {
		return ModuleID{}, fmt.Errorf("invalid module coordinate %q: want group:module", s)
	}
	return NewModuleID(group, module)
}

// MustModuleID parses a module coordinate or panics. Use only for constants/tests.
func MustModuleID(s string) ModuleID {
	id, err := ParseModuleID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (m ModuleID) String() string {
	return m.Group + ":" + m.Module
}

// IsEmpty returns true if this is a zero-value ModuleID.
func (m ModuleID) IsEmpty() bool {
	return m.Group == "" && m.Module == ""
}

// At returns the component of this module at version.
func (m ModuleID) At(version string) ComponentID {
	return ComponentID{Group: m.Group, Module: m.Module, Version: version}
}

// ComponentID identifies one version of a module.
type ComponentID struct {
	Group   string `json:"group"`
	Module  string `json:"module"`
	Version string `json:"version,omitempty"`
}

// NewComponentID creates a validated ComponentID. The version may be empty
// for project components.
func NewComponentID(group, module, version string) (ComponentID, error) {
	m, err := NewModuleID(group, module)
	if err != nil {
		return ComponentID{}, err
	}
	if !versionRegex.MatchString(version) {
		return ComponentID{}, fmt.Errorf("invalid version %q for %s", version, m)
	}
	return m.At(version), nil
}

// ParseComponentID reads "group:module:version" or "group:module".
func ParseComponentID(s string) (ComponentID, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		return NewComponentID(parts[0], parts[1], "")
	case 3:
		return NewComponentID(parts[0], parts[1], parts[2])
	}
	return ComponentID{}, fmt.Errorf("invalid component coordinate %q: want group:module[:version]", s)
}

// MustComponentID parses a component coordinate or panics. Use only for constants/tests.
func MustComponentID(s string) ComponentID {
	id, err := ParseComponentID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ModuleID returns the module this component is a version of.
func (c ComponentID) ModuleID() ModuleID {
	return ModuleID{Group: c.Group, Module: c.Module}
}

func (c ComponentID) String() string {
	if c.Version == "" {
		return c.Group + ":" + c.Module
	}
	return c.Group + ":" + c.Module + ":" + c.Version
}

// IsEmpty returns true if this is a zero-value ComponentID.
func (c ComponentID) IsEmpty() bool {
	return c == ComponentID{}
}

func validatePart(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if !coordinatePartRegex.MatchString(s) {
		return fmt.Errorf("invalid %s %q: must match [A-Za-z0-9_]([A-Za-z0-9._-]*[A-Za-z0-9_])?", kind, s)
	}
	return nil
}

// ValidCoordinate reports whether s parses as group:module or
// group:module:version.
func ValidCoordinate(s string) bool {
	_, err := ParseComponentID(s)
	return err == nil
}
