// Package failure defines the structured errors produced by variant
// selection and conflict resolution.
//
// Every failure is an immutable value carrying the data needed to explain
// it: the component, the request, and the candidates with their attribute
// assessment, sorted by name. Error strings are one-line summaries; full
// reports are produced by the render package from the structured fields.
//
// Each failure type matches a sentinel with errors.Is:
//
//	if errors.Is(err, failure.ErrAmbiguousVariants) { ... }
//
// and can be extracted with errors.As:
//
//	var amb *failure.AmbiguousVariantsError
//	if errors.As(err, &amb) { ... }
package failure

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-varsel/assess"
	"github.com/albertocavalcante/go-varsel/capability"
	"github.com/albertocavalcante/go-varsel/model"
)

// Kind names a failure category.
type Kind string

// Failure kinds.
const (
	NoMatchingVariants           Kind = "NoMatchingVariants"
	AmbiguousVariants            Kind = "AmbiguousVariants"
	IncompatibleVariants         Kind = "IncompatibleVariants"
	NoMatchingCapabilities       Kind = "NoMatchingCapabilities"
	ConfigurationNotFound        Kind = "ConfigurationNotFound"
	ConfigurationNotConsumable   Kind = "ConfigurationNotConsumable"
	ModuleConflictUnresolved     Kind = "ModuleConflictUnresolved"
	CapabilityConflictUnresolved Kind = "CapabilityConflictUnresolved"
)

// Sentinel errors, one per Kind.
var (
	ErrNoMatchingVariants           = errors.New("no matching variants")
	ErrAmbiguousVariants            = errors.New("ambiguous variants")
	ErrIncompatibleVariants         = errors.New("incompatible variants")
	ErrNoMatchingCapabilities       = errors.New("no matching capabilities")
	ErrConfigurationNotFound        = errors.New("configuration not found")
	ErrConfigurationNotConsumable   = errors.New("configuration not consumable")
	ErrModuleConflictUnresolved     = errors.New("module conflict unresolved")
	ErrCapabilityConflictUnresolved = errors.New("capability conflict unresolved")
)

var sentinels = map[Kind]error{
	NoMatchingVariants:           ErrNoMatchingVariants,
	AmbiguousVariants:            ErrAmbiguousVariants,
	IncompatibleVariants:         ErrIncompatibleVariants,
	NoMatchingCapabilities:       ErrNoMatchingCapabilities,
	ConfigurationNotFound:        ErrConfigurationNotFound,
	ConfigurationNotConsumable:   ErrConfigurationNotConsumable,
	ModuleConflictUnresolved:     ErrModuleConflictUnresolved,
	CapabilityConflictUnresolved: ErrCapabilityConflictUnresolved,
}

// Sentinel returns the sentinel error for k.
func Sentinel(k Kind) error {
	return sentinels[k]
}

// Failure is implemented by every error in this package.
type Failure interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the first Failure in err's tree.
func KindOf(err error) (Kind, bool) {
	var f Failure
	if errors.As(err, &f) {
		return f.Kind(), true
	}
	return "", false
}

// NoMatchingVariantsError reports that no candidate was attribute-compatible.
type NoMatchingVariantsError struct {
	Component model.ComponentID
	Request   model.Request

	// Candidates are the capability-eligible candidates, each assessed
	// against the request.
	Candidates []assess.Candidate
}

func (e *NoMatchingVariantsError) Error() string {
	return fmt.Sprintf("no matching variant of %s was found for %s (%d candidates considered)",
		e.Component, e.Request, len(e.Candidates))
}

// Kind implements Failure.
func (e *NoMatchingVariantsError) Kind() Kind { return NoMatchingVariants }

// Is matches ErrNoMatchingVariants.
func (e *NoMatchingVariantsError) Is(target error) bool { return target == ErrNoMatchingVariants }

// Discarded describes a candidate removed during attribute matching.
type Discarded struct {
	Name      string `json:"name"`
	Attribute string `json:"attribute"`
	Reason    string `json:"reason"`
	By        string `json:"by,omitempty"`
	Requested any    `json:"requested,omitempty"`
	Provided  any    `json:"provided,omitempty"`
}

// AmbiguousVariantsError reports several candidates that disambiguation
// could not separate.
type AmbiguousVariantsError struct {
	Component model.ComponentID
	Request   model.Request

	// Matches are the remaining candidates, assessed and sorted by name.
	Matches []assess.Candidate

	// Discarded lists candidates matching removed, sorted by name.
	Discarded []Discarded
}

func (e *AmbiguousVariantsError) Error() string {
	names := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		names[i] = m.Name
	}
	return fmt.Sprintf("cannot choose between the variants of %s for %s: %s",
		e.Component, e.Request, strings.Join(names, ", "))
}

// Kind implements Failure.
func (e *AmbiguousVariantsError) Kind() Kind { return AmbiguousVariants }

// Is matches ErrAmbiguousVariants.
func (e *AmbiguousVariantsError) Is(target error) bool { return target == ErrAmbiguousVariants }

// IncompatibleVariantsError reports a named configuration whose attributes
// do not satisfy the request.
type IncompatibleVariantsError struct {
	Component     model.ComponentID
	Configuration string
	Request       model.Request
	Candidate     assess.Candidate
}

func (e *IncompatibleVariantsError) Error() string {
	var bad []string
	for _, a := range e.Candidate.Incompatible {
		bad = append(bad, fmt.Sprintf("%s (requested %v, provided %v)", a.Attribute.Name, a.Requested, a.Provided))
	}
	return fmt.Sprintf("configuration '%s' of %s does not match the consumer attributes: %s",
		e.Configuration, e.Component, strings.Join(bad, ", "))
}

// Kind implements Failure.
func (e *IncompatibleVariantsError) Kind() Kind { return IncompatibleVariants }

// Is matches ErrIncompatibleVariants.
func (e *IncompatibleVariantsError) Is(target error) bool { return target == ErrIncompatibleVariants }

// CapabilityCandidate is a candidate with the capabilities it declares.
type CapabilityCandidate struct {
	Name         string                  `json:"name"`
	Capabilities []capability.Capability `json:"capabilities"`
}

// NoMatchingCapabilitiesError reports that no candidate provides the
// requested capabilities.
type NoMatchingCapabilitiesError struct {
	Component  model.ComponentID
	Requested  []capability.Capability
	Candidates []CapabilityCandidate
}

func (e *NoMatchingCapabilitiesError) Error() string {
	requested := "its implicit capability"
	if len(e.Requested) > 0 {
		requested = capability.NewSet(e.Requested...).String()
	}
	return fmt.Sprintf("no variant of %s provides %s (%d candidates considered)",
		e.Component, requested, len(e.Candidates))
}

// Kind implements Failure.
func (e *NoMatchingCapabilitiesError) Kind() Kind { return NoMatchingCapabilities }

// Is matches ErrNoMatchingCapabilities.
func (e *NoMatchingCapabilitiesError) Is(target error) bool { return target == ErrNoMatchingCapabilities }

// ConfigurationNotFoundError reports a missing named configuration.
type ConfigurationNotFoundError struct {
	Component model.ComponentID
	Name      string
	Available []string
}

func (e *ConfigurationNotFoundError) Error() string {
	return fmt.Sprintf("%s has no configuration named '%s'", e.Component, e.Name)
}

// Kind implements Failure.
func (e *ConfigurationNotFoundError) Kind() Kind { return ConfigurationNotFound }

// Is matches ErrConfigurationNotFound.
func (e *ConfigurationNotFoundError) Is(target error) bool { return target == ErrConfigurationNotFound }

// ConfigurationNotConsumableError reports a configuration that is not
// exposed to consumers.
type ConfigurationNotConsumableError struct {
	Component model.ComponentID
	Name      string
}

func (e *ConfigurationNotConsumableError) Error() string {
	return fmt.Sprintf("configuration '%s' of %s cannot be consumed", e.Name, e.Component)
}

// Kind implements Failure.
func (e *ConfigurationNotConsumableError) Kind() Kind { return ConfigurationNotConsumable }

// Is matches ErrConfigurationNotConsumable.
func (e *ConfigurationNotConsumableError) Is(target error) bool {
	return target == ErrConfigurationNotConsumable
}

// ModuleConflictError reports a version conflict with no winner.
type ModuleConflictError struct {
	Module     model.ModuleID
	Candidates []model.ComponentID
	Reason     string
}

func (e *ModuleConflictError) Error() string {
	return fmt.Sprintf("cannot resolve the version conflict for %s between %s: %s",
		e.Module, joinIDs(e.Candidates), e.Reason)
}

// Kind implements Failure.
func (e *ModuleConflictError) Kind() Kind { return ModuleConflictUnresolved }

// Is matches ErrModuleConflictUnresolved.
func (e *ModuleConflictError) Is(target error) bool { return target == ErrModuleConflictUnresolved }

// CapabilityConflictError reports several modules providing a capability
// with no resolver willing to pick one.
type CapabilityConflictError struct {
	Capability capability.Capability
	Candidates []model.ComponentID
	Reason     string
}

func (e *CapabilityConflictError) Error() string {
	return fmt.Sprintf("cannot select a module with capability %s among %s: %s",
		e.Capability.Key(), joinIDs(e.Candidates), e.Reason)
}

// Kind implements Failure.
func (e *CapabilityConflictError) Kind() Kind { return CapabilityConflictUnresolved }

// Is matches ErrCapabilityConflictUnresolved.
func (e *CapabilityConflictError) Is(target error) bool {
	return target == ErrCapabilityConflictUnresolved
}

// SortIDs orders component ids by their string form.
func SortIDs(ids []model.ComponentID) {
	slices.SortFunc(ids, func(a, b model.ComponentID) int {
		return strings.Compare(a.String(), b.String())
	})
}

func joinIDs(ids []model.ComponentID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

var (
	_ Failure = (*NoMatchingVariantsError)(nil)
	_ Failure = (*AmbiguousVariantsError)(nil)
	_ Failure = (*IncompatibleVariantsError)(nil)
	_ Failure = (*NoMatchingCapabilitiesError)(nil)
	_ Failure = (*ConfigurationNotFoundError)(nil)
	_ Failure = (*ConfigurationNotConsumableError)(nil)
	_ Failure = (*ModuleConflictError)(nil)
	_ Failure = (*CapabilityConflictError)(nil)
)
