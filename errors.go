package varsel

import (
	"errors"

	"github.com/albertocavalcante/go-varsel/failure"
	"github.com/albertocavalcante/go-varsel/model"
)

// Sentinel errors for selection and conflict failures. Every typed failure
// in package failure matches one of these through errors.Is.
var (
	ErrNoMatchingVariants           = failure.ErrNoMatchingVariants
	ErrAmbiguousVariants            = failure.ErrAmbiguousVariants
	ErrIncompatibleVariants         = failure.ErrIncompatibleVariants
	ErrNoMatchingCapabilities       = failure.ErrNoMatchingCapabilities
	ErrConfigurationNotFound        = failure.ErrConfigurationNotFound
	ErrConfigurationNotConsumable   = failure.ErrConfigurationNotConsumable
	ErrModuleConflictUnresolved     = failure.ErrModuleConflictUnresolved
	ErrCapabilityConflictUnresolved = failure.ErrCapabilityConflictUnresolved
)

var (
	// ErrComponentNotFound indicates the provider does not know a component.
	ErrComponentNotFound = model.ErrComponentNotFound

	// ErrInvalidDescriptor indicates a descriptor file that cannot be turned
	// into components.
	ErrInvalidDescriptor = errors.New("invalid descriptor")

	// ErrInvalidOption indicates an engine option with an unusable value.
	ErrInvalidOption = errors.New("invalid option")
)
