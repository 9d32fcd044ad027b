// Package selection chooses the variant of a component that a dependency
// edge resolves to.
//
// # Algorithm Overview
//
// Attribute-based selection runs a fixed sequence of rounds over the
// target component's variants, sorted by name:
//
//  1. Capability filtering, lenient. Variants that provide the requested
//     capabilities (or the component's implicit capability when nothing is
//     requested) survive, including variants that provide more than asked.
//     No survivors is a NoMatchingCapabilities failure.
//  2. Attribute matching. Survivors incompatible with the requested
//     attributes are dropped, then any survivor dominated by another on
//     every attribute is dropped. One survivor is the answer; none is a
//     NoMatchingVariants failure.
//  3. Capability filtering, strict. When several variants remain, those that
//     provide exactly the requested capabilities are kept. One is the answer.
//  4. Re-matching. If the strict round kept several, attribute matching runs
//     again on that subset.
//  5. Classifier tie-break. When the consumer asked for exactly one artifact
//     with a classifier and exactly one remaining variant publishes a single
//     artifact with that classifier, it wins. This round can be disabled via
//     [model.ResolutionContext.ClassifierFallback].
//  6. Anything left is an AmbiguousVariants failure listing the remaining
//     variants and the ones attribute matching discarded.
//
// # Legacy Configurations
//
// Components that publish no variants are selected from by configuration
// name. A named configuration is validated rather than matched: attributes
// are only checked when both the request and the configuration carry some,
// and the configuration must be consumable. Capabilities are not consulted.
//
// # Determinism
//
// Candidates are sorted by name before every round and before they are put
// into a failure, so the result for a given request and component never
// depends on the order metadata was published in or on which worker ran the
// selection.
package selection
