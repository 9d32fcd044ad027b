// Package model holds the read-only metadata view the selector works on:
// components, the variants and legacy configurations they publish, consumer
// requests, and dependency edges.
//
// All values in this package are treated as immutable once they have been
// handed to a [Provider]. Selection and conflict resolution never modify
// them, which is what allows edges to be resolved in parallel.
//
// # Candidates
//
// A component is selected from in one of two modes. Components that publish
// variants are matched by attributes; older components only publish named
// configurations, which are picked by name. [Candidate] is the tagged union
// of the two so selection code can switch over [Candidate.Kind] instead of
// relying on a type hierarchy.
package model
