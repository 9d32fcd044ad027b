// Package conflict arbitrates between candidates that cannot coexist in one
// resolved graph.
//
// Two kinds of conflict exist:
//
//   - Module conflicts: several versions of the same module were requested.
//     A ModuleResolver picks one component, either the latest version
//     (LatestResolver) or a project-backed component when one exists
//     (ProjectResolver).
//
//   - Capability conflicts: components of different modules provide the
//     same capability. A CapabilityChain asks its resolvers in order until
//     one decides. The default chain is UserRules, then LastCandidate, then
//     RejectRemaining, which fails the conflict.
//
// Resolvers are pure. They never mutate their inputs and order candidates
// before deciding, so the decision does not depend on discovery order.
package conflict
