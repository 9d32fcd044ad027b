// Package graph provides the resolved component graph and queries over it.
//
// A Graph is produced by every resolution and supports the questions users
// ask about a result:
//
//   - Which variant of a component was selected, and for whom
//   - Why a module is at its current version
//   - Which paths lead from the root to a component
//   - Whether the graph contains cycles
//
// # Building a Graph
//
// The resolution engine records version requests, conflict decisions and
// selections on a Builder:
//
//	b := graph.NewBuilder(rootID)
//	b.RecordRequest(module, "1.2", requester)
//	b.AddNode(id, candidate, false)
//	b.AddEdge(requester, id)
//	g := b.Build()
//
// # Querying the Graph
//
//	deps := g.DirectDeps(id)
//	explanation, _ := g.Explain(module)
//	path := g.Path(g.Root, id)
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON()
//	dotString := g.ToDOT()
//	textString := g.ToText()
package graph
