// Package varsel resolves dependency declaration graphs into a consistent set
// of chosen component variants.
//
// # Overview
//
// For every dependency edge the engine chooses exactly one variant (or legacy
// configuration) of the target component. A variant qualifies when its
// attributes are compatible with the requested attributes and it provides the
// requested capabilities. When several qualify, the engine disambiguates by
// attribute preference, exact capabilities and, optionally, the requested
// artifact classifier. When one module is requested in several versions, a
// module conflict resolver picks one. When different modules provide the same
// capability, a chain of capability resolvers picks one and edges to the
// losers are moved to the winner.
//
// Failures are structured values from package failure. They never abort a
// resolution: each is kept on the edge it belongs to and Result.Err joins them.
//
// # Quick Start
//
//	provider := model.NewMemoryProvider(components...)
//	engine, err := varsel.New(provider,
//	    varsel.WithLogger(logger),
//	    varsel.WithPreferProject(),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Resolve(ctx, varsel.Root{
//	    ID:           model.MustComponentID("com.acme:app:1.0"),
//	    Attributes:   attribute.FromStrings(map[string]string{"usage": "runtime"}),
//	    Dependencies: deps,
//	})
//	if err != nil {
//	    return err // provider failure or cancellation
//	}
//	if err := result.Err(); err != nil {
//	    fmt.Println(render.Failures(err))
//	}
//
// # Packages
//
//   - attribute, capability, model: the data model
//   - matching, assess, selection: variant selection for one edge
//   - conflict: module and capability conflict resolution
//   - graph: the resolved graph and its queries and formats
//   - descriptor, config, render: loading descriptors and configuration,
//     rendering failures
package varsel
