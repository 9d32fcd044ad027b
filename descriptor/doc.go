// Package descriptor loads component graphs described in files.
//
// Two syntaxes describe the same Document:
//
// Starlark (.star, .bzl, .varsel), parsed with buildtools:
//
//	root(id = "acme:app", attributes = {"usage": "runtime"})
//	dependency(module = "org:lib", version = "1.0")
//
//	attribute(name = "usage", compatible = {"runtime": ["api"]}, preference = ["runtime", "api"])
//
//	component(id = "org:lib:1.0")
//	variant(component = "org:lib:1.0", name = "runtime", attributes = {"usage": "runtime"})
//	dependency(owner = "org:lib:1.0", variant = "runtime", module = "org:util", version = "2.0")
//
//	capability_rule(capability = "org:logging", select = "org:slf")
//
// A dependency without owner belongs to the root. Variants,
// configurations and attributes name their component explicitly.
//
// YAML (.yaml, .yml) nests the same declarations:
//
//	root:
//	  id: acme:app
//	  attributes: {usage: runtime}
//	  dependencies:
//	    - {module: org:lib, version: "1.0"}
//	components:
//	  - id: org:lib:1.0
//	    variants:
//	      - name: runtime
//	        attributes: {usage: runtime}
//
// Document.Build turns a validated document into a provider, a consumer
// schema, a root and capability rules ready for resolution.
package descriptor
