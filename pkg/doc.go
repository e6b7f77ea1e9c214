// Package pkg provides the core libraries of cratetree.
//
// # Overview
//
// cratetree turns a JSON-LD document, typically an RO-Crate metadata file,
// into a collapsible node-link tree. The graph reachable from the
// document's root is materialized as a tree in which every field, array
// element and referenced entity is a node; a layout controller then tracks
// which nodes are expanded and produces the animation frames a drawing
// surface needs when the user toggles one.
//
// # Architecture
//
//	JSON-LD document (file, URL or request body)
//	         ↓
//	    [jsonld] package (graph of records, root resolution)
//	         ↓
//	    [tree] package (display tree with stable keys)
//	         ↓
//	    [collapse] package (expand/collapse, radii, frames)
//	         ↓
//	    [surface] and [render] packages (SVG, DOT, JSON, PNG, PDF)
//
// [pipeline] ties the stages together with caching, and is what the CLI
// and the HTTP server call.
//
// # Quick Start
//
//	g, _ := jsonld.ReadFile("ro-crate-metadata.json")
//	root, _ := jsonld.ResolveRoot(g, jsonld.ROCrateRoot)
//	t := tree.Build(root, g, tree.DefaultOptions())
//
//	c, _ := collapse.New(t, config.Default())
//	frames, _ := c.Toggle("0.2")
//	svg, _ := svgsurface.Render(frames[len(frames)-1])
//
// # Supporting Packages
//
// [config] holds the tunable parameters and loads them from TOML or YAML.
// [cache] stores fetched documents and rendered artifacts on disk or in
// Redis. [session] keeps server sessions and the viewer's saved state.
// [errors] carries the error codes every layer reports. [io] exports tree
// snapshots as JSON.
//
// [jsonld]: github.com/matzehuels/cratetree/pkg/jsonld
// [tree]: github.com/matzehuels/cratetree/pkg/tree
// [collapse]: github.com/matzehuels/cratetree/pkg/collapse
// [surface]: github.com/matzehuels/cratetree/pkg/surface
// [render]: github.com/matzehuels/cratetree/pkg/render
// [pipeline]: github.com/matzehuels/cratetree/pkg/pipeline
// [config]: github.com/matzehuels/cratetree/pkg/config
// [cache]: github.com/matzehuels/cratetree/pkg/cache
// [session]: github.com/matzehuels/cratetree/pkg/session
// [errors]: github.com/matzehuels/cratetree/pkg/errors
// [io]: github.com/matzehuels/cratetree/pkg/io
package pkg
