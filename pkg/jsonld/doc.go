// Package jsonld provides the linked-data graph model that cratetree
// visualizes.
//
// A JSON-LD document is decoded into a [Graph]: an ordered collection of
// [Record] values taken from the document's "@graph" array. Records keep
// their fields in document order, because the tree builder expands fields
// in the order the author wrote them.
//
// # Values
//
// A field value is one of:
//
//   - a scalar: string, [Number] or bool
//   - a nested *[Record]
//   - an ordered []Value
//   - nil for JSON null
//
// A record that carries only an "@id" is a reference: it stands in for the
// full record with the same identifier elsewhere in the graph.
//
// # Identifiers
//
// Records are looked up by identifier with [Graph.Lookup]. If several
// records share an identifier the first one in document order wins; this
// is not reported.
//
// # Root Resolution
//
// Which record becomes the root of the visualization is decided by a
// [RootResolver]. The RO-Crate convention is provided by [ROCrateRoot]:
//
//	g, _ := jsonld.ReadFile("ro-crate-metadata.json")
//	root, err := jsonld.ResolveRoot(g, jsonld.ROCrateRoot)
//	if errors.Is(err, errors.ErrCodeRootNotFound) {
//	    // descriptor or dataset missing
//	}
package jsonld
