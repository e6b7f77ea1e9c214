// Package tree materializes a linked-data graph into a rooted display tree.
//
// [Build] walks a root [jsonld.Record] and produces an immutable snapshot of
// [Node] values. Every field becomes a node; nested records and bare
// references become entity nodes. References are resolved against the graph
// up to a depth budget, and a reference to an identifier that is already
// being expanded on the current path becomes a [KindCyclicReference] leaf
// instead of being followed again.
//
// # Node Kinds
//
//   - [KindIdentifiedEntity]: a record with an "@id", labelled by it
//   - [KindAnonymousEntity]: a record without "@id", labelled by a short
//     structural hash that is stable across builds of the same graph
//   - [KindCyclicReference]: a reference cut short because it loops back
//   - [KindField]: a field name, with a literal value or sub-structure
//
// # Labels
//
// Long identifiers keep their tail ("...identifier-value") and long values
// keep their head ("Lorem ipsum..."). The untruncated text is kept in
// [Node.FullValue] for on-demand inspection. The character budget is
// derived from the pixel budget as MaxLabelWidth / 9.
//
// # Keys
//
// Each node has a [Node.Key] made from its child-index path ("0", "0.2",
// "0.2.0"). Keys are unique within a tree and identical across builds of an
// unchanged graph, so they can identify nodes between renders.
package tree
