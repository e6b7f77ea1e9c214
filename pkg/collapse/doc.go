// Package collapse implements the collapsible tree layout controller.
//
// A [Controller] owns an immutable [tree.Node] snapshot and a separate set of
// expanded node keys. Every mutation (Toggle, ExpandAll, CollapseAll,
// Restore) re-derives the visible subtree from that set, lays it out, and
// diffs it against the previously rendered nodes by key. The result is a
// [Frame]: the entering, persisting and exiting nodes and links with their
// start and end positions, ready to be replayed onto a [surface.Surface]
// with [Draw].
//
// # Geometry
//
// Horizontal position is depth times the label width. Vertical position
// comes from a leaf-slot layout: leaves are placed in order one slot apart
// (two slots between leaves of different parents) and parents are centred
// over their first and last visible child. The slots are then scaled to the
// canvas height.
//
// Circle radius is proportional to the total leaf count of the node's full
// subtree, hidden children included, so collapsing a node never changes its
// size:
//
//	radius = clamp(leafCount * maxRadius / leafCount(root), minRadius, maxRadius)
//
// # Fast-forward
//
// Expanding a node also expands each direct anonymous child that is hiding
// children, recursively, so that structural blank nodes do not need a click
// of their own. Each expansion yields its own frame.
//
// # Concurrency
//
// A Controller is not safe for concurrent use. Hosts serialize access.
package collapse
