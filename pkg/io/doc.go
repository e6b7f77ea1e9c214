// Package io provides JSON import and export for display tree snapshots.
//
// # Overview
//
// A snapshot is the materialized tree of one document: every node with its
// key, labels and kind, nested the way the builder produced them. It is
// independent of any expansion state and of the source graph, which makes
// it suitable for:
//
//   - Diffing what two documents (or two builder settings) materialize
//   - Feeding external viewers that do their own layout
//   - Regression fixtures: export once, re-import and compare
//
// # JSON Format
//
//	{
//	  "key": "0",
//	  "name": "./",
//	  "kind": "entity",
//	  "children": [
//	    {"key": "0.0", "name": "@type", "value": "Dataset", "kind": "field"},
//	    {"key": "0.1", "name": "description", "value": "A long...",
//	     "full_value": "A long description", "kind": "field"}
//	  ]
//	}
//
// Kinds are "field", "entity", "anonymous" and "cyclic". Depth is not
// stored; it is implied by nesting.
//
// # Import
//
// [ReadJSON] and [ImportJSON] validate that keys are unique and that every
// child key extends its parent's key, so a re-imported snapshot can be
// addressed by the same node keys the layout controller uses.
package io
