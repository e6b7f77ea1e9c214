// Package nodelink renders the visible tree as a Graphviz node-link diagram.
//
// # Overview
//
// The tree view positions nodes itself; this package hands the same visible
// nodes to Graphviz instead, which is useful for documents whose shape the
// leaf-slot layout draws poorly, or for feeding other Graphviz tooling.
//
// # Usage
//
//	f := controller.Render(tree.RootKey)
//	dot := nodelink.ToDOT(f, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The generated DOT lays out left to right (rankdir=LR) like the tree view.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
