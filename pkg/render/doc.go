// Package render provides export formats for layout frames.
//
// # Overview
//
// The interactive surfaces live in [surface]; this package holds the static
// exports produced by the CLI and the server:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Node-link diagrams through Graphviz (in [nodelink] subpackage)
//   - Frame change-sets as JSON (in [frame] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg):
//
//	svg, err := svgsurface.Render(f)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [surface]: github.com/matzehuels/cratetree/pkg/surface
// [nodelink]: github.com/matzehuels/cratetree/pkg/render/nodelink
// [frame]: github.com/matzehuels/cratetree/pkg/render/frame
package render
