package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/surface"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed appends the untruncated value to labels that were shortened.
	Detailed bool
}

// ToDOT converts the resting state of a frame to Graphviz DOT. Entities are
// ellipses, fields are rounded boxes, and nodes hiding children are filled
// with their palette colour, mirroring the tree view.
func ToDOT(f collapse.Frame, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"sans-serif\", fontsize=12, style=filled, fillcolor=white];\n")
	buf.WriteString("  edge [arrowhead=none, color=\"#cccccc\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	for _, n := range f.Visible() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
	}

	buf.WriteString("\n")
	for _, l := range visibleLinks(f) {
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.SourceKey, l.Key)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func visibleLinks(f collapse.Frame) []surface.LinkState {
	out := make([]surface.LinkState, 0, len(f.Links.Enter)+len(f.Links.Update))
	out = append(out, f.Links.Enter...)
	return append(out, f.Links.Update...)
}

func fmtLabel(n surface.NodeState, detailed bool) string {
	if !detailed || n.Tooltip == "" {
		return n.Label
	}
	return n.Label + "\n" + n.Tooltip
}

func fmtAttrs(n surface.NodeState, label string) []string {
	shape := "box"
	style := "\"rounded,filled\""
	if n.Entity {
		shape = "ellipse"
		style = "filled"
	}
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		"shape=" + shape,
		"style=" + style,
		fmt.Sprintf("color=%q", n.Stroke),
		fmt.Sprintf("penwidth=%s", strconv.FormatFloat(n.StrokeWidth, 'f', -1, 64)),
		fmt.Sprintf("fillcolor=%q", n.Fill),
	}
	if n.Collapsed && n.Entity {
		attrs = append(attrs, "fontcolor=white")
	}
	if n.Tooltip != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Tooltip))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
