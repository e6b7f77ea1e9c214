// Package svg draws layout frames as static SVG documents.
//
// The surface buffers the entering and persisting elements of a frame and
// writes the resting state on End: links first, then nodes on top. Exiting
// elements are dropped. Each node group carries a data-key attribute so a
// host page can wire clicks back to the controller, and nodes with a
// truncated label carry a <title> tooltip with the full value.
//
// Transitions are expressed as CSS rules so that a host which swaps the
// transform attribute of a node (or the d attribute of a link) gets the
// configured animation for free.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	svgo "github.com/ajstarks/svgo"

	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/surface"
)

// Label font settings.
const (
	fontFamily = "sans-serif"
	fontSize   = 12
	labelDY    = 4
)

// cssEase maps easing names to CSS timing functions.
var cssEase = map[string]string{
	"linear":       "linear",
	"cubic-in":     "cubic-bezier(0.55, 0.055, 0.675, 0.19)",
	"cubic-out":    "cubic-bezier(0.215, 0.61, 0.355, 1)",
	"cubic-in-out": "cubic-bezier(0.645, 0.045, 0.355, 1)",
}

// Surface is a surface.Surface writing one SVG document per frame.
type Surface struct {
	w io.Writer

	width, height, offsetX float64
	transition             surface.Transition

	nodes []surface.NodeState
	links []surface.LinkState
}

// New returns a surface writing to w.
func New(w io.Writer) *Surface {
	return &Surface{w: w}
}

func (s *Surface) Begin(width, height, offsetX float64) {
	s.width, s.height, s.offsetX = width, height, offsetX
	s.nodes = s.nodes[:0]
	s.links = s.links[:0]
}

func (s *Surface) EnterNode(n surface.NodeState, t surface.Transition)  { s.addNode(n, t) }
func (s *Surface) UpdateNode(n surface.NodeState, t surface.Transition) { s.addNode(n, t) }
func (s *Surface) ExitNode(surface.NodeState, surface.Transition)       {}

func (s *Surface) EnterLink(l surface.LinkState, t surface.Transition)  { s.addLink(l, t) }
func (s *Surface) UpdateLink(l surface.LinkState, t surface.Transition) { s.addLink(l, t) }
func (s *Surface) ExitLink(surface.LinkState, surface.Transition)       {}

func (s *Surface) addNode(n surface.NodeState, t surface.Transition) {
	s.nodes = append(s.nodes, n)
	s.transition = t
}

func (s *Surface) addLink(l surface.LinkState, t surface.Transition) {
	s.links = append(s.links, l)
	s.transition = t
}

// End writes the buffered frame.
func (s *Surface) End() error {
	var buf bytes.Buffer
	canvas := svgo.New(&buf)

	canvas.Start(px(s.width), px(s.height), `class="cratetree"`)
	canvas.Style("text/css", s.css())
	canvas.Gtransform(fmt.Sprintf("translate(%s,0)", num(s.offsetX)))

	for _, l := range s.links {
		canvas.Path(Diagonal(l.To), `class="link"`, attr("data-key", l.Key), attr("data-source", l.SourceKey))
	}
	for _, n := range s.nodes {
		s.node(canvas, n)
	}

	canvas.Gend()
	canvas.End()

	_, err := s.w.Write(buf.Bytes())
	return err
}

func (s *Surface) node(canvas *svgo.SVG, n surface.NodeState) {
	class := "node field"
	if n.Entity {
		class = "node entity"
	}
	if n.Collapsed {
		class += " collapsed"
	}

	canvas.Group(
		attr("class", class),
		attr("data-key", n.Key),
		fmt.Sprintf(`transform="translate(%s,%s)"`, num(n.To.X), num(n.To.Y)),
	)
	if n.Tooltip != "" {
		canvas.Title(n.Tooltip)
	}
	canvas.Circle(0, 0, px(n.Radius),
		fmt.Sprintf("stroke:%s;stroke-width:%spx;fill:%s", n.Stroke, num(n.StrokeWidth), n.Fill))
	canvas.Text(px(n.TextOffset), labelDY, n.Label, attr("text-anchor", n.TextAnchor))
	canvas.Gend()
}

func (s *Surface) css() string {
	ease, ok := cssEase[s.transition.Ease]
	if !ok {
		ease = "ease"
	}
	d := s.transition.Duration.Milliseconds()

	var b strings.Builder
	fmt.Fprintf(&b, ".cratetree text { font: %dpx %s; }\n", fontSize, fontFamily)
	b.WriteString(".cratetree .node { cursor: pointer; }\n")
	b.WriteString(".cratetree .link { fill: none; stroke: #ccc; stroke-width: 1.5px; }\n")
	fmt.Fprintf(&b, ".cratetree .node, .cratetree .link { transition: all %dms %s; }\n", d, ease)
	return b.String()
}

// Diagonal returns the cubic connector path between the segment's ends,
// bending horizontally halfway between them.
func Diagonal(seg surface.Segment) string {
	mx := (seg.Source.X + seg.Target.X) / 2
	return fmt.Sprintf("M%s,%s C%s,%s %s,%s %s,%s",
		num(seg.Source.X), num(seg.Source.Y),
		num(mx), num(seg.Source.Y),
		num(mx), num(seg.Target.Y),
		num(seg.Target.X), num(seg.Target.Y))
}

// Render draws f into a standalone SVG document.
func Render(f collapse.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := collapse.Draw(New(&buf), f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func px(v float64) int { return int(math.Round(v)) }

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func attr(name, value string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(&b, []byte(value))
	b.WriteByte('"')
	return b.String()
}
