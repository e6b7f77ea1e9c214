package collapse

import (
	"github.com/matzehuels/cratetree/pkg/surface"
	"github.com/matzehuels/cratetree/pkg/tree"
)

// widthSlack is the margin kept between the deepest label and the canvas
// edge before the canvas grows.
const widthSlack = 20.0

// Frame is one render: the enter, update and exit change-sets.
type Frame struct {
	// Source is the key of the node whose interaction produced the frame.
	Source string `json:"source"`

	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	OffsetX float64 `json:"offset_x"`

	// Resized reports whether Width changed in this frame.
	Resized bool `json:"resized"`

	Transition surface.Transition `json:"transition"`
	Nodes      NodeChanges        `json:"nodes"`
	Links      LinkChanges        `json:"links"`
}

// NodeChanges partitions node states by change kind.
type NodeChanges struct {
	Enter  []surface.NodeState `json:"enter"`
	Update []surface.NodeState `json:"update"`
	Exit   []surface.NodeState `json:"exit"`
}

// LinkChanges partitions link states by change kind.
type LinkChanges struct {
	Enter  []surface.LinkState `json:"enter"`
	Update []surface.LinkState `json:"update"`
	Exit   []surface.LinkState `json:"exit"`
}

// Visible returns the states of the nodes shown once the frame settles.
func (f Frame) Visible() []surface.NodeState {
	out := make([]surface.NodeState, 0, len(f.Nodes.Enter)+len(f.Nodes.Update))
	out = append(out, f.Nodes.Enter...)
	return append(out, f.Nodes.Update...)
}

// Render lays out the visible tree and diffs it against the previous
// render. sourceKey names the interacting node: entering elements grow out
// of its previous position and exiting elements shrink into its new one.
// An unknown key falls back to the root.
func (c *Controller) Render(sourceKey string) Frame {
	src, ok := c.index[sourceKey]
	if !ok {
		src = c.root
	}
	origin := c.anchor(src, c.pos)

	visible := c.VisibleNodes()
	layout := c.layout(visible)
	target := c.anchor(src, layout)

	f := Frame{
		Source:     src.Key,
		Height:     c.cfg.Height,
		OffsetX:    c.cfg.MaxLabelWidth,
		Transition: surface.Transition{Duration: c.cfg.TransitionDuration, Ease: c.cfg.TransitionEase},
	}
	f.Resized = c.grow(layout)
	f.Width = c.width

	for _, n := range visible {
		st := c.state(n)
		st.To = layout[n.Key]
		if c.shown[n.Key] {
			st.From = c.pos[n.Key]
			f.Nodes.Update = append(f.Nodes.Update, st)
		} else {
			st.From = origin
			f.Nodes.Enter = append(f.Nodes.Enter, st)
		}

		p := c.parent[n.Key]
		if p == nil {
			continue
		}
		l := surface.LinkState{
			Key:       n.Key,
			SourceKey: p.Key,
			To:        surface.Segment{Source: layout[p.Key], Target: layout[n.Key]},
		}
		if c.shown[n.Key] {
			l.From = surface.Segment{Source: c.pos[p.Key], Target: c.pos[n.Key]}
			f.Links.Update = append(f.Links.Update, l)
		} else {
			l.From = surface.Segment{Source: origin, Target: origin}
			f.Links.Enter = append(f.Links.Enter, l)
		}
	}

	for _, key := range c.order {
		if _, still := layout[key]; still {
			continue
		}
		n := c.index[key]
		st := c.state(n)
		st.From, st.To = c.pos[key], target
		f.Nodes.Exit = append(f.Nodes.Exit, st)

		if p := c.parent[key]; p != nil {
			f.Links.Exit = append(f.Links.Exit, surface.LinkState{
				Key:       key,
				SourceKey: p.Key,
				From:      surface.Segment{Source: c.pos[p.Key], Target: c.pos[key]},
				To:        surface.Segment{Source: target, Target: target},
			})
		}
	}

	c.order = c.order[:0]
	clear(c.shown)
	for _, n := range visible {
		c.pos[n.Key] = layout[n.Key]
		c.shown[n.Key] = true
		c.order = append(c.order, n.Key)
	}
	return f
}

// Position returns the position of a node in the last rendered frame.
func (c *Controller) Position(key string) (surface.Point, bool) {
	if !c.shown[key] {
		return surface.Point{}, false
	}
	return c.pos[key], true
}

// state returns the drawable state of n without positions.
func (c *Controller) state(n *tree.Node) surface.NodeState {
	entity := n.IsEntity()
	r := c.Radius(n)
	st := surface.NodeState{
		Key:         n.Key,
		Label:       n.Label(),
		Tooltip:     n.FullValue,
		Radius:      r,
		Stroke:      c.theme.Stroke(entity),
		StrokeWidth: c.theme.StrokeWidth(entity),
		Fill:        c.Fill(n),
		TextAnchor:  surface.AnchorStart,
		TextOffset:  r + labelGap,
		Entity:      entity,
		Collapsed:   c.collapsed(n),
		Depth:       n.Depth,
	}
	if n.HasChildren() {
		st.TextAnchor = surface.AnchorEnd
		st.TextOffset = -(r + labelGap)
	}
	return st
}

// anchor returns the position of n in positions, or of its nearest
// ancestor that has one.
func (c *Controller) anchor(n *tree.Node, positions map[string]surface.Point) surface.Point {
	for cur := n; cur != nil; cur = c.parent[cur.Key] {
		if p, ok := positions[cur.Key]; ok {
			return p
		}
	}
	return surface.Point{X: 0, Y: c.cfg.Height / 2}
}

// grow widens the canvas when the deepest label no longer fits and reports
// whether the width changed.
func (c *Controller) grow(layout map[string]surface.Point) bool {
	span := 0.0
	for _, p := range layout {
		span = max(span, p.X+c.cfg.MaxLabelWidth)
	}
	if span+c.cfg.MaxLabelWidth+widthSlack <= c.width {
		return false
	}
	w := span + c.cfg.MaxLabelWidth
	changed := w != c.width
	c.width = w
	return changed
}

// layout assigns positions to the visible nodes.
func (c *Controller) layout(visible []*tree.Node) map[string]surface.Point {
	slot := make(map[string]float64, len(visible))
	var first, last *tree.Node
	var next float64

	var place func(n *tree.Node)
	place = func(n *tree.Node) {
		kids := c.VisibleChildren(n)
		if len(kids) == 0 {
			if last != nil {
				next += c.separation(last, n)
			} else {
				first = n
			}
			slot[n.Key] = next
			last = n
			return
		}
		for _, ch := range kids {
			place(ch)
		}
		slot[n.Key] = (slot[kids[0].Key] + slot[kids[len(kids)-1].Key]) / 2
	}
	place(c.root)

	// Scale slots to the canvas height with half a separation of padding
	// at either edge.
	tx := c.separation(first, last)/2 - slot[first.Key]
	kx := c.cfg.Height / (slot[last.Key] + c.separation(last, first)/2 + tx)

	out := make(map[string]surface.Point, len(slot))
	for _, n := range visible {
		out[n.Key] = surface.Point{
			X: float64(n.Depth) * c.cfg.MaxLabelWidth,
			Y: (slot[n.Key] + tx) * kx,
		}
	}
	return out
}

// separation is the slot distance between two adjacent leaves: one between
// siblings, two otherwise.
func (c *Controller) separation(a, b *tree.Node) float64 {
	if c.parent[a.Key] == c.parent[b.Key] {
		return 1
	}
	return 2
}
