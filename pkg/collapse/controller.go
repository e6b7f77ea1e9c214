package collapse

import (
	"slices"

	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/surface"
	"github.com/matzehuels/cratetree/pkg/tree"
)

// labelGap is the distance between a circle and its label.
const labelGap = 5.0

// Controller holds the expand/collapse state of one tree.
type Controller struct {
	root  *tree.Node
	cfg   config.Config
	theme surface.Theme

	index  map[string]*tree.Node
	parent map[string]*tree.Node
	leaves map[string]int
	scale  float64

	expanded map[string]bool

	// pos keeps the last assigned position of every node ever laid out.
	// shown and order describe the previously rendered visible set.
	pos   map[string]surface.Point
	shown map[string]bool
	order []string

	width   float64
	initial Frame
}

// Option configures a Controller.
type Option func(*Controller)

// WithTheme overrides the node colours.
func WithTheme(t surface.Theme) Option { return func(c *Controller) { c.theme = t } }

// New returns a controller for root. Zero config fields take defaults. The
// initial state expands every node shallower than cfg.ExpandDepth; with the
// default of 1 only the root is expanded and its children are visible.
// New renders that state once, so the first Toggle diffs against it.
func New(root *tree.Node, cfg config.Config, opts ...Option) (*Controller, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeNoRoot, "no tree root to lay out")
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		root:   root,
		cfg:    cfg,
		theme:  surface.DefaultTheme(),
		index:  make(map[string]*tree.Node),
		parent: make(map[string]*tree.Node),
		leaves: make(map[string]int),
		pos:    make(map[string]surface.Point),
		shown:  make(map[string]bool),
		width:  cfg.Width,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.indexTree(root)
	c.scale = cfg.MaxRadius / float64(c.leaves[root.Key])
	c.pos[root.Key] = surface.Point{X: 0, Y: cfg.Height / 2}
	c.reset()
	c.initial = c.Render(root.Key)
	return c, nil
}

// indexTree fills the key, parent and leaf-count lookups.
func (c *Controller) indexTree(n *tree.Node) int {
	c.index[n.Key] = n
	if !n.HasChildren() {
		c.leaves[n.Key] = 1
		return 1
	}
	total := 0
	for _, ch := range n.Children {
		c.parent[ch.Key] = n
		total += c.indexTree(ch)
	}
	c.leaves[n.Key] = total
	return total
}

func (c *Controller) reset() {
	c.expanded = make(map[string]bool)
	tree.Walk(c.root, func(n *tree.Node) bool {
		if n.Depth >= c.cfg.ExpandDepth {
			return false
		}
		if n.HasChildren() {
			c.expanded[n.Key] = true
		}
		return true
	})
}

// Initial returns the frame of the first render, in which every visible
// node enters from the root.
func (c *Controller) Initial() Frame { return c.initial }

// Root returns the tree snapshot.
func (c *Controller) Root() *tree.Node { return c.root }

// Config returns the effective configuration.
func (c *Controller) Config() config.Config { return c.cfg }

// Width returns the current canvas width, including auto-growth.
func (c *Controller) Width() float64 { return c.width }

// Node looks up a node by key.
func (c *Controller) Node(key string) (*tree.Node, bool) {
	n, ok := c.index[key]
	return n, ok
}

// Parent returns the parent of the node with key, or nil for the root.
func (c *Controller) Parent(key string) *tree.Node { return c.parent[key] }

// Expanded reports whether the node with key shows its children.
func (c *Controller) Expanded(key string) bool { return c.expanded[key] }

// VisibleChildren returns n's children when n is expanded, else nil.
func (c *Controller) VisibleChildren(n *tree.Node) []*tree.Node {
	if c.expanded[n.Key] {
		return n.Children
	}
	return nil
}

// HiddenChildren returns n's children when n is collapsed, else nil.
func (c *Controller) HiddenChildren(n *tree.Node) []*tree.Node {
	if c.expanded[n.Key] {
		return nil
	}
	return n.Children
}

// VisibleNodes returns the nodes reachable through expanded nodes, in
// pre-order.
func (c *Controller) VisibleNodes() []*tree.Node {
	var out []*tree.Node
	var visit func(n *tree.Node)
	visit = func(n *tree.Node) {
		out = append(out, n)
		for _, ch := range c.VisibleChildren(n) {
			visit(ch)
		}
	}
	visit(c.root)
	return out
}

// LeafCount returns the number of leaves in n's full subtree.
func (c *Controller) LeafCount(n *tree.Node) int {
	if v, ok := c.leaves[n.Key]; ok {
		return v
	}
	return tree.LeafCount(n)
}

// Radius returns the circle radius of n. Nodes with children scale with
// their total leaf count, clamped to the configured bounds; leaves use the
// minimum radius.
func (c *Controller) Radius(n *tree.Node) float64 {
	if !n.HasChildren() {
		return c.cfg.MinRadius
	}
	r := float64(c.LeafCount(n)) * c.scale
	return max(c.cfg.MinRadius, min(r, c.cfg.MaxRadius))
}

// Fill returns the circle fill of n.
func (c *Controller) Fill(n *tree.Node) string {
	return c.theme.Fill(n.IsEntity(), c.collapsed(n))
}

func (c *Controller) collapsed(n *tree.Node) bool {
	return n.HasChildren() && !c.expanded[n.Key]
}

// =============================================================================
// Mutations
// =============================================================================

// Toggle flips the node with key between expanded and collapsed and returns
// the frames it produced. Expanding also fast-forwards through anonymous
// children hiding their own children, one frame per expansion. Toggling a
// leaf returns no frames.
func (c *Controller) Toggle(key string) ([]Frame, error) {
	n, ok := c.index[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no node with key %q", key)
	}
	if !n.HasChildren() {
		return nil, nil
	}

	if c.expanded[key] {
		delete(c.expanded, key)
	} else {
		c.expanded[key] = true
	}
	frames := []Frame{c.Render(key)}

	if !c.expanded[key] {
		return frames, nil
	}
	for _, ch := range n.Children {
		if ch.Kind == tree.KindAnonymousEntity && c.collapsed(ch) {
			more, err := c.Toggle(ch.Key)
			if err != nil {
				return frames, err
			}
			frames = append(frames, more...)
		}
	}
	return frames, nil
}

// ExpandAll expands every node with children.
func (c *Controller) ExpandAll() Frame {
	tree.Walk(c.root, func(n *tree.Node) bool {
		if n.HasChildren() {
			c.expanded[n.Key] = true
		}
		return true
	})
	return c.Render(c.root.Key)
}

// CollapseAll collapses every node, leaving only the root visible.
func (c *Controller) CollapseAll() Frame {
	clear(c.expanded)
	return c.Render(c.root.Key)
}

// State is a snapshot of the expanded set.
type State struct {
	Expanded []string `json:"expanded"`
}

// State returns the expanded keys in sorted order.
func (c *Controller) State() State {
	keys := make([]string, 0, len(c.expanded))
	for k := range c.expanded {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return State{Expanded: keys}
}

// Restore replaces the expanded set with s and renders from the root. Keys
// that no longer exist or name leaves are ignored, so a state saved for an
// earlier version of the document degrades gracefully.
func (c *Controller) Restore(s State) Frame {
	clear(c.expanded)
	for _, k := range s.Expanded {
		if n, ok := c.index[k]; ok && n.HasChildren() {
			c.expanded[k] = true
		}
	}
	return c.Render(c.root.Key)
}
