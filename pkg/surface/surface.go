// Package surface defines the drawing-surface collaborator of the layout
// controller.
//
// A render produces three change-sets: entering elements (newly visible),
// persisting elements (visible before and after), and exiting elements
// (no longer visible). A [Surface] receives each element together with the
// [Transition] it should animate with. Every state carries both ends of its
// animation: From is where the element starts, To where it comes to rest.
//
//	Enter: From = source's previous position, To = final position
//	Update: From = own previous position,     To = final position
//	Exit:  From = own previous position,      To = source's new position
//
// Implementations decide how much of that animation they realise. The SVG
// surface draws the resting frame; the [Recorder] keeps every call for
// inspection.
package surface

import "time"

// Point is a position on the canvas. X grows with tree depth, Y spreads
// siblings across the canvas height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is the pair of endpoints a link connects.
type Segment struct {
	Source Point `json:"source"`
	Target Point `json:"target"`
}

// Text anchors.
const (
	AnchorStart = "start"
	AnchorEnd   = "end"
)

// NodeState is the drawable state of one tree node.
type NodeState struct {
	Key   string `json:"key"`
	Label string `json:"label"`

	// Tooltip holds the untruncated value when the label was shortened.
	Tooltip string `json:"tooltip,omitempty"`

	From Point `json:"from"`
	To   Point `json:"to"`

	Radius      float64 `json:"radius"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"stroke_width"`
	Fill        string  `json:"fill"`

	// TextAnchor and TextOffset place the label: to the left of nodes with
	// children, to the right of leaves. TextOffset is signed.
	TextAnchor string  `json:"text_anchor"`
	TextOffset float64 `json:"text_offset"`

	Entity    bool `json:"entity"`
	Collapsed bool `json:"collapsed"`
	Depth     int  `json:"depth"`
}

// LinkState is the drawable state of the link ending at the node Key.
type LinkState struct {
	Key       string  `json:"key"`
	SourceKey string  `json:"source_key"`
	From      Segment `json:"from"`
	To        Segment `json:"to"`
}

// Transition describes how a change is animated.
type Transition struct {
	Duration time.Duration `json:"duration"`
	Ease     string        `json:"ease"`
}

// Surface receives one frame of change-sets. Calls arrive between Begin and
// End in the order entering, persisting, exiting, with nodes before links
// inside each set.
type Surface interface {
	// Begin starts a frame on a canvas of the given size. offsetX is the
	// horizontal translation applied to all tree coordinates.
	Begin(width, height, offsetX float64)

	EnterNode(n NodeState, t Transition)
	UpdateNode(n NodeState, t Transition)
	ExitNode(n NodeState, t Transition)

	EnterLink(l LinkState, t Transition)
	UpdateLink(l LinkState, t Transition)
	ExitLink(l LinkState, t Transition)

	// End completes the frame and reports any error the surface hit.
	End() error
}
