package surface

// Op names a recorded surface call.
type Op string

const (
	OpEnterNode  Op = "enter-node"
	OpUpdateNode Op = "update-node"
	OpExitNode   Op = "exit-node"
	OpEnterLink  Op = "enter-link"
	OpUpdateLink Op = "update-link"
	OpExitLink   Op = "exit-link"
)

// Call is one recorded surface call. Exactly one of Node and Link is set.
type Call struct {
	Op         Op         `json:"op"`
	Node       *NodeState `json:"node,omitempty"`
	Link       *LinkState `json:"link,omitempty"`
	Transition Transition `json:"transition"`
}

// Canvas is the canvas reported by Begin.
type Canvas struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	OffsetX float64 `json:"offset_x"`
}

// Recorder is a Surface that records every call in order.
type Recorder struct {
	Canvas Canvas
	Calls  []Call
	Frames int
}

func (r *Recorder) Begin(width, height, offsetX float64) {
	r.Canvas = Canvas{Width: width, Height: height, OffsetX: offsetX}
	r.Calls = r.Calls[:0]
}

func (r *Recorder) EnterNode(n NodeState, t Transition)  { r.node(OpEnterNode, n, t) }
func (r *Recorder) UpdateNode(n NodeState, t Transition) { r.node(OpUpdateNode, n, t) }
func (r *Recorder) ExitNode(n NodeState, t Transition)   { r.node(OpExitNode, n, t) }
func (r *Recorder) EnterLink(l LinkState, t Transition)  { r.link(OpEnterLink, l, t) }
func (r *Recorder) UpdateLink(l LinkState, t Transition) { r.link(OpUpdateLink, l, t) }
func (r *Recorder) ExitLink(l LinkState, t Transition)   { r.link(OpExitLink, l, t) }

func (r *Recorder) End() error {
	r.Frames++
	return nil
}

// Ops returns the recorded operations in call order.
func (r *Recorder) Ops() []Op {
	ops := make([]Op, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Keys returns the keys touched by op, in call order.
func (r *Recorder) Keys(op Op) []string {
	var keys []string
	for _, c := range r.Calls {
		if c.Op != op {
			continue
		}
		if c.Node != nil {
			keys = append(keys, c.Node.Key)
		} else if c.Link != nil {
			keys = append(keys, c.Link.Key)
		}
	}
	return keys
}

func (r *Recorder) node(op Op, n NodeState, t Transition) {
	r.Calls = append(r.Calls, Call{Op: op, Node: &n, Transition: t})
}

func (r *Recorder) link(op Op, l LinkState, t Transition) {
	r.Calls = append(r.Calls, Call{Op: op, Link: &l, Transition: t})
}
