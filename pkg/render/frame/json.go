package frame

import (
	"github.com/goccy/go-json"

	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/surface"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	state       *collapse.State
	transitions bool
}

// WithJSONState records the expansion state so a consumer can restore the
// same view with [collapse.Controller.Restore].
func WithJSONState(s collapse.State) JSONOption {
	return func(r *jsonRenderer) { r.state = &s }
}

// WithJSONTransitions includes the enter, update and exit change-sets with
// their start positions, for clients that animate frames themselves.
func WithJSONTransitions() JSONOption { return func(r *jsonRenderer) { r.transitions = true } }

type jsonOutput struct {
	Source     string              `json:"source"`
	Width      float64             `json:"width"`
	Height     float64             `json:"height"`
	OffsetX    float64             `json:"offset_x"`
	Expanded   []string            `json:"expanded,omitempty"`
	Nodes      []jsonNode          `json:"nodes"`
	Links      []jsonLink          `json:"links"`
	Transition *surface.Transition `json:"transition,omitempty"`
	Changes    *jsonChanges        `json:"changes,omitempty"`
}

type jsonNode struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Tooltip   string  `json:"tooltip,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Fill      string  `json:"fill"`
	Stroke    string  `json:"stroke"`
	Entity    bool    `json:"entity,omitempty"`
	Collapsed bool    `json:"collapsed,omitempty"`
	Depth     int     `json:"depth"`
}

type jsonLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type jsonChanges struct {
	Nodes collapse.NodeChanges `json:"nodes"`
	Links collapse.LinkChanges `json:"links"`
}

// RenderJSON exports the settled state of a frame as a pretty-printed JSON
// document: canvas size, every visible node at its target position, and
// the parent-child links between them. Entering nodes come before updated
// ones.
func RenderJSON(f collapse.Frame, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Source:  f.Source,
		Width:   f.Width,
		Height:  f.Height,
		OffsetX: f.OffsetX,
		Nodes:   buildJSONNodes(f),
		Links:   buildJSONLinks(f),
	}
	if r.state != nil {
		out.Expanded = r.state.Expanded
	}
	if r.transitions {
		tr := f.Transition
		out.Transition = &tr
		out.Changes = &jsonChanges{Nodes: f.Nodes, Links: f.Links}
	}

	return json.MarshalIndent(out, "", "  ")
}

func buildJSONNodes(f collapse.Frame) []jsonNode {
	visible := f.Visible()
	nodes := make([]jsonNode, 0, len(visible))
	for _, n := range visible {
		nodes = append(nodes, jsonNode{
			Key:       n.Key,
			Label:     n.Label,
			Tooltip:   n.Tooltip,
			X:         n.To.X,
			Y:         n.To.Y,
			Radius:    n.Radius,
			Fill:      n.Fill,
			Stroke:    n.Stroke,
			Entity:    n.Entity,
			Collapsed: n.Collapsed,
			Depth:     n.Depth,
		})
	}
	return nodes
}

func buildJSONLinks(f collapse.Frame) []jsonLink {
	links := make([]jsonLink, 0, len(f.Links.Enter)+len(f.Links.Update))
	for _, set := range [][]surface.LinkState{f.Links.Enter, f.Links.Update} {
		for _, l := range set {
			links = append(links, jsonLink{Source: l.SourceKey, Target: l.Key})
		}
	}
	return links
}
