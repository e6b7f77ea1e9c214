package collapse

import "github.com/matzehuels/cratetree/pkg/surface"

// Draw replays f onto s: entering, then persisting, then exiting elements,
// nodes before links within each set.
func Draw(s surface.Surface, f Frame) error {
	t := f.Transition
	s.Begin(f.Width, f.Height, f.OffsetX)

	for _, n := range f.Nodes.Enter {
		s.EnterNode(n, t)
	}
	for _, l := range f.Links.Enter {
		s.EnterLink(l, t)
	}
	for _, n := range f.Nodes.Update {
		s.UpdateNode(n, t)
	}
	for _, l := range f.Links.Update {
		s.UpdateLink(l, t)
	}
	for _, n := range f.Nodes.Exit {
		s.ExitNode(n, t)
	}
	for _, l := range f.Links.Exit {
		s.ExitLink(l, t)
	}
	return s.End()
}
