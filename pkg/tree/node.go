package tree

import "strings"

// Kind classifies a display node.
type Kind int

// Node kinds.
const (
	KindField Kind = iota
	KindIdentifiedEntity
	KindAnonymousEntity
	KindCyclicReference
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindIdentifiedEntity:
		return "entity"
	case KindAnonymousEntity:
		return "anonymous"
	case KindCyclicReference:
		return "cyclic"
	default:
		return "field"
	}
}

// Node is one node of the display tree. Nodes are never mutated after
// [Build] returns; visibility is tracked by the layout controller.
type Node struct {
	Key       string  // Child-index path, unique within the tree
	Name      string  // Short label
	Value     string  // Literal value of a field leaf, possibly truncated
	FullValue string  // Untruncated text, set only when truncation occurred
	Kind      Kind    // Entity or field classification
	Depth     int     // Distance from the root
	Children  []*Node // Nil for leaves
}

// IsEntity reports whether the node stands for a record.
func (n *Node) IsEntity() bool {
	return n.Kind != KindField
}

// HasChildren reports whether the node has any children.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Truncated reports whether the label lost text to the label budget.
func (n *Node) Truncated() bool {
	return n.FullValue != ""
}

// Label returns the display text, "name" or "name: value".
func (n *Node) Label() string {
	if n.Value == "" {
		return n.Name
	}
	return n.Name + ": " + n.Value
}

// =============================================================================
// Traversal
// =============================================================================

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Find returns the node with the given key below (or at) root.
func Find(root *Node, key string) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	n := root
	if key == n.Key {
		return n, true
	}
	if !strings.HasPrefix(key, n.Key+".") {
		return nil, false
	}
	for n.Key != key {
		var next *Node
		for _, c := range n.Children {
			if c.Key == key || strings.HasPrefix(key, c.Key+".") {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		n = next
	}
	return n, true
}

// LeafCount returns the number of leaves reachable from n. A leaf counts
// itself, so the result is at least 1.
func LeafCount(n *Node) int {
	if n == nil {
		return 0
	}
	if len(n.Children) == 0 {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += LeafCount(c)
	}
	return total
}

// Size returns the total number of nodes in the tree.
func Size(n *Node) int {
	count := 0
	Walk(n, func(*Node) bool { count++; return true })
	return count
}

// Height returns the depth of the deepest node relative to n.
func Height(n *Node) int {
	h := 0
	Walk(n, func(c *Node) bool {
		h = max(h, c.Depth-n.Depth)
		return true
	})
	return h
}
