package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/matzehuels/cratetree/pkg/jsonld"
)

const (
	// DefaultMaxDepth bounds how many references deep the builder resolves.
	DefaultMaxDepth = 5

	// DefaultMaxLabelWidth is the pixel budget for a label.
	DefaultMaxLabelWidth = 250.0

	// CharWidth is the assumed pixel width of one label character. A label
	// budget narrower than one character is rounded up to one.
	CharWidth = 9.0

	ellipsis = "..."

	// RootKey is the key of the tree root.
	RootKey = "0"
)

// Options controls tree materialization.
type Options struct {
	// MaxDepth is the reference-resolution budget. Zero disables resolution:
	// every bare reference renders as an identifier leaf.
	MaxDepth int

	// MaxLabelWidth is the label pixel budget; it sets the truncation
	// threshold in characters via LabelBudget. Non-positive means default.
	MaxLabelWidth float64
}

// DefaultOptions returns the default builder options.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth, MaxLabelWidth: DefaultMaxLabelWidth}
}

// LabelBudget returns the number of characters a label may hold before it
// is truncated.
func (o Options) LabelBudget() int {
	w := o.MaxLabelWidth
	if w <= 0 {
		w = DefaultMaxLabelWidth
	}
	return max(int(w/CharWidth), 1)
}

// builder carries the per-build state through the recursion.
type builder struct {
	graph  *jsonld.Graph
	budget int

	// resolving holds the identifiers whose fields are being expanded on
	// the current path.
	resolving map[string]bool
}

// Build materializes the tree rooted at root. It returns nil when root is
// nil. Build never fails: dangling references and exhausted depth become
// identifier leaves, and unexpected values are stringified.
func Build(root *jsonld.Record, g *jsonld.Graph, opts Options) *Node {
	if root == nil {
		return nil
	}
	b := &builder{
		graph:     g,
		budget:    opts.LabelBudget(),
		resolving: make(map[string]bool),
	}
	return b.record(root, RootKey, "", 0, opts.MaxDepth)
}

// record builds the node for one record. parentKey is the key of the node
// holding it (empty for the root); depth is the node's tree depth and
// budget the remaining reference-resolution depth.
func (b *builder) record(src *jsonld.Record, key, parentKey string, depth, budget int) *Node {
	n := &Node{Key: key, Depth: depth}

	id, identified := src.ID()
	if !identified {
		n.Kind = KindAnonymousEntity
		n.Name = anonymousName(parentKey, key, src)
		n.Children = b.fields(src, n, budget)
		return n
	}

	n.Kind = KindIdentifiedEntity
	n.Name, n.FullValue = truncateTail(id, b.budget)

	if src.IsReference() {
		if budget <= 0 {
			return n
		}
		if b.resolving[id] {
			n.Kind = KindCyclicReference
			return n
		}
		resolved, ok := b.graph.Lookup(id)
		if !ok {
			return n
		}
		src = resolved
	}

	// Only the outermost expansion of an identifier owns the path entry.
	if !b.resolving[id] {
		b.resolving[id] = true
		defer delete(b.resolving, id)
	}
	n.Children = b.fields(src, n, budget)
	return n
}

// fields expands the record's fields in document order.
func (b *builder) fields(src *jsonld.Record, parent *Node, budget int) []*Node {
	var children []*Node
	for _, k := range src.Keys() {
		if k == jsonld.KeyID || k == jsonld.KeyContext {
			continue
		}
		v, _ := src.Get(k)
		if v == nil {
			continue
		}
		key := childKey(parent.Key, len(children))
		depth := parent.Depth + 1

		if k == jsonld.KeyType {
			children = append(children, &Node{Key: key, Name: k, Value: typeValue(v), Depth: depth})
			continue
		}

		switch t := v.(type) {
		case *jsonld.Record:
			f := &Node{Key: key, Name: k, Depth: depth}
			f.Children = []*Node{b.record(t, childKey(key, 0), key, depth+1, budget-1)}
			children = append(children, f)
		case []jsonld.Value:
			f := &Node{Key: key, Name: k, Depth: depth}
			f.Children = b.elements(t, f, budget)
			children = append(children, f)
		default:
			f := &Node{Key: key, Name: k, Depth: depth}
			f.Value, f.FullValue = truncateHead(jsonld.Stringify(t), b.budget)
			children = append(children, f)
		}
	}
	return children
}

// elements builds one child per array element.
func (b *builder) elements(items []jsonld.Value, parent *Node, budget int) []*Node {
	if len(items) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(items))
	for i, it := range items {
		key := childKey(parent.Key, i)
		if r, ok := it.(*jsonld.Record); ok {
			out = append(out, b.record(r, key, parent.Key, parent.Depth+1, budget-1))
			continue
		}
		out = append(out, &Node{Key: key, Name: jsonld.Stringify(it), Depth: parent.Depth + 1})
	}
	return out
}

// =============================================================================
// Labels
// =============================================================================

// truncateTail keeps the last budget characters of s behind an ellipsis,
// so the distinguishing suffix of an identifier stays visible.
func truncateTail(s string, budget int) (name, full string) {
	r := []rune(s)
	if len(r) <= budget {
		return s, ""
	}
	return ellipsis + string(r[len(r)-budget:]), s
}

// truncateHead keeps the first budget characters of s before an ellipsis.
func truncateHead(s string, budget int) (value, full string) {
	r := []rune(s)
	if len(r) <= budget {
		return s, ""
	}
	return string(r[:budget]) + ellipsis, s
}

// typeValue renders an "@type" value, joining arrays with ", ".
func typeValue(v jsonld.Value) string {
	items, ok := v.([]jsonld.Value)
	if !ok {
		return jsonld.Stringify(v)
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = jsonld.Stringify(it)
	}
	return strings.Join(parts, ", ")
}

// anonymousName derives a short, stable label for a record without an
// identifier from its position and content.
func anonymousName(parentKey, key string, src *jsonld.Record) string {
	h := sha256.New()
	h.Write([]byte(parentKey))
	h.Write([]byte{0})
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write([]byte(jsonld.Stringify(src)))
	return "_" + hex.EncodeToString(h.Sum(nil))[:7]
}

func childKey(parent string, i int) string {
	return parent + "." + strconv.Itoa(i)
}
