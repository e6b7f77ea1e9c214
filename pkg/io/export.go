package io

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/matzehuels/cratetree/pkg/tree"
)

var kindToString = map[tree.Kind]string{
	tree.KindField:            "field",
	tree.KindIdentifiedEntity: "entity",
	tree.KindAnonymousEntity:  "anonymous",
	tree.KindCyclicReference:  "cyclic",
}

type node struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Value     string  `json:"value,omitempty"`
	FullValue string  `json:"full_value,omitempty"`
	Kind      string  `json:"kind"`
	Children  []*node `json:"children,omitempty"`
}

func toSnapshot(n *tree.Node) *node {
	out := &node{
		Key:       n.Key,
		Name:      n.Name,
		Value:     n.Value,
		FullValue: n.FullValue,
		Kind:      kindToString[n.Kind],
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toSnapshot(c))
	}
	return out
}

// WriteJSON encodes the tree rooted at t as an indented JSON snapshot.
// The output can be re-imported with [ReadJSON].
func WriteJSON(t *tree.Node, w io.Writer) error {
	if t == nil {
		return fmt.Errorf("encode: nil tree")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toSnapshot(t)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a tree snapshot to a JSON file at path.
func ExportJSON(t *tree.Node, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(t, f)
}
