package io

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/tree"
)

var kindFromString = map[string]tree.Kind{
	"field":     tree.KindField,
	"entity":    tree.KindIdentifiedEntity,
	"anonymous": tree.KindAnonymousEntity,
	"cyclic":    tree.KindCyclicReference,
}

// ReadJSON decodes a tree snapshot from r.
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - A node has an empty, duplicate or unknown-kind entry
//   - A child key does not extend its parent's key
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*tree.Node, error) {
	var root node
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	seen := make(map[string]bool)
	return fromSnapshot(&root, "", 0, seen)
}

func fromSnapshot(s *node, parentKey string, depth int, seen map[string]bool) (*tree.Node, error) {
	if s.Key == "" {
		return nil, fmt.Errorf("node %q: missing key", s.Name)
	}
	if seen[s.Key] {
		return nil, fmt.Errorf("node %s: duplicate key", s.Key)
	}
	if parentKey != "" && !strings.HasPrefix(s.Key, parentKey+".") {
		return nil, fmt.Errorf("node %s: key does not extend parent %s", s.Key, parentKey)
	}
	kind, ok := kindFromString[s.Kind]
	if !ok {
		return nil, fmt.Errorf("node %s: unknown kind %q", s.Key, s.Kind)
	}
	seen[s.Key] = true

	n := &tree.Node{
		Key:       s.Key,
		Name:      s.Name,
		Value:     s.Value,
		FullValue: s.FullValue,
		Kind:      kind,
		Depth:     depth,
	}
	for _, c := range s.Children {
		child, err := fromSnapshot(c, s.Key, depth+1, seen)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// ImportJSON reads a tree snapshot from the JSON file at path.
func ImportJSON(path string) (*tree.Node, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "snapshot %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
