package io

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/jsonld"
	"github.com/matzehuels/cratetree/pkg/tree"
)

const testCrate = `{"@graph":[
	{"@id":"ro-crate-metadata.json","about":{"@id":"./"}},
	{"@id":"./","@type":"Dataset","description":"a description that is much longer than the label budget","author":{"@id":"#a"},"parts":[{"name":"p"}]},
	{"@id":"#a","name":"A","knows":{"@id":"./"}}
]}`

func buildTree(t *testing.T) *tree.Node {
	t.Helper()
	g, err := jsonld.Parse([]byte(testCrate))
	if err != nil {
		t.Fatal(err)
	}
	root, err := jsonld.ResolveRoot(g, jsonld.ROCrateRoot)
	if err != nil {
		t.Fatal(err)
	}
	return tree.Build(root, g, tree.Options{MaxDepth: 5, MaxLabelWidth: 180})
}

func TestRoundTrip(t *testing.T) {
	want := buildTree(t)

	var buf bytes.Buffer
	if err := WriteJSON(want, &buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("re-imported tree differs from the original")
	}
}

func TestExportImportFile(t *testing.T) {
	want := buildTree(t)
	path := filepath.Join(t.TempDir(), "tree.json")

	if err := ExportJSON(want, path); err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error: %v", err)
	}
	if tree.Size(got) != tree.Size(want) {
		t.Errorf("Size = %d, want %d", tree.Size(got), tree.Size(want))
	}

	var cyclic int
	tree.Walk(got, func(n *tree.Node) bool {
		if n.Kind == tree.KindCyclicReference {
			cyclic++
		}
		return true
	})
	if cyclic != 1 {
		t.Errorf("cyclic nodes = %d, want 1", cyclic)
	}
}

func TestWriteJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(buildTree(t), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"key": "0"`, `"kind": "entity"`, `"full_value": "a description`, `"kind": "anonymous"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}
}

func TestWriteJSONNil(t *testing.T) {
	if err := WriteJSON(nil, &bytes.Buffer{}); err == nil {
		t.Error("WriteJSON(nil) should fail")
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{`},
		{"missing key", `{"name":"x","kind":"field"}`},
		{"unknown kind", `{"key":"0","name":"x","kind":"blob"}`},
		{"duplicate key", `{"key":"0","kind":"entity","children":[{"key":"0.0","kind":"field"},{"key":"0.0","kind":"field"}]}`},
		{"foreign child key", `{"key":"0","kind":"entity","children":[{"key":"1.0","kind":"field"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.input)); err == nil {
				t.Errorf("ReadJSON(%s) should fail", tt.input)
			}
		})
	}
}

func TestImportJSONMissingFile(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportJSON() error = %v, want FILE_NOT_FOUND", err)
	}
}
