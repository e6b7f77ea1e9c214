package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/cratetree/pkg/errors"
)

// zipCrate builds a zip archive holding the given files.
func zipCrate(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUnpackCrate(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
		code  errors.Code
	}{
		{
			name:  "top level",
			files: map[string]string{"ro-crate-metadata.json": "top", "data.csv": "a,b"},
			want:  "top",
		},
		{
			name:  "shallowest wins",
			files: map[string]string{"crate/nested/ro-crate-metadata.json": "deep", "crate/ro-crate-metadata.json": "shallow"},
			want:  "shallow",
		},
		{
			name:  "legacy descriptor",
			files: map[string]string{"crate/ro-crate-metadata.jsonld": "legacy"},
			want:  "legacy",
		},
		{
			name:  "no metadata",
			files: map[string]string{"README.md": "hello"},
			code:  errors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := unpackCrate(zipCrate(t, tt.files))
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Fatalf("unpackCrate() error = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unpackCrate() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("unpackCrate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnpackCratePassthrough(t *testing.T) {
	got, err := unpackCrate([]byte(testCrate))
	if err != nil || string(got) != testCrate {
		t.Errorf("unpackCrate(json) = %d bytes, %v, want input unchanged", len(got), err)
	}
	if _, err := unpackCrate([]byte("PK\x03\x04truncated")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("broken archive error = %v, want INVALID_INPUT", err)
	}
}

func TestExecuteZippedCrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.zip")
	archive := zipCrate(t, map[string]string{"crate/ro-crate-metadata.json": testCrate})
	if err := os.WriteFile(path, archive, 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil, quietLogger())
	fromFile, err := r.Execute(context.Background(), Options{Source: path})
	if err != nil {
		t.Fatalf("Execute(zip file) error: %v", err)
	}
	if fromFile.Document.RootID() != "./" {
		t.Errorf("root = %q, want ./", fromFile.Document.RootID())
	}

	inMemory, err := r.Execute(context.Background(), Options{Document: archive})
	if err != nil {
		t.Fatalf("Execute(zip bytes) error: %v", err)
	}
	if inMemory.Document.Hash != fromFile.Document.Hash {
		t.Error("zipped crate should hash like its metadata file")
	}
}
