package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"default under home", "", filepath.Join(home, ".cache", appName)},
		{"XDG_CACHE_HOME", "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", appName)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			dir, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if dir != tt.want {
				t.Errorf("cacheDir() = %q, want %q", dir, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"from input", "", "crate/ro-crate-metadata.json", "crate/ro-crate-metadata"},
		{"strips format extension", "out/tree.svg", "x.json", "out/tree"},
		{"keeps unknown extension", "out/tree.txt", "x.json", "out/tree.txt"},
		{"no extension", "out/tree", "x.json", "out/tree"},
		{"from url", "", "https://example.org/crates/ro-crate-metadata.json", "ro-crate-metadata"},
		{"bare host url", "", "https://example.org/", defaultBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}
