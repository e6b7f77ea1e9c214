package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/cratetree/pkg/cache"
	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/session"
)

func TestCacheClearCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", home)

	fc, err := cache.NewFileCache(filepath.Join(home, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}

	if _, hit, _ := fc.Get(ctx, "a"); hit {
		t.Error("entry survived cache clear")
	}
}

func TestCacheClearEmpty(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", filepath.Join(t.TempDir(), "missing"))

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear on missing dir error: %v", err)
	}
}

func TestCachePruneCommand(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	fc, err := cache.NewFileCache(filepath.Join(cacheHome, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = fc.Set(ctx, "expired", []byte("x"), time.Nanosecond)
	_ = fc.Set(ctx, "live", []byte("x"), time.Hour)

	dir := t.TempDir()
	store, err := session.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	old := session.SavedState{State: collapse.State{Expanded: []string{"0"}}, SavedAt: time.Now().Add(-48 * time.Hour)}
	fresh := session.SavedState{State: collapse.State{Expanded: []string{"0", "0.1"}}, SavedAt: time.Now()}
	if err := store.Set("old", old); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("fresh", fresh); err != nil {
		t.Fatal(err)
	}

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "prune", "--state-dir", dir, "--older-than", "24h"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache prune error: %v", err)
	}

	if _, ok, _ := store.Get("old"); ok {
		t.Error("stale state survived prune")
	}
	if _, ok, _ := store.Get("fresh"); !ok {
		t.Error("fresh state was pruned")
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("state file missing: %v", err)
	}
	if _, hit, _ := fc.Get(ctx, "expired"); hit {
		t.Error("expired cache entry survived prune")
	}
	if _, hit, _ := fc.Get(ctx, "live"); !hit {
		t.Error("live cache entry was pruned")
	}
}
