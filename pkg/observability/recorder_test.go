package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestRecorderCounts(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(nil)

	r.OnLoadComplete(ctx, "crate.json", 4, time.Millisecond, nil)
	r.OnBuildComplete(ctx, "./", 11, time.Millisecond, nil)
	r.OnBuildComplete(ctx, "./", 5, time.Millisecond, nil)
	r.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, errors.New("boom"))
	r.OnCacheHit(ctx, "artifact")
	r.OnCacheMiss(ctx, "artifact")
	r.OnCacheMiss(ctx, "document")
	r.OnCacheSet(ctx, "artifact", 10)
	r.OnRequest(ctx, "GET", "example.org", "/crate.json")
	r.OnError(ctx, "GET", "example.org", "/crate.json", errors.New("timeout"))

	want := Stats{
		Loads:       1,
		Builds:      2,
		Nodes:       16,
		Renders:     1,
		Failures:    2,
		CacheHits:   1,
		CacheMisses: 2,
		CacheWrites: 1,
		Fetches:     1,
	}
	if got := r.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestRecorderLogs(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))

	r.OnCacheHit(context.Background(), "artifact")
	if !strings.Contains(buf.String(), "cache hit") {
		t.Errorf("log output = %q, want a cache hit line", buf.String())
	}
}

func TestRecorderInstall(t *testing.T) {
	t.Cleanup(Reset)

	r := NewRecorder(nil)
	r.Install()

	Cache().OnCacheHit(context.Background(), "document")
	Pipeline().OnBuildComplete(context.Background(), "./", 3, 0, nil)
	HTTP().OnRequest(context.Background(), "GET", "example.org", "/")

	s := r.Stats()
	if s.CacheHits != 1 || s.Builds != 1 || s.Fetches != 1 {
		t.Errorf("installed recorder missed events: %+v", s)
	}
}
