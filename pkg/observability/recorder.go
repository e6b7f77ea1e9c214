package observability

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Stats is a snapshot of the counters kept by a [Recorder].
type Stats struct {
	Loads       int64 `json:"loads"`
	Builds      int64 `json:"builds"`
	Nodes       int64 `json:"nodes"`
	Renders     int64 `json:"renders"`
	Failures    int64 `json:"failures"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	CacheWrites int64 `json:"cache_writes"`
	Fetches     int64 `json:"fetches"`
}

// Recorder implements [PipelineHooks], [CacheHooks] and [HTTPHooks]. It
// counts events and, when it has a logger, logs them at debug level.
type Recorder struct {
	logger *log.Logger

	loads, builds, nodes, renders, failures atomic.Int64
	hits, misses, writes, fetches           atomic.Int64
}

// NewRecorder creates a recorder logging to logger, which may be nil.
func NewRecorder(logger *log.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// Install registers r for all three hook categories.
func (r *Recorder) Install() {
	SetPipelineHooks(r)
	SetCacheHooks(r)
	SetHTTPHooks(r)
}

// Stats returns the current counter values.
func (r *Recorder) Stats() Stats {
	return Stats{
		Loads:       r.loads.Load(),
		Builds:      r.builds.Load(),
		Nodes:       r.nodes.Load(),
		Renders:     r.renders.Load(),
		Failures:    r.failures.Load(),
		CacheHits:   r.hits.Load(),
		CacheMisses: r.misses.Load(),
		CacheWrites: r.writes.Load(),
		Fetches:     r.fetches.Load(),
	}
}

func (r *Recorder) debug(msg string, kv ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, kv...)
	}
}

func (r *Recorder) done(err error) {
	if err != nil {
		r.failures.Add(1)
	}
}

func (r *Recorder) OnLoadStart(_ context.Context, source string) {
	r.debug("load", "source", source)
}

func (r *Recorder) OnLoadComplete(_ context.Context, source string, recordCount int, d time.Duration, err error) {
	r.loads.Add(1)
	r.done(err)
	r.debug("loaded", "source", source, "records", recordCount, "duration", d, "err", err)
}

func (r *Recorder) OnBuildStart(_ context.Context, root string) {
	r.debug("build", "root", root)
}

func (r *Recorder) OnBuildComplete(_ context.Context, root string, nodeCount int, d time.Duration, err error) {
	r.builds.Add(1)
	r.nodes.Add(int64(nodeCount))
	r.done(err)
	r.debug("built", "root", root, "nodes", nodeCount, "duration", d)
}

func (r *Recorder) OnRenderStart(_ context.Context, formats []string) {
	r.debug("render", "formats", formats)
}

func (r *Recorder) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	r.renders.Add(1)
	r.done(err)
	r.debug("rendered", "formats", formats, "duration", d, "err", err)
}

func (r *Recorder) OnCacheHit(_ context.Context, keyType string) {
	r.hits.Add(1)
	r.debug("cache hit", "type", keyType)
}

func (r *Recorder) OnCacheMiss(_ context.Context, keyType string) {
	r.misses.Add(1)
	r.debug("cache miss", "type", keyType)
}

func (r *Recorder) OnCacheSet(_ context.Context, keyType string, size int) {
	r.writes.Add(1)
	r.debug("cache set", "type", keyType, "bytes", size)
}

func (r *Recorder) OnRequest(_ context.Context, method, host, path string) {
	r.fetches.Add(1)
	r.debug("fetch", "method", method, "host", host, "path", path)
}

func (r *Recorder) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	r.debug("fetched", "host", host, "path", path, "status", status, "duration", d)
}

func (r *Recorder) OnError(_ context.Context, method, host, path string, err error) {
	r.failures.Add(1)
	r.debug("fetch failed", "host", host, "path", path, "err", err)
}
