package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratetree/pkg/cache"
	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/httputil"
	"github.com/matzehuels/cratetree/pkg/jsonld"
	"github.com/matzehuels/cratetree/pkg/observability"
	"github.com/matzehuels/cratetree/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the viewer and the server all use it to avoid duplicating
// loading and caching logic.
//
// The Runner is stateless except for the cache, the HTTP client and the
// logger; it doesn't store pipeline results. Multiple goroutines can safely
// use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	HTTP   *httputil.Client
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		HTTP:   httputil.NewClient(c, keyer, cache.TTLDocument, nil),
		Logger: logger,
	}
}

// Execute runs the complete load → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	data, loadHit, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Bytes = len(data)
	result.CacheInfo.LoadHit = loadHit

	// Stage 2: Build
	buildStart := time.Now()
	doc, err := r.Build(ctx, data, opts.Config)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.RecordCount = doc.Graph.Len()
	result.Stats.NodeCount = tree.Size(doc.Tree)
	result.Stats.LeafCount = tree.LeafCount(doc.Tree)
	result.Stats.Height = tree.Height(doc.Tree)

	opts.Logger.Info("built tree",
		"root", doc.RootID(),
		"records", result.Stats.RecordCount,
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	c, err := NewController(doc, opts)
	if err != nil {
		return nil, err
	}
	result.Controller = c
	result.Frame = c.Render(tree.RootKey)

	renderStart := time.Now()
	artifacts, renderHit, err := r.Render(ctx, c, result.Frame, doc.Hash, opts.Formats)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load returns the raw document bytes named by opts and whether they came
// from cache. In-memory documents are returned as is; URLs go through the
// runner's HTTP client; anything else is read from disk. A zipped RO-Crate
// from any of these is replaced by its metadata file.
func (r *Runner) Load(ctx context.Context, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	if len(opts.Document) > 0 {
		data, err := unpackCrate(opts.Document)
		return data, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Source)
	start := time.Now()

	data, hit, err := r.load(ctx, opts)
	if err == nil {
		data, err = unpackCrate(data)
	}
	hooks.OnLoadComplete(ctx, opts.Source, len(data), time.Since(start), err)
	return data, hit, err
}

func (r *Runner) load(ctx context.Context, opts Options) ([]byte, bool, error) {
	if !httputil.IsURL(opts.Source) {
		data, err := os.ReadFile(opts.Source)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "document %s", opts.Source)
			}
			return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", opts.Source)
		}
		return data, false, nil
	}

	data, hit, err := r.HTTP.Fetch(ctx, opts.Source, opts.Refresh)
	if err != nil {
		return nil, false, err
	}
	opts.Logger.Debug("fetched document", "url", opts.Source, "bytes", len(data), "cached", hit)
	return data, hit, nil
}

// Build decodes data, resolves the root named by cfg and materializes the
// display tree.
func (r *Runner) Build(ctx context.Context, data []byte, cfg config.Config) (*Document, error) {
	cfg = cfg.WithDefaults()

	g, err := jsonld.Parse(data)
	if err != nil {
		return nil, err
	}
	root, err := jsonld.ResolveRoot(g, cfg.RootResolver())
	if err != nil {
		return nil, err
	}
	id, _ := root.ID()

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, id)
	start := time.Now()

	t := tree.Build(root, g, cfg.TreeOptions())
	hooks.OnBuildComplete(ctx, id, tree.Size(t), time.Since(start), nil)

	return &Document{
		Hash:  cache.Hash(data),
		Graph: g,
		Root:  root,
		Tree:  t,
	}, nil
}

// NewController creates the layout controller for doc and applies the
// expansion requested by opts: a saved State replaces the initial
// expansion, then every key in Expand is expanded.
func NewController(doc *Document, opts Options) (*collapse.Controller, error) {
	c, err := collapse.New(doc.Tree, opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.State != nil {
		c.Restore(*opts.State)
	}
	for _, key := range opts.Expand {
		if c.Expanded(key) {
			continue
		}
		if _, err := c.Toggle(key); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
