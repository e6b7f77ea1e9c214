// Package pipeline provides the load → build → render pipeline of cratetree.
//
// This package implements the pipeline shared by the CLI, the terminal
// viewer and the HTTP server. By centralizing this logic, every entry point
// resolves roots, applies configuration and caches artifacts the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a JSON-LD document from a file, a URL or memory
//  2. Build: Decode the graph, resolve the root and materialize the tree
//  3. Render: Lay out the visible tree and write artifacts (SVG, DOT, JSON, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "ro-crate-metadata.json",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	data, hit, err := runner.Load(ctx, opts)
//	doc, err := runner.Build(ctx, data, cfg)
//	artifacts, hit, err := runner.Render(ctx, controller, frame, docHash, formats)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratetree/pkg/cache"
	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/jsonld"
	"github.com/matzehuels/cratetree/pkg/tree"
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"      // tree view, drawn by the svg surface
	FormatDOT      = "dot"      // Graphviz source of the visible tree
	FormatGraphviz = "graphviz" // visible tree laid out by Graphviz, as SVG
	FormatJSON     = "json"     // frame export
	FormatPNG      = "png"
	FormatPDF      = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatDOT:      true,
	FormatGraphviz: true,
	FormatJSON:     true,
	FormatPNG:      true,
	FormatPDF:      true,
}

// FormatNames lists the supported formats in help-text order.
var FormatNames = []string{FormatSVG, FormatDOT, FormatGraphviz, FormatJSON, FormatPNG, FormatPDF}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Load options. Document, when set, takes precedence over Source.
	Source   string `json:"source,omitempty"`
	Document []byte `json:"-"`
	Refresh  bool   `json:"refresh,omitempty"`

	// Build and layout options
	Config config.Config `json:"config"`

	// Expand lists node keys to expand after the initial state is set up.
	Expand []string `json:"expand,omitempty"`

	// State, when set, replaces the initial expansion entirely.
	State *collapse.State `json:"state,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the built tree with its source graph.
	Document *Document

	// Controller holds the expansion state the artifacts were rendered with.
	Controller *collapse.Controller

	// Frame is the rendered frame.
	Frame collapse.Frame

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Document is a loaded and built JSON-LD document.
type Document struct {
	// Hash is the content hash of the raw document bytes.
	Hash string

	Graph *jsonld.Graph
	Root  *jsonld.Record
	Tree  *tree.Node
}

// RootID returns the identifier of the root record.
func (d *Document) RootID() string {
	id, _ := d.Root.ID()
	return id
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Bytes       int
	RecordCount int
	NodeCount   int
	LeafCount   int
	Height      int
	LoadTime    time.Duration
	BuildTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the remote document came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// Calling it more than once has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.Config = o.Config.WithDefaults()
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	return ValidateFormats(o.Formats)
}

// ValidateForLoad checks that the run has a document to load.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" && len(o.Document) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "source or document is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func ArtifactKeyOpts(format string, cfg config.Config, s collapse.State) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Config:   cfg.String(),
		Expanded: s.Expanded,
	}
}
