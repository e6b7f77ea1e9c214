// Package config holds the tunable parameters of the tree viewer.
//
// A [Config] is shared by every host: the CLI fills it from flags and an
// optional file, the HTTP server from request query parameters. Zero fields
// take their defaults through [Config.WithDefaults], so a partially written
// file or an empty struct is always usable.
//
// Files are TOML or YAML, selected by extension:
//
//	# cratetree.toml
//	max_label_width = 200
//	transition_duration = "300ms"
//	root = "./"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/jsonld"
	"github.com/matzehuels/cratetree/pkg/tree"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultHeight             = 600.0
	DefaultWidth              = 800.0
	DefaultMaxLabelWidth      = tree.DefaultMaxLabelWidth
	DefaultTransitionDuration = 750 * time.Millisecond
	DefaultTransitionEase     = "cubic-in-out"
	DefaultMinRadius          = 5.0
	DefaultMaxRadius          = 50.0
	DefaultMaxDepth           = tree.DefaultMaxDepth

	// DefaultExpandDepth keeps only the root expanded, so the first frame
	// shows the root and its direct children.
	DefaultExpandDepth = 1
)

// RootFirst selects the first graph record as root.
const RootFirst = "@first"

// ValidEases is the set of easing names surfaces understand.
var ValidEases = map[string]bool{
	"linear":       true,
	"cubic-in":     true,
	"cubic-out":    true,
	"cubic-in-out": true,
}

// Config contains the viewer parameters.
type Config struct {
	Height             float64       `toml:"height" yaml:"height" json:"height,omitempty"`
	Width              float64       `toml:"width" yaml:"width" json:"width,omitempty"`
	MaxLabelWidth      float64       `toml:"max_label_width" yaml:"max_label_width" json:"max_label_width,omitempty"`
	TransitionDuration time.Duration `toml:"transition_duration" yaml:"transition_duration" json:"transition_duration,omitempty"`
	TransitionEase     string        `toml:"transition_ease" yaml:"transition_ease" json:"transition_ease,omitempty"`
	MinRadius          float64       `toml:"min_radius" yaml:"min_radius" json:"min_radius,omitempty"`
	MaxRadius          float64       `toml:"max_radius" yaml:"max_radius" json:"max_radius,omitempty"`

	// MaxDepth is the reference-resolution budget of the tree builder.
	MaxDepth int `toml:"max_depth" yaml:"max_depth" json:"max_depth,omitempty"`

	// ExpandDepth is the number of tree levels expanded in the first frame.
	ExpandDepth int `toml:"expand_depth" yaml:"expand_depth" json:"expand_depth,omitempty"`

	// Root names the root record: empty for the RO-Crate metadata
	// descriptor, RootFirst for the first record, anything else is taken
	// as a literal identifier.
	Root string `toml:"root" yaml:"root" json:"root,omitempty"`
}

// Default returns a Config with every field set to its default.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.MaxLabelWidth == 0 {
		c.MaxLabelWidth = DefaultMaxLabelWidth
	}
	if c.TransitionDuration == 0 {
		c.TransitionDuration = DefaultTransitionDuration
	}
	if c.TransitionEase == "" {
		c.TransitionEase = DefaultTransitionEase
	}
	if c.MinRadius == 0 {
		c.MinRadius = DefaultMinRadius
	}
	if c.MaxRadius == 0 {
		c.MaxRadius = DefaultMaxRadius
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.ExpandDepth == 0 {
		c.ExpandDepth = DefaultExpandDepth
	}
	return c
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"height", c.Height},
		{"width", c.Width},
		{"max_label_width", c.MaxLabelWidth},
		{"transition_duration", float64(c.TransitionDuration)},
		{"min_radius", c.MinRadius},
		{"max_radius", c.MaxRadius},
		{"max_depth", float64(c.MaxDepth)},
		{"expand_depth", float64(c.ExpandDepth)},
	}
	for _, ch := range checks {
		if ch.value < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative (got %v)", ch.name, ch.value)
		}
	}
	if c.MaxLabelWidth > 0 && c.MaxLabelWidth < tree.CharWidth {
		return errors.New(errors.ErrCodeInvalidConfig, "max_label_width %v is narrower than one character (%v)", c.MaxLabelWidth, tree.CharWidth)
	}
	if c.MinRadius > c.MaxRadius {
		return errors.New(errors.ErrCodeInvalidConfig, "min_radius %v exceeds max_radius %v", c.MinRadius, c.MaxRadius)
	}
	if c.TransitionEase != "" && !ValidEases[c.TransitionEase] {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown transition_ease %q", c.TransitionEase)
	}
	return nil
}

// TreeOptions returns the builder options derived from c.
func (c Config) TreeOptions() tree.Options {
	return tree.Options{MaxDepth: c.MaxDepth, MaxLabelWidth: c.MaxLabelWidth}
}

// RootResolver returns the root strategy named by c.Root.
func (c Config) RootResolver() jsonld.RootResolver {
	switch c.Root {
	case "":
		return jsonld.ROCrateRoot
	case RootFirst:
		return jsonld.FirstRecord
	default:
		return jsonld.FixedRoot(c.Root)
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads a TOML (.toml) or YAML (.yaml, .yml) file. Missing fields are
// left zero; callers apply WithDefaults after merging flag overrides.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext (".toml", ".yaml", ".yml").
func Parse(data []byte, ext string) (Config, error) {
	var c Config
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), &c); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode toml")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode yaml")
		}
	default:
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q", ext)
	}
	return c, nil
}

// String renders c as a single line. It doubles as the configuration
// fingerprint in artifact cache keys, so it names every field.
func (c Config) String() string {
	return fmt.Sprintf("%vx%v label=%v radius=%v..%v depth=%d expand=%d ease=%s/%v root=%q",
		c.Width, c.Height, c.MaxLabelWidth, c.MinRadius, c.MaxRadius,
		c.MaxDepth, c.ExpandDepth, c.TransitionEase, c.TransitionDuration, c.Root)
}
