package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratetree/pkg/config"
)

// configFlags holds the viewer parameters shared by render, view, serve and
// inspect. Values from --config are loaded first; flags the user set
// explicitly override them.
type configFlags struct {
	path   string
	values config.Config
}

// register adds the config flags to cmd.
func (f *configFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.path, "config", "", "config file (.toml, .yaml or .yml)")
	fs.Float64Var(&f.values.Width, "width", config.DefaultWidth, "initial canvas width")
	fs.Float64Var(&f.values.Height, "height", config.DefaultHeight, "canvas height")
	fs.Float64Var(&f.values.MaxLabelWidth, "max-label-width", config.DefaultMaxLabelWidth, "label width budget in pixels")
	fs.Float64Var(&f.values.MinRadius, "min-radius", config.DefaultMinRadius, "smallest node radius")
	fs.Float64Var(&f.values.MaxRadius, "max-radius", config.DefaultMaxRadius, "largest node radius")
	fs.IntVar(&f.values.MaxDepth, "max-depth", config.DefaultMaxDepth, "reference resolution depth")
	fs.IntVar(&f.values.ExpandDepth, "expand-depth", config.DefaultExpandDepth, "levels expanded in the first frame")
	fs.DurationVar(&f.values.TransitionDuration, "transition", config.DefaultTransitionDuration, "transition duration")
	fs.StringVar(&f.values.TransitionEase, "ease", config.DefaultTransitionEase, "transition easing (linear, cubic-in, cubic-out, cubic-in-out)")
	fs.StringVar(&f.values.Root, "root", "", `root record identifier ("@first" for the first record; default: RO-Crate root)`)
}

// resolve merges the config file with explicitly set flags, applies
// defaults and validates the result.
func (f *configFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if f.path != "" {
		loaded, err := config.Load(f.path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	overrides := map[string]func(){
		"width":           func() { cfg.Width = f.values.Width },
		"height":          func() { cfg.Height = f.values.Height },
		"max-label-width": func() { cfg.MaxLabelWidth = f.values.MaxLabelWidth },
		"min-radius":      func() { cfg.MinRadius = f.values.MinRadius },
		"max-radius":      func() { cfg.MaxRadius = f.values.MaxRadius },
		"max-depth":       func() { cfg.MaxDepth = f.values.MaxDepth },
		"expand-depth":    func() { cfg.ExpandDepth = f.values.ExpandDepth },
		"transition":      func() { cfg.TransitionDuration = f.values.TransitionDuration },
		"ease":            func() { cfg.TransitionEase = f.values.TransitionEase },
		"root":            func() { cfg.Root = f.values.Root },
	}
	fs := cmd.Flags()
	for name, apply := range overrides {
		if fs.Changed(name) {
			apply()
		}
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
