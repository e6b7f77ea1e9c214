package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/cratetree/pkg/cache"
	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/observability"
	"github.com/matzehuels/cratetree/pkg/render"
	"github.com/matzehuels/cratetree/pkg/render/frame"
	"github.com/matzehuels/cratetree/pkg/render/nodelink"
	"github.com/matzehuels/cratetree/pkg/surface/svg"
)

// pngScale is the PNG rasterization factor.
const pngScale = 2.0

// Render writes f in every requested format, serving artifacts from cache
// when all of them are present. docHash and the controller's configuration
// and expansion state address the cache entries.
func (r *Runner) Render(ctx context.Context, c *collapse.Controller, f collapse.Frame, docHash string, formats []string) (map[string][]byte, bool, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, false, err
	}
	state := c.State()
	key := func(format string) string {
		return r.Keyer.ArtifactKey(docHash, ArtifactKeyOpts(format, c.Config(), state))
	}

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		if docHash == "" {
			break
		}
		data, hit, err := r.Cache.Get(ctx, key(format))
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			break
		}
		artifacts[format] = data
	}
	if docHash != "" && len(artifacts) == len(formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	rendered, err := RenderFrame(ctx, f, state, formats)
	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if docHash != "" {
		for format, data := range rendered {
			if err := r.Cache.Set(ctx, key(format), data, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}
	return rendered, false, nil
}

// RenderFrame writes f in every requested format without caching. State is
// recorded in JSON output so the view can be restored.
func RenderFrame(ctx context.Context, f collapse.Frame, state collapse.State, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))

	// Raster formats are converted from the tree view SVG.
	var treeSVG []byte
	svgOnce := func() ([]byte, error) {
		if treeSVG != nil {
			return treeSVG, nil
		}
		var err error
		treeSVG, err = svg.Render(f)
		return treeSVG, err
	}

	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = svgOnce()
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPNG(data, pngScale)
			}
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPDF(data)
			}
		case FormatDOT:
			data = []byte(nodelink.ToDOT(f, nodelink.Options{}))
		case FormatGraphviz:
			data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(f, nodelink.Options{}))
		case FormatJSON:
			data, err = frame.RenderJSON(f, frame.WithJSONState(state))
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			if errors.GetCode(err) != "" {
				return nil, err
			}
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
