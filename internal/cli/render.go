package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/httputil"
	"github.com/matzehuels/cratetree/pkg/pipeline"
)

// stdoutPath selects standard output as the render target.
const stdoutPath = "-"

// renderOpts holds the flags of the render command.
type renderOpts struct {
	config  configFlags
	output  string
	formats string
	expand  string
	noCache bool
	refresh bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := &renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <file|url>",
		Short: "Render the initial frame of a JSON-LD document",
		Long: `Render builds the tree of a JSON-LD document and writes its initial frame.

Node keys passed to --expand are toggled after the initial expansion, in
order, so "0.2,0.2.0" opens the third root field and its first child.`,
		Example: `  cratetree render ro-crate-metadata.json
  cratetree render ro-crate-metadata.json -f svg,json -o crate
  cratetree render https://example.org/crate/ro-crate-metadata.json --expand 0.2
  cratetree render data.jsonld --root @first -f dot -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config.resolve(cmd)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runRender(ctx, args[0], cfg, opts)
		},
	}

	opts.config.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output path ("-" for stdout; default: input name)`)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output formats: svg, dot, graphviz, json, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.expand, "expand", "", "node keys to toggle after the initial expansion (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the document and artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch remote documents")

	return cmd
}

// runRender executes the pipeline for input and writes every artifact.
func (c *CLI) runRender(ctx context.Context, input string, cfg config.Config, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}
	if opts.output == stdoutPath && len(formats) > 1 {
		return fmt.Errorf("cannot write %d formats to stdout", len(formats))
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	result, err := execute(ctx, runner, pipeline.Options{
		Source:  input,
		Refresh: opts.refresh,
		Config:  cfg,
		Expand:  splitList(opts.expand),
		Formats: formats,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	prog.done("Rendered "+input, "formats", len(formats))

	if opts.output == stdoutPath {
		_, err := os.Stdout.Write(result.Artifacts[formats[0]])
		return err
	}

	printSuccess("Rendered %s", StyleHighlight.Render(result.Document.RootID()))
	printStats(result.Stats.RecordCount, result.Stats.NodeCount, result.CacheInfo.RenderHit)

	base := basePath(opts.output, input)
	for _, format := range formats {
		path := outputPath(opts.output, base, format, len(formats))
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debugf("Wrote %s (%d bytes)", path, len(result.Artifacts[format]))
		printFile(path)
	}
	return nil
}

// execute runs the pipeline, showing a spinner while a remote document
// loads.
func execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	if !httputil.IsURL(opts.Source) {
		return runner.Execute(ctx, opts)
	}
	spin := startSpinner(ctx, os.Stderr, "Fetching "+opts.Source)
	result, err := runner.Execute(ctx, opts)
	spin.stop()
	return result, err
}

// outputPath returns the file written for format. A single format honours
// an explicit output path verbatim.
func outputPath(output, base, format string, count int) string {
	if count == 1 && output != "" && base == output {
		return output
	}
	return base + "." + outputExt(format)
}

// outputExt maps a format to its file extension.
func outputExt(format string) string {
	if format == pipeline.FormatGraphviz {
		return "graphviz.svg"
	}
	return format
}
