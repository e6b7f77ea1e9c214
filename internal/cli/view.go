package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/httputil"
	"github.com/matzehuels/cratetree/pkg/observability"
	"github.com/matzehuels/cratetree/pkg/pipeline"
	"github.com/matzehuels/cratetree/pkg/session"
)

// viewOpts holds the flags of the view command.
type viewOpts struct {
	config   configFlags
	watch    bool
	stateDir string
	noState  bool
	noCache  bool
}

// viewCommand creates the interactive terminal viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	opts := &viewOpts{}

	cmd := &cobra.Command{
		Use:   "view <file|url>",
		Short: "Browse a JSON-LD document as a collapsible tree",
		Long: `View opens the document's tree in the terminal.

Enter or space toggles the node under the cursor, e and c expand or collapse
everything, and ? shows the node's untruncated value. The expanded set is
saved per document in .cratetree/state.json and restored on the next run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config.resolve(cmd)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runView(ctx, args[0], cfg, opts)
		},
	}

	opts.config.register(cmd)
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload when the file changes")
	cmd.Flags().StringVar(&opts.stateDir, "state-dir", session.DefaultStateDir, "directory holding saved expansion states")
	cmd.Flags().BoolVar(&opts.noState, "no-state", false, "neither restore nor save the expansion state")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the document cache")

	return cmd
}

// runView builds the document, restores its saved state and runs the viewer
// until the user quits.
func (c *CLI) runView(ctx context.Context, input string, cfg config.Config, opts *viewOpts) error {
	logger := loggerFromContext(ctx)

	if opts.watch && httputil.IsURL(input) {
		return fmt.Errorf("--watch needs a local file, got %s", input)
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	// The viewer owns the terminal; pipeline logging would corrupt it.
	quiet := discardLogger()
	load := func() (*pipeline.Document, error) {
		return loadDocument(ctx, runner, input, cfg, quiet)
	}

	doc, err := loadDocument(ctx, runner, input, cfg, logger)
	if err != nil {
		return err
	}

	var store *session.FileStore
	var state *session.SavedState
	if !opts.noState {
		if store, err = session.NewFileStore(opts.stateDir); err != nil {
			return err
		}
		saved, ok, err := store.Get(doc.Hash)
		if err != nil {
			logger.Warn("ignoring saved state", "err", err)
		} else if ok {
			logger.Debug("restoring saved state", "expanded", len(saved.Expanded), "saved", saved.SavedAt)
			state = &saved
		}
	}

	popts := pipeline.Options{Config: cfg}
	if state != nil {
		popts.State = &state.State
	}
	ctrl, err := pipeline.NewController(doc, popts)
	if err != nil {
		return err
	}

	// Hook events would draw over the alt screen.
	observability.NewRecorder(nil).Install()

	p := tea.NewProgram(NewTreeModel(input, doc, ctrl, load), tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.watch {
		w, err := watchFile(ctx, input, quiet, func() { p.Send(fileChangedMsg{}) })
		if err != nil {
			return err
		}
		defer w.Close()
	}

	final, err := p.Run()
	if err != nil {
		return err
	}
	fm, ok := final.(TreeModel)
	if !ok || store == nil {
		return nil
	}

	saved := session.SavedState{State: fm.Controller.State(), Source: input, SavedAt: time.Now()}
	if err := store.Set(fm.Document.Hash, saved); err != nil {
		printWarning("Could not save view state: %v", err)
		return nil
	}
	logger.Debug("saved state", "file", store.Path(), "expanded", len(saved.Expanded))
	return nil
}

// loadDocument loads and builds input with runner.
func loadDocument(ctx context.Context, runner *pipeline.Runner, input string, cfg config.Config, logger *log.Logger) (*pipeline.Document, error) {
	data, _, err := runner.Load(ctx, pipeline.Options{Source: input, Logger: logger})
	if err != nil {
		return nil, err
	}
	return runner.Build(ctx, data, cfg)
}
