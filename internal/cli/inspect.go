package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/io"
	"github.com/matzehuels/cratetree/pkg/pipeline"
	"github.com/matzehuels/cratetree/pkg/tree"
)

// inspectOpts holds the flags of the inspect command.
type inspectOpts struct {
	config   configFlags
	export   string
	snapshot bool
	noCache  bool
}

// treeSummary is the statistics inspect reports for one tree.
type treeSummary struct {
	Nodes     int
	Leaves    int
	Height    int
	Entities  int
	Anonymous int
	Cyclic    int
	Truncated int
}

// summarize walks t once and counts node kinds.
func summarize(t *tree.Node) treeSummary {
	s := treeSummary{Nodes: tree.Size(t), Leaves: tree.LeafCount(t), Height: tree.Height(t)}
	tree.Walk(t, func(n *tree.Node) bool {
		switch n.Kind {
		case tree.KindIdentifiedEntity:
			s.Entities++
		case tree.KindAnonymousEntity:
			s.Anonymous++
		case tree.KindCyclicReference:
			s.Cyclic++
		}
		if n.Truncated() {
			s.Truncated++
		}
		return true
	})
	return s
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := &inspectOpts{}

	cmd := &cobra.Command{
		Use:   "inspect <file|url>",
		Short: "Show root resolution and tree statistics",
		Long: `Inspect resolves the document's root and reports what the tree builder
materializes from it: node counts by kind, height, truncated labels and the
root's fields. --export writes the full tree as a JSON snapshot, and
--snapshot reads such a file back instead of a JSON-LD document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config.resolve(cmd)
			if err != nil {
				return err
			}
			if opts.snapshot {
				return runInspectSnapshot(args[0])
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runInspect(ctx, args[0], cfg, opts)
		},
	}

	opts.config.register(cmd)
	cmd.Flags().StringVar(&opts.export, "export", "", "write the tree snapshot to this JSON file")
	cmd.Flags().BoolVar(&opts.snapshot, "snapshot", false, "read the argument as a tree snapshot written by --export")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the document cache")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "export")

	return cmd
}

// runInspect loads and builds input and prints its statistics.
func (c *CLI) runInspect(ctx context.Context, input string, cfg config.Config, opts *inspectOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	data, hit, err := runner.Load(ctx, pipeline.Options{Source: input, Logger: logger})
	if err != nil {
		return err
	}
	doc, err := runner.Build(ctx, data, cfg)
	if err != nil {
		return err
	}
	s := summarize(doc.Tree)

	printSuccess("Resolved root %s", StyleHighlight.Render(doc.RootID()))
	printStats(doc.Graph.Len(), s.Nodes, hit)
	printNewline()
	printKeyValue("Strategy", rootStrategy(cfg))
	printKeyValue("Hash", doc.Hash[:12])
	printSummary(doc.Tree, s)

	if opts.export != "" {
		if err := io.ExportJSON(doc.Tree, opts.export); err != nil {
			return err
		}
		printFile(opts.export)
	}
	if s.Cyclic > 0 {
		printNextStep("Cyclic references are shown as leaves; browse them with", appName+" view "+input)
	}
	return nil
}

// runInspectSnapshot prints the statistics of a tree snapshot file.
func runInspectSnapshot(path string) error {
	t, err := io.ImportJSON(path)
	if err != nil {
		return err
	}
	s := summarize(t)

	printSuccess("Loaded snapshot of %s", StyleHighlight.Render(t.Name))
	printDetail("%d nodes", s.Nodes)
	printNewline()
	printSummary(t, s)
	return nil
}

// printSummary prints the counts of s and the root's field table.
func printSummary(t *tree.Node, s treeSummary) {
	printKeyValue("Height", strconv.Itoa(s.Height))
	printKeyValue("Leaves", strconv.Itoa(s.Leaves))
	printKeyValue("Entities", fmt.Sprintf("%d identified, %d anonymous", s.Entities, s.Anonymous))
	printKeyValue("Cycles", strconv.Itoa(s.Cyclic))
	printKeyValue("Truncated", strconv.Itoa(s.Truncated))
	printNewline()
	fmt.Println(fieldTable(t))
}

// rootStrategy describes how cfg selects the root.
func rootStrategy(cfg config.Config) string {
	switch cfg.Root {
	case "":
		return "RO-Crate metadata descriptor"
	case config.RootFirst:
		return "first record"
	default:
		return "identifier " + strconv.Quote(cfg.Root)
	}
}

// fieldTable renders the root's direct children.
func fieldTable(t *tree.Node) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(t.Children))
	for _, n := range t.Children {
		rows = append(rows, []string{n.Key, n.Name, n.Value, n.Kind.String(), strconv.Itoa(tree.Size(n) - 1)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Key", "Field", "Value", "Kind", "Below").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 || col == 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
