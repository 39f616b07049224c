package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/layout"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output      string
		kindName    string
		focusID     string
		scope       string
		orientation string
		ticks       int
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a graph",
		Long: `Compute node positions for a graph.

The layout command takes a graph.json file and repositions its nodes with one
of the four layout algorithms: force (default), tree, hybrid, or isolate.
The isolate layout requires --focus to name the node whose reachable subgraph
is pulled into the center.

Algorithms never fail outright: a graph the requested algorithm cannot handle
falls back to the force layout, and a missing isolation focus leaves the
input unchanged. Fallbacks are reported as warnings.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], kindName, focusID, scope, orientation, ticks, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	// Layout flags
	cmd.Flags().StringVarP(&kindName, "kind", "k", "force", "layout algorithm: force (default), tree, hybrid, isolate")
	cmd.Flags().StringVar(&focusID, "focus", "", "focus node for the isolate layout")
	cmd.Flags().StringVar(&scope, "scope", "", "restrict the layout to one scope (default: root)")
	cmd.Flags().StringVar(&orientation, "orientation", "", "tree/hybrid orientation: tb (default), lr")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "simulation tick budget (default from config)")

	return cmd
}

// runLayout loads the graph, computes positions, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, kindName, focusID, scope, orientation string, ticks int, output string, noCache bool) error {
	kind, err := layout.ParseKind(kindName)
	if err != nil {
		return err
	}

	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if orientation != "" {
		cfg.Layout.Orientation = orientation
	}
	if ticks > 0 {
		cfg.Layout.Ticks = ticks
	}

	eng, err := c.newEngine(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", kind))
	spinner.Start()

	p := newProgress(c.Logger)
	res := eng.ApplyLayout(ctx, kind, g.Nodes, g.Edges, scope, focusID)
	spinner.Stop()
	p.done(fmt.Sprintf("Computed %s layout", res.Applied))

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if res.Fallback {
		printWarning("%s layout fell back to %s: %s", kind, res.Applied, res.Reason)
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	g.Nodes = res.Nodes
	if err := graph.WriteGraphFile(outputPath, g); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(g.Nodes), len(g.Edges), false)
	printNextStep("Render", "cartograph render "+outputPath)

	return nil
}
