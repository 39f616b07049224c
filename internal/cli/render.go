package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cartograph/cartograph/pkg/cache"
	"github.com/cartograph/cartograph/pkg/errors"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/observability"
	"github.com/cartograph/cartograph/pkg/render"
)

const (
	formatSVG = "svg"
	formatPNG = "png"
	formatDOT = "dot"
)

// renderCommand creates the render command for exporting positioned graphs.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		formats string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Export a positioned graph as SVG, PNG, or DOT",
		Long: `Export a positioned graph as SVG, PNG, or DOT.

The render command takes a graph whose nodes already carry positions
(typically the output of 'layout') and writes one artifact per requested
format. PNG output is produced through graphviz neato with every node pinned
at its computed position, so the picture matches the canvas exactly.

Artifacts are cached by graph content: re-rendering an unchanged layout
reuses the previous bytes instead of invoking graphviz again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], output, parseFormats(formats), noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().StringVarP(&formats, "formats", "f", formatSVG, "comma-separated formats: svg (default), png, dot")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

// runRender loads the positioned graph and writes one artifact per format.
func (c *CLI) runRender(ctx context.Context, input, output string, formats []string, noCache bool) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
	}

	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	if len(g.Nodes) == 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "graph %s has no nodes", input)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	// Render keys live in their own namespace so a redis backend shared
	// with a serve process keeps CLI artifacts apart from its entries.
	keyer := cache.NewScopedKeyer(nil, "render")
	hash := cache.GraphHash(g.Nodes, g.Edges)
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	p := newProgress(c.Logger)
	for _, format := range formats {
		path := base + "." + format
		if format == "json" {
			// A positioned-graph copy is just a re-encode, never cached.
			if err := graph.WriteGraphFile(path, g); err != nil {
				return fmt.Errorf("render json: %w", err)
			}
			printFile(path)
			continue
		}

		data, err := c.renderArtifact(ctx, store, keyer, hash, g, format, ttl)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		printFile(path)
	}
	p.done(fmt.Sprintf("Rendered %d format(s)", len(formats)))

	printSuccess("Render complete")
	printStats(len(g.Nodes), len(g.Edges), false)
	return nil
}

// renderArtifact produces the artifact bytes for one format, consulting the
// content-addressed artifact cache first. Cache failures only cost a rerender.
func (c *CLI) renderArtifact(ctx context.Context, store cache.Cache, keyer cache.Keyer, hash string, g graph.Graph, format string, ttl time.Duration) ([]byte, error) {
	key := keyer.ArtifactKey(hash, cache.ArtifactKeyOpts{Format: format})
	if data, hit, err := store.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	data, err := renderBytes(ctx, g, format)
	if err != nil {
		return nil, err
	}
	_ = store.Set(ctx, key, data, ttl)
	return data, nil
}

// renderBytes encodes one format without touching the cache.
func renderBytes(ctx context.Context, g graph.Graph, format string) ([]byte, error) {
	switch format {
	case formatSVG:
		var buf bytes.Buffer
		if err := render.WriteSVG(&buf, g); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case formatDOT:
		return []byte(render.ToDOT(g)), nil

	case formatPNG:
		png, err := render.RenderPNG(ctx, render.ToDOT(g))
		if err != nil {
			return nil, err
		}
		return png, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}
