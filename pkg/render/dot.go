package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/cartograph/cartograph/pkg/graph"
)

// ToDOT converts a positioned graph to Graphviz DOT. Node positions computed
// by the layout algorithms are pinned via pos="x,y!" so that neato preserves
// them instead of running its own layout; dimensions are converted from world
// units to inches at 72 dpi.
func ToDOT(g graph.Graph) string {
	const dpi = 72.0

	var buf bytes.Buffer
	buf.WriteString("digraph canvas {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		if !n.FinitePosition() {
			continue
		}
		w, h := n.Size()
		c := n.Bounds().Center()
		label := n.Content
		if label == "" {
			label = n.ID
		}
		// Graphviz y grows upward; flip so exports match screen orientation.
		fmt.Fprintf(&buf, "  %q [label=%q, pos=\"%.2f,%.2f!\", width=%.2f, height=%.2f];\n",
			n.ID, label, c.X/dpi, -c.Y/dpi, w/dpi, h/dpi)
	}

	buf.WriteString("\n")
	present := graph.NodeMap(g.Nodes)
	for _, e := range graph.FilterDangling(g.Edges, present) {
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, e.Label)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderPNG rasterizes a DOT graph to PNG using Graphviz in-process.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	gv := graphviz.New()
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
