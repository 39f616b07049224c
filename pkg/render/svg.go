package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
)

// svgMargin is the whitespace added around the drawing.
const svgMargin = 40

// WriteSVG renders the graph's current positions to SVG. Edges are drawn
// under nodes; hub nodes (edge sources) get a heavier border. Nodes with
// non-finite geometry are skipped, matching frame-render behavior.
func WriteSVG(w io.Writer, g graph.Graph) error {
	var drawable []graph.Node
	for _, n := range g.Nodes {
		if n.FinitePosition() {
			drawable = append(drawable, n)
		}
	}
	if len(drawable) == 0 {
		return fmt.Errorf("render svg: no drawable nodes")
	}

	bounds := drawable[0].Bounds()
	for _, n := range drawable[1:] {
		bounds = bounds.Union(n.Bounds())
	}

	// Shift world coordinates into the positive SVG quadrant.
	offX := -bounds.X + svgMargin
	offY := -bounds.Y + svgMargin

	canvas := svg.New(w)
	canvas.Start(int(bounds.Width)+2*svgMargin, int(bounds.Height)+2*svgMargin)

	centers := make(map[string]geom.Vec, len(drawable))
	for _, n := range drawable {
		c := n.Bounds().Center()
		centers[n.ID] = geom.Vec{X: c.X + offX, Y: c.Y + offY}
	}

	for _, e := range g.Edges {
		src, okS := centers[e.Source]
		dst, okD := centers[e.Target]
		if !okS || !okD {
			continue
		}
		canvas.Line(int(src.X), int(src.Y), int(dst.X), int(dst.Y),
			"stroke:#94a3b8;stroke-width:1.5")
		if e.Label != "" {
			canvas.Text(int((src.X+dst.X)/2), int((src.Y+dst.Y)/2)-4, e.Label,
				"font-size:11px;fill:#64748b;text-anchor:middle")
		}
	}

	parents := graph.ParentSet(g.Edges)
	for _, n := range drawable {
		nw, nh := n.Size()
		x := int(n.X + offX)
		y := int(n.Y + offY)
		stroke := "#cbd5e1"
		strokeWidth := 1
		if parents[n.ID] {
			stroke = "#475569"
			strokeWidth = 2
		}
		canvas.Roundrect(x, y, int(nw), int(nh), 8, 8,
			fmt.Sprintf("fill:#f8fafc;stroke:%s;stroke-width:%d", stroke, strokeWidth))
		label := n.Content
		if label == "" {
			label = n.ID
		}
		if len(label) > 32 {
			label = label[:29] + "..."
		}
		canvas.Text(x+int(nw)/2, y+int(nh)/2+5, label,
			"font-size:13px;fill:#0f172a;text-anchor:middle;font-family:sans-serif")
	}

	canvas.End()
	return nil
}
