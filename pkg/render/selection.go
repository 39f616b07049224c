// Package render computes the node/edge subset materialized each frame and
// provides export sinks (SVG via svgo, PNG/DOT via graphviz) for computed
// layouts.
package render

import (
	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/spatial"
)

// Selection is the visible subset for one frame.
type Selection struct {
	// Nodes whose bounding box intersects the culling rectangle, in input order.
	Nodes []graph.Node
	// Edges whose endpoints both exist with finite geometry and whose
	// bounding-box union intersects the culling rectangle.
	Edges []graph.Edge
	// Parents marks nodes that are the source of at least one edge, letting
	// the presentation layer distinguish hub nodes.
	Parents map[string]bool
}

// Select intersects the spatial index against the culling rectangle. It is a
// pure function of its inputs: the index provides padded candidates, and each
// candidate's actual bounding box is tested against the true rectangle.
func Select(ix *spatial.Index, cull geom.Rect, nodes []graph.Node, edges []graph.Edge) Selection {
	byID := graph.NodeMap(nodes)

	candidates := make(map[string]bool)
	for _, id := range ix.QueryPadded(cull) {
		candidates[id] = true
	}

	sel := Selection{Parents: graph.ParentSet(edges)}
	for _, n := range nodes {
		if !candidates[n.ID] {
			continue
		}
		if n.FinitePosition() && n.Bounds().Intersects(cull) {
			sel.Nodes = append(sel.Nodes, n)
		}
	}

	for _, e := range edges {
		src, okS := byID[e.Source]
		dst, okD := byID[e.Target]
		if !okS || !okD {
			continue
		}
		if !src.FinitePosition() || !dst.FinitePosition() {
			continue
		}
		if src.Bounds().Union(dst.Bounds()).Intersects(cull) {
			sel.Edges = append(sel.Edges, e)
		}
	}
	return sel
}
