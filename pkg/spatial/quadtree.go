// Package spatial provides the point quadtree used to cull nodes against the
// viewport. The index stores only node origins (top-left corners); because
// nodes have extent, range queries pad the query rectangle on the min sides by
// the maximum plausible node dimension and callers post-filter candidates'
// actual bounding boxes (see pkg/render).
//
// The index is immutable once built and is rebuilt wholesale whenever the
// node slice identity changes. Rebuilding is cheap relative to the per-frame
// query cost, so no incremental insert/delete path exists.
package spatial

import (
	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
)

// leafCapacity is the number of points a cell holds before subdividing.
const leafCapacity = 8

// minCellSize stops subdivision for degenerate inputs such as thousands of
// coincident points.
const minCellSize = 1e-6

type point struct {
	id string
	at geom.Vec
}

type cell struct {
	bounds   geom.Rect
	points   []point
	children *[4]cell // nil for leaves
}

// Index is a point index over node positions supporting rectangular range
// queries with quadrant pruning.
type Index struct {
	root  *cell
	count int
}

// Build constructs an index over the nodes' origins. Nodes with non-finite
// geometry are skipped defensively rather than failing the build.
func Build(nodes []graph.Node) *Index {
	pts := make([]point, 0, len(nodes))
	bounds := geom.Rect{}
	first := true
	for _, n := range nodes {
		if !n.FinitePosition() {
			continue
		}
		p := point{id: n.ID, at: geom.Vec{X: n.X, Y: n.Y}}
		pts = append(pts, p)
		pb := geom.Rect{X: p.at.X, Y: p.at.Y}
		if first {
			bounds = pb
			first = false
		} else {
			bounds = bounds.Union(pb)
		}
	}

	ix := &Index{count: len(pts)}
	if len(pts) == 0 {
		return ix
	}
	// A zero-area root cannot subdivide; give it a little slack so Contains
	// holds for points on the max edges.
	bounds.Width++
	bounds.Height++

	ix.root = &cell{bounds: bounds}
	for _, p := range pts {
		ix.root.insert(p)
	}
	return ix
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.count }

// Query returns the IDs of all indexed points falling inside r, traversing
// only the quadrants that intersect it. The result order follows tree
// traversal and is deterministic for a fixed build input.
func (ix *Index) Query(r geom.Rect) []string {
	if ix.root == nil {
		return nil
	}
	var out []string
	ix.root.query(r, &out)
	return out
}

// QueryPadded pads r on its min sides by graph.MaxNodeDimension before
// querying, so nodes whose origin lies above/left of r but whose extent may
// still reach into it are included as candidates. Callers must post-filter
// against each node's actual bounding box.
func (ix *Index) QueryPadded(r geom.Rect) []string {
	return ix.Query(r.PadMin(graph.MaxNodeDimension))
}

func (c *cell) insert(p point) {
	if c.children != nil {
		c.child(p.at).insert(p)
		return
	}
	c.points = append(c.points, p)
	if len(c.points) > leafCapacity && c.bounds.Width > minCellSize && c.bounds.Height > minCellSize {
		c.subdivide()
	}
}

func (c *cell) subdivide() {
	hw := c.bounds.Width / 2
	hh := c.bounds.Height / 2
	c.children = &[4]cell{
		{bounds: geom.Rect{X: c.bounds.X, Y: c.bounds.Y, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: c.bounds.X + hw, Y: c.bounds.Y, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: c.bounds.X, Y: c.bounds.Y + hh, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: c.bounds.X + hw, Y: c.bounds.Y + hh, Width: hw, Height: hh}},
	}
	pts := c.points
	c.points = nil
	for _, p := range pts {
		c.child(p.at).insert(p)
	}
}

// child picks the quadrant containing the point. Points on the split lines go
// to the higher quadrant, mirroring Rect.Contains semantics.
func (c *cell) child(at geom.Vec) *cell {
	i := 0
	if at.X >= c.bounds.X+c.bounds.Width/2 {
		i++
	}
	if at.Y >= c.bounds.Y+c.bounds.Height/2 {
		i += 2
	}
	return &c.children[i]
}

func (c *cell) query(r geom.Rect, out *[]string) {
	if !c.bounds.Intersects(r) {
		return
	}
	if c.children != nil {
		for i := range c.children {
			c.children[i].query(r, out)
		}
		return
	}
	for _, p := range c.points {
		if r.Contains(p.at) {
			*out = append(*out, p.id)
		}
	}
}
