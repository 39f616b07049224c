package sim

import (
	"math"

	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
)

// Conversion at the simulation boundary. Persisted nodes anchor at their
// top-left corner; bodies anchor at their center so forces act symmetrically.

// CollideRadius returns the bounding-circle radius used for collision: half
// the bounding-box diagonal plus a small buffer.
func CollideRadius(w, h, buffer float64) float64 {
	return math.Hypot(w, h)/2 + buffer
}

// FromNodes converts nodes to simulation bodies. Nodes with non-finite
// geometry are skipped; their positions are left untouched by any layout.
func FromNodes(nodes []graph.Node, radiusBuffer float64) []*Body {
	bodies := make([]*Body, 0, len(nodes))
	for _, n := range nodes {
		if !n.FinitePosition() {
			continue
		}
		w, h := n.Size()
		bodies = append(bodies, &Body{
			ID:     n.ID,
			Pos:    geom.Vec{X: n.X + w/2, Y: n.Y + h/2},
			Width:  w,
			Height: h,
			Radius: CollideRadius(w, h, radiusBuffer),
		})
	}
	return bodies
}

// Updates converts final body centers back to top-left node positions,
// keyed by ID, ready for graph.MergePositions.
func Updates(bodies []*Body) map[string]geom.Vec {
	out := make(map[string]geom.Vec, len(bodies))
	for _, b := range bodies {
		out[b.ID] = geom.Vec{X: b.Pos.X - b.Width/2, Y: b.Pos.Y - b.Height/2}
	}
	return out
}
