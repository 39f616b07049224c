package layout

import (
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/sim"
)

// Hybrid tuning constants: the rank axis is held firmly so the hierarchy
// stays legible, while the orthogonal axis is only nudged so siblings spread
// out naturally instead of staying rigidly packed.
const (
	hybridLinkDistance = 250.0
	hybridLinkStrength = 0.5
	hybridRankStrength = 0.9
	hybridCrossAxis    = 0.05
)

// Hybrid lays out a tree skeleton, then relaxes it with an axis-constrained
// force pass: links and collision act freely, a strong one-axis force pins
// every node to its tree rank coordinate, and a weak force centers the
// orthogonal axis. Stratification failures (cyclic or disconnected graphs)
// surface as errors for Apply's force fallback.
func Hybrid(nodes []graph.Node, edges []graph.Edge, opts Options) ([]graph.Node, error) {
	seeded, err := Tree(nodes, edges, opts)
	if err != nil {
		return nil, err
	}

	bodies := sim.FromNodes(seeded, opts.collideBuffer())
	if len(bodies) == 0 {
		return seeded, nil
	}

	// Capture each body's rank coordinate from the tree seed.
	rank := make(map[string]float64, len(bodies))
	for _, b := range bodies {
		if opts.orientation() == OrientLR {
			rank[b.ID] = b.Pos.X
		} else {
			rank[b.ID] = b.Pos.Y
		}
	}
	rankOf := func(b *sim.Body) float64 { return rank[b.ID] }
	strong := func(*sim.Body) float64 { return hybridRankStrength }
	weak := func(*sim.Body) float64 { return hybridCrossAxis }
	zero := func(*sim.Body) float64 { return 0 }

	s := sim.New(bodies).
		AddForce(forceLinks(seeded, edges, hybridLinkDistance, hybridLinkStrength)).
		AddForce(sim.Collide{Iterations: 1})
	if opts.orientation() == OrientLR {
		s.AddForce(sim.AxisX{Target: rankOf, Strength: strong})
		s.AddForce(sim.AxisY{Target: zero, Strength: weak})
	} else {
		s.AddForce(sim.AxisY{Target: rankOf, Strength: strong})
		s.AddForce(sim.AxisX{Target: zero, Strength: weak})
	}
	s.Run(opts.ticks())

	return graph.MergePositions(seeded, sim.Updates(bodies)), nil
}
