package layout

import (
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/sim"
)

// Resolver defaults: few relaxation ticks with full-strength separation and
// heavy damping, so motion stops as soon as overlap is resolved instead of
// oscillating.
const (
	resolveTicks      = 30
	resolveVelDecay   = 0.8
	resolveAlphaDecay = 0.15
)

// ResolveOptions configures a collision-resolution pass.
type ResolveOptions struct {
	// PinnedID fixes one node at its current position, typically the node
	// just dragged or resized.
	PinnedID string
	// ActiveOnly narrows the pass to the subgraph reachable from PinnedID,
	// which is cheaper after a drag where only descendants have moved.
	ActiveOnly bool
	// Buffer pads the collision radii; zero means 12.
	Buffer float64
	// Ticks bounds the relaxation; zero means 30.
	Ticks int
}

// Resolve removes bounding-box overlap among the given scope's nodes by a
// short position-only relaxation: a pairwise collision force and nothing else
// (no charge, centering, or links), so the pass nudges just enough to
// separate and leaves the rest of the arrangement alone. Nodes outside the
// active set keep their positions; the result is merged back by identifier.
//
// Resolution is a fixed point: running it again with no intervening movement
// produces no further change, since separated circles generate no force.
func Resolve(nodes []graph.Node, edges []graph.Edge, opts ResolveOptions) []graph.Node {
	active := nodes
	if opts.ActiveOnly && opts.PinnedID != "" {
		present := graph.NodeMap(nodes)
		reach := graph.Reachable(graph.FilterDangling(edges, present), opts.PinnedID)
		active = nil
		for _, n := range nodes {
			if reach[n.ID] {
				active = append(active, n)
			}
		}
	}

	buffer := opts.Buffer
	if buffer == 0 {
		buffer = 12
	}
	ticks := opts.Ticks
	if ticks == 0 {
		ticks = resolveTicks
	}

	bodies := sim.FromNodes(active, buffer)
	if len(bodies) < 2 {
		return nodes
	}
	for _, b := range bodies {
		if b.ID == opts.PinnedID {
			b.Fixed = true
		}
	}

	s := sim.New(bodies).AddForce(sim.Collide{Strength: 1, Iterations: 2})
	s.VelocityDecay = resolveVelDecay
	s.AlphaDecay = resolveAlphaDecay
	s.Run(ticks)

	return graph.MergePositions(nodes, sim.Updates(bodies))
}
