package layout

import (
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/sim"
)

// Force-layout tuning constants.
const (
	forceCharge       = -2000 // strong mutual separation
	forceLinkDistance = 250
	forceLinkStrength = 0.5
)

// Force computes a force-directed layout: strong mutual repulsion, link
// attraction toward a target edge length, centering toward the origin, and
// collision to prevent overlap. It runs a fixed number of ticks synchronously
// and cannot fail; nodes with non-finite geometry pass through untouched.
func Force(nodes []graph.Node, edges []graph.Edge, opts Options) []graph.Node {
	bodies := sim.FromNodes(nodes, opts.collideBuffer())
	if len(bodies) == 0 {
		return nodes
	}

	s := sim.New(bodies).
		AddForce(sim.ManyBody{Strength: forceCharge}).
		AddForce(forceLinks(nodes, edges, forceLinkDistance, forceLinkStrength)).
		AddForce(sim.Center{}).
		AddForce(sim.Collide{Iterations: 1})
	s.Run(opts.ticks())

	return graph.MergePositions(nodes, sim.Updates(bodies))
}

// forceLinks converts the non-dangling edges into simulation links.
func forceLinks(nodes []graph.Node, edges []graph.Edge, distance, strength float64) sim.Links {
	present := graph.NodeMap(nodes)
	usable := graph.FilterDangling(edges, present)
	links := make([]sim.Link, 0, len(usable))
	for _, e := range usable {
		links = append(links, sim.Link{
			Source:   e.Source,
			Target:   e.Target,
			Distance: distance,
			Strength: strength,
		})
	}
	return sim.Links{Links: links}
}
