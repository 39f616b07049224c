package layout

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/sim"
)

// Isolation tuning constants. The inner radius grows with the square root of
// the inner set size so area scales linearly with node count; the separation
// buffer is the width of the empty "halo" ring between the sets.
const (
	isolateRadiusScale   = 120.0
	isolateSeparation    = 600.0
	isolateInnerMargin   = 100.0
	isolateCharge        = -2000.0
	isolateIntraDistance = 200.0
	isolateInnerPull     = 0.05
	isolateOuterPull     = 0.8
	isolateTolerance     = 40.0
)

// Isolate separates the subgraph reachable from the focus node (the inner
// set, found by BFS over outgoing edges) from everything else in scope (the
// outer set) with an empty radial halo around the origin. Returns
// ErrFocusNotFound if the focus node is absent; Apply then leaves the input
// untouched.
func Isolate(nodes []graph.Node, edges []graph.Edge, opts Options) ([]graph.Node, error) {
	if opts.FocusID == "" {
		return nil, fmt.Errorf("isolate: %w", ErrFocusNotFound)
	}
	present := graph.NodeMap(nodes)
	if _, ok := present[opts.FocusID]; !ok {
		return nil, fmt.Errorf("isolate %q: %w", opts.FocusID, ErrFocusNotFound)
	}
	usable := graph.FilterDangling(edges, present)
	inner := graph.Reachable(usable, opts.FocusID)

	innerR := math.Sqrt(float64(len(inner))) * isolateRadiusScale
	outerR := innerR + isolateSeparation

	bodies := sim.FromNodes(nodes, opts.collideBuffer())
	if len(bodies) == 0 {
		return nodes, nil
	}

	// Preseed so the simulation starts near the target shape: outer nodes
	// caught inside the exclusion zone teleport onto the ring at a
	// randomized angle near their current bearing; inner strays are pulled
	// back toward the inner disc. Seeded RNG keeps layouts reproducible.
	rng := rand.New(rand.NewSource(1))
	for _, b := range bodies {
		d := math.Hypot(b.Pos.X, b.Pos.Y)
		if inner[b.ID] {
			if d > innerR+isolateInnerMargin && d > 0 {
				scale := innerR / d
				b.Pos.X *= scale
				b.Pos.Y *= scale
			}
			continue
		}
		if d < outerR {
			angle := math.Atan2(b.Pos.Y, b.Pos.X) + (rng.Float64()-0.5)*0.6
			r := outerR + rng.Float64()*isolateInnerMargin
			b.Pos = geom.Vec{X: r * math.Cos(angle), Y: r * math.Sin(angle)}
		}
	}

	links := make([]sim.Link, 0, len(usable))
	for _, e := range usable {
		crossing := inner[e.Source] != inner[e.Target]
		l := sim.Link{Source: e.Source, Target: e.Target, Distance: isolateIntraDistance, Strength: 0.4}
		if crossing {
			l.Distance = isolateSeparation
			l.Strength = 0.2
		}
		links = append(links, l)
	}

	radius := func(b *sim.Body) float64 {
		if inner[b.ID] {
			return 0 // pull inner nodes toward the origin
		}
		return outerR
	}
	pull := func(b *sim.Body) float64 {
		if inner[b.ID] {
			return isolateInnerPull
		}
		return isolateOuterPull
	}

	s := sim.New(bodies).
		AddForce(sim.ManyBody{Strength: isolateCharge}).
		AddForce(sim.Links{Links: links}).
		AddForce(sim.Collide{Iterations: 1}).
		AddForce(sim.Radial{Radius: radius, Strength: pull}).
		AddForce(sim.ForceFunc(func(_ float64, s *sim.Simulation) {
			// Exclusion-zone correction: shove outer stragglers back out and
			// rein in inner drifters, as a direct position fix so the halo
			// holds even while other forces fight it.
			for _, b := range s.Bodies() {
				d := math.Hypot(b.Pos.X, b.Pos.Y)
				if d == 0 {
					continue
				}
				if inner[b.ID] {
					if max := innerR + isolateInnerMargin; d > max {
						scale := max / d
						b.Pos.X *= scale
						b.Pos.Y *= scale
					}
					continue
				}
				if d < outerR-isolateTolerance {
					scale := (outerR - isolateTolerance) / d
					b.Pos.X *= scale
					b.Pos.Y *= scale
				}
			}
		}))
	s.Run(opts.ticks())

	return graph.MergePositions(nodes, sim.Updates(bodies)), nil
}
