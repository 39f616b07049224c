package interact

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
)

const (
	// followImpulse is the fraction of a parent's applied delta handed to
	// each first-reached child per pointer move.
	followImpulse = 0.1
	// followDecay damps follower velocities between pointer moves.
	followDecay = 0.9
)

// DragSession holds the mutable state of one drag gesture: the captured
// initial positions of the drag roots and the follower velocities that
// persist across pointer moves. It is created on drag start and discarded on
// pointer up; velocities never leak into the persisted node state.
type DragSession struct {
	anchor  geom.Vec // screen-space pointer position at drag start
	primary string   // node under the pointer, pinned during resolution
	roots   map[string]bool
	initial map[string]geom.Vec // root top-left positions at drag start
	vel     map[string]geom.Vec // follower velocities, world units per move
	travel  float64             // max screen-space pointer excursion
}

func newDragSession(nodes []graph.Node, roots []string, primary string, anchor geom.Vec) *DragSession {
	s := &DragSession{
		anchor:  anchor,
		primary: primary,
		roots:   make(map[string]bool, len(roots)),
		initial: make(map[string]geom.Vec, len(roots)),
		vel:     make(map[string]geom.Vec),
	}
	byID := graph.NodeMap(nodes)
	for _, id := range roots {
		n, ok := byID[id]
		if !ok {
			continue
		}
		s.roots[id] = true
		s.initial[id] = geom.Vec{X: n.X, Y: n.Y}
	}
	return s
}

// Primary returns the node under the pointer when the drag started.
func (s *DragSession) Primary() string { return s.primary }

// Travel returns the largest screen-space distance the pointer has moved
// from the drag anchor, used for the click-versus-drag decision.
func (s *DragSession) Travel() float64 { return s.travel }

// Move advances the drag to a new pointer position and returns a new node
// slice. Roots land exactly at initial position plus the cumulative
// world-space delta; descendants trail behind on damped velocity impulses
// propagated breadth-first over outgoing edges.
func (s *DragSession) Move(nodes []graph.Node, edges []graph.Edge, p geom.Vec, k float64) []graph.Node {
	if !(k > 0) || !geom.IsFinite(p.X, p.Y) {
		return nodes
	}
	if d := math.Hypot(p.X-s.anchor.X, p.Y-s.anchor.Y); d > s.travel {
		s.travel = d
	}
	cum := geom.Vec{X: (p.X - s.anchor.X) / k, Y: (p.Y - s.anchor.Y) / k}

	byID := graph.NodeMap(nodes)
	updates := make(map[string]geom.Vec)

	// Roots are authoritative: placed exactly, and the delta each one just
	// moved by seeds the follow-through wave.
	applied := make(map[string]geom.Vec, len(s.roots))
	queue := make([]string, 0, len(s.roots))
	for id := range s.roots {
		n, ok := byID[id]
		if !ok {
			continue
		}
		target := r2.Add(s.initial[id], cum)
		applied[id] = r2.Sub(target, geom.Vec{X: n.X, Y: n.Y})
		updates[id] = target
		queue = append(queue, id)
	}

	// Breadth-first over outgoing edges: each node reached for the first
	// time collects an impulse of followImpulse times its parent's applied
	// delta. Roots never receive propagated velocity.
	out := graph.Outgoing(edges)
	seen := make(map[string]bool, len(queue))
	for _, id := range queue {
		seen[id] = true
	}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		impulse := r2.Scale(followImpulse, applied[parent])
		for _, child := range out[parent] {
			if seen[child] || s.roots[child] {
				continue
			}
			if _, ok := byID[child]; !ok {
				continue
			}
			seen[child] = true
			s.vel[child] = r2.Add(s.vel[child], impulse)
			applied[child] = impulse
			queue = append(queue, child)
		}
	}

	// Apply accumulated velocities, then damp them for the next move.
	for id, v := range s.vel {
		n, ok := byID[id]
		if !ok {
			continue
		}
		pos, ok := updates[id]
		if !ok {
			pos = geom.Vec{X: n.X, Y: n.Y}
		}
		updates[id] = r2.Add(pos, v)
		s.vel[id] = r2.Scale(followDecay, v)
	}

	return graph.MergePositions(nodes, updates)
}
