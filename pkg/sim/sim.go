// Package sim implements the synchronous force simulation underlying the
// layout algorithms and the collision resolver.
//
// A simulation owns typed bodies (explicitly distinct from the persisted
// graph.Node; see convert.go for the boundary) and a list of pluggable
// forces. Each tick applies every force to the bodies' velocities, integrates
// positions, and decays both velocity and the global alpha. Simulations are
// never animated: Run executes a bounded number of ticks on the calling
// goroutine and the final positions are read out in one call.
//
// The integration scheme follows the usual velocity-Verlet-flavored approach
// of interactive graph layouts (alpha annealing, velocity decay), as seen in
// force-directed Go implementations of the same family.
package sim

import (
	"math/rand"

	"github.com/cartograph/cartograph/pkg/geom"
)

// Body is a simulation particle. Pos is the node center in world coordinates.
// Fixed bodies are authoritative: forces accumulate nothing on them and
// integration leaves them in place.
type Body struct {
	ID     string
	Pos    geom.Vec
	Vel    geom.Vec
	Width  float64
	Height float64
	Radius float64
	Fixed  bool
}

// Force mutates body velocities (or, for relaxation-style forces, positions)
// once per tick. alpha is the simulation's current annealing temperature.
type Force interface {
	Apply(alpha float64, s *Simulation)
}

// Simulation drives a set of bodies under a list of forces.
type Simulation struct {
	bodies []*Body
	byID   map[string]*Body
	forces []Force
	rng    *rand.Rand

	// Alpha is the annealing temperature, decayed toward zero each tick.
	Alpha float64
	// AlphaMin stops Run once Alpha falls below it.
	AlphaMin float64
	// AlphaDecay is the per-tick fractional decay of Alpha.
	AlphaDecay float64
	// VelocityDecay is the per-tick friction applied to velocities.
	VelocityDecay float64
}

// New creates a simulation over the given bodies with the default annealing
// schedule (alpha 1 → 0.001, ~300 ticks, 40% velocity decay). The RNG used
// for symmetry breaking is seeded deterministically so identical inputs
// produce identical layouts.
func New(bodies []*Body) *Simulation {
	byID := make(map[string]*Body, len(bodies))
	for _, b := range bodies {
		byID[b.ID] = b
	}
	return &Simulation{
		bodies:        bodies,
		byID:          byID,
		rng:           rand.New(rand.NewSource(1)),
		Alpha:         1,
		AlphaMin:      0.001,
		AlphaDecay:    1 - 0.97723, // ~300 ticks from 1 to alphaMin
		VelocityDecay: 0.4,
	}
}

// Bodies returns the simulation's bodies. The slice is shared, not copied.
func (s *Simulation) Bodies() []*Body { return s.bodies }

// Body returns the body with the given ID, or nil.
func (s *Simulation) Body(id string) *Body { return s.byID[id] }

// AddForce appends a force. Forces are applied in registration order.
func (s *Simulation) AddForce(f Force) *Simulation {
	s.forces = append(s.forces, f)
	return s
}

// Jiggle returns a tiny deterministic random offset used to separate exactly
// coincident bodies, without which pairwise forces would divide by zero.
func (s *Simulation) Jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

// Tick advances the simulation one step: apply forces, integrate velocities
// into positions, decay velocities, anneal alpha.
func (s *Simulation) Tick() {
	for _, f := range s.forces {
		f.Apply(s.Alpha, s)
	}
	for _, b := range s.bodies {
		if b.Fixed {
			b.Vel = geom.Vec{}
			continue
		}
		b.Pos.X += b.Vel.X
		b.Pos.Y += b.Vel.Y
		b.Vel.X *= 1 - s.VelocityDecay
		b.Vel.Y *= 1 - s.VelocityDecay
	}
	s.Alpha += (0 - s.Alpha) * s.AlphaDecay
}

// Run ticks the simulation until alpha drops below AlphaMin or maxTicks
// elapse, whichever comes first, and returns the number of ticks executed.
func (s *Simulation) Run(maxTicks int) int {
	n := 0
	for ; n < maxTicks && s.Alpha >= s.AlphaMin; n++ {
		s.Tick()
	}
	return n
}
