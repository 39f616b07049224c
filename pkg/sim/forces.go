package sim

import (
	"math"

	"github.com/cartograph/cartograph/pkg/geom"
)

// =============================================================================
// ManyBody - mutual repulsion (Barnes-Hut)
// =============================================================================

// ManyBody applies an n-body charge force between all bodies. Negative
// strength repels (the usual case for graph layouts). Far clusters of bodies
// are approximated by their center of mass using a Barnes-Hut quadtree, so a
// tick costs O(n log n) instead of O(n²).
type ManyBody struct {
	// Strength is the charge per body; negative values repel.
	Strength float64
	// Theta is the Barnes-Hut accuracy parameter. A cluster is treated as a
	// point mass when cellSize/distance < Theta. Zero means 0.9.
	Theta float64
	// MinDistance clamps the force singularity at close range. Zero means 1.
	MinDistance float64
	// MaxDistance cuts the force off entirely beyond it. Zero means no cutoff.
	MaxDistance float64
}

func (f ManyBody) Apply(alpha float64, s *Simulation) {
	bodies := s.Bodies()
	if len(bodies) < 2 {
		return
	}
	theta := f.Theta
	if theta == 0 {
		theta = 0.9
	}
	minD2 := f.MinDistance * f.MinDistance
	if minD2 == 0 {
		minD2 = 1
	}
	maxD2 := math.Inf(1)
	if f.MaxDistance > 0 {
		maxD2 = f.MaxDistance * f.MaxDistance
	}

	root := buildBHTree(bodies)
	for _, b := range bodies {
		if b.Fixed {
			continue
		}
		root.accumulate(b, f.Strength, alpha, theta*theta, minD2, maxD2, s)
	}
}

// bhCell is one quadtree cell carrying the aggregate mass and centroid of the
// bodies beneath it. Leaves hold the bodies themselves; coincident bodies
// simply share a leaf once the depth cap is reached.
type bhCell struct {
	bounds   geom.Rect
	bodies   []*Body
	children *[4]bhCell
	center   geom.Vec
	mass     float64
}

func buildBHTree(bodies []*Body) *bhCell {
	bounds := geom.Rect{X: bodies[0].Pos.X, Y: bodies[0].Pos.Y}
	for _, b := range bodies[1:] {
		bounds = bounds.Union(geom.Rect{X: b.Pos.X, Y: b.Pos.Y})
	}
	// Square the region so quadrants stay well-proportioned.
	size := math.Max(bounds.Width, bounds.Height) + 1
	root := &bhCell{bounds: geom.Rect{X: bounds.X, Y: bounds.Y, Width: size, Height: size}}
	for _, b := range bodies {
		root.insert(b, 0)
	}
	root.aggregate()
	return root
}

// maxBHDepth bounds recursion for coincident bodies.
const maxBHDepth = 32

func (c *bhCell) insert(b *Body, depth int) {
	if c.children == nil {
		if len(c.bodies) == 0 || depth >= maxBHDepth {
			c.bodies = append(c.bodies, b)
			return
		}
		prev := c.bodies
		c.bodies = nil
		c.split()
		for _, p := range prev {
			c.childFor(p.Pos).insert(p, depth+1)
		}
	}
	c.childFor(b.Pos).insert(b, depth+1)
}

func (c *bhCell) split() {
	hw := c.bounds.Width / 2
	hh := c.bounds.Height / 2
	c.children = &[4]bhCell{
		{bounds: geom.Rect{X: c.bounds.X, Y: c.bounds.Y, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: c.bounds.X + hw, Y: c.bounds.Y, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: c.bounds.X, Y: c.bounds.Y + hh, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: c.bounds.X + hw, Y: c.bounds.Y + hh, Width: hw, Height: hh}},
	}
}

func (c *bhCell) childFor(p geom.Vec) *bhCell {
	i := 0
	if p.X >= c.bounds.X+c.bounds.Width/2 {
		i++
	}
	if p.Y >= c.bounds.Y+c.bounds.Height/2 {
		i += 2
	}
	return &c.children[i]
}

// aggregate computes mass and center of mass bottom-up.
func (c *bhCell) aggregate() {
	if c.children == nil {
		c.mass = float64(len(c.bodies))
		var cx, cy float64
		for _, b := range c.bodies {
			cx += b.Pos.X
			cy += b.Pos.Y
		}
		if c.mass > 0 {
			c.center = geom.Vec{X: cx / c.mass, Y: cy / c.mass}
		}
		return
	}
	var cx, cy, m float64
	for i := range c.children {
		ch := &c.children[i]
		ch.aggregate()
		m += ch.mass
		cx += ch.center.X * ch.mass
		cy += ch.center.Y * ch.mass
	}
	c.mass = m
	if m > 0 {
		c.center = geom.Vec{X: cx / m, Y: cy / m}
	}
}

func (c *bhCell) accumulate(b *Body, strength, alpha, theta2, minD2, maxD2 float64, s *Simulation) {
	if c.mass == 0 {
		return
	}
	dx := c.center.X - b.Pos.X
	dy := c.center.Y - b.Pos.Y
	d2 := dx*dx + dy*dy

	// Far enough: treat the whole cell as one point mass.
	if c.children != nil && c.bounds.Width*c.bounds.Width < theta2*d2 {
		if d2 < maxD2 {
			if d2 == 0 {
				dx, dy = s.Jiggle(), s.Jiggle()
				d2 = dx*dx + dy*dy
			}
			if d2 < minD2 {
				d2 = math.Sqrt(d2 * minD2)
			}
			w := strength * c.mass * alpha / d2
			b.Vel.X += dx * w
			b.Vel.Y += dy * w
		}
		return
	}

	if c.children != nil {
		for i := range c.children {
			c.children[i].accumulate(b, strength, alpha, theta2, minD2, maxD2, s)
		}
		return
	}

	for _, other := range c.bodies {
		if other == b {
			continue
		}
		dx = other.Pos.X - b.Pos.X
		dy = other.Pos.Y - b.Pos.Y
		d2 = dx*dx + dy*dy
		if d2 >= maxD2 {
			continue
		}
		if d2 == 0 {
			dx, dy = s.Jiggle(), s.Jiggle()
			d2 = dx*dx + dy*dy
		}
		if d2 < minD2 {
			d2 = math.Sqrt(d2 * minD2)
		}
		w := strength * alpha / d2
		b.Vel.X += dx * w
		b.Vel.Y += dy * w
	}
}

// =============================================================================
// Link - edge attraction
// =============================================================================

// Link is one attraction constraint between two bodies, identified by ID so a
// force list can be built straight from graph edges. Links whose endpoints
// are missing from the simulation are skipped.
type Link struct {
	Source, Target string
	// Distance is the target edge length. Zero means 250.
	Distance float64
	// Strength scales the correction. Zero means 0.5.
	Strength float64
}

// Links pulls connected bodies toward each link's target distance.
type Links struct {
	Links []Link
}

func (f Links) Apply(alpha float64, s *Simulation) {
	for _, l := range f.Links {
		src := s.Body(l.Source)
		dst := s.Body(l.Target)
		if src == nil || dst == nil {
			continue
		}
		distance := l.Distance
		if distance == 0 {
			distance = 250
		}
		strength := l.Strength
		if strength == 0 {
			strength = 0.5
		}

		dx := dst.Pos.X + dst.Vel.X - src.Pos.X - src.Vel.X
		dy := dst.Pos.Y + dst.Vel.Y - src.Pos.Y - src.Vel.Y
		if dx == 0 && dy == 0 {
			dx, dy = s.Jiggle(), s.Jiggle()
		}
		d := math.Hypot(dx, dy)
		k := (d - distance) / d * alpha * strength
		dx *= k
		dy *= k
		if !dst.Fixed {
			dst.Vel.X -= dx / 2
			dst.Vel.Y -= dy / 2
		}
		if !src.Fixed {
			src.Vel.X += dx / 2
			src.Vel.Y += dy / 2
		}
	}
}

// =============================================================================
// Center - drift correction
// =============================================================================

// Center translates the whole system so its centroid moves toward the target
// point. Like the classic implementation this adjusts positions directly (it
// is a drift correction, not a physical force), so it cannot oscillate.
type Center struct {
	At geom.Vec
	// Strength in (0, 1]; zero means 1 (full correction each tick).
	Strength float64
}

func (f Center) Apply(_ float64, s *Simulation) {
	bodies := s.Bodies()
	if len(bodies) == 0 {
		return
	}
	strength := f.Strength
	if strength == 0 {
		strength = 1
	}
	var cx, cy float64
	for _, b := range bodies {
		cx += b.Pos.X
		cy += b.Pos.Y
	}
	cx = (cx/float64(len(bodies)) - f.At.X) * strength
	cy = (cy/float64(len(bodies)) - f.At.Y) * strength
	for _, b := range bodies {
		if b.Fixed {
			continue
		}
		b.Pos.X -= cx
		b.Pos.Y -= cy
	}
}

// =============================================================================
// Collide - bounding-circle separation
// =============================================================================

// Collide pushes overlapping bodies apart until their bounding circles no
// longer intersect. Radii come from each body's Radius field. The force
// relaxes positions directly over a few inner iterations per tick, which
// converges much faster than velocity-based separation.
type Collide struct {
	// Strength in (0, 1]; zero means 0.7.
	Strength float64
	// Iterations per tick; zero means 1.
	Iterations int
}

func (f Collide) Apply(_ float64, s *Simulation) {
	bodies := s.Bodies()
	strength := f.Strength
	if strength == 0 {
		strength = 0.7
	}
	iters := f.Iterations
	if iters == 0 {
		iters = 1
	}

	for it := 0; it < iters; it++ {
		for i := 0; i < len(bodies); i++ {
			for j := i + 1; j < len(bodies); j++ {
				a, b := bodies[i], bodies[j]
				if a.Fixed && b.Fixed {
					continue
				}
				rsum := a.Radius + b.Radius
				dx := b.Pos.X - a.Pos.X
				dy := b.Pos.Y - a.Pos.Y
				d2 := dx*dx + dy*dy
				if d2 >= rsum*rsum {
					continue
				}
				if d2 == 0 {
					dx, dy = s.Jiggle(), s.Jiggle()
					d2 = dx*dx + dy*dy
				}
				d := math.Sqrt(d2)
				overlap := (rsum - d) / d * strength
				dx *= overlap
				dy *= overlap
				switch {
				case a.Fixed:
					b.Pos.X += dx
					b.Pos.Y += dy
				case b.Fixed:
					a.Pos.X -= dx
					a.Pos.Y -= dy
				default:
					// Heavier (larger) bodies move less.
					wa := b.Radius * b.Radius / (a.Radius*a.Radius + b.Radius*b.Radius)
					b.Pos.X += dx * (1 - wa)
					b.Pos.Y += dy * (1 - wa)
					a.Pos.X -= dx * wa
					a.Pos.Y -= dy * wa
				}
			}
		}
	}
}

// =============================================================================
// Radial - pull toward a circle
// =============================================================================

// Radial pulls each body toward a circle of the given radius around the
// origin point. Per-body radius and strength functions allow asymmetric
// treatment (e.g. inner vs outer sets in subgraph isolation).
type Radial struct {
	Origin geom.Vec
	// Radius returns the target circle radius for a body.
	Radius func(*Body) float64
	// Strength returns the per-body pull in (0, 1].
	Strength func(*Body) float64
}

func (f Radial) Apply(alpha float64, s *Simulation) {
	for _, b := range s.Bodies() {
		if b.Fixed {
			continue
		}
		dx := b.Pos.X - f.Origin.X
		dy := b.Pos.Y - f.Origin.Y
		if dx == 0 && dy == 0 {
			dx, dy = s.Jiggle(), s.Jiggle()
		}
		d := math.Hypot(dx, dy)
		k := (f.Radius(b) - d) * f.Strength(b) * alpha / d
		b.Vel.X += dx * k
		b.Vel.Y += dy * k
	}
}

// =============================================================================
// AxisX / AxisY - one-dimensional positioning
// =============================================================================

// AxisX pulls each body's x-coordinate toward a per-body target. The hybrid
// layout uses a strong axis force on the rank coordinate and a weak one on
// the orthogonal coordinate.
type AxisX struct {
	Target   func(*Body) float64
	Strength func(*Body) float64
}

func (f AxisX) Apply(alpha float64, s *Simulation) {
	for _, b := range s.Bodies() {
		if b.Fixed {
			continue
		}
		b.Vel.X += (f.Target(b) - b.Pos.X) * f.Strength(b) * alpha
	}
}

// AxisY pulls each body's y-coordinate toward a per-body target.
type AxisY struct {
	Target   func(*Body) float64
	Strength func(*Body) float64
}

func (f AxisY) Apply(alpha float64, s *Simulation) {
	for _, b := range s.Bodies() {
		if b.Fixed {
			continue
		}
		b.Vel.Y += (f.Target(b) - b.Pos.Y) * f.Strength(b) * alpha
	}
}

// =============================================================================
// ForceFunc - ad-hoc per-tick corrections
// =============================================================================

// ForceFunc adapts a plain function into a Force. The subgraph-isolation
// layout uses it for its exclusion-zone correction pass.
type ForceFunc func(alpha float64, s *Simulation)

func (f ForceFunc) Apply(alpha float64, s *Simulation) { f(alpha, s) }
