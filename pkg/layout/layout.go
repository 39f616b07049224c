// Package layout implements the four canvas layout algorithms (force, tree,
// hybrid, subgraph isolation) and the post-interaction collision resolver.
//
// Every algorithm takes (nodes, edges) for a single scope and returns new
// positions for the same identifiers. Algorithms never propagate errors:
// internal failures are modeled as a tagged Result whose fallback path always
// reaches the force layout deterministically, so the caller sees a complete
// position assignment in every case.
package layout

import (
	"errors"
	"fmt"

	"github.com/cartograph/cartograph/pkg/graph"
)

// Kind identifies a layout algorithm.
type Kind string

const (
	KindForce   Kind = "force"
	KindTree    Kind = "tree"
	KindHybrid  Kind = "hybrid"
	KindIsolate Kind = "isolate"
)

// ParseKind validates a user-supplied layout name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindForce, KindTree, KindHybrid, KindIsolate:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown layout kind %q (want force, tree, hybrid, or isolate)", s)
}

// Orientation selects the tree/hybrid layer axis.
type Orientation string

const (
	// OrientTB layers top-to-bottom: depth on Y, siblings spread on X.
	OrientTB Orientation = "tb"
	// OrientLR layers left-to-right: depth on X, siblings spread on Y.
	OrientLR Orientation = "lr"
)

// Options tunes an algorithm invocation. The zero value selects defaults.
type Options struct {
	// Orientation for tree and hybrid; empty means top-to-bottom.
	Orientation Orientation
	// FocusID selects the isolation focus node (isolate only).
	FocusID string
	// Ticks bounds the synchronous simulation; zero means 300.
	Ticks int
	// CollideBuffer pads bounding-circle radii; zero means 12.
	CollideBuffer float64
}

func (o Options) orientation() Orientation {
	if o.Orientation == OrientLR {
		return OrientLR
	}
	return OrientTB
}

func (o Options) ticks() int {
	if o.Ticks > 0 {
		return o.Ticks
	}
	return 300
}

func (o Options) collideBuffer() float64 {
	if o.CollideBuffer > 0 {
		return o.CollideBuffer
	}
	return 12
}

// Normalized returns the options with every default made explicit, so that
// configurations producing the same output compare and hash identically.
func (o Options) Normalized() Options {
	return Options{
		Orientation:   o.orientation(),
		FocusID:       o.FocusID,
		Ticks:         o.ticks(),
		CollideBuffer: o.collideBuffer(),
	}
}

// Result is the tagged outcome of a layout invocation. When Fallback is set,
// Applied names the algorithm that actually produced the positions and Reason
// records why the requested one could not.
type Result struct {
	Nodes    []graph.Node
	Applied  Kind
	Fallback bool
	Reason   string
}

// ErrFocusNotFound reports that the isolation focus node is absent from the
// node set. Apply handles it by returning the input unchanged rather than
// rearranging the scope around a node that is not there.
var ErrFocusNotFound = errors.New("focus node not found in scope")

// Apply runs the requested layout over one scope's nodes and edges, falling
// back to the force layout on any construction failure. It never returns an
// error: the worst case is a force-directed scatter.
func Apply(kind Kind, nodes []graph.Node, edges []graph.Edge, opts Options) Result {
	if len(nodes) == 0 {
		return Result{Nodes: nodes, Applied: kind}
	}

	var (
		out []graph.Node
		err error
	)
	switch kind {
	case KindTree:
		out, err = Tree(nodes, edges, opts)
	case KindHybrid:
		out, err = Hybrid(nodes, edges, opts)
	case KindIsolate:
		out, err = Isolate(nodes, edges, opts)
	case KindForce:
		return Result{Nodes: Force(nodes, edges, opts), Applied: KindForce}
	default:
		err = fmt.Errorf("unknown layout kind %q", kind)
	}

	if err == nil {
		return Result{Nodes: out, Applied: kind}
	}
	if errors.Is(err, ErrFocusNotFound) {
		// Rearranging the scope without its focus would be worse than doing
		// nothing; hand the input back untouched.
		return Result{Nodes: nodes, Applied: kind, Fallback: true, Reason: err.Error()}
	}
	return Result{
		Nodes:    Force(nodes, edges, opts),
		Applied:  KindForce,
		Fallback: true,
		Reason:   err.Error(),
	}
}
