package layout

import (
	"fmt"

	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
)

// Tree spacing constants. Top-to-bottom trees need wide sibling gaps (nodes
// are wider than tall); left-to-right flips the proportions.
const (
	treeTBNodeSpacing  = 280.0 // sibling gap along X
	treeTBLevelSpacing = 220.0 // rank gap along Y
	treeLRNodeSpacing  = 180.0 // sibling gap along Y
	treeLRLevelSpacing = 360.0 // rank gap along X
)

// Tree computes a tidy rooted tree layout. The root is the first node with
// restricted indegree zero (or the first node when every node has an incoming
// edge); the parent map records the source of the first edge targeting each
// node; the root is forced parentless even if it has incoming edges, breaking
// cycles through it. Construction failures (disconnected trees, parent-chain
// cycles) are returned as errors for Apply to translate into a force
// fallback.
func Tree(nodes []graph.Node, edges []graph.Edge, opts Options) ([]graph.Node, error) {
	t, err := buildTree(nodes, edges)
	if err != nil {
		return nil, err
	}

	centers := t.positions(opts.orientation())
	updates := make(map[string]geom.Vec, len(centers))
	for _, n := range nodes {
		c, ok := centers[n.ID]
		if !ok {
			continue
		}
		w, h := n.Size()
		updates[n.ID] = geom.Vec{X: c.X - w/2, Y: c.Y - h/2}
	}
	return graph.MergePositions(nodes, updates), nil
}

// tree is the strict single-root hierarchy derived from a scope's edges.
type tree struct {
	root     string
	order    []string            // all node IDs in input order
	children map[string][]string // parent → children in edge order
	depth    map[string]int
}

// buildTree derives the hierarchy: root selection, first-edge parent map,
// and validation that every node hangs off the root.
func buildTree(nodes []graph.Node, edges []graph.Edge) (*tree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("empty node set")
	}
	present := graph.NodeMap(nodes)
	usable := graph.FilterDangling(edges, present)

	root := chooseRoot(nodes, usable)

	parent := make(map[string]string, len(nodes))
	for _, e := range usable {
		if e.Target == root || e.Source == e.Target {
			continue // root stays parentless; self-loops carry no hierarchy
		}
		if _, claimed := parent[e.Target]; claimed {
			continue // only the first incoming edge defines the tree parent
		}
		parent[e.Target] = e.Source
	}

	t := &tree{
		root:     root,
		children: make(map[string][]string),
		depth:    map[string]int{root: 0},
	}
	for _, n := range nodes {
		t.order = append(t.order, n.ID)
	}
	attached := make(map[string]bool, len(parent))
	for _, e := range usable {
		if e.Target != root && parent[e.Target] == e.Source && !attached[e.Target] {
			attached[e.Target] = true
			t.children[e.Source] = append(t.children[e.Source], e.Target)
		}
	}

	// Every non-root node must reach the root through its parent chain;
	// orphans and parent-chain cycles are construction failures.
	for _, id := range t.order {
		if id == root {
			continue
		}
		if err := t.resolveDepth(id, parent); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// chooseRoot picks the first node with zero restricted indegree, falling back
// to the first node when the graph is cyclic or rootless.
func chooseRoot(nodes []graph.Node, usable []graph.Edge) string {
	indeg := graph.Indegrees(nodes, usable)
	for _, n := range nodes {
		if indeg[n.ID] == 0 {
			return n.ID
		}
	}
	return nodes[0].ID
}

// resolveDepth walks the parent chain to the root, memoizing depths and
// detecting chains that never arrive (orphans, cycles).
func (t *tree) resolveDepth(id string, parent map[string]string) error {
	var chain []string
	cur := id
	onChain := make(map[string]bool)
	for {
		if _, done := t.depth[cur]; done {
			break
		}
		if onChain[cur] {
			return fmt.Errorf("parent chain cycle at %q", cur)
		}
		onChain[cur] = true
		chain = append(chain, cur)
		p, ok := parent[cur]
		if !ok {
			return fmt.Errorf("node %q is not connected to root %q", cur, t.root)
		}
		cur = p
	}
	base := t.depth[cur]
	for i := len(chain) - 1; i >= 0; i-- {
		base++
		t.depth[chain[i]] = base
	}
	return nil
}

// positions runs the tidy walk: leaves take sequential breadth slots, each
// internal node is centered over its children, ranks are evenly spaced.
// Deterministic for a fixed node/edge order.
func (t *tree) positions(orient Orientation) map[string]geom.Vec {
	nodeSp, levelSp := treeTBNodeSpacing, treeTBLevelSpacing
	if orient == OrientLR {
		nodeSp, levelSp = treeLRNodeSpacing, treeLRLevelSpacing
	}

	breadth := make(map[string]float64, len(t.order))
	nextSlot := 0.0
	var walk func(id string) float64
	walk = func(id string) float64 {
		kids := t.children[id]
		if len(kids) == 0 {
			b := nextSlot
			nextSlot++
			breadth[id] = b
			return b
		}
		first := walk(kids[0])
		last := first
		for _, k := range kids[1:] {
			last = walk(k)
		}
		b := (first + last) / 2
		breadth[id] = b
		return b
	}
	walk(t.root)

	out := make(map[string]geom.Vec, len(t.order))
	for _, id := range t.order {
		b, ok := breadth[id]
		if !ok {
			continue
		}
		d := float64(t.depth[id])
		if orient == OrientLR {
			out[id] = geom.Vec{X: d * levelSp, Y: b * nodeSp}
		} else {
			out[id] = geom.Vec{X: b * nodeSp, Y: d * levelSp}
		}
	}
	return out
}
