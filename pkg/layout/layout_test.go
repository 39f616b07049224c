package layout

import (
	"math"
	"reflect"
	"testing"

	"github.com/cartograph/cartograph/pkg/graph"
)

func centers(nodes []graph.Node) map[string][2]float64 {
	m := make(map[string][2]float64, len(nodes))
	for _, n := range nodes {
		c := n.Bounds().Center()
		m[n.ID] = [2]float64{c.X, c.Y}
	}
	return m
}

func centerDist(a, b graph.Node) float64 {
	ca, cb := a.Bounds().Center(), b.Bounds().Center()
	return math.Hypot(ca.X-cb.X, ca.Y-cb.Y)
}

func byID(nodes []graph.Node) map[string]graph.Node {
	return graph.NodeMap(nodes)
}

// =============================================================================
// Force
// =============================================================================

func TestForce_SeparatesAndKeepsIDs(t *testing.T) {
	nodes := []graph.Node{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 1, Y: 0},
		{ID: "c", X: 0, Y: 1},
		{ID: "d", X: 1, Y: 1},
	}
	edges := []graph.Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "c"},
	}

	out := Force(nodes, edges, Options{})
	if len(out) != len(nodes) {
		t.Fatalf("Force() returned %d nodes, want %d", len(out), len(nodes))
	}
	m := byID(out)
	for id := range byID(nodes) {
		n, ok := m[id]
		if !ok {
			t.Fatalf("Force() lost node %s", id)
		}
		if !n.FinitePosition() {
			t.Errorf("Force() produced non-finite position for %s: (%v, %v)", id, n.X, n.Y)
		}
	}
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if d := centerDist(out[i], out[j]); d < 100 {
				t.Errorf("nodes %s and %s too close after force layout: %v", out[i].ID, out[j].ID, d)
			}
		}
	}
}

func TestApply_UnknownKindFallsBackToForce(t *testing.T) {
	nodes := []graph.Node{{ID: "a"}, {ID: "b", X: 1}}
	res := Apply(Kind("bogus"), nodes, nil, Options{})
	if !res.Fallback || res.Applied != KindForce {
		t.Errorf("Apply(bogus) = {Applied: %s, Fallback: %v}, want force fallback", res.Applied, res.Fallback)
	}
}

// =============================================================================
// Tree
// =============================================================================

func TestTree_StarGraph(t *testing.T) {
	nodes := []graph.Node{{ID: "r"}, {ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []graph.Edge{
		{Source: "r", Target: "a"},
		{Source: "r", Target: "b"},
		{Source: "r", Target: "c"},
	}

	out, err := Tree(nodes, edges, Options{})
	if err != nil {
		t.Fatalf("Tree() error: %v", err)
	}
	c := centers(out)

	// All three children share one rank (identical y) at equal x spacing.
	if c["a"][1] != c["b"][1] || c["b"][1] != c["c"][1] {
		t.Errorf("children ranks differ: a=%v b=%v c=%v", c["a"][1], c["b"][1], c["c"][1])
	}
	gap1 := c["b"][0] - c["a"][0]
	gap2 := c["c"][0] - c["b"][0]
	if gap1 != gap2 || gap1 <= 0 {
		t.Errorf("children spacing uneven: %v vs %v", gap1, gap2)
	}
	// The root is centered over its children, one rank above.
	if got, want := c["r"][0], c["b"][0]; got != want {
		t.Errorf("root x = %v, want centered over children at %v", got, want)
	}
	if c["r"][1] >= c["a"][1] {
		t.Errorf("root rank %v not above children rank %v", c["r"][1], c["a"][1])
	}
}

func TestTree_Deterministic(t *testing.T) {
	nodes := []graph.Node{{ID: "r"}, {ID: "a"}, {ID: "b"}, {ID: "x"}, {ID: "y"}}
	edges := []graph.Edge{
		{Source: "r", Target: "a"},
		{Source: "r", Target: "b"},
		{Source: "a", Target: "x"},
		{Source: "a", Target: "y"},
	}

	out1, err1 := Tree(nodes, edges, Options{})
	out2, err2 := Tree(nodes, edges, Options{})
	if err1 != nil || err2 != nil {
		t.Fatalf("Tree() errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(out1, out2) {
		t.Error("Tree() is not deterministic for identical input")
	}
}

func TestTree_RootSelection(t *testing.T) {
	// b has indegree zero once the dangling edge is excluded.
	nodes := []graph.Node{{ID: "a"}, {ID: "b"}}
	edges := []graph.Edge{
		{Source: "ghost", Target: "b"}, // dangling, must not count
		{Source: "b", Target: "a"},
	}

	out, err := Tree(nodes, edges, Options{})
	if err != nil {
		t.Fatalf("Tree() error: %v", err)
	}
	c := centers(out)
	if c["b"][1] >= c["a"][1] {
		t.Errorf("root b rank %v not above child a rank %v", c["b"][1], c["a"][1])
	}
}

func TestTree_CycleThroughRootIsBroken(t *testing.T) {
	// a→b→a: a is chosen as root (first node) and forced parentless.
	nodes := []graph.Node{{ID: "a"}, {ID: "b"}}
	edges := []graph.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "a"},
	}
	if _, err := Tree(nodes, edges, Options{}); err != nil {
		t.Errorf("Tree(cycle through root) error: %v, want nil", err)
	}
}

func TestApply_TreeDetachedCycleFallsBack(t *testing.T) {
	// x is the root; c and d form a parent-chain cycle never reaching it.
	nodes := []graph.Node{{ID: "x"}, {ID: "c"}, {ID: "d"}}
	edges := []graph.Edge{
		{Source: "c", Target: "d"},
		{Source: "d", Target: "c"},
	}

	res := Apply(KindTree, nodes, edges, Options{})
	if !res.Fallback {
		t.Fatal("Apply(tree, detached cycle) did not fall back")
	}
	if res.Applied != KindForce {
		t.Errorf("fallback Applied = %s, want force", res.Applied)
	}
	if len(res.Nodes) != 3 {
		t.Errorf("fallback returned %d nodes, want 3", len(res.Nodes))
	}
}

func TestTree_LeftToRight(t *testing.T) {
	nodes := []graph.Node{{ID: "r"}, {ID: "a"}, {ID: "b"}}
	edges := []graph.Edge{
		{Source: "r", Target: "a"},
		{Source: "r", Target: "b"},
	}

	out, err := Tree(nodes, edges, Options{Orientation: OrientLR})
	if err != nil {
		t.Fatalf("Tree() error: %v", err)
	}
	c := centers(out)
	if c["a"][0] != c["b"][0] {
		t.Errorf("LR children ranks differ on x: %v vs %v", c["a"][0], c["b"][0])
	}
	if c["r"][0] >= c["a"][0] {
		t.Errorf("LR root x %v not left of children x %v", c["r"][0], c["a"][0])
	}
}

// =============================================================================
// Hybrid
// =============================================================================

func TestHybrid_HoldsRanks(t *testing.T) {
	nodes := []graph.Node{{ID: "r"}, {ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []graph.Edge{
		{Source: "r", Target: "a"},
		{Source: "r", Target: "b"},
		{Source: "r", Target: "c"},
	}

	tree, err := Tree(nodes, edges, Options{})
	if err != nil {
		t.Fatalf("Tree() error: %v", err)
	}
	out, err := Hybrid(nodes, edges, Options{})
	if err != nil {
		t.Fatalf("Hybrid() error: %v", err)
	}

	ct, ch := centers(tree), centers(out)
	for id := range ch {
		if dy := math.Abs(ch[id][1] - ct[id][1]); dy > 60 {
			t.Errorf("node %s drifted %v off its tree rank", id, dy)
		}
	}
}

func TestHybrid_FallsBackViaApply(t *testing.T) {
	nodes := []graph.Node{{ID: "x"}, {ID: "c"}, {ID: "d"}}
	edges := []graph.Edge{
		{Source: "c", Target: "d"},
		{Source: "d", Target: "c"},
	}
	res := Apply(KindHybrid, nodes, edges, Options{})
	if !res.Fallback || res.Applied != KindForce {
		t.Errorf("Apply(hybrid, cyclic) = {Applied: %s, Fallback: %v}, want force fallback", res.Applied, res.Fallback)
	}
}

// =============================================================================
// Isolate
// =============================================================================

func TestIsolate_MissingFocusLeavesInputUnchanged(t *testing.T) {
	nodes := []graph.Node{{ID: "a", X: 7, Y: 9}}
	res := Apply(KindIsolate, nodes, nil, Options{FocusID: "nope"})
	if !res.Fallback {
		t.Fatal("Apply(isolate, missing focus) did not tag fallback")
	}
	if !reflect.DeepEqual(res.Nodes, nodes) {
		t.Errorf("nodes changed: %v, want untouched input", res.Nodes)
	}
}

func TestIsolate_SeparatesInnerAndOuter(t *testing.T) {
	nodes := []graph.Node{
		{ID: "f", X: 0, Y: 0},
		{ID: "g", X: 100, Y: 0},
		{ID: "o1", X: 200, Y: 0},
		{ID: "o2", X: 0, Y: 200},
		{ID: "o3", X: -200, Y: -200},
	}
	edges := []graph.Edge{
		{Source: "f", Target: "g"},
		{Source: "o1", Target: "o2"},
	}

	out, err := Isolate(nodes, edges, Options{FocusID: "f"})
	if err != nil {
		t.Fatalf("Isolate() error: %v", err)
	}

	innerR := math.Sqrt(2) * isolateRadiusScale
	outerR := innerR + isolateSeparation
	m := byID(out)

	// Every outer node ends at or beyond the ring, minus tolerance.
	for _, id := range []string{"o1", "o2", "o3"} {
		c := m[id].Bounds().Center()
		if d := math.Hypot(c.X, c.Y); d < outerR-isolateTolerance-60 {
			t.Errorf("outer node %s at distance %v, want ≥ %v", id, d, outerR-isolateTolerance)
		}
	}

	// The inner set's centroid stays well inside the ring.
	var cx, cy float64
	for _, id := range []string{"f", "g"} {
		c := m[id].Bounds().Center()
		cx += c.X
		cy += c.Y
	}
	if d := math.Hypot(cx/2, cy/2); d >= outerR {
		t.Errorf("inner centroid distance %v, want < %v", d, outerR)
	}
}

// =============================================================================
// Resolve
// =============================================================================

func TestResolve_PinnedPairScenario(t *testing.T) {
	// Two overlapping 300×200 nodes, centers 50 apart, one pinned. After
	// resolution their distance must be at least the bounding-box diagonal.
	nodes := []graph.Node{
		{ID: "pinned", X: 0, Y: 0, Width: 300, Height: 200},
		{ID: "free", X: 50, Y: 0, Width: 300, Height: 200},
	}

	out := Resolve(nodes, nil, ResolveOptions{PinnedID: "pinned"})
	m := byID(out)

	if m["pinned"].X != 0 || m["pinned"].Y != 0 {
		t.Errorf("pinned node moved to (%v, %v)", m["pinned"].X, m["pinned"].Y)
	}
	diag := math.Hypot(300, 200)
	if d := centerDist(m["pinned"], m["free"]); d < diag {
		t.Errorf("center distance after resolve = %v, want ≥ %v", d, diag)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	nodes := []graph.Node{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 40, Y: 10},
		{ID: "c", X: -30, Y: 50},
	}

	once := Resolve(nodes, nil, ResolveOptions{})
	twice := Resolve(once, nil, ResolveOptions{})
	if !reflect.DeepEqual(once, twice) {
		t.Error("Resolve() is not a fixed point: second pass still moved nodes")
	}
}

func TestResolve_ActiveOnlyLeavesOthersAlone(t *testing.T) {
	nodes := []graph.Node{
		{ID: "root", X: 0, Y: 0},
		{ID: "child", X: 10, Y: 0},
		{ID: "bystander", X: 20, Y: 5},
	}
	edges := []graph.Edge{{Source: "root", Target: "child"}}

	out := Resolve(nodes, edges, ResolveOptions{PinnedID: "root", ActiveOnly: true})
	m := byID(out)
	if m["bystander"].X != 20 || m["bystander"].Y != 5 {
		t.Errorf("bystander moved to (%v, %v), want untouched", m["bystander"].X, m["bystander"].Y)
	}
	if m["root"] != nodes[0] {
		t.Errorf("pinned root changed: %v", m["root"])
	}
	if d := centerDist(m["root"], m["child"]); d < 100 {
		t.Errorf("overlapping pair not separated: %v", d)
	}
}
