package engine

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/cartograph/cartograph/pkg/cache"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/layout"
	"github.com/cartograph/cartograph/pkg/viewport"
)

func testGraph() ([]graph.Node, []graph.Edge) {
	nodes := []graph.Node{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 400, Y: 0},
		{ID: "far", X: 100000, Y: 100000},
		{ID: "inner", X: 10, Y: 10, Parent: "a"},
	}
	edges := []graph.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "a", Target: "far"},
	}
	return nodes, edges
}

func TestFrame_CullsAndTiers(t *testing.T) {
	nodes, edges := testGraph()
	e := New()

	frame := e.Frame(context.Background(), nodes, edges, "", viewport.Identity, 1000, 800)

	ids := make(map[string]bool)
	for _, n := range frame.Nodes {
		ids[n.ID] = true
	}
	if !ids["a"] || !ids["b"] {
		t.Errorf("visible nodes = %v, want a and b", ids)
	}
	if ids["far"] {
		t.Error("node far outside the viewport was not culled")
	}
	if ids["inner"] {
		t.Error("node from a nested scope leaked into the root frame")
	}

	if frame.Tier != viewport.TierDetail {
		t.Errorf("Tier = %s at k=1, want detail", frame.Tier)
	}

	// The edge to the culled node stays visible: its bbox union crosses the
	// viewport.
	edgeIDs := make(map[string]bool)
	for _, e := range frame.Edges {
		edgeIDs[e.ID] = true
	}
	if !edgeIDs["e1"] || !edgeIDs["e2"] {
		t.Errorf("visible edges = %v, want e1 and e2", edgeIDs)
	}

	if !frame.Parents["a"] {
		t.Error("hub node a missing from Parents")
	}
	if frame.ExitScope {
		t.Error("root scope raised an exit request")
	}
}

func TestFrame_ScopeExitAtExtremeZoomOut(t *testing.T) {
	nodes, edges := testGraph()
	e := New()
	tf := viewport.Transform{X: 0, Y: 0, K: 0.05}

	frame := e.Frame(context.Background(), nodes, edges, "a", tf, 1000, 800)
	if !frame.ExitScope {
		t.Fatal("k=0.05 inside scope did not request a scope exit")
	}
	if frame.ResetTransform == nil || *frame.ResetTransform != viewport.Identity {
		t.Errorf("ResetTransform = %v, want identity", frame.ResetTransform)
	}

	// Same zoom at root scope is just a far-out cluster view.
	frame = e.Frame(context.Background(), nodes, edges, "", tf, 1000, 800)
	if frame.ExitScope {
		t.Error("root scope raised an exit request at k=0.05")
	}
	if frame.Tier != viewport.TierCluster {
		t.Errorf("Tier = %s at k=0.05, want cluster", frame.Tier)
	}
}

func TestFrame_Pure(t *testing.T) {
	nodes, edges := testGraph()
	e := New()
	ctx := context.Background()

	f1 := e.Frame(ctx, nodes, edges, "", viewport.Identity, 1000, 800)
	f2 := e.Frame(ctx, nodes, edges, "", viewport.Identity, 1000, 800)
	if !reflect.DeepEqual(f1, f2) {
		t.Error("Frame() is not pure for identical inputs")
	}
}

func TestApplyLayout_ScopeRestricted(t *testing.T) {
	nodes, edges := testGraph()
	e := New()

	res := e.ApplyLayout(context.Background(), layout.KindForce, nodes, edges, "a", "")
	if res.Fallback {
		t.Fatalf("unexpected fallback: %s", res.Reason)
	}
	out := graph.NodeMap(res.Nodes)

	// Root-scope nodes are untouched; only the scoped node may move.
	for _, id := range []string{"a", "b", "far"} {
		if out[id] != graph.NodeMap(nodes)[id] {
			t.Errorf("node %s outside scope changed: %+v", id, out[id])
		}
	}
	if len(res.Nodes) != len(nodes) {
		t.Errorf("ApplyLayout returned %d nodes, want %d", len(res.Nodes), len(nodes))
	}
}

func TestApplyLayout_CacheRoundTrip(t *testing.T) {
	nodes, edges := testGraph()
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e := New(WithCache(store, time.Hour))
	ctx := context.Background()

	first := e.ApplyLayout(ctx, layout.KindForce, nodes, edges, "", "")
	second := e.ApplyLayout(ctx, layout.KindForce, nodes, edges, "", "")

	if !reflect.DeepEqual(first.Nodes, second.Nodes) {
		t.Error("cached layout differs from computed layout")
	}
	if second.Applied != layout.KindForce {
		t.Errorf("cached Applied = %s, want force", second.Applied)
	}
}

func TestApplyLayout_CacheKeyedByCollideBuffer(t *testing.T) {
	// Two overlapping nodes settle further apart under a larger collision
	// buffer; engines tuned differently must not share cached positions.
	nodes := []graph.Node{{ID: "a", X: 0, Y: 0}, {ID: "b", X: 0, Y: 0}}
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	tight := New(WithCache(store, time.Hour), WithLayoutOptions(layout.Options{CollideBuffer: 1}))
	wide := New(WithCache(store, time.Hour), WithLayoutOptions(layout.Options{CollideBuffer: 400}))

	first := tight.ApplyLayout(ctx, layout.KindForce, nodes, nil, "", "")
	second := wide.ApplyLayout(ctx, layout.KindForce, nodes, nil, "", "")

	if reflect.DeepEqual(first.Nodes, second.Nodes) {
		t.Error("differently buffered layouts served identical cached positions")
	}
}

// recordingKeyer captures the layout keys the engine generates.
type recordingKeyer struct {
	cache.Keyer
	keys []string
}

func (r *recordingKeyer) LayoutKey(graphHash string, opts cache.LayoutKeyOpts) string {
	k := r.Keyer.LayoutKey(graphHash, opts)
	r.keys = append(r.keys, k)
	return k
}

func TestApplyLayout_KeyNormalizesDefaults(t *testing.T) {
	// Zero-value options and explicitly spelled-out defaults produce the
	// same layout, so they must share one cache key.
	nodes, edges := testGraph()
	rec := &recordingKeyer{Keyer: cache.NewDefaultKeyer()}
	ctx := context.Background()

	implicit := New(WithKeyer(rec))
	explicit := New(WithKeyer(rec), WithLayoutOptions(layout.Options{
		Orientation:   layout.OrientTB,
		Ticks:         300,
		CollideBuffer: 12,
	}))

	implicit.ApplyLayout(ctx, layout.KindTree, nodes, edges, "", "")
	explicit.ApplyLayout(ctx, layout.KindTree, nodes, edges, "", "")

	if len(rec.keys) != 2 {
		t.Fatalf("recorded %d keys, want 2", len(rec.keys))
	}
	if rec.keys[0] != rec.keys[1] {
		t.Errorf("zero options keyed differently from explicit defaults:\n%s\n%s", rec.keys[0], rec.keys[1])
	}
}

func TestApplyLayout_FallbackNotCached(t *testing.T) {
	// Isolate with a missing focus is fallback-tagged and returns the input
	// unchanged; a second call must behave identically rather than serving a
	// stale non-fallback entry.
	nodes, edges := testGraph()
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e := New(WithCache(store, time.Hour))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res := e.ApplyLayout(ctx, layout.KindIsolate, nodes, edges, "", "ghost")
		if !res.Fallback {
			t.Fatalf("call %d: Fallback = false, want true", i+1)
		}
		if !reflect.DeepEqual(res.Nodes, nodes) {
			t.Errorf("call %d: missing focus changed positions", i+1)
		}
	}
}

func TestResolve_ScopeRestrictedMerge(t *testing.T) {
	nodes := []graph.Node{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 20, Y: 0},
		{ID: "elsewhere", X: 10, Y: 0, Parent: "zone"},
	}
	e := New()

	out := e.Resolve(context.Background(), nodes, nil, "", layout.ResolveOptions{PinnedID: "a"})
	m := graph.NodeMap(out)

	if m["elsewhere"] != nodes[2] {
		t.Errorf("node outside scope changed: %+v", m["elsewhere"])
	}
	if m["a"].X != 0 || m["a"].Y != 0 {
		t.Errorf("pinned node moved to (%v, %v)", m["a"].X, m["a"].Y)
	}
	if m["b"] == nodes[1] {
		t.Error("overlapping node b was not moved")
	}
}
