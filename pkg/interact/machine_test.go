package interact

import (
	"math"
	"reflect"
	"testing"

	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/viewport"
)

func chain() ([]graph.Node, []graph.Edge) {
	nodes := []graph.Node{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 500, Y: 0},
		{ID: "c", X: 1000, Y: 0},
	}
	edges := []graph.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
	}
	return nodes, edges
}

func TestNodeDown_SelectsAndStartsDrag(t *testing.T) {
	nodes, _ := chain()
	m := New(Config{})

	fx := m.NodeDown(nodes, "a", geom.Vec{X: 10, Y: 10}, false, viewport.Identity)
	if m.Mode() != ModeDragging {
		t.Fatalf("Mode() = %s, want dragging", m.Mode())
	}
	if !fx.SelectionChanged || !m.Selected("a") {
		t.Errorf("NodeDown did not select the node: changed=%v, selected=%v", fx.SelectionChanged, m.Selected("a"))
	}
}

func TestNodeDown_ShiftExtendsSelection(t *testing.T) {
	nodes, _ := chain()
	m := New(Config{})
	m.SetSelection("a")

	m.NodeDown(nodes, "b", geom.Vec{}, true, viewport.Identity)
	if got, want := m.Selection(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Selection() = %v, want %v", got, want)
	}
}

func TestNodeDown_UnknownNodeIsNoOp(t *testing.T) {
	nodes, _ := chain()
	m := New(Config{})
	m.NodeDown(nodes, "ghost", geom.Vec{}, false, viewport.Identity)
	if m.Mode() != ModeIdle {
		t.Errorf("Mode() = %s after unknown-node down, want idle", m.Mode())
	}
}

func TestDrag_RootsExactFollowersDamped(t *testing.T) {
	nodes, edges := chain()
	m := New(Config{})
	m.NodeDown(nodes, "a", geom.Vec{X: 0, Y: 0}, false, viewport.Identity)

	fx := m.Move(nodes, edges, geom.Vec{X: 100, Y: 0}, viewport.Identity)
	out := graph.NodeMap(fx.Nodes)

	if out["a"].X != 100 || out["a"].Y != 0 {
		t.Errorf("root at (%v, %v), want exactly (100, 0)", out["a"].X, out["a"].Y)
	}
	bMoved := out["b"].X - 500
	cMoved := out["c"].X - 1000
	if bMoved <= 0 || bMoved >= 100 {
		t.Errorf("b moved %v, want partway in (0, 100)", bMoved)
	}
	if cMoved <= 0 || cMoved >= bMoved {
		t.Errorf("c moved %v, want less than b's %v", cMoved, bMoved)
	}
}

func TestDrag_RootsNeverReceiveVelocity(t *testing.T) {
	// Both endpoints of the edge are drag roots; neither may drift off its
	// exact target position across repeated moves.
	nodes := []graph.Node{{ID: "a"}, {ID: "b", X: 300}}
	edges := []graph.Edge{{Source: "a", Target: "b"}}
	m := New(Config{})
	m.SetSelection("a", "b")
	m.NodeDown(nodes, "a", geom.Vec{}, false, viewport.Identity)

	cur := nodes
	for i := 1; i <= 3; i++ {
		fx := m.Move(cur, edges, geom.Vec{X: float64(i * 20)}, viewport.Identity)
		cur = fx.Nodes
		out := graph.NodeMap(cur)
		if want := float64(i * 20); out["a"].X != want || out["b"].X != 300+want {
			t.Fatalf("move %d: roots at %v and %v, want %v and %v", i, out["a"].X, out["b"].X, want, 300+want)
		}
	}
}

func TestDrag_ZoomScalesDelta(t *testing.T) {
	nodes, edges := chain()
	m := New(Config{})
	tf := viewport.Transform{K: 0.5}
	m.NodeDown(nodes, "a", geom.Vec{}, false, tf)

	fx := m.Move(nodes, edges, geom.Vec{X: 50}, tf)
	out := graph.NodeMap(fx.Nodes)
	if out["a"].X != 100 {
		t.Errorf("root x = %v with k=0.5, want 100 world units for 50px", out["a"].X)
	}
}

func TestUp_ClickNarrowsSelection(t *testing.T) {
	nodes, edges := chain()
	m := New(Config{})
	m.SetSelection("a", "b", "c")
	m.NodeDown(nodes, "b", geom.Vec{X: 5, Y: 5}, false, viewport.Identity)

	// 2px of travel is below the click threshold.
	m.Move(nodes, edges, geom.Vec{X: 7, Y: 5}, viewport.Identity)
	fx := m.Up(nodes, edges, geom.Vec{X: 7, Y: 5}, false, viewport.Identity)

	if !fx.SelectionChanged {
		t.Error("click on selected node did not change selection")
	}
	if got, want := m.Selection(), []string{"b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Selection() = %v, want %v", got, want)
	}
	if fx.Nodes != nil {
		t.Error("plain click triggered collision resolution")
	}
}

func TestUp_ShiftClickKeepsSelection(t *testing.T) {
	nodes, edges := chain()
	m := New(Config{})
	m.SetSelection("a", "b")
	m.NodeDown(nodes, "b", geom.Vec{}, true, viewport.Identity)
	m.Up(nodes, edges, geom.Vec{X: 1}, true, viewport.Identity)

	if got, want := m.Selection(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Selection() = %v, want %v", got, want)
	}
}

func TestUp_DragResolvesCollisionsWithPrimaryPinned(t *testing.T) {
	nodes := []graph.Node{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 30, Y: 0},
	}
	edges := []graph.Edge{{Source: "a", Target: "b"}}
	m := New(Config{})
	m.NodeDown(nodes, "a", geom.Vec{}, false, viewport.Identity)
	fx := m.Move(nodes, edges, geom.Vec{X: 40}, viewport.Identity)
	fx = m.Up(fx.Nodes, edges, geom.Vec{X: 40}, false, viewport.Identity)

	if fx.Nodes == nil {
		t.Fatal("drag release did not resolve collisions")
	}
	out := graph.NodeMap(fx.Nodes)
	if out["a"].X != 40 {
		t.Errorf("pinned drag target moved to %v, want 40", out["a"].X)
	}
	ca, cb := out["a"].Bounds().Center(), out["b"].Bounds().Center()
	if d := math.Hypot(ca.X-cb.X, ca.Y-cb.Y); d < 200 {
		t.Errorf("overlap not resolved: center distance %v", d)
	}
	if m.Mode() != ModeIdle {
		t.Errorf("Mode() = %s after up, want idle", m.Mode())
	}
}

func TestBoxSelect_CommitAndMinimumSize(t *testing.T) {
	nodes := []graph.Node{
		{ID: "in", X: 10, Y: 10},
		{ID: "out", X: 5000, Y: 5000},
	}
	m := New(Config{})

	m.BackgroundDown(geom.Vec{X: 0, Y: 0}, true)
	if m.Mode() != ModeBoxSelecting {
		t.Fatalf("Mode() = %s, want boxSelecting", m.Mode())
	}
	m.Move(nodes, nil, geom.Vec{X: 400, Y: 400}, viewport.Identity)
	fx := m.Up(nodes, nil, geom.Vec{X: 400, Y: 400}, false, viewport.Identity)

	if !fx.SelectionChanged {
		t.Error("box commit did not report a selection change")
	}
	if got, want := m.Selection(), []string{"in"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Selection() = %v, want %v", got, want)
	}

	// A box below the minimum size is a no-op click.
	m.BackgroundDown(geom.Vec{X: 0, Y: 0}, true)
	m.Move(nodes, nil, geom.Vec{X: 2, Y: 2}, viewport.Identity)
	fx = m.Up(nodes, nil, geom.Vec{X: 2, Y: 2}, false, viewport.Identity)
	if fx.SelectionChanged {
		t.Error("tiny box changed the selection")
	}
}

func TestBoxSelect_UsesWorldCoordinates(t *testing.T) {
	// At k=2 with offset 100, screen box (100..500) covers world (0..200),
	// which intersects only the node at the origin.
	nodes := []graph.Node{
		{ID: "near", X: 0, Y: 0},
		{ID: "far", X: 1000, Y: 1000},
	}
	tf := viewport.Transform{X: 100, Y: 100, K: 2}
	m := New(Config{})
	m.BackgroundDown(geom.Vec{X: 100, Y: 100}, true)
	m.Move(nodes, nil, geom.Vec{X: 500, Y: 500}, tf)
	m.Up(nodes, nil, geom.Vec{X: 500, Y: 500}, false, tf)

	if got, want := m.Selection(), []string{"near"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Selection() = %v, want %v", got, want)
	}
}

func TestConnect_CommitCancelAndSelfEdge(t *testing.T) {
	nodes, _ := chain()
	m := New(Config{})

	m.StartConnect("a")
	if m.Mode() != ModeConnecting {
		t.Fatalf("Mode() = %s, want connecting", m.Mode())
	}
	fx := m.NodeDown(nodes, "b", geom.Vec{}, false, viewport.Identity)
	if fx.NewEdge == nil {
		t.Fatal("connect commit produced no edge")
	}
	if fx.NewEdge.Source != "a" || fx.NewEdge.Target != "b" {
		t.Errorf("edge = %s→%s, want a→b", fx.NewEdge.Source, fx.NewEdge.Target)
	}
	if fx.NewEdge.ID == "" {
		t.Error("committed edge has no id")
	}
	if m.Mode() != ModeIdle {
		t.Errorf("Mode() = %s after commit, want idle", m.Mode())
	}

	// Clicking the source cancels without an edge.
	m.StartConnect("a")
	fx = m.NodeDown(nodes, "a", geom.Vec{}, false, viewport.Identity)
	if fx.NewEdge != nil || m.Mode() != ModeIdle {
		t.Errorf("self-connect: edge=%v mode=%s, want nil edge and idle", fx.NewEdge, m.Mode())
	}

	// A background click cancels too.
	m.StartConnect("a")
	m.BackgroundDown(geom.Vec{}, false)
	if m.Mode() != ModeIdle {
		t.Errorf("Mode() = %s after background click, want idle", m.Mode())
	}
}

func TestResize_GrowAndFloor(t *testing.T) {
	nodes := []graph.Node{{ID: "a", Width: 200, Height: 120}}
	m := New(Config{})

	m.HandleDown(nodes, "a", ResizeSE, geom.Vec{})
	fx := m.Move(nodes, nil, geom.Vec{X: 50, Y: 30}, viewport.Identity)
	out := graph.NodeMap(fx.Nodes)
	if out["a"].Width != 250 || out["a"].Height != 150 {
		t.Errorf("resize se = %vx%v, want 250x150", out["a"].Width, out["a"].Height)
	}

	// Dragging far past the floor clamps to the minimum size.
	fx = m.Move(nodes, nil, geom.Vec{X: -1000, Y: -1000}, viewport.Identity)
	out = graph.NodeMap(fx.Nodes)
	if out["a"].Width != 60 || out["a"].Height != 40 {
		t.Errorf("clamped size = %vx%v, want 60x40", out["a"].Width, out["a"].Height)
	}
}

func TestResize_SingleAxis(t *testing.T) {
	nodes := []graph.Node{{ID: "a", Width: 200, Height: 120}}
	m := New(Config{})
	m.HandleDown(nodes, "a", ResizeE, geom.Vec{})
	fx := m.Move(nodes, nil, geom.Vec{X: 40, Y: 40}, viewport.Identity)
	out := graph.NodeMap(fx.Nodes)
	if out["a"].Width != 240 || out["a"].Height != 120 {
		t.Errorf("resize e = %vx%v, want 240x120", out["a"].Width, out["a"].Height)
	}
}

func TestMalformedSequencesAreNoOps(t *testing.T) {
	nodes, edges := chain()
	m := New(Config{})

	if fx := m.Move(nodes, edges, geom.Vec{X: 10}, viewport.Identity); fx.Nodes != nil {
		t.Error("move without a gesture produced node changes")
	}
	if fx := m.Up(nodes, edges, geom.Vec{X: 10}, false, viewport.Identity); fx.Nodes != nil || fx.SelectionChanged {
		t.Error("up without a gesture produced effects")
	}
	if fx := m.Cancel(); fx.Nodes != nil {
		t.Error("cancel while idle produced effects")
	}
}

func TestCancel_ExitsModeWithoutRollback(t *testing.T) {
	nodes, edges := chain()
	m := New(Config{})
	m.NodeDown(nodes, "a", geom.Vec{}, false, viewport.Identity)
	fx := m.Move(nodes, edges, geom.Vec{X: 100}, viewport.Identity)
	moved := fx.Nodes

	m.Cancel()
	if m.Mode() != ModeIdle {
		t.Fatalf("Mode() = %s after cancel, want idle", m.Mode())
	}
	// Already-applied positions stay; cancel only exits the mode.
	if graph.NodeMap(moved)["a"].X != 100 {
		t.Error("cancel rolled back applied positions")
	}
}
