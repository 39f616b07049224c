// Package interact implements the canvas interaction state machine: node
// dragging with physics follow-through, edge-handle resizing, rubber-band box
// selection, and two-click edge connecting. Exactly one gesture is active at
// a time, malformed pointer sequences are no-ops, and every position change
// is produced as a new node slice.
package interact

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/layout"
	"github.com/cartograph/cartograph/pkg/viewport"
)

// Mode is the current interaction state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
	ModeBoxSelecting
	ModeConnecting
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModeBoxSelecting:
		return "boxSelecting"
	case ModeConnecting:
		return "connecting"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ResizeDir identifies which resize handle is held.
type ResizeDir string

const (
	ResizeE  ResizeDir = "e"
	ResizeS  ResizeDir = "s"
	ResizeSE ResizeDir = "se"
)

// Config tunes the interaction engine. The zero value selects defaults.
type Config struct {
	// ClickThreshold is the screen-space travel in pixels below which a
	// pointer down/up pair counts as a click rather than a drag.
	ClickThreshold float64
	// MinBoxSize is the smallest screen-space box dimension that commits a
	// box selection; anything smaller is treated as a background click.
	MinBoxSize float64
	// MinNodeWidth and MinNodeHeight floor resizing.
	MinNodeWidth  float64
	MinNodeHeight float64
	// CollideBuffer pads collision radii during post-gesture resolution.
	CollideBuffer float64
}

func (c Config) clickThreshold() float64 {
	if c.ClickThreshold > 0 {
		return c.ClickThreshold
	}
	return 5
}

func (c Config) minBoxSize() float64 {
	if c.MinBoxSize > 0 {
		return c.MinBoxSize
	}
	return 5
}

func (c Config) minNodeWidth() float64 {
	if c.MinNodeWidth > 0 {
		return c.MinNodeWidth
	}
	return 60
}

func (c Config) minNodeHeight() float64 {
	if c.MinNodeHeight > 0 {
		return c.MinNodeHeight
	}
	return 40
}

// Effects reports what a pointer event produced. Nil/zero fields mean no
// change of that kind; Nodes is nil when no position changed.
type Effects struct {
	Nodes            []graph.Node
	NewEdge          *graph.Edge
	SelectionChanged bool
}

// Machine is the interaction state machine. It never stores node or edge
// data: each event receives the caller's current snapshot and hands back new
// slices through Effects.
type Machine struct {
	cfg  Config
	mode Mode

	selection map[string]bool

	drag *DragSession

	resizeID     string
	resizeDir    ResizeDir
	resizeAnchor geom.Vec
	resizeW      float64
	resizeH      float64
	resizeTravel float64

	boxStart geom.Vec
	boxEnd   geom.Vec

	connectSource string
}

// New returns an idle machine with an empty selection.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, selection: make(map[string]bool)}
}

// Mode returns the current interaction mode.
func (m *Machine) Mode() Mode { return m.mode }

// Selection returns the selected node IDs in sorted order.
func (m *Machine) Selection() []string {
	ids := make([]string, 0, len(m.selection))
	for id := range m.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Selected reports whether a node is in the current selection.
func (m *Machine) Selected(id string) bool { return m.selection[id] }

// BoxRect returns the rubber-band rectangle in screen space. The second
// return is false outside box selection.
func (m *Machine) BoxRect() (geom.Rect, bool) {
	if m.mode != ModeBoxSelecting {
		return geom.Rect{}, false
	}
	return geom.RectFromCorners(m.boxStart, m.boxEnd), true
}

// ConnectSource returns the pending edge source while connecting, or "".
func (m *Machine) ConnectSource() string { return m.connectSource }

// SetSelection replaces the selection outright.
func (m *Machine) SetSelection(ids ...string) {
	m.selection = make(map[string]bool, len(ids))
	for _, id := range ids {
		m.selection[id] = true
	}
}

// StartConnect enters connecting mode with the given source node. The next
// NodeDown on a different node commits an edge; Escape or a background click
// cancels. Ignored unless the machine is idle.
func (m *Machine) StartConnect(sourceID string) {
	if m.mode != ModeIdle || sourceID == "" {
		return
	}
	m.mode = ModeConnecting
	m.connectSource = sourceID
}

// NodeDown handles a pointer press on a node. While connecting it commits or
// ignores the edge; otherwise it captures the effective selection and starts
// a drag.
func (m *Machine) NodeDown(nodes []graph.Node, id string, p geom.Vec, shift bool, tf viewport.Transform) Effects {
	if _, ok := graph.NodeMap(nodes)[id]; !ok {
		return Effects{}
	}

	if m.mode == ModeConnecting {
		source := m.connectSource
		m.reset()
		if id == source {
			return Effects{}
		}
		return Effects{NewEdge: &graph.Edge{ID: uuid.NewString(), Source: source, Target: id}}
	}
	if m.mode != ModeIdle {
		return Effects{}
	}

	var fx Effects
	if shift {
		if !m.selection[id] {
			m.selection[id] = true
			fx.SelectionChanged = true
		}
	} else if !m.selection[id] {
		m.SetSelection(id)
		fx.SelectionChanged = true
	}

	m.mode = ModeDragging
	m.drag = newDragSession(nodes, m.Selection(), id, p)
	return fx
}

// HandleDown handles a pointer press on a node's resize handle.
func (m *Machine) HandleDown(nodes []graph.Node, id string, dir ResizeDir, p geom.Vec) Effects {
	if m.mode != ModeIdle {
		return Effects{}
	}
	n, ok := graph.NodeMap(nodes)[id]
	if !ok {
		return Effects{}
	}
	switch dir {
	case ResizeE, ResizeS, ResizeSE:
	default:
		return Effects{}
	}
	m.mode = ModeResizing
	m.resizeID = id
	m.resizeDir = dir
	m.resizeAnchor = p
	m.resizeW, m.resizeH = n.Size()
	m.resizeTravel = 0
	return Effects{}
}

// BackgroundDown handles a pointer press on empty canvas. With shift it
// starts a box selection; otherwise it clears the selection and cancels any
// pending connect.
func (m *Machine) BackgroundDown(p geom.Vec, shift bool) Effects {
	if m.mode == ModeConnecting {
		m.reset()
		return Effects{}
	}
	if m.mode != ModeIdle {
		return Effects{}
	}
	if shift {
		m.mode = ModeBoxSelecting
		m.boxStart, m.boxEnd = p, p
		return Effects{}
	}
	var fx Effects
	if len(m.selection) > 0 {
		m.selection = make(map[string]bool)
		fx.SelectionChanged = true
	}
	return fx
}

// Move handles a pointer move. Moves without a matching gesture are no-ops.
func (m *Machine) Move(nodes []graph.Node, edges []graph.Edge, p geom.Vec, tf viewport.Transform) Effects {
	switch m.mode {
	case ModeDragging:
		if m.drag == nil {
			return Effects{}
		}
		return Effects{Nodes: m.drag.Move(nodes, edges, p, tf.K)}
	case ModeResizing:
		return m.resizeMove(nodes, p, tf.K)
	case ModeBoxSelecting:
		m.boxEnd = p
	}
	return Effects{}
}

func (m *Machine) resizeMove(nodes []graph.Node, p geom.Vec, k float64) Effects {
	if !(k > 0) || !geom.IsFinite(p.X, p.Y) {
		return Effects{}
	}
	if d := math.Hypot(p.X-m.resizeAnchor.X, p.Y-m.resizeAnchor.Y); d > m.resizeTravel {
		m.resizeTravel = d
	}
	dx := (p.X - m.resizeAnchor.X) / k
	dy := (p.Y - m.resizeAnchor.Y) / k

	w, h := m.resizeW, m.resizeH
	if m.resizeDir == ResizeE || m.resizeDir == ResizeSE {
		w = math.Max(m.cfg.minNodeWidth(), m.resizeW+dx)
	}
	if m.resizeDir == ResizeS || m.resizeDir == ResizeSE {
		h = math.Max(m.cfg.minNodeHeight(), m.resizeH+dy)
	}

	out := make([]graph.Node, len(nodes))
	copy(out, nodes)
	for i := range out {
		if out[i].ID == m.resizeID {
			out[i].Width, out[i].Height = w, h
			return Effects{Nodes: out}
		}
	}
	return Effects{}
}

// Up handles pointer release: click-deselect semantics, box-select commit,
// and post-gesture collision resolution with the moved node pinned.
func (m *Machine) Up(nodes []graph.Node, edges []graph.Edge, p geom.Vec, shift bool, tf viewport.Transform) Effects {
	switch m.mode {
	case ModeDragging:
		drag := m.drag
		m.reset()
		if drag == nil {
			return Effects{}
		}
		if drag.Travel() < m.cfg.clickThreshold() {
			// A plain click on an already-selected node narrows the
			// selection to it, unless shift keeps the rest.
			var fx Effects
			if !shift && len(m.selection) > 1 {
				m.SetSelection(drag.Primary())
				fx.SelectionChanged = true
			}
			return fx
		}
		return Effects{Nodes: layout.Resolve(nodes, edges, layout.ResolveOptions{
			PinnedID:   drag.Primary(),
			ActiveOnly: true,
			Buffer:     m.cfg.CollideBuffer,
		})}

	case ModeResizing:
		id, travel := m.resizeID, m.resizeTravel
		m.reset()
		if travel < m.cfg.clickThreshold() {
			return Effects{}
		}
		return Effects{Nodes: layout.Resolve(nodes, edges, layout.ResolveOptions{
			PinnedID:   id,
			ActiveOnly: true,
			Buffer:     m.cfg.CollideBuffer,
		})}

	case ModeBoxSelecting:
		start, end := m.boxStart, m.boxEnd
		m.reset()
		return m.commitBox(nodes, start, end, shift, tf)
	}
	return Effects{}
}

func (m *Machine) commitBox(nodes []graph.Node, start, end geom.Vec, shift bool, tf viewport.Transform) Effects {
	box := geom.RectFromCorners(start, end)
	if box.Width < m.cfg.minBoxSize() && box.Height < m.cfg.minBoxSize() {
		return Effects{}
	}
	if !(tf.K > 0) {
		return Effects{}
	}
	min := tf.ToWorld(geom.Vec{X: box.X, Y: box.Y})
	world := geom.Rect{X: min.X, Y: min.Y, Width: box.Width / tf.K, Height: box.Height / tf.K}

	changed := false
	if !shift && len(m.selection) > 0 {
		m.selection = make(map[string]bool)
		changed = true
	}
	for _, n := range nodes {
		if n.FinitePosition() && n.Bounds().Intersects(world) && !m.selection[n.ID] {
			m.selection[n.ID] = true
			changed = true
		}
	}
	return Effects{SelectionChanged: changed}
}

// Cancel aborts the gesture in progress (Escape). Positions already applied
// during the gesture stay where they are; only the mode is exited.
func (m *Machine) Cancel() Effects {
	if m.mode == ModeIdle {
		return Effects{}
	}
	m.reset()
	return Effects{}
}

func (m *Machine) reset() {
	m.mode = ModeIdle
	m.drag = nil
	m.resizeID = ""
	m.resizeDir = ""
	m.resizeTravel = 0
	m.connectSource = ""
}
