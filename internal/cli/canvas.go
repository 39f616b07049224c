package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cartograph/cartograph/pkg/engine"
	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/interact"
	"github.com/cartograph/cartograph/pkg/layout"
	"github.com/cartograph/cartograph/pkg/viewport"
)

// =============================================================================
// Canvas Command
// =============================================================================

// canvasCommand creates the canvas command for interactive graph editing.
func (c *CLI) canvasCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "canvas [graph.json]",
		Short: "Open an interactive terminal canvas for a graph",
		Long: `Open an interactive terminal canvas for a graph.

Mouse:
  drag node         move it (descendants trail behind, overlaps settle on release)
  shift+drag        rubber-band box selection
  click background  clear selection
  wheel             zoom at the pointer

Keys:
  arrows      pan                +/-     zoom at the center
  f t h i     force / tree / hybrid / isolate layout on the current scope
  n           add a node at the view center
  c           start connecting from the selected node
  enter       dive into the selected node's scope
  esc         cancel the current gesture, or back out of a scope
  s           save            q / ctrl+c  quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCanvas(cmd.Context(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout caching")

	return cmd
}

func (c *CLI) runCanvas(ctx context.Context, path string, noCache bool) error {
	g, err := graph.ReadGraphFile(path)
	if err != nil {
		printError("Failed to read graph: %v", err)
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		printError("Invalid config: %v", err)
		return err
	}

	eng, err := c.newEngine(ctx, cfg, noCache)
	if err != nil {
		printError("Failed to initialize engine: %v", err)
		return err
	}

	model := newCanvasModel(ctx, eng, interact.New(cfg.Interact.Machine()), path, g)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := final.(canvasModel); ok && m.dirty {
		printWarning("Unsaved changes were discarded")
		printDetail("Press 's' before quitting to write %s", path)
	}
	return nil
}

// =============================================================================
// Canvas Model
// =============================================================================

// Canvas styles
var (
	canvasNodeStyle     = lipgloss.NewStyle().Foreground(colorWhite)
	canvasSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	canvasParentStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	canvasEdgeStyle     = lipgloss.NewStyle().Foreground(colorDim)
	canvasStatusStyle   = lipgloss.NewStyle().Foreground(colorGray)
	canvasMarqueeStyle  = lipgloss.NewStyle().Foreground(colorYellow)
)

const statusLines = 2

// canvasModel is the bubbletea model hosting the engine and the interaction
// state machine. The graph and viewport transform live here; every pointer
// and key event is translated into machine or engine calls and the visible
// frame is redrawn from scratch.
type canvasModel struct {
	ctx     context.Context
	eng     *engine.Engine
	machine *interact.Machine

	path  string
	g     graph.Graph
	dirty bool

	scope []string // scope stack; empty means the root scope
	tf    viewport.Transform

	width  int
	height int
	fitted bool

	status string
}

func newCanvasModel(ctx context.Context, eng *engine.Engine, machine *interact.Machine, path string, g graph.Graph) canvasModel {
	return canvasModel{
		ctx:     ctx,
		eng:     eng,
		machine: machine,
		path:    path,
		g:       g,
		tf:      viewport.Identity,
		status:  "s save, q quit, f/t/h/i layout",
	}
}

func (m canvasModel) Init() tea.Cmd {
	return nil
}

func (m canvasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.fitted && m.canvasHeight() > 0 {
			m.tf = fitTransform(m.scopedNodes(), float64(m.width), float64(m.canvasHeight()))
			m.fitted = true
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m canvasModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.machine.Mode() != interact.ModeIdle {
			m.apply(m.machine.Cancel())
			m.status = "cancelled"
			return m, nil
		}
		return m.popScope(), nil

	case "enter":
		return m.pushScope(), nil

	case "left":
		m.tf.X += m.panStep()
	case "right":
		m.tf.X -= m.panStep()
	case "up":
		m.tf.Y += m.panStep()
	case "down":
		m.tf.Y -= m.panStep()

	case "+", "=":
		m = m.zoomAt(geom.Vec{X: float64(m.width) / 2, Y: float64(m.canvasHeight()) / 2}, 1.25)
	case "-":
		m = m.zoomAt(geom.Vec{X: float64(m.width) / 2, Y: float64(m.canvasHeight()) / 2}, 1/1.25)

	case "f":
		m = m.runLayoutKind(layout.KindForce)
	case "t":
		m = m.runLayoutKind(layout.KindTree)
	case "h":
		m = m.runLayoutKind(layout.KindHybrid)
	case "i":
		m = m.runLayoutKind(layout.KindIsolate)

	case "n":
		m = m.addNode()

	case "c":
		sel := m.machine.Selection()
		if len(sel) == 1 {
			m.machine.StartConnect(sel[0])
			m.status = "connecting from " + sel[0] + ", click a target node"
		} else {
			m.status = "select exactly one node before connecting"
		}

	case "s":
		if err := graph.WriteGraphFile(m.path, m.g); err != nil {
			m.status = "save failed: " + err.Error()
		} else {
			m.dirty = false
			m.status = "saved " + m.path
		}
	}
	return m, nil
}

func (m canvasModel) handleMouse(msg tea.MouseMsg) canvasModel {
	p := geom.Vec{X: float64(msg.X), Y: float64(msg.Y)}
	nodes := m.scopedNodes()
	edges := m.scopedEdges()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return m.zoomAt(p, 1.15)
		case tea.MouseButtonWheelDown:
			return m.zoomAt(p, 1/1.15)
		case tea.MouseButtonLeft:
			if id, ok := m.nodeAt(nodes, p); ok {
				m.apply(m.machine.NodeDown(nodes, id, p, msg.Shift, m.tf))
			} else {
				m.apply(m.machine.BackgroundDown(p, msg.Shift))
			}
		}
	case tea.MouseActionMotion:
		m.apply(m.machine.Move(nodes, edges, p, m.tf))
	case tea.MouseActionRelease:
		if msg.Button == tea.MouseButtonLeft || msg.Button == tea.MouseButtonNone {
			m.apply(m.machine.Up(nodes, edges, p, msg.Shift, m.tf))
		}
	}
	return m
}

// apply folds machine effects back into the model's graph.
func (m *canvasModel) apply(fx interact.Effects) {
	if fx.Nodes != nil {
		updates := make(map[string]geom.Vec, len(fx.Nodes))
		byID := make(map[string]graph.Node, len(fx.Nodes))
		for _, n := range fx.Nodes {
			updates[n.ID] = geom.Vec{X: n.X, Y: n.Y}
			byID[n.ID] = n
		}
		m.g.Nodes = graph.MergePositions(m.g.Nodes, updates)
		// Resize also changes dimensions; carry those over too.
		for i, n := range m.g.Nodes {
			if upd, ok := byID[n.ID]; ok {
				m.g.Nodes[i].Width = upd.Width
				m.g.Nodes[i].Height = upd.Height
			}
		}
		m.dirty = true
	}
	if fx.NewEdge != nil {
		m.g.Edges = append(m.g.Edges, *fx.NewEdge)
		m.dirty = true
		m.status = "connected " + fx.NewEdge.Source + " to " + fx.NewEdge.Target
	}
}

// =============================================================================
// Scope and Viewport
// =============================================================================

func (m canvasModel) scopeID() string {
	if len(m.scope) == 0 {
		return ""
	}
	return m.scope[len(m.scope)-1]
}

func (m canvasModel) scopedNodes() []graph.Node {
	return graph.NodesInScope(m.g.Nodes, m.scopeID())
}

func (m canvasModel) scopedEdges() []graph.Edge {
	return graph.EdgesInScope(m.g.Edges, m.scopeID())
}

func (m canvasModel) pushScope() canvasModel {
	sel := m.machine.Selection()
	if len(sel) != 1 {
		m.status = "select exactly one node to enter its scope"
		return m
	}
	m.scope = append(m.scope, sel[0])
	m.machine.SetSelection()
	m.tf = fitTransform(m.scopedNodes(), float64(m.width), float64(m.canvasHeight()))
	m.status = "scope: " + m.scopePath()
	return m
}

func (m canvasModel) popScope() canvasModel {
	if len(m.scope) == 0 {
		return m
	}
	leaving := m.scope[len(m.scope)-1]
	m.scope = m.scope[:len(m.scope)-1]
	m.machine.SetSelection(leaving)
	m.tf = fitTransform(m.scopedNodes(), float64(m.width), float64(m.canvasHeight()))
	m.status = "scope: " + m.scopePath()
	return m
}

func (m canvasModel) scopePath() string {
	if len(m.scope) == 0 {
		return "/"
	}
	return "/" + strings.Join(m.scope, "/")
}

func (m canvasModel) canvasHeight() int {
	h := m.height - statusLines
	if h < 0 {
		return 0
	}
	return h
}

func (m canvasModel) panStep() float64 {
	return float64(m.width) / 8
}

// zoomAt scales around a fixed screen point, so the world point under the
// pointer stays put. Zooming far enough out pops the scope stack.
func (m canvasModel) zoomAt(p geom.Vec, factor float64) canvasModel {
	world := m.tf.ToWorld(p)
	m.tf.K *= factor
	m.tf.X = p.X - world.X*m.tf.K
	m.tf.Y = p.Y - world.Y*m.tf.K

	frame := m.eng.Frame(m.ctx, m.g.Nodes, m.g.Edges, m.scopeID(), m.tf, float64(m.width), float64(m.canvasHeight()))
	if frame.ExitScope && len(m.scope) > 0 {
		m = m.popScope()
		if frame.ResetTransform != nil {
			m.tf = *frame.ResetTransform
		}
	}
	return m
}

// nodeAt finds the topmost node whose bounds contain the screen point.
func (m canvasModel) nodeAt(nodes []graph.Node, p geom.Vec) (string, bool) {
	world := m.tf.ToWorld(p)
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Bounds().Contains(world) {
			return nodes[i].ID, true
		}
	}
	return "", false
}

// fitTransform frames the given nodes with a margin. An empty scope gets the
// identity transform.
func fitTransform(nodes []graph.Node, width, height float64) viewport.Transform {
	if len(nodes) == 0 || width <= 0 || height <= 0 {
		return viewport.Identity
	}
	bounds := nodes[0].Bounds()
	for _, n := range nodes[1:] {
		bounds = bounds.Union(n.Bounds())
	}
	k := 1.0
	if bounds.Width > 0 && bounds.Height > 0 {
		kx := width / bounds.Width
		ky := height / bounds.Height
		k = kx
		if ky < kx {
			k = ky
		}
		k *= 0.85
	}
	cx := bounds.X + bounds.Width/2
	cy := bounds.Y + bounds.Height/2
	return viewport.Transform{
		X: width/2 - cx*k,
		Y: height/2 - cy*k,
		K: k,
	}
}

// =============================================================================
// Mutations
// =============================================================================

func (m canvasModel) runLayoutKind(kind layout.Kind) canvasModel {
	focus := ""
	if kind == layout.KindIsolate {
		sel := m.machine.Selection()
		if len(sel) != 1 {
			m.status = "select exactly one node to isolate"
			return m
		}
		focus = sel[0]
	}

	res := m.eng.ApplyLayout(m.ctx, kind, m.g.Nodes, m.g.Edges, m.scopeID(), focus)
	m.g.Nodes = res.Nodes
	m.dirty = true
	m.tf = fitTransform(m.scopedNodes(), float64(m.width), float64(m.canvasHeight()))
	if res.Fallback {
		m.status = fmt.Sprintf("%s fell back to %s: %s", kind, res.Applied, res.Reason)
	} else {
		m.status = string(res.Applied) + " layout applied"
	}
	return m
}

func (m canvasModel) addNode() canvasModel {
	center := m.tf.ToWorld(geom.Vec{X: float64(m.width) / 2, Y: float64(m.canvasHeight()) / 2})
	n := graph.Node{
		ID:     uuid.NewString(),
		X:      center.X - graph.DefaultWidth/2,
		Y:      center.Y - graph.DefaultHeight/2,
		Width:  graph.DefaultWidth,
		Height: graph.DefaultHeight,
		Parent: m.scopeID(),
	}
	m.g.Nodes = append(m.g.Nodes, n)
	m.machine.SetSelection(n.ID)
	m.dirty = true
	m.status = "added node " + n.ID
	return m
}

// =============================================================================
// View
// =============================================================================

// cell is one terminal cell of the drawn frame.
type cell struct {
	r     rune
	style *lipgloss.Style
}

func (m canvasModel) View() string {
	w, h := m.width, m.canvasHeight()
	if w <= 0 || h <= 0 {
		return ""
	}

	frame := m.eng.Frame(m.ctx, m.g.Nodes, m.g.Edges, m.scopeID(), m.tf, float64(w), float64(h))

	grid := make([][]cell, h)
	for y := range grid {
		grid[y] = make([]cell, w)
		for x := range grid[y] {
			grid[y][x] = cell{r: ' '}
		}
	}

	m.drawEdges(grid, frame)
	m.drawNodes(grid, frame)
	m.drawMarquee(grid)

	var b strings.Builder
	for y := 0; y < h; y++ {
		var run strings.Builder
		var runStyle *lipgloss.Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runStyle != nil {
				b.WriteString(runStyle.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for x := 0; x < w; x++ {
			c := grid[y][x]
			if c.style != runStyle {
				flush()
				runStyle = c.style
			}
			run.WriteRune(c.r)
		}
		flush()
		b.WriteByte('\n')
	}

	b.WriteString(m.statusBar(frame, w))
	return b.String()
}

func (m canvasModel) drawNodes(grid [][]cell, frame engine.Frame) {
	for _, n := range frame.Nodes {
		style := &canvasNodeStyle
		switch {
		case m.machine.Selected(n.ID):
			style = &canvasSelectedStyle
		case frame.Parents[n.ID]:
			style = &canvasParentStyle
		}

		nw, nh := n.Size()
		tl := m.tf.ToScreen(geom.Vec{X: n.X, Y: n.Y})
		br := m.tf.ToScreen(geom.Vec{X: n.X + nw, Y: n.Y + nh})

		if frame.Tier == viewport.TierCluster {
			cx := int((tl.X + br.X) / 2)
			cy := int((tl.Y + br.Y) / 2)
			put(grid, cx, cy, '●', style)
			continue
		}

		drawBox(grid, int(tl.X), int(tl.Y), int(br.X), int(br.Y), style)

		label := n.ID
		if n.Content != "" {
			label = n.Content
		}
		if frame.Tier == viewport.TierDetail && n.Type != "" {
			label = label + " [" + n.Type + "]"
		}
		maxLen := int(br.X) - int(tl.X) - 3
		if maxLen > 0 {
			if len(label) > maxLen {
				label = label[:maxLen]
			}
			for i, r := range label {
				put(grid, int(tl.X)+2+i, int(tl.Y)+1, r, style)
			}
		}
	}
}

func (m canvasModel) drawEdges(grid [][]cell, frame engine.Frame) {
	centers := make(map[string]geom.Vec, len(frame.Nodes))
	for _, n := range frame.Nodes {
		nw, nh := n.Size()
		centers[n.ID] = m.tf.ToScreen(geom.Vec{X: n.X + nw/2, Y: n.Y + nh/2})
	}
	for _, e := range frame.Edges {
		a, okA := centers[e.Source]
		b, okB := centers[e.Target]
		if !okA || !okB {
			continue
		}
		drawLine(grid, a, b, &canvasEdgeStyle)
	}
}

func (m canvasModel) drawMarquee(grid [][]cell) {
	box, ok := m.machine.BoxRect()
	if !ok {
		return
	}
	drawBox(grid, int(box.X), int(box.Y), int(box.X+box.Width), int(box.Y+box.Height), &canvasMarqueeStyle)
}

func (m canvasModel) statusBar(frame engine.Frame, w int) string {
	mode := m.machine.Mode().String()
	if src := m.machine.ConnectSource(); src != "" {
		mode = mode + " from " + src
	}
	left := fmt.Sprintf(" %s | %s | zoom %.0f%% | %d nodes, %d edges visible",
		m.scopePath(), mode, m.tf.K*100, len(frame.Nodes), len(frame.Edges))
	if m.dirty {
		left += " | unsaved"
	}
	line := canvasStatusStyle.Render(truncate(left, w))
	hint := canvasStatusStyle.Render(truncate(" "+m.status, w))
	return line + "\n" + hint
}

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if len(s) > w {
		return s[:w]
	}
	return s
}

// =============================================================================
// Grid Primitives
// =============================================================================

func put(grid [][]cell, x, y int, r rune, style *lipgloss.Style) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	grid[y][x] = cell{r: r, style: style}
}

func drawBox(grid [][]cell, x0, y0, x1, y1 int, style *lipgloss.Style) {
	if x1 <= x0 || y1 <= y0 {
		put(grid, x0, y0, '▪', style)
		return
	}
	for x := x0; x <= x1; x++ {
		put(grid, x, y0, '─', style)
		put(grid, x, y1, '─', style)
	}
	for y := y0; y <= y1; y++ {
		put(grid, x0, y, '│', style)
		put(grid, x1, y, '│', style)
	}
	put(grid, x0, y0, '┌', style)
	put(grid, x1, y0, '┐', style)
	put(grid, x0, y1, '└', style)
	put(grid, x1, y1, '┘', style)
}

// drawLine walks the segment one step per cell along the longer axis. Cells
// already holding node glyphs are overdrawn later by drawNodes, so edges
// never obscure boxes.
func drawLine(grid [][]cell, a, b geom.Vec, style *lipgloss.Style) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	steps := max(abs(int(dx)), abs(int(dy)))
	if steps == 0 {
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		put(grid, int(a.X+dx*t), int(a.Y+dy*t), '·', style)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
