// Package graph defines the persisted node/edge data model for the canvas and
// the topology helpers (scoping, adjacency, reachability) every layout and
// interaction component is built on.
//
// The engine never creates or destroys records: external collaborators own the
// canonical arrays, and every position change flows back as a new slice via
// functional updates (see MergePositions).
package graph

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/cartograph/cartograph/pkg/geom"
)

// Default node extent used when a record carries no explicit size.
const (
	DefaultWidth  = 200.0
	DefaultHeight = 120.0
)

// MaxNodeDimension is the largest plausible node extent. The spatial index
// pads point-range queries by this amount so that a node whose origin lies
// left of or above the query rectangle is still found (see pkg/spatial).
const MaxNodeDimension = 400.0

// Node is a persisted canvas node. Position is the top-left corner in world
// coordinates. Content and Type are opaque payload carried for external
// collaborators; the layout engine only reads ID, geometry, and Parent.
type Node struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Parent  string  `json:"parent,omitempty"` // scope id; "" means root scope
	Content string  `json:"content,omitempty"`
	Type    string  `json:"type,omitempty"`
}

// Size returns the node's extent, substituting the defaults for unset or
// non-positive dimensions.
func (n Node) Size() (w, h float64) {
	w, h = n.Width, n.Height
	if !(w > 0) {
		w = DefaultWidth
	}
	if !(h > 0) {
		h = DefaultHeight
	}
	return w, h
}

// Bounds returns the node's bounding box in world coordinates.
func (n Node) Bounds() geom.Rect {
	w, h := n.Size()
	return geom.Rect{X: n.X, Y: n.Y, Width: w, Height: h}
}

// FinitePosition reports whether the node's geometry is usable.
// Nodes failing this check are skipped by indexing and rendering for the
// frame; the condition self-heals once the values become finite again.
func (n Node) FinitePosition() bool {
	w, h := n.Size()
	return geom.IsFinite(n.X, n.Y, w, h)
}

// Edge is a directed connection between two nodes. Edges whose endpoints are
// missing from the current node set are filtered, never errored.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Parent string `json:"parent,omitempty"` // same scope-nesting rule as nodes
	Label  string `json:"label,omitempty"`
}

// Graph is the canonical serialization format: the plain node and edge arrays
// external collaborators own. Round-trips through JSON without loss.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeMap indexes nodes by ID. Later duplicates win, matching the render
// semantics of drawing the last record.
func NodeMap(nodes []Node) map[string]Node {
	m := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

// MergePositions returns a new node slice with X/Y (and only X/Y) replaced for
// every node present in updates. The input slice is never mutated, so callers
// holding the previous snapshot observe consistent state.
func MergePositions(nodes []Node, updates map[string]geom.Vec) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		if p, ok := updates[n.ID]; ok {
			n.X, n.Y = p.X, p.Y
		}
		out[i] = n
	}
	return out
}

// ReadGraph decodes a graph from JSON.
func ReadGraph(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("decode graph: %w", err)
	}
	return g, nil
}

// ReadGraphFile loads a graph from a JSON file.
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, err
	}
	defer f.Close()
	return ReadGraph(f)
}

// WriteGraph encodes the graph as indented JSON.
func WriteGraph(w io.Writer, g Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// WriteGraphFile writes the graph to a JSON file.
func WriteGraphFile(path string, g Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteGraph(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
