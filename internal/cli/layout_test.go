package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartograph/cartograph/pkg/graph"
)

func writeTestGraph(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "graph.json")
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "a", Width: 200, Height: 120},
			{ID: "b", Width: 200, Height: 120},
			{ID: "c", Width: 200, Height: 120},
		},
		Edges: []graph.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "a", Target: "c"},
		},
	}
	if err := graph.WriteGraphFile(path, g); err != nil {
		t.Fatalf("WriteGraphFile() error: %v", err)
	}
	return path
}

func TestRunLayoutWritesOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeTestGraph(t, dir)
	output := filepath.Join(dir, "positioned.json")

	c := New(io.Discard, LogInfo)
	err := c.runLayout(context.Background(), input, "tree", "", "", "", 0, output, true)
	if err != nil {
		t.Fatalf("runLayout() error: %v", err)
	}

	got, err := graph.ReadGraphFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(got.Nodes) != 3 {
		t.Fatalf("output node count = %d, want 3", len(got.Nodes))
	}

	// Tree layout puts the root above its children.
	byID := make(map[string]graph.Node)
	for _, n := range got.Nodes {
		byID[n.ID] = n
	}
	if byID["a"].Y >= byID["b"].Y {
		t.Errorf("root y = %v, should be above child y = %v", byID["a"].Y, byID["b"].Y)
	}
}

func TestRunLayoutDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := writeTestGraph(t, dir)

	c := New(io.Discard, LogInfo)
	if err := c.runLayout(context.Background(), input, "force", "", "", "", 0, "", true); err != nil {
		t.Fatalf("runLayout() error: %v", err)
	}

	want := filepath.Join(dir, "graph.layout.json")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("default output %s not written: %v", want, err)
	}
}

func TestRunLayoutRejectsUnknownKind(t *testing.T) {
	c := New(io.Discard, LogInfo)
	err := c.runLayout(context.Background(), "ignored.json", "spiral", "", "", "", 0, "", true)
	if err == nil {
		t.Fatal("runLayout() with unknown kind should error")
	}
}
