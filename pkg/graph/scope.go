package graph

// Scope operations. A scope is the implicit group of nodes and edges sharing
// the same Parent identifier ("" is the root scope). Layout and collision run
// within a single scope at a time; records in other scopes are invisible to
// those passes.

// NodesInScope returns the nodes whose Parent equals scope, preserving input order.
func NodesInScope(nodes []Node, scope string) []Node {
	var out []Node
	for _, n := range nodes {
		if n.Parent == scope {
			out = append(out, n)
		}
	}
	return out
}

// EdgesInScope returns the edges whose Parent equals scope, preserving input order.
func EdgesInScope(edges []Edge, scope string) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Parent == scope {
			out = append(out, e)
		}
	}
	return out
}

// FilterDangling drops edges whose source or target is missing from present.
// Dangling edges are a routine consequence of external deletion and are
// filtered rather than treated as an error.
func FilterDangling(edges []Edge, present map[string]Node) []Edge {
	var out []Edge
	for _, e := range edges {
		if _, ok := present[e.Source]; !ok {
			continue
		}
		if _, ok := present[e.Target]; !ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Outgoing builds the source→targets adjacency map, keeping edge order.
func Outgoing(edges []Edge) map[string][]string {
	m := make(map[string][]string)
	for _, e := range edges {
		m[e.Source] = append(m[e.Source], e.Target)
	}
	return m
}

// Incoming builds the target→sources adjacency map, keeping edge order.
func Incoming(edges []Edge) map[string][]string {
	m := make(map[string][]string)
	for _, e := range edges {
		m[e.Target] = append(m[e.Target], e.Source)
	}
	return m
}

// Indegrees counts incoming edges per node, restricted to edges whose
// endpoints both exist in present. Tree-root selection depends on this
// restriction: an edge from a deleted node must not disqualify a root.
func Indegrees(nodes []Node, edges []Edge) map[string]int {
	present := NodeMap(nodes)
	deg := make(map[string]int, len(nodes))
	for _, n := range nodes {
		deg[n.ID] = 0
	}
	for _, e := range FilterDangling(edges, present) {
		deg[e.Target]++
	}
	return deg
}

// Reachable returns the set of node IDs reachable from roots by breadth-first
// traversal of outgoing edges, including the roots themselves.
func Reachable(edges []Edge, roots ...string) map[string]bool {
	out := Outgoing(edges)
	seen := make(map[string]bool, len(roots))
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		if !seen[r] {
			seen[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range out[id] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// ParentSet returns the IDs of nodes that are the source of at least one edge.
// Rendering uses this derived set to mark hub nodes; it is O(E) and recomputed
// whenever the edge array changes.
func ParentSet(edges []Edge) map[string]bool {
	m := make(map[string]bool)
	for _, e := range edges {
		m[e.Source] = true
	}
	return m
}
