// Package engine composes the spatial index, viewport controller, layout
// algorithms, and cache into the per-frame and per-command entry points the
// host render loop calls. The engine holds tuning state only; node and edge
// arrays stay externally owned and flow through as snapshots.
package engine

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/cartograph/cartograph/pkg/cache"
	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/layout"
	"github.com/cartograph/cartograph/pkg/observability"
	"github.com/cartograph/cartograph/pkg/render"
	"github.com/cartograph/cartograph/pkg/spatial"
	"github.com/cartograph/cartograph/pkg/viewport"
)

// Frame is the visible subset the presentation layer renders, plus any
// scope-exit request raised by the zoom level.
type Frame struct {
	Nodes   []graph.Node
	Edges   []graph.Edge
	Parents map[string]bool
	Tier    viewport.Tier

	// ExitScope requests popping to the parent scope; when set,
	// ResetTransform carries the transform the host must adopt.
	ExitScope      bool
	ResetTransform *viewport.Transform
}

// Engine ties tuning thresholds, layout options, logging, and the layout
// cache together.
type Engine struct {
	thresholds viewport.Thresholds
	layoutOpts layout.Options
	logger     *log.Logger
	store      cache.Cache
	keyer      cache.Keyer
	ttl        time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds overrides the viewport tuning constants.
func WithThresholds(th viewport.Thresholds) Option {
	return func(e *Engine) { e.thresholds = th }
}

// WithLayoutOptions sets the default layout options.
func WithLayoutOptions(opts layout.Options) Option {
	return func(e *Engine) { e.layoutOpts = opts }
}

// WithLogger sets the engine logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithCache enables layout caching with the given backend and TTL.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
		e.ttl = ttl
	}
}

// WithKeyer overrides the cache key scheme.
func WithKeyer(k cache.Keyer) Option {
	return func(e *Engine) { e.keyer = k }
}

// New creates an engine with default thresholds, a discarding logger, and
// caching disabled.
func New(opts ...Option) *Engine {
	e := &Engine{
		thresholds: viewport.DefaultThresholds,
		logger:     log.New(io.Discard),
		store:      cache.NewNullCache(),
		keyer:      cache.NewDefaultKeyer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Frame computes the visible subset of one scope for the current viewport.
// It is a pure function of its arguments: the same snapshot, transform, and
// size always produce the same frame.
func (e *Engine) Frame(ctx context.Context, nodes []graph.Node, edges []graph.Edge, scope string, tf viewport.Transform, width, height float64) Frame {
	frame := Frame{Tier: e.thresholds.TierFor(tf.K)}

	if reset, exit := e.thresholds.ShouldExitScope(tf.K, scope); exit {
		frame.ExitScope = true
		frame.ResetTransform = &reset
	}

	scoped := graph.NodesInScope(nodes, scope)
	scopedEdges := graph.EdgesInScope(edges, scope)

	cull := e.thresholds.CullRect(tf, width, height)
	sel := render.Select(spatial.Build(scoped), cull, scoped, scopedEdges)
	frame.Nodes = sel.Nodes
	frame.Edges = sel.Edges
	frame.Parents = sel.Parents

	observability.Engine().OnFrame(ctx, len(frame.Nodes), len(frame.Edges), frame.Tier.String())
	return frame
}

// cachedLayout is the serialized form of a cacheable layout result.
type cachedLayout struct {
	Applied   string                `json:"applied"`
	Positions map[string][2]float64 `json:"positions"`
}

// ApplyLayout runs the requested layout over one scope and merges the new
// positions back into the full node array. Results for unchanged inputs are
// served from the cache; fallback results are never cached.
func (e *Engine) ApplyLayout(ctx context.Context, kind layout.Kind, nodes []graph.Node, edges []graph.Edge, scope, focusID string) layout.Result {
	scoped := graph.NodesInScope(nodes, scope)
	scopedEdges := graph.EdgesInScope(edges, scope)

	opts := e.layoutOpts
	opts.FocusID = focusID
	opts = opts.Normalized()

	key := e.keyer.LayoutKey(cache.GraphHash(scoped, scopedEdges), cache.LayoutKeyOpts{
		Kind:          string(kind),
		Orientation:   string(opts.Orientation),
		FocusID:       focusID,
		Scope:         scope,
		Ticks:         opts.Ticks,
		CollideBuffer: opts.CollideBuffer,
	})

	if data, hit, err := e.store.Get(ctx, key); err == nil && hit {
		var entry cachedLayout
		if err := json.Unmarshal(data, &entry); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			updates := make(map[string]geom.Vec, len(entry.Positions))
			for id, p := range entry.Positions {
				updates[id] = geom.Vec{X: p[0], Y: p[1]}
			}
			return layout.Result{
				Nodes:   graph.MergePositions(nodes, updates),
				Applied: layout.Kind(entry.Applied),
			}
		}
		// Corrupt entry; fall through to recompute.
		_ = e.store.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	observability.Engine().OnLayoutStart(ctx, string(kind), len(scoped))
	start := time.Now()
	res := layout.Apply(kind, scoped, scopedEdges, opts)
	observability.Engine().OnLayoutComplete(ctx, string(kind), res.Fallback, time.Since(start))

	if res.Fallback {
		e.logger.Warn("layout fell back", "requested", kind, "applied", res.Applied, "reason", res.Reason)
	}

	updates := make(map[string]geom.Vec, len(res.Nodes))
	entry := cachedLayout{Applied: string(res.Applied), Positions: make(map[string][2]float64, len(res.Nodes))}
	for _, n := range res.Nodes {
		updates[n.ID] = geom.Vec{X: n.X, Y: n.Y}
		entry.Positions[n.ID] = [2]float64{n.X, n.Y}
	}
	res.Nodes = graph.MergePositions(nodes, updates)

	if !res.Fallback {
		if data, err := json.Marshal(entry); err == nil {
			if err := e.store.Set(ctx, key, data, e.ttl); err == nil {
				observability.Cache().OnCacheSet(ctx, "layout", len(data))
			} else {
				e.logger.Debug("layout cache write failed", "err", err)
			}
		}
	}
	return res
}

// Resolve runs the post-interaction collision resolver over one scope and
// merges the result back into the full node array.
func (e *Engine) Resolve(ctx context.Context, nodes []graph.Node, edges []graph.Edge, scope string, opts layout.ResolveOptions) []graph.Node {
	scoped := graph.NodesInScope(nodes, scope)
	scopedEdges := graph.EdgesInScope(edges, scope)

	start := time.Now()
	resolved := layout.Resolve(scoped, scopedEdges, opts)
	observability.Engine().OnCollisionResolve(ctx, len(scoped), time.Since(start))

	updates := make(map[string]geom.Vec, len(resolved))
	for _, n := range resolved {
		updates[n.ID] = geom.Vec{X: n.X, Y: n.Y}
	}
	return graph.MergePositions(nodes, updates)
}
