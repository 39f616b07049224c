// Package viewport maps the continuous zoom factor to discrete detail tiers
// and computes the buffered world-space culling rectangle used to select the
// node and edge subset materialized each frame.
package viewport

import (
	"fmt"

	"github.com/cartograph/cartograph/pkg/geom"
)

// Transform is the world→screen mapping: screen = world*K + (X, Y).
// K must be positive; Identity is the neutral transform.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the neutral viewport transform.
var Identity = Transform{X: 0, Y: 0, K: 1}

// ToScreen converts a world-space point to screen coordinates.
func (t Transform) ToScreen(p geom.Vec) geom.Vec {
	return geom.Vec{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// ToWorld converts a screen-space point to world coordinates.
func (t Transform) ToWorld(p geom.Vec) geom.Vec {
	return geom.Vec{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// WorldRect returns the world-space rectangle visible through a screen
// viewport of the given pixel size.
func (t Transform) WorldRect(width, height float64) geom.Rect {
	min := t.ToWorld(geom.Vec{X: 0, Y: 0})
	return geom.Rect{X: min.X, Y: min.Y, Width: width / t.K, Height: height / t.K}
}

// Tier is the level-of-detail band selected from the zoom factor.
type Tier int

const (
	// TierCluster renders nodes as dots; individual chrome is invisible.
	TierCluster Tier = iota
	// TierTitle renders node titles without full content.
	TierTitle
	// TierDetail renders full node chrome.
	TierDetail
)

// String returns the lower-case tier name.
func (t Tier) String() string {
	switch t {
	case TierCluster:
		return "cluster"
	case TierTitle:
		return "title"
	case TierDetail:
		return "detail"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Thresholds configures the zoom cut-offs and culling buffers.
// Zero-valued fields are not usable; start from DefaultThresholds.
type Thresholds struct {
	// ExitScope triggers a semantic zoom-out when K drops below it while
	// inside a non-root scope, keeping the canvas away from numerical
	// degeneracy at extreme zoom-out.
	ExitScope float64
	// Cluster and Title are the upper bounds of their tiers; K at or above
	// Title selects TierDetail.
	Cluster float64
	Title   float64
	// ClusterBuffer and DetailBuffer multiply the visible rectangle's own
	// width/height to size the culling buffer. Cluster tiers preload less
	// since dots are cheap; title/detail prefetch more to avoid pop-in.
	ClusterBuffer float64
	DetailBuffer  float64
}

// DefaultThresholds are the stock tuning constants.
var DefaultThresholds = Thresholds{
	ExitScope:     0.1,
	Cluster:       0.3,
	Title:         0.8,
	ClusterBuffer: 0.25,
	DetailBuffer:  0.75,
}

// TierFor selects the detail tier for a zoom factor.
func (th Thresholds) TierFor(k float64) Tier {
	switch {
	case k < th.Cluster:
		return TierCluster
	case k < th.Title:
		return TierTitle
	default:
		return TierDetail
	}
}

// CullRect returns the buffered world-space culling rectangle for the given
// transform and screen viewport size. The buffer multiplier depends on the
// current tier.
func (th Thresholds) CullRect(t Transform, width, height float64) geom.Rect {
	buf := th.DetailBuffer
	if th.TierFor(t.K) == TierCluster {
		buf = th.ClusterBuffer
	}
	return t.WorldRect(width, height).Expand(buf, buf)
}

// ShouldExitScope reports whether the zoom factor has dropped far enough,
// while inside a non-root scope, to request popping to the parent scope.
// When it returns true the caller must also reset the transform to the
// returned value (identity), re-establishing a sane zoom for the outer scope.
func (th Thresholds) ShouldExitScope(k float64, scope string) (Transform, bool) {
	if scope == "" || k >= th.ExitScope {
		return Transform{}, false
	}
	return Identity, true
}
