package viewport

import (
	"testing"

	"github.com/cartograph/cartograph/pkg/geom"
)

func TestTransform_RoundTrip(t *testing.T) {
	tr := Transform{X: 120, Y: -45, K: 2.5}
	p := geom.Vec{X: 33.5, Y: -7}

	back := tr.ToWorld(tr.ToScreen(p))
	const eps = 1e-9
	if dx := back.X - p.X; dx > eps || dx < -eps {
		t.Errorf("round trip X = %v, want %v", back.X, p.X)
	}
	if dy := back.Y - p.Y; dy > eps || dy < -eps {
		t.Errorf("round trip Y = %v, want %v", back.Y, p.Y)
	}
}

func TestTransform_WorldRect(t *testing.T) {
	tr := Transform{X: 100, Y: 0, K: 2}
	r := tr.WorldRect(800, 600)

	want := geom.Rect{X: -50, Y: 0, Width: 400, Height: 300}
	if r != want {
		t.Errorf("WorldRect() = %v, want %v", r, want)
	}
}

func TestTierFor(t *testing.T) {
	th := DefaultThresholds

	tests := []struct {
		k    float64
		want Tier
	}{
		{0.05, TierCluster},
		{0.29, TierCluster},
		{0.3, TierTitle},
		{0.79, TierTitle},
		{0.8, TierDetail},
		{3.0, TierDetail},
	}
	for _, tt := range tests {
		if got := th.TierFor(tt.k); got != tt.want {
			t.Errorf("TierFor(%v) = %v, want %v", tt.k, got, tt.want)
		}
	}
}

func TestCullRect_BufferByTier(t *testing.T) {
	th := DefaultThresholds

	// Cluster tier: small buffer.
	cluster := th.CullRect(Transform{K: 0.1}, 1000, 1000)
	// Detail tier: larger buffer.
	detail := th.CullRect(Transform{K: 1}, 1000, 1000)

	if cluster.Width != 10000*(1+2*th.ClusterBuffer) {
		t.Errorf("cluster cull width = %v, want %v", cluster.Width, 10000*(1+2*th.ClusterBuffer))
	}
	if detail.Width != 1000*(1+2*th.DetailBuffer) {
		t.Errorf("detail cull width = %v, want %v", detail.Width, 1000*(1+2*th.DetailBuffer))
	}
}

func TestShouldExitScope(t *testing.T) {
	th := DefaultThresholds

	// Extreme zoom-out inside a non-root scope.
	reset, exit := th.ShouldExitScope(0.05, "some-node")
	if !exit {
		t.Fatal("ShouldExitScope(0.05, nested) = false, want true")
	}
	if reset != Identity {
		t.Errorf("reset transform = %v, want identity {0 0 1}", reset)
	}

	if _, exit := th.ShouldExitScope(0.05, ""); exit {
		t.Error("ShouldExitScope at root scope = true, want false")
	}
	if _, exit := th.ShouldExitScope(0.5, "some-node"); exit {
		t.Error("ShouldExitScope(0.5) = true, want false")
	}
}
