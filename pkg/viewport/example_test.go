package viewport_test

import (
	"fmt"

	"github.com/cartograph/cartograph/pkg/geom"
	"github.com/cartograph/cartograph/pkg/viewport"
)

func ExampleTransform_ToWorld() {
	// A viewport panned to (100, 50) at 2x zoom
	t := viewport.Transform{X: 100, Y: 50, K: 2}

	w := t.ToWorld(geom.Vec{X: 300, Y: 250})
	fmt.Printf("world: (%.0f, %.0f)\n", w.X, w.Y)

	s := t.ToScreen(w)
	fmt.Printf("back to screen: (%.0f, %.0f)\n", s.X, s.Y)
	// Output:
	// world: (100, 100)
	// back to screen: (300, 250)
}

func ExampleThresholds_TierFor() {
	th := viewport.DefaultThresholds

	fmt.Println(th.TierFor(0.1))
	fmt.Println(th.TierFor(0.5))
	fmt.Println(th.TierFor(1.0))
	// Output:
	// cluster
	// title
	// detail
}

func ExampleThresholds_ShouldExitScope() {
	th := viewport.DefaultThresholds

	// Zooming far out inside a nested scope requests popping to the parent.
	_, exit := th.ShouldExitScope(0.05, "group-1")
	fmt.Println("nested scope:", exit)

	// The root scope has no parent to pop to.
	_, exit = th.ShouldExitScope(0.05, "")
	fmt.Println("root scope:", exit)
	// Output:
	// nested scope: true
	// root scope: false
}
