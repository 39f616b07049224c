// Package cache provides layout result caching with pluggable backends.
//
// Layout computation is deterministic for a fixed graph, algorithm, and
// option set, so computed positions are cached under a content hash of the
// input. Three backends are provided: a file cache for CLI usage, a Redis
// cache for the layout API server, and a null cache for tests and for
// running with caching disabled.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTL.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present; an absent key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the option fields that affect layout output and
// therefore participate in the cache key. Callers must pass effective
// values, never zero values that the layout would substitute defaults for,
// or equivalent configurations end up under distinct keys.
type LayoutKeyOpts struct {
	Kind          string  `json:"kind"`
	Orientation   string  `json:"orientation,omitempty"`
	FocusID       string  `json:"focus_id,omitempty"`
	Scope         string  `json:"scope,omitempty"`
	Ticks         int     `json:"ticks,omitempty"`
	CollideBuffer float64 `json:"collide_buffer,omitempty"`
}

// ArtifactKeyOpts identify a rendered artifact derived from a layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// Keyer generates cache keys for the two cacheable stages.
type Keyer interface {
	// LayoutKey generates a key for computed positions, from a content hash
	// of the input graph plus the layout options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact, from a content
	// hash of the positioned graph plus the output options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a stage prefix plus a SHA-256
// hash of the inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
