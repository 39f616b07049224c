// Package config loads the optional TOML tuning file. Every knob has a
// compiled-in default; a missing file is not an error, and a partial file
// overrides only the keys it names.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/cartograph/cartograph/pkg/interact"
	"github.com/cartograph/cartograph/pkg/viewport"
)

// Config is the full tuning surface.
type Config struct {
	Viewport ViewportConfig `toml:"viewport"`
	Interact InteractConfig `toml:"interact"`
	Layout   LayoutConfig   `toml:"layout"`
	Cache    CacheConfig    `toml:"cache"`
	Serve    ServeConfig    `toml:"serve"`
}

// ViewportConfig tunes the zoom tiers and culling buffers.
type ViewportConfig struct {
	ExitScope     float64 `toml:"exit_scope"`
	Cluster       float64 `toml:"cluster"`
	Title         float64 `toml:"title"`
	ClusterBuffer float64 `toml:"cluster_buffer"`
	DetailBuffer  float64 `toml:"detail_buffer"`
}

// Thresholds converts the section into viewport tuning constants.
func (c ViewportConfig) Thresholds() viewport.Thresholds {
	return viewport.Thresholds{
		ExitScope:     c.ExitScope,
		Cluster:       c.Cluster,
		Title:         c.Title,
		ClusterBuffer: c.ClusterBuffer,
		DetailBuffer:  c.DetailBuffer,
	}
}

// InteractConfig tunes the interaction state machine.
type InteractConfig struct {
	ClickThreshold float64 `toml:"click_threshold"`
	MinBoxSize     float64 `toml:"min_box_size"`
	MinNodeWidth   float64 `toml:"min_node_width"`
	MinNodeHeight  float64 `toml:"min_node_height"`
	CollideBuffer  float64 `toml:"collide_buffer"`
}

// Machine converts the section into interaction tuning constants.
func (c InteractConfig) Machine() interact.Config {
	return interact.Config{
		ClickThreshold: c.ClickThreshold,
		MinBoxSize:     c.MinBoxSize,
		MinNodeWidth:   c.MinNodeWidth,
		MinNodeHeight:  c.MinNodeHeight,
		CollideBuffer:  c.CollideBuffer,
	}
}

// LayoutConfig tunes layout invocations.
type LayoutConfig struct {
	Ticks         int     `toml:"ticks"`
	CollideBuffer float64 `toml:"collide_buffer"`
	Orientation   string  `toml:"orientation"`
}

// CacheConfig selects and tunes the layout cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`
	// Dir is the file backend's directory; empty means a per-user default.
	Dir string `toml:"dir"`
	// RedisAddr is the redis backend's host:port.
	RedisAddr string `toml:"redis_addr"`
	// TTLMinutes bounds entry lifetime; zero means no expiration.
	TTLMinutes int `toml:"ttl_minutes"`
}

// ServeConfig tunes the layout API server.
type ServeConfig struct {
	Addr string `toml:"addr"`
	// MaxNodes rejects oversized layout requests.
	MaxNodes int `toml:"max_nodes"`
}

// Default returns the compiled-in tuning constants.
func Default() Config {
	return Config{
		Viewport: ViewportConfig{
			ExitScope:     viewport.DefaultThresholds.ExitScope,
			Cluster:       viewport.DefaultThresholds.Cluster,
			Title:         viewport.DefaultThresholds.Title,
			ClusterBuffer: viewport.DefaultThresholds.ClusterBuffer,
			DetailBuffer:  viewport.DefaultThresholds.DetailBuffer,
		},
		Interact: InteractConfig{
			ClickThreshold: 5,
			MinBoxSize:     5,
			MinNodeWidth:   60,
			MinNodeHeight:  40,
			CollideBuffer:  12,
		},
		Layout: LayoutConfig{
			Ticks:         300,
			CollideBuffer: 12,
			Orientation:   "tb",
		},
		Cache: CacheConfig{
			Backend:    "file",
			TTLMinutes: 0,
		},
		Serve: ServeConfig{
			Addr:     ":8080",
			MaxNodes: 10000,
		},
	}
}

// Load reads a TOML tuning file over the defaults. An empty path or a
// missing file yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
