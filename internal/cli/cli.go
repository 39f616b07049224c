// Package cli implements the cartograph command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cartograph/cartograph/pkg/buildinfo"
	"github.com/cartograph/cartograph/pkg/cache"
	"github.com/cartograph/cartograph/pkg/config"
	"github.com/cartograph/cartograph/pkg/engine"
	"github.com/cartograph/cartograph/pkg/layout"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "cartograph"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cartograph",
		Short:        "Cartograph lays out node graphs on an infinite canvas",
		Long:         `Cartograph is a layout and interaction engine for node-and-edge graphs on an infinite zoomable canvas. It computes force, tree, hybrid, and subgraph-isolation layouts, resolves collisions, and renders the result to SVG, PNG, or DOT.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML tuning file")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.canvasCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Factory
// =============================================================================

// loadConfig reads the tuning file named by --config, falling back to
// defaults when the flag is unset or the file is missing.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newEngine builds a layout engine from the tuning config.
func (c *CLI) newEngine(ctx context.Context, cfg config.Config, noCache bool) (*engine.Engine, error) {
	store, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	return engine.New(
		engine.WithThresholds(cfg.Viewport.Thresholds()),
		engine.WithLayoutOptions(layout.Options{
			Orientation:   layout.Orientation(cfg.Layout.Orientation),
			Ticks:         cfg.Layout.Ticks,
			CollideBuffer: cfg.Layout.CollideBuffer,
		}),
		engine.WithLogger(c.Logger),
		engine.WithCache(store, time.Duration(cfg.Cache.TTLMinutes)*time.Minute),
	), nil
}

func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "redis" {
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/cartograph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
