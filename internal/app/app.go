package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/internal/config"
	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/fetcher"
	"github.com/specialistvlad/modrt/internal/modsys"
	"github.com/specialistvlad/modrt/internal/plugin"
	"github.com/specialistvlad/modrt/internal/resolver"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	ctx      context.Context
	config   *Config
	manifest *config.Manifest
	table    *chunk.Table
	fetcher  resolver.Fetcher
	plugins  []plugin.Plugin
	system   *modsys.System
}

// NewApp loads the manifest and wires the module system. Logs go to logW,
// program output to outW. Without providers the core modules are used.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, providers ...chunk.Provider) (*App, error) {
	logger := newLogger(cfg, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	manifest, err := loader.Load(ctx, cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	logger.Debug("Manifest loaded.", "path", cfg.ManifestPath)

	table := chunk.NewTable()
	if len(providers) == 0 {
		providers = coreModules(outW)
	}
	for _, p := range providers {
		p.Register(table)
	}
	logger.Debug("All factory providers registered.", "count", len(providers), "factories", table.Names())

	plugins, err := resolvePlugins(manifest.Plugins, cfg.Trace)
	if err != nil {
		return nil, err
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		manifest: manifest,
		table:    table,
		plugins:  plugins,
		fetcher:  newFetcher(manifest.Fetcher, cfg, table),
	}
	a.system = modsys.New(ctx, modsys.Options{
		Namespace: manifest.Namespace,
		Fetcher:   a.fetcher,
		Logger:    logger,
	})
	return a, nil
}

// newFetcher prefers command line overrides to the manifest's fetcher block.
// It returns nil when neither names a source.
func newFetcher(fc *config.Fetcher, cfg *Config, table *chunk.Table) resolver.Fetcher {
	root, baseURL, timeout := cfg.Root, cfg.BaseURL, cfg.Timeout
	if root == "" && baseURL == "" && fc != nil {
		root, baseURL = fc.Root, fc.BaseURL
		if timeout == 0 {
			timeout = fc.Timeout
		}
	}
	switch {
	case root != "":
		return fetcher.NewDir(root, table)
	case baseURL != "":
		return fetcher.NewHTTP(baseURL, timeout, table)
	default:
		return nil
	}
}

func resolvePlugins(names []string, trace bool) ([]plugin.Plugin, error) {
	if trace {
		names = append(names, "trace")
	}
	var out []plugin.Plugin
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		p, ok := plugin.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown plugin '%s'", name)
		}
		out = append(out, p)
	}
	return out, nil
}

// System returns the application's module system. This is primarily for testing.
func (a *App) System() *modsys.System {
	return a.system
}

// Close releases the fetcher's resources.
func (a *App) Close() error {
	if c, ok := a.fetcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
