package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/modules/print"
)

// Run loads the initial resources, bootstraps the module system and writes
// the exports of every entry module to outW as one JSON object.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		stop := a.startHealthcheckServer(a.config.HealthcheckPort)
		defer stop()
	}

	if err := a.loadInitialResources(ctx); err != nil {
		return fmt.Errorf("failed to load initial resources: %w", err)
	}

	sys := a.system
	sys.SetPlugins(a.plugins)
	sys.SetInitialLoadedResources(a.manifest.InitialResources)
	if err := sys.SetDynamicModuleResourcesMap(a.manifest.Resources, a.manifest.DynamicModules); err != nil {
		return err
	}
	sys.SetEntries(a.manifest.Entries...)

	if len(a.manifest.Entries) == 0 {
		a.logger.Warn("No entries found in manifest, nothing will be executed.")
	}
	a.logger.Info("Bootstrapping module system...", "namespace", sys.Namespace(), "entries", a.manifest.Entries)
	if err := sys.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	a.logger.Info("Bootstrap finished.", "modules", len(sys.Modules()), "resources", len(sys.LoadedResources()))

	if err := a.writeEntries(ctx); err != nil {
		return err
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) writeEntries(ctx context.Context) error {
	out := make(map[string]any, len(a.manifest.Entries))
	for _, id := range a.manifest.Entries {
		v, err := a.system.Require(id).Await(ctx)
		if err != nil {
			return err
		}
		out[id] = print.Plain(v)
	}
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write entry exports: %w", err)
	}
	return nil
}
