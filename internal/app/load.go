package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/resolver"
	"github.com/specialistvlad/modrt/internal/resourcepot"
	"golang.org/x/sync/errgroup"
)

// maxParallelFetches bounds concurrent initial resource fetches.
const maxParallelFetches = 8

// loadInitialResources fetches the manifest's initial resources in parallel
// and registers their pots in manifest order.
func (a *App) loadInitialResources(ctx context.Context) error {
	paths := a.manifest.InitialResources
	if len(paths) == 0 {
		return nil
	}
	if a.fetcher == nil {
		return errors.New("initial resources are listed but no fetcher is configured")
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Fetching initial resources.", "count", len(paths))

	pots := make([]*resourcepot.Pot, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			pot, err := a.fetcher.Fetch(gctx, resolver.Resource{Path: path, Type: resolver.ScriptResource})
			if err != nil {
				return fmt.Errorf("initial resource '%s': %w", path, err)
			}
			if pot == nil {
				pot = resourcepot.NewPot(path)
			}
			pot.ID = path
			pots[i] = pot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, pot := range pots {
		if err := a.system.RegisterPot(ctx, pot); err != nil {
			return err
		}
	}
	logger.Info("Initial resources registered.", "count", len(pots), "modules", len(a.system.Modules()))
	return nil
}
