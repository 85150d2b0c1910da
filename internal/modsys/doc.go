// Package modsys is the module system a host embeds: one System value owns
// the registry, the resource pot tracker, the dynamic resource resolver, the
// plugin bus and the require engine, and sequences bootstrap.
//
// Hosting glue drives it the way compiled bundles drive their runtime:
//
//	sys := modsys.New(ctx, modsys.Options{Fetcher: fetcher.NewDir("dist", table)})
//	sys.RegisterPot(ctx, initialPot)
//	sys.SetInitialLoadedResources([]string{initialPot.ID})
//	sys.SetDynamicModuleResourcesMap(resources, moduleResources)
//	sys.SetEntries("main")
//	err := sys.Bootstrap(ctx)
//
// Systems are independent of each other; nothing is process global.
package modsys
