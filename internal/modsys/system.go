package modsys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/interop"
	"github.com/specialistvlad/modrt/internal/loader"
	"github.com/specialistvlad/modrt/internal/module"
	"github.com/specialistvlad/modrt/internal/plugin"
	"github.com/specialistvlad/modrt/internal/registry"
	"github.com/specialistvlad/modrt/internal/resolver"
	"github.com/specialistvlad/modrt/internal/resourcepot"
)

// DefaultNamespace names a system when Options.Namespace is empty.
const DefaultNamespace = "__farm_default_namespace__"

// ErrAlreadyBootstrapped is returned by a second Bootstrap call.
var ErrAlreadyBootstrapped = errors.New("module system already bootstrapped")

// Options configures a System.
type Options struct {
	// Namespace identifies the system in logs.
	Namespace string
	// Fetcher loads dynamic resources. Without one, only modules registered
	// up front can be required.
	Fetcher resolver.Fetcher
	// Logger defaults to the logger carried by the construction context.
	Logger *slog.Logger
}

// System is one module system instance.
type System struct {
	namespace string
	ctx       context.Context
	logger    *slog.Logger

	registry *registry.Registry
	tracker  *resourcepot.Tracker
	resolver *resolver.Resolver
	plugins  *plugin.Bus
	engine   *loader.Engine
	interop  *interop.Namespacer

	mu               sync.Mutex
	initialResources []string
	dynamicMap       *resolver.Map
	entries          []string
	bootstrapped     atomic.Bool
}

// New constructs a System. ctx supplies the logger and is the parent of every
// module context; cancelling it does not abort running factories.
func New(ctx context.Context, opts Options) *System {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	logger := opts.Logger
	if logger == nil {
		logger = ctxlog.FromContext(ctx)
	}
	logger = logger.With("namespace", opts.Namespace)

	s := &System{
		namespace: opts.Namespace,
		logger:    logger,
		ctx:       ctxlog.WithLogger(context.WithoutCancel(ctx), logger),
		registry:  registry.New(),
		tracker:   resourcepot.NewTracker(),
		plugins:   plugin.NewBus(),
		interop:   interop.NewNamespacer(),
	}
	s.resolver = resolver.New(s.tracker, opts.Fetcher, s.installPot)
	s.engine = loader.New(s.registry, s.resolver, s.plugins)
	return s
}

// Namespace returns the system's name.
func (s *System) Namespace() string { return s.namespace }

// Context returns the context module code runs under.
func (s *System) Context() context.Context { return s.ctx }

// Register adds a module that is not part of any resource pot. A duplicate id
// is logged and ignored; the returned error lets callers notice it.
func (s *System) Register(id string, factory module.Factory) error {
	return s.register(s.ctx, id, "", factory)
}

func (s *System) register(ctx context.Context, id, pot string, factory module.Factory) error {
	if err := s.registry.Register(id, pot, factory); err != nil {
		if errors.Is(err, registry.ErrDuplicateRegistration) {
			ctxlog.FromContext(ctx).Warn("Ignoring duplicate module registration.", "module", id, "resource_pot", pot, "error", err)
		}
		return err
	}
	ctxlog.FromContext(ctx).Debug("Module registered.", "module", id, "resource_pot", pot)
	return nil
}

// RegisterPot registers every module of pot and marks it loaded. Loading a pot
// that is already loaded does nothing.
func (s *System) RegisterPot(ctx context.Context, pot *resourcepot.Pot) error {
	if s.tracker.IsLoaded(pot.ID) {
		ctxlog.FromContext(ctx).Debug("Resource pot already loaded, skipping.", "resource_pot", pot.ID)
		return nil
	}
	return s.installPot(ctx, pot)
}

// installPot is the resolver's Installer. ResourceLoaded hooks run before any
// module is registered; a hook error discards the pot, leaving it unloaded so
// the next require fetches it again.
func (s *System) installPot(ctx context.Context, pot *resourcepot.Pot) error {
	logger := ctxlog.FromContext(ctx)
	if err := s.plugins.ResourceLoaded(ctx, pot.ID); err != nil {
		logger.Debug("Resource pot rejected by plugin, discarding.", "resource_pot", pot.ID, "error", err)
		return err
	}
	for _, entry := range pot.Modules {
		if err := s.register(ctx, entry.ID, pot.ID, entry.Factory); err != nil && !errors.Is(err, registry.ErrDuplicateRegistration) {
			return fmt.Errorf("resource pot '%s': %w", pot.ID, err)
		}
	}
	if s.tracker.MarkLoaded(pot.ID) {
		logger.Debug("Resource pot installed.", "resource_pot", pot.ID, "modules", len(pot.Modules))
	}
	return nil
}

// SetPlugins replaces the plugin list.
func (s *System) SetPlugins(plugins []plugin.Plugin) {
	s.plugins.Set(plugins)
	s.logger.Debug("Plugins set.", "count", len(plugins))
}

// SetInitialLoadedResources stages the pots that were embedded in the initial
// bundle; Bootstrap marks them loaded.
func (s *System) SetInitialLoadedResources(potIDs []string) {
	s.mu.Lock()
	s.initialResources = append([]string(nil), potIDs...)
	s.mu.Unlock()
}

// SetDynamicModuleResourcesMap stages the dynamic resource map; Bootstrap
// installs it. Invalid indices are rejected here.
func (s *System) SetDynamicModuleResourcesMap(resources []resolver.Resource, moduleResources map[string][]int) error {
	m, err := resolver.NewMap(resources, moduleResources)
	if err != nil {
		return fmt.Errorf("invalid dynamic module resources map: %w", err)
	}
	s.mu.Lock()
	s.dynamicMap = m
	s.mu.Unlock()
	return nil
}

// SetEntries stages the module ids Bootstrap requires.
func (s *System) SetEntries(ids ...string) {
	s.mu.Lock()
	s.entries = append([]string(nil), ids...)
	s.mu.Unlock()
}

// Bootstrap runs once: bootstrap hooks, initial resources marked loaded, the
// dynamic map installed, then every entry required and awaited in order.
func (s *System) Bootstrap(ctx context.Context) error {
	if !s.bootstrapped.CompareAndSwap(false, true) {
		return ErrAlreadyBootstrapped
	}
	ctx = ctxlog.WithLogger(ctx, s.logger)
	logger := s.logger

	s.mu.Lock()
	initial, dynamicMap, entries := s.initialResources, s.dynamicMap, s.entries
	s.mu.Unlock()

	if err := s.plugins.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	for _, id := range initial {
		s.tracker.MarkLoaded(id)
	}
	logger.Debug("Initial resources marked loaded.", "count", len(initial))

	if dynamicMap == nil {
		dynamicMap = resolver.EmptyMap()
	}
	s.resolver.SetMap(dynamicMap)
	logger.Debug("Dynamic resource map installed.", "modules", len(dynamicMap.Modules()))

	for _, id := range entries {
		logger.Debug("Requiring entry module.", "module", id)
		if _, err := s.Require(id).Await(ctx); err != nil {
			return fmt.Errorf("bootstrap entry '%s': %w", id, err)
		}
	}
	logger.Info("Module system bootstrapped.", "entries", len(entries), "modules", s.registry.Len())
	return nil
}

// Bootstrapped reports whether Bootstrap has been called.
func (s *System) Bootstrapped() bool { return s.bootstrapped.Load() }

// Require resolves id from hosting glue.
func (s *System) Require(id string) module.Result {
	return s.engine.Require(s.ctx, id)
}

// DynamicRequire resolves id across a code-splitting boundary; the result is
// always Pending.
func (s *System) DynamicRequire(id string) module.Result {
	return s.engine.DynamicRequire(s.ctx, id)
}

// RequireNamespace requires id and returns its namespace object.
func (s *System) RequireNamespace(ctx context.Context, id string, preferNode bool) (any, error) {
	exports, err := s.Require(id).Await(ctx)
	if err != nil {
		return nil, err
	}
	return s.interop.Wrap(exports, preferNode), nil
}

// Interop returns the system's namespace cache.
func (s *System) Interop() *interop.Namespacer { return s.interop }

// ModuleState reports a module's state; unknown ids are Unregistered.
func (s *System) ModuleState(id string) registry.State {
	v, ok := s.registry.View(id)
	if !ok {
		return registry.Unregistered
	}
	return v.State
}

// ModuleResourcePot names the pot a module was registered from.
func (s *System) ModuleResourcePot(id string) (string, bool) {
	v, ok := s.registry.View(id)
	if !ok {
		return "", false
	}
	return v.ResourcePot, true
}

// IsResourceLoaded reports whether a pot is loaded.
func (s *System) IsResourceLoaded(potID string) bool { return s.tracker.IsLoaded(potID) }

// LoadedResources lists loaded pots in load order.
func (s *System) LoadedResources() []string { return s.tracker.Loaded() }

// ResourcesFor exposes the installed dynamic map.
func (s *System) ResourcesFor(id string) []resolver.Resource { return s.resolver.ResourcesFor(id) }

// Modules lists registered module ids in registration order.
func (s *System) Modules() []string { return s.registry.IDs() }
