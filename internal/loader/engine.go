package loader

import (
	"context"
	"fmt"

	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/future"
	"github.com/specialistvlad/modrt/internal/module"
	"github.com/specialistvlad/modrt/internal/plugin"
	"github.com/specialistvlad/modrt/internal/registry"
	"github.com/specialistvlad/modrt/internal/resolver"
)

// chain is the list of modules whose factories are on the current require
// path, innermost first.
type chain struct {
	id     string
	parent *chain
}

func (c *chain) contains(id string) bool {
	for ; c != nil; c = c.parent {
		if c.id == id {
			return true
		}
	}
	return false
}

// Engine executes modules held in a registry.
type Engine struct {
	registry *registry.Registry
	resolver *resolver.Resolver
	plugins  *plugin.Bus
}

// New wires an engine to its collaborators.
func New(reg *registry.Registry, res *resolver.Resolver, plugins *plugin.Bus) *Engine {
	if plugins == nil {
		plugins = plugin.NewBus()
	}
	return &Engine{registry: reg, resolver: res, plugins: plugins}
}

// Require resolves id from outside any module.
func (e *Engine) Require(ctx context.Context, id string) module.Result {
	return e.require(ctx, id, nil)
}

// DynamicRequire resolves id across a code-splitting boundary. It always
// returns a Pending result, already settled when nothing had to wait.
func (e *Engine) DynamicRequire(ctx context.Context, id string) module.Result {
	return e.dynamicRequire(ctx, id, nil)
}

func (e *Engine) dynamicRequire(ctx context.Context, id string, from *chain) module.Result {
	return module.Pending(e.require(ctx, id, from).AsFuture())
}

func (e *Engine) require(ctx context.Context, id string, from *chain) module.Result {
	v, started, ok := e.registry.Begin(id, func(pot string) *module.Module {
		mctx := ctxlog.With(context.WithoutCancel(ctx), "module", id)
		return module.New(mctx, id, pot)
	})
	if !ok {
		return e.requireDynamic(ctx, id, from)
	}
	if started {
		return e.execute(v, from)
	}

	switch v.State {
	case registry.Ready:
		return module.Immediate(v.Exports)
	case registry.Failed:
		return module.Failure(v.Err)
	case registry.Loading:
		if from.contains(id) && !v.Async && !v.Module.IsAsync() {
			ctxlog.FromContext(ctx).Debug("Cyclic require, returning partial exports.", "module", id)
			return module.Immediate(v.Module.Exports())
		}
		return module.Pending(v.Done)
	default:
		return module.Failure(fmt.Errorf("module '%s': unexpected state %s", id, v.State))
	}
}

// requireDynamic loads the resource pots that provide id, then requires it.
func (e *Engine) requireDynamic(ctx context.Context, id string, from *chain) module.Result {
	resources := e.resolver.ResourcesFor(id)
	if len(resources) == 0 {
		return module.Failure(notFound(id))
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Module not registered, loading its resources.", "module", id, "resources", len(resources))

	return module.Pending(future.Go(context.WithoutCancel(ctx), func(ctx context.Context) (any, error) {
		for _, res := range resources {
			if err := e.resolver.Load(ctx, res); err != nil {
				return nil, fmt.Errorf("module '%s': %w", id, err)
			}
		}
		if !e.registry.Has(id) {
			logger.Warn("Resources loaded but module is still not registered.", "module", id)
			return nil, notFound(id)
		}
		return e.require(ctx, id, from).Await(ctx)
	}))
}

// execute runs the factory of a record that Begin just moved to Loading.
func (e *Engine) execute(v registry.View, from *chain) module.Result {
	m := v.Module
	ctx := m.Context()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executing module factory.", "resource_pot", m.ResourcePot)

	if err := e.plugins.ModuleCreated(ctx, m); err != nil {
		return e.fail(ctx, m.ID, err)
	}

	path := &chain{id: m.ID, parent: from}
	require := func(id string) module.Result { return e.require(ctx, id, path) }
	dynamicRequire := func(id string) module.Result { return e.dynamicRequire(ctx, id, path) }

	res := invoke(v.Factory, m, require, dynamicRequire)
	switch res.Kind() {
	case module.KindFailure:
		return e.fail(ctx, m.ID, res.Err())
	case module.KindPending:
		e.registry.MarkAsync(m.ID)
		logger.Debug("Module factory suspended.")
		go func() {
			if _, err := res.Future().Await(context.Background()); err != nil {
				e.fail(ctx, m.ID, err)
				return
			}
			e.finish(ctx, m)
		}()
		return module.Pending(v.Done)
	default:
		return e.finish(ctx, m)
	}
}

func (e *Engine) finish(ctx context.Context, m *module.Module) module.Result {
	if err := e.plugins.ModuleInitialized(ctx, m); err != nil {
		return e.fail(ctx, m.ID, err)
	}
	exports := m.Exports()
	if err := e.registry.Complete(m.ID, exports); err != nil {
		return module.Failure(err)
	}
	ctxlog.FromContext(ctx).Debug("Module ready.")
	return module.Immediate(exports)
}

func (e *Engine) fail(ctx context.Context, id string, cause error) module.Result {
	ferr := &FactoryError{ID: id, Err: cause}
	ctxlog.FromContext(ctx).Debug("Module failed.", "error", cause)
	if err := e.registry.Fail(id, ferr); err != nil {
		return module.Failure(err)
	}
	return module.Failure(ferr)
}

func invoke(f module.Factory, m *module.Module, require, dynamicRequire module.RequireFunc) (res module.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = module.Failure(future.PanicError{Value: r})
		}
	}()
	return f(m, m.Object(), require, dynamicRequire)
}
