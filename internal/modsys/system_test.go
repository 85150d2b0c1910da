package modsys

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/modrt/internal/interop"
	"github.com/specialistvlad/modrt/internal/loader"
	"github.com/specialistvlad/modrt/internal/module"
	"github.com/specialistvlad/modrt/internal/plugin"
	"github.com/specialistvlad/modrt/internal/registry"
	"github.com/specialistvlad/modrt/internal/resolver"
	"github.com/specialistvlad/modrt/internal/resourcepot"
	"github.com/specialistvlad/modrt/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaitValue(t *testing.T, res module.Result) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := res.Await(ctx)
	require.NoError(t, err)
	return v
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type recordingPlugin struct{ rec *recorder }

func (p recordingPlugin) Name() string { return "recording" }

func (p recordingPlugin) Bootstrap(context.Context) error {
	p.rec.add("bootstrap")
	return nil
}

func (p recordingPlugin) ResourceLoaded(_ context.Context, potID string) error {
	p.rec.add("loaded:" + potID)
	return nil
}

func (p recordingPlugin) ModuleInitialized(_ context.Context, m *module.Module) error {
	p.rec.add("initialized:" + m.ID)
	return nil
}

type failingBootstrap struct{}

func (failingBootstrap) Name() string                    { return "failing" }
func (failingBootstrap) Bootstrap(context.Context) error { return errors.New("nope") }

func TestRegister_DuplicateKeepsFirstFactory(t *testing.T) {
	ctx, logs := testutil.Context(t)
	sys := New(ctx, Options{Namespace: "test"})
	counter := testutil.NewCallCounter()

	require.NoError(t, sys.Register("a", counter.Wrap(testutil.ValueFactory("v", "first"))))
	err := sys.Register("a", counter.Wrap(testutil.ValueFactory("v", "second")))
	require.ErrorIs(t, err, registry.ErrDuplicateRegistration)
	assert.Contains(t, logs.String(), "Ignoring duplicate module registration.")

	v := awaitValue(t, sys.Require("a"))
	assert.Equal(t, "first", v.(*interop.Object).Value("v"))
	assert.Equal(t, 1, counter.Count("a"))
	assert.Equal(t, registry.Ready, sys.ModuleState("a"))
}

func TestRequire_IdentityAndSingleExecution(t *testing.T) {
	ctx, _ := testutil.Context(t)
	sys := New(ctx, Options{})
	counter := testutil.NewCallCounter()
	require.NoError(t, sys.Register("a", counter.Wrap(testutil.ValueFactory("v", 1))))

	first := awaitValue(t, sys.Require("a"))
	for i := 0; i < 10; i++ {
		assert.Same(t, first, awaitValue(t, sys.Require("a")))
	}
	assert.Equal(t, 1, counter.Count("a"))
	assert.Equal(t, DefaultNamespace, sys.Namespace())
}

func TestRequire_SyncCycleSeesPartialExports(t *testing.T) {
	ctx, _ := testutil.Context(t)
	sys := New(ctx, Options{})

	var seenByB, seenByA []string
	require.NoError(t, sys.Register("A", func(_ *module.Module, exports *interop.Object, req, _ module.RequireFunc) module.Result {
		exports.Set("early", "a")
		b, err := req("B").Value()
		if err != nil {
			return module.Failure(err)
		}
		seenByA = b.(*interop.Object).Keys()
		exports.Set("late", "a")
		return module.Done()
	}))
	require.NoError(t, sys.Register("B", func(_ *module.Module, exports *interop.Object, req, _ module.RequireFunc) module.Result {
		exports.Set("b", "b")
		a, err := req("A").Value()
		if err != nil {
			return module.Failure(err)
		}
		seenByB = a.(*interop.Object).Keys()
		return module.Done()
	}))

	a := awaitValue(t, sys.Require("A")).(*interop.Object)
	assert.Equal(t, []string{"early"}, seenByB)
	assert.Equal(t, []string{"b"}, seenByA)
	assert.Equal(t, []string{"early", "late"}, a.Keys())
	assert.Equal(t, registry.Ready, sys.ModuleState("B"))
}

func TestRequire_AsyncDependencyPropagates(t *testing.T) {
	ctx, _ := testutil.Context(t)
	sys := New(ctx, Options{})

	require.NoError(t, sys.Register("X", func(m *module.Module, exports *interop.Object, _, _ module.RequireFunc) module.Result {
		return m.Async(func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			exports.Set("v", 1)
			return nil
		})
	}))
	require.NoError(t, sys.Register("Y", func(m *module.Module, exports *interop.Object, req, _ module.RequireFunc) module.Result {
		x := req("X")
		return m.Async(func(ctx context.Context) error {
			v, err := x.Await(ctx)
			if err != nil {
				return err
			}
			exports.Set("v", v.(*interop.Object).Value("v").(int)+1)
			return nil
		})
	}))

	start := time.Now()
	res := sys.Require("Y")
	require.True(t, res.IsPending())
	y := awaitValue(t, res).(*interop.Object)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, map[string]any{"v": 2}, y.Snapshot())
}

func TestRequire_DynamicChunkLoadedOnce(t *testing.T) {
	var fetches atomic.Int32
	release := make(chan struct{})
	fetcher := resolver.FetcherFunc(func(ctx context.Context, r resolver.Resource) (*resourcepot.Pot, error) {
		fetches.Add(1)
		<-release
		return resourcepot.NewPot(r.Path).Add("M", testutil.ValueFactory("ok", true)), nil
	})

	ctx, _ := testutil.Context(t)
	sys := New(ctx, Options{Fetcher: fetcher})
	require.NoError(t, sys.SetDynamicModuleResourcesMap(
		[]resolver.Resource{{Path: "chunk-1", Type: resolver.ScriptResource}},
		map[string][]int{"M": {0}},
	))
	require.NoError(t, sys.Bootstrap(ctx))

	first := sys.Require("M")
	second := sys.Require("M")
	require.True(t, first.IsPending())
	require.True(t, second.IsPending())
	close(release)

	assert.Same(t, awaitValue(t, first), awaitValue(t, second))
	assert.Equal(t, int32(1), fetches.Load())
	assert.True(t, sys.IsResourceLoaded("chunk-1"))
	pot, ok := sys.ModuleResourcePot("M")
	require.True(t, ok)
	assert.Equal(t, "chunk-1", pot)
}

func TestRequire_FailureIsStickyWithoutRerun(t *testing.T) {
	ctx, _ := testutil.Context(t)
	sys := New(ctx, Options{})
	counter := testutil.NewCallCounter()
	require.NoError(t, sys.Register("bad", counter.Wrap(func(*module.Module, *interop.Object, module.RequireFunc, module.RequireFunc) module.Result {
		panic("boom")
	})))

	_, first := sys.Require("bad").Value()
	_, second := sys.Require("bad").Value()
	require.ErrorIs(t, first, loader.ErrFactoryFailed)
	assert.Same(t, first, second)
	assert.Equal(t, 1, counter.Count("bad"))
	assert.Equal(t, registry.Failed, sys.ModuleState("bad"))

	// Registering again after the failure does not grant a retry.
	require.ErrorIs(t, sys.Register("bad", testutil.ValueFactory("v", 1)), registry.ErrDuplicateRegistration)
	_, third := sys.Require("bad").Value()
	assert.Same(t, first, third)
}

func TestRequireNamespace_StableWrapper(t *testing.T) {
	ctx, _ := testutil.Context(t)
	sys := New(ctx, Options{})
	require.NoError(t, sys.Register("m", func(_ *module.Module, exports *interop.Object, _, _ module.RequireFunc) module.Result {
		exports.Set("default", "d")
		exports.Set("named", 1)
		return module.Done()
	}))

	first, err := sys.RequireNamespace(ctx, "m", true)
	require.NoError(t, err)
	second, err := sys.RequireNamespace(ctx, "m", true)
	require.NoError(t, err)
	assert.Same(t, first, second)

	ns := first.(*interop.Object)
	assert.True(t, ns.IsLive("named"))
	assert.False(t, ns.IsLive("default"))
	assert.Equal(t, 1, ns.Value("named"))
}

func TestBootstrap_Sequence(t *testing.T) {
	ctx, _ := testutil.Context(t)
	rec := &recorder{}
	sys := New(ctx, Options{Namespace: "app"})
	sys.SetPlugins([]plugin.Plugin{recordingPlugin{rec: rec}})

	require.NoError(t, sys.RegisterPot(ctx, resourcepot.NewPot("index.js").
		Add("main", func(m *module.Module, exports *interop.Object, req, _ module.RequireFunc) module.Result {
			rec.add("main")
			return m.Async(func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				exports.Set("ready", true)
				return nil
			})
		}).
		Add("second", func(*module.Module, *interop.Object, module.RequireFunc, module.RequireFunc) module.Result {
			rec.add("second")
			return module.Done()
		})))
	sys.SetInitialLoadedResources([]string{"index.js", "vendor.js"})
	require.NoError(t, sys.SetDynamicModuleResourcesMap(
		[]resolver.Resource{{Path: "lazy.js"}},
		map[string][]int{"lazy": {0}},
	))
	sys.SetEntries("main", "second")

	assert.Empty(t, sys.ResourcesFor("lazy"))
	assert.False(t, sys.IsResourceLoaded("vendor.js"))

	require.NoError(t, sys.Bootstrap(ctx))
	assert.True(t, sys.Bootstrapped())
	assert.Equal(t, []string{"loaded:index.js", "bootstrap", "main", "initialized:main", "second", "initialized:second"}, rec.list())
	assert.Equal(t, []string{"index.js", "vendor.js"}, sys.LoadedResources())
	assert.Equal(t, []resolver.Resource{{Path: "lazy.js", Type: resolver.ScriptResource}}, sys.ResourcesFor("lazy"))
	assert.Equal(t, registry.Ready, sys.ModuleState("main"))

	require.ErrorIs(t, sys.Bootstrap(ctx), ErrAlreadyBootstrapped)
}

func TestBootstrap_Errors(t *testing.T) {
	t.Run("entry failure", func(t *testing.T) {
		ctx, _ := testutil.Context(t)
		sys := New(ctx, Options{})
		require.NoError(t, sys.Register("main", func(*module.Module, *interop.Object, module.RequireFunc, module.RequireFunc) module.Result {
			return module.Failure(errors.New("broken"))
		}))
		sys.SetEntries("main")
		err := sys.Bootstrap(ctx)
		require.ErrorIs(t, err, loader.ErrFactoryFailed)
		assert.Contains(t, err.Error(), "bootstrap entry 'main'")
	})

	t.Run("missing entry", func(t *testing.T) {
		ctx, _ := testutil.Context(t)
		sys := New(ctx, Options{})
		sys.SetEntries("ghost")
		require.ErrorIs(t, sys.Bootstrap(ctx), loader.ErrModuleNotFound)
	})

	t.Run("bootstrap hook", func(t *testing.T) {
		ctx, _ := testutil.Context(t)
		sys := New(ctx, Options{})
		sys.SetPlugins([]plugin.Plugin{failingBootstrap{}})
		var hookErr *plugin.HookError
		require.ErrorAs(t, sys.Bootstrap(ctx), &hookErr)
		assert.Equal(t, "failing", hookErr.Plugin)
	})

	t.Run("bad map", func(t *testing.T) {
		ctx, _ := testutil.Context(t)
		sys := New(ctx, Options{})
		err := sys.SetDynamicModuleResourcesMap(nil, map[string][]int{"m": {3}})
		require.Error(t, err)
	})
}

type rejectingPlugin struct {
	reject atomic.Bool
	calls  atomic.Int32
}

func (p *rejectingPlugin) Name() string { return "rejecting" }

func (p *rejectingPlugin) ResourceLoaded(context.Context, string) error {
	p.calls.Add(1)
	if p.reject.Load() {
		return errors.New("hook boom")
	}
	return nil
}

func TestRequire_ResourceHookFailureDiscardsPot(t *testing.T) {
	var fetches atomic.Int32
	fetcher := resolver.FetcherFunc(func(ctx context.Context, r resolver.Resource) (*resourcepot.Pot, error) {
		fetches.Add(1)
		return resourcepot.NewPot(r.Path).Add("M", testutil.ValueFactory("ok", true)), nil
	})

	ctx, _ := testutil.Context(t)
	sys := New(ctx, Options{Fetcher: fetcher})
	hook := &rejectingPlugin{}
	hook.reject.Store(true)
	sys.SetPlugins([]plugin.Plugin{hook})
	require.NoError(t, sys.SetDynamicModuleResourcesMap(
		[]resolver.Resource{{Path: "chunk-1"}},
		map[string][]int{"M": {0}},
	))
	require.NoError(t, sys.Bootstrap(ctx))

	_, err := sys.Require("M").Await(ctx)
	require.ErrorIs(t, err, resolver.ErrResourceLoad)
	var hookErr *plugin.HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "rejecting", hookErr.Plugin)
	assert.False(t, sys.IsResourceLoaded("chunk-1"))
	assert.Equal(t, registry.Unregistered, sys.ModuleState("M"))

	// The same failure repeats while the hook keeps rejecting.
	_, err = sys.Require("M").Await(ctx)
	require.ErrorIs(t, err, resolver.ErrResourceLoad)

	hook.reject.Store(false)
	v := awaitValue(t, sys.Require("M"))
	assert.Equal(t, true, v.(*interop.Object).Value("ok"))
	assert.True(t, sys.IsResourceLoaded("chunk-1"))
	assert.Equal(t, int32(3), fetches.Load())
	assert.Equal(t, int32(3), hook.calls.Load())
}

func TestRegisterPot_Idempotent(t *testing.T) {
	ctx, _ := testutil.Context(t)
	rec := &recorder{}
	sys := New(ctx, Options{})
	sys.SetPlugins([]plugin.Plugin{recordingPlugin{rec: rec}})

	pot := resourcepot.NewPot("chunk.js").Add("a", testutil.ValueFactory("v", 1))
	require.NoError(t, sys.RegisterPot(ctx, pot))
	require.NoError(t, sys.RegisterPot(ctx, pot))
	assert.Equal(t, []string{"loaded:chunk.js"}, rec.list())
	assert.Equal(t, []string{"a"}, sys.Modules())
}

func TestSystems_AreIndependent(t *testing.T) {
	ctx, _ := testutil.Context(t)
	one := New(ctx, Options{Namespace: "one"})
	two := New(ctx, Options{Namespace: "two"})
	require.NoError(t, one.Register("a", testutil.ValueFactory("v", 1)))

	_, err := two.Require("a").Value()
	require.ErrorIs(t, err, loader.ErrModuleNotFound)
	assert.Equal(t, 1, awaitValue(t, one.Require("a")).(*interop.Object).Value("v"))
}

func TestDynamicRequire_AlwaysPending(t *testing.T) {
	ctx, _ := testutil.Context(t)
	sys := New(ctx, Options{})
	require.NoError(t, sys.Register("a", testutil.ValueFactory("v", 1)))

	res := sys.DynamicRequire("a")
	require.True(t, res.IsPending())
	assert.Equal(t, 1, awaitValue(t, res).(*interop.Object).Value("v"))
}
