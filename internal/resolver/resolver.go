package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/future"
	"github.com/specialistvlad/modrt/internal/resourcepot"
	"golang.org/x/sync/singleflight"
)

// ErrResourceLoad marks a failed chunk fetch or install.
var ErrResourceLoad = errors.New("resource load failed")

// ResourceError reports which resource failed to load.
type ResourceError struct {
	Resource Resource
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("loading resource '%s': %v", e.Resource.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrResourceLoad) hold.
func (e *ResourceError) Is(target error) bool { return target == ErrResourceLoad }

// Fetcher retrieves a resource and returns the pot it carries. A Fetcher does
// not register anything itself.
type Fetcher interface {
	Fetch(ctx context.Context, r Resource) (*resourcepot.Pot, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, r Resource) (*resourcepot.Pot, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, r Resource) (*resourcepot.Pot, error) {
	return f(ctx, r)
}

// Installer registers a fetched pot's modules and marks the pot loaded.
type Installer func(ctx context.Context, pot *resourcepot.Pot) error

// Resolver loads dynamic resources on demand.
type Resolver struct {
	tracker *resourcepot.Tracker
	fetcher Fetcher
	install Installer
	mapping atomic.Pointer[Map]
	group   singleflight.Group
}

// New creates a Resolver. install is called after every successful fetch; it
// is expected to mark the pot loaded on tracker.
func New(tracker *resourcepot.Tracker, fetcher Fetcher, install Installer) *Resolver {
	r := &Resolver{tracker: tracker, fetcher: fetcher, install: install}
	r.mapping.Store(EmptyMap())
	return r
}

// SetMap installs the dynamic resource map.
func (r *Resolver) SetMap(m *Map) {
	if m == nil {
		m = EmptyMap()
	}
	r.mapping.Store(m)
}

// Map returns the installed map.
func (r *Resolver) Map() *Map {
	return r.mapping.Load()
}

// ResourcesFor returns the resources id needs, in load order.
func (r *Resolver) ResourcesFor(id string) []Resource {
	return r.mapping.Load().ResourcesFor(id)
}

// EnsureLoaded returns a future that settles once res is loaded. An already
// loaded resource yields a settled future.
func (r *Resolver) EnsureLoaded(ctx context.Context, res Resource) *future.Future {
	if r.tracker.IsLoaded(res.Path) {
		return future.Resolved(nil)
	}
	ctx = context.WithoutCancel(ctx)
	return future.Go(ctx, func(ctx context.Context) (any, error) {
		return nil, r.Load(ctx, res)
	})
}

// Load blocks until res is loaded, sharing one fetch among concurrent callers.
func (r *Resolver) Load(ctx context.Context, res Resource) error {
	logger := ctxlog.FromContext(ctx).With("resource", res.Path)
	if r.tracker.IsLoaded(res.Path) {
		return nil
	}

	_, err, shared := r.group.Do(res.Path, func() (any, error) {
		// A flight that finished between the check above and Do has already
		// installed the pot.
		if r.tracker.IsLoaded(res.Path) {
			return nil, nil
		}
		if r.fetcher == nil {
			return nil, &ResourceError{Resource: res, Err: errors.New("no fetcher configured")}
		}
		logger.Debug("Fetching resource pot.", "type", res.Type)
		pot, err := r.fetcher.Fetch(ctx, res)
		if err != nil {
			return nil, &ResourceError{Resource: res, Err: err}
		}
		if pot == nil {
			pot = resourcepot.NewPot(res.Path)
		}
		if pot.ID != res.Path {
			if pot.ID != "" {
				logger.Debug("Resource pot id differs from its path, tracking by path.", "pot_id", pot.ID)
			}
			pot.ID = res.Path
		}
		if err := r.install(ctx, pot); err != nil {
			return nil, &ResourceError{Resource: res, Err: err}
		}
		logger.Debug("Resource pot loaded.", "modules", len(pot.Modules))
		return nil, nil
	})
	if shared {
		logger.Debug("Resource pot load was shared with a concurrent request.")
	}
	return err
}

// LoadAll loads resources one after another, stopping at the first failure.
func (r *Resolver) LoadAll(ctx context.Context, resources []Resource) error {
	for _, res := range resources {
		if err := r.Load(ctx, res); err != nil {
			return err
		}
	}
	return nil
}
