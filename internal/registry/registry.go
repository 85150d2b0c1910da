package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/modrt/internal/future"
	"github.com/specialistvlad/modrt/internal/module"
)

// ErrDuplicateRegistration is returned when an id is registered twice.
var ErrDuplicateRegistration = errors.New("duplicate module registration")

// State is the execution state of a module record.
type State int

const (
	Unregistered State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type record struct {
	id          string
	resourcePot string
	factory     module.Factory
	state       State
	module      *module.Module
	exports     any
	err         error
	done        *future.Future
	async       bool
}

// View is a point-in-time copy of a record.
type View struct {
	ID          string
	ResourcePot string
	Factory     module.Factory
	State       State
	Module      *module.Module
	Exports     any
	Err         error
	// Done settles when execution completes; nil before execution begins.
	Done *future.Future
	// Async is set once the factory returned a pending result.
	Async bool
}

func (r *record) view() View {
	return View{
		ID:          r.id,
		ResourcePot: r.resourcePot,
		Factory:     r.factory,
		State:       r.state,
		Module:      r.module,
		Exports:     r.exports,
		Err:         r.err,
		Done:        r.done,
		Async:       r.async,
	}
}

// Registry holds every module record of one module system.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*record
	order   []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{records: make(map[string]*record)}
}

// Register adds a record for id in the Unregistered state. An existing record
// is never replaced, whatever its state.
func (r *Registry) Register(id, resourcePot string, factory module.Factory) error {
	if factory == nil {
		return fmt.Errorf("module '%s': nil factory", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, exists := r.records[id]; exists {
		return fmt.Errorf("module '%s' already registered from resource pot '%s': %w", id, existing.resourcePot, ErrDuplicateRegistration)
	}
	r.records[id] = &record{id: id, resourcePot: resourcePot, factory: factory}
	r.order = append(r.order, id)
	return nil
}

// View returns a copy of the record for id.
func (r *Registry) View(id string) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return View{}, false
	}
	return rec.view(), true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok
}

// Begin moves an Unregistered record to Loading, creating its Module with
// newModule and its in-flight future. started is false when the record was
// already past Unregistered; the returned view then describes its state.
func (r *Registry) Begin(id string, newModule func(resourcePot string) *module.Module) (v View, started bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return View{}, false, false
	}
	if rec.state != Unregistered {
		return rec.view(), false, true
	}
	rec.state = Loading
	rec.module = newModule(rec.resourcePot)
	rec.exports = rec.module.Exports()
	rec.done = future.New()
	return rec.view(), true, true
}

// MarkAsync records that the factory for id returned a pending result.
func (r *Registry) MarkAsync(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok && rec.state == Loading {
		rec.async = true
	}
}

// Complete moves a Loading record to Ready with the given exports.
func (r *Registry) Complete(id string, exports any) error {
	r.mu.Lock()
	rec, err := r.loading(id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	rec.state = Ready
	rec.exports = exports
	done := rec.done
	r.mu.Unlock()

	done.Resolve(exports)
	return nil
}

// Fail moves a Loading record to Failed.
func (r *Registry) Fail(id string, cause error) error {
	r.mu.Lock()
	rec, err := r.loading(id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	rec.state = Failed
	rec.err = cause
	done := rec.done
	r.mu.Unlock()

	done.Reject(cause)
	return nil
}

func (r *Registry) loading(id string) (*record, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("module '%s' is not registered", id)
	}
	if rec.state != Loading {
		return nil, fmt.Errorf("module '%s' is %s, not loading", id, rec.state)
	}
	return rec, nil
}

// IDs returns every registered id in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ModulesFrom returns the ids registered from the given resource pot.
func (r *Registry) ModulesFrom(resourcePot string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, id := range r.order {
		if r.records[id].resourcePot == resourcePot {
			out = append(out, id)
		}
	}
	return out
}

// Len is the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
