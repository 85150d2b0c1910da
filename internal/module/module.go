// Package module defines the factory calling convention shared by the
// registry, the loader and every factory: the Module handle a factory
// receives, the Factory signature and the tagged Result it returns.
package module

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/modrt/internal/future"
	"github.com/specialistvlad/modrt/internal/interop"
)

// RequireFunc resolves a module id from inside a factory.
type RequireFunc func(id string) Result

// Factory produces a module's exports. exports is the same object that
// m.Exports() returns until the factory calls m.SetExports. Returning
// Immediate means the module is ready when the call returns; the carried value
// is ignored, exports are read from m. Returning Pending (usually via m.Async)
// makes the module asynchronous.
type Factory func(m *Module, exports *interop.Object, require, dynamicRequire RequireFunc) Result

// Module is the handle passed to a factory.
type Module struct {
	ID          string
	ResourcePot string

	ctx     context.Context
	mu      sync.RWMutex
	object  *interop.Object
	exports any
	async   atomic.Bool
}

// New returns a module with a fresh exports object. ctx is the context that
// Async bodies run with.
func New(ctx context.Context, id, resourcePot string) *Module {
	obj := interop.NewObject()
	return &Module{
		ID:          id,
		ResourcePot: resourcePot,
		ctx:         ctx,
		object:      obj,
		exports:     obj,
	}
}

// Exports returns module.exports as it currently stands.
func (m *Module) Exports() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exports
}

// SetExports replaces module.exports, the "module.exports = value" style.
func (m *Module) SetExports(v any) {
	m.mu.Lock()
	m.exports = v
	m.mu.Unlock()
}

// Object returns the exports object created for the module, regardless of
// later SetExports calls.
func (m *Module) Object() *interop.Object {
	return m.object
}

// Context returns the context the module executes under.
func (m *Module) Context() context.Context {
	return m.ctx
}

// IsAsync reports whether Async was called. It is set before the body
// starts, so code the body reaches already sees it.
func (m *Module) IsAsync() bool {
	return m.async.Load()
}

// Async runs body on its own goroutine and returns the Pending result the
// factory should return. Awaiting other modules inside body is what makes this
// module asynchronous to its callers.
func (m *Module) Async(body func(ctx context.Context) error) Result {
	m.async.Store(true)
	return Pending(future.Go(m.ctx, func(ctx context.Context) (any, error) {
		if err := body(ctx); err != nil {
			return nil, err
		}
		return m.Exports(), nil
	}))
}
