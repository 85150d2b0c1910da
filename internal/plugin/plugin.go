// Package plugin is the runtime's hook bus: an ordered list of lifecycle
// observers invoked at fixed extension points.
//
// A plugin implements Plugin plus any subset of the hook interfaces. Hooks run
// in list order; the first error stops the remaining hooks and fails the
// operation that triggered them.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/modrt/internal/module"
)

// Plugin is the minimal capability every plugin has.
type Plugin interface {
	Name() string
}

// BootstrapHook runs once at the start of bootstrap.
type BootstrapHook interface {
	Bootstrap(ctx context.Context) error
}

// ModuleCreatedHook runs before a module's factory executes.
type ModuleCreatedHook interface {
	ModuleCreated(ctx context.Context, m *module.Module) error
}

// ModuleInitializedHook runs after a module's factory settles successfully.
type ModuleInitializedHook interface {
	ModuleInitialized(ctx context.Context, m *module.Module) error
}

// ResourceLoadedHook runs once a resource pot has been fetched, before its
// modules are registered. An error discards the pot.
type ResourceLoadedHook interface {
	ResourceLoaded(ctx context.Context, potID string) error
}

// HookError reports which plugin hook failed.
type HookError struct {
	Plugin string
	Hook   string
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("plugin '%s' %s hook: %v", e.Plugin, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// Bus holds the active plugin list.
type Bus struct {
	mu      sync.RWMutex
	plugins []Plugin
}

// NewBus returns a bus with no plugins.
func NewBus() *Bus {
	return &Bus{}
}

// Set replaces the plugin list wholesale.
func (b *Bus) Set(plugins []Plugin) {
	list := make([]Plugin, 0, len(plugins))
	for _, p := range plugins {
		if p != nil {
			list = append(list, p)
		}
	}
	b.mu.Lock()
	b.plugins = list
	b.mu.Unlock()
}

// Plugins returns the active list.
func (b *Bus) Plugins() []Plugin {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Plugin(nil), b.plugins...)
}

// Bootstrap invokes every BootstrapHook.
func (b *Bus) Bootstrap(ctx context.Context) error {
	for _, p := range b.Plugins() {
		if h, ok := p.(BootstrapHook); ok {
			if err := h.Bootstrap(ctx); err != nil {
				return &HookError{Plugin: p.Name(), Hook: "bootstrap", Err: err}
			}
		}
	}
	return nil
}

// ModuleCreated invokes every ModuleCreatedHook.
func (b *Bus) ModuleCreated(ctx context.Context, m *module.Module) error {
	for _, p := range b.Plugins() {
		if h, ok := p.(ModuleCreatedHook); ok {
			if err := h.ModuleCreated(ctx, m); err != nil {
				return &HookError{Plugin: p.Name(), Hook: "moduleCreated", Err: err}
			}
		}
	}
	return nil
}

// ModuleInitialized invokes every ModuleInitializedHook.
func (b *Bus) ModuleInitialized(ctx context.Context, m *module.Module) error {
	for _, p := range b.Plugins() {
		if h, ok := p.(ModuleInitializedHook); ok {
			if err := h.ModuleInitialized(ctx, m); err != nil {
				return &HookError{Plugin: p.Name(), Hook: "moduleInitialized", Err: err}
			}
		}
	}
	return nil
}

// ResourceLoaded invokes every ResourceLoadedHook.
func (b *Bus) ResourceLoaded(ctx context.Context, potID string) error {
	for _, p := range b.Plugins() {
		if h, ok := p.(ResourceLoadedHook); ok {
			if err := h.ResourceLoaded(ctx, potID); err != nil {
				return &HookError{Plugin: p.Name(), Hook: "resourceLoaded", Err: err}
			}
		}
	}
	return nil
}
