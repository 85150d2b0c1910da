// Package resourcepot tracks resource pots (chunks): which ones have been
// loaded into the host and which modules each of them carries.
package resourcepot

import (
	"sync"

	"github.com/specialistvlad/modrt/internal/module"
)

// Entry is one module registration inside a pot.
type Entry struct {
	ID      string
	Factory module.Factory
}

// Pot is a deliverable chunk of module registrations.
type Pot struct {
	ID      string
	Modules []Entry
}

// NewPot builds a pot from entries, keeping their order.
func NewPot(id string, entries ...Entry) *Pot {
	return &Pot{ID: id, Modules: entries}
}

// Add appends a module registration and returns the pot.
func (p *Pot) Add(id string, factory module.Factory) *Pot {
	p.Modules = append(p.Modules, Entry{ID: id, Factory: factory})
	return p
}

// ModuleIDs lists the ids carried by the pot.
func (p *Pot) ModuleIDs() []string {
	ids := make([]string, len(p.Modules))
	for i, e := range p.Modules {
		ids[i] = e.ID
	}
	return ids
}

// Tracker records which pots are loaded.
type Tracker struct {
	mu     sync.RWMutex
	loaded map[string]struct{}
	order  []string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{loaded: make(map[string]struct{})}
}

// MarkLoaded flags id as loaded. It reports whether id was newly marked.
func (t *Tracker) MarkLoaded(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.loaded[id]; ok {
		return false
	}
	t.loaded[id] = struct{}{}
	t.order = append(t.order, id)
	return true
}

// IsLoaded reports whether id has been loaded.
func (t *Tracker) IsLoaded(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.loaded[id]
	return ok
}

// Loaded returns loaded pot ids in load order.
func (t *Tracker) Loaded() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
