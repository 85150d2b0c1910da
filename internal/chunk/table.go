package chunk

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/specialistvlad/modrt/internal/module"
)

// Constructor builds a factory from a manifest entry's options.
type Constructor func(options map[string]any) (module.Factory, error)

// Provider contributes constructors to a Table.
type Provider interface {
	Register(t *Table)
}

// Table maps factory names used in manifests to compiled constructors.
type Table struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{constructors: make(map[string]Constructor)}
}

// Register adds a constructor. Registering a name twice is a programmer
// error and panics.
func (t *Table) Register(name string, c Constructor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.constructors[name]; exists {
		panic(fmt.Sprintf("factory with name '%s' already registered", name))
	}
	slog.Debug("Registering factory constructor.", "name", name)
	t.constructors[name] = c
}

// Lookup returns the constructor for name.
func (t *Table) Lookup(name string) (Constructor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.constructors[name]
	return c, ok
}

// Names lists registered names, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.constructors))
	for name := range t.constructors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
