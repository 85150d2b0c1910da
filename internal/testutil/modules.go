package testutil

import (
	"sync"

	"github.com/specialistvlad/modrt/internal/interop"
	"github.com/specialistvlad/modrt/internal/module"
)

// CallCounter counts factory executions per module id.
type CallCounter struct {
	mu    sync.Mutex
	calls map[string]int
}

// NewCallCounter creates an empty counter.
func NewCallCounter() *CallCounter {
	return &CallCounter{calls: make(map[string]int)}
}

// Count returns how often id's factory ran.
func (c *CallCounter) Count(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[id]
}

// Wrap returns a factory that records a call and then delegates to f.
func (c *CallCounter) Wrap(f module.Factory) module.Factory {
	return func(m *module.Module, exports *interop.Object, require, dynamicRequire module.RequireFunc) module.Result {
		c.mu.Lock()
		c.calls[m.ID]++
		c.mu.Unlock()
		return f(m, exports, require, dynamicRequire)
	}
}

// ValueFactory returns a factory exporting {key: value}.
func ValueFactory(key string, value any) module.Factory {
	return func(_ *module.Module, exports *interop.Object, _, _ module.RequireFunc) module.Result {
		exports.Set(key, value)
		return module.Done()
	}
}
