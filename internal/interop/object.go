package interop

import (
	"sync"
)

// DefaultKey is the export name that interop treats specially.
const DefaultKey = "default"

// Getter produces the current value of a live binding.
type Getter func() any

type binding struct {
	value any
	get   Getter
}

func (b binding) resolve() any {
	if b.get != nil {
		return b.get()
	}
	return b.value
}

// Object is a module's exports object. Keys keep insertion order. It is safe
// for concurrent use; getters are evaluated outside the lock.
type Object struct {
	mu       sync.RWMutex
	keys     []string
	bindings map[string]binding
	esModule bool
}

// NewObject returns an empty exports object.
func NewObject() *Object {
	return &Object{bindings: make(map[string]binding)}
}

// ObjectFrom builds an object from a plain map. Keys are added in sorted order
// so that the result does not depend on map iteration.
func ObjectFrom(values map[string]any) *Object {
	o := NewObject()
	for _, k := range sortedKeys(values) {
		o.Set(k, values[k])
	}
	return o
}

// Set stores a plain value, replacing any previous binding for key.
func (o *Object) Set(key string, value any) {
	o.put(key, binding{value: value})
}

// Define installs a live binding for key.
func (o *Object) Define(key string, get Getter) {
	if get == nil {
		panic("interop: Define called with nil getter")
	}
	o.put(key, binding{get: get})
}

func (o *Object) put(key string, b binding) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.bindings[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.bindings[key] = b
}

// Get returns the current value for key, evaluating a live binding.
func (o *Object) Get(key string) (any, bool) {
	o.mu.RLock()
	b, ok := o.bindings[key]
	o.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return b.resolve(), true
}

// Value is Get without the presence flag.
func (o *Object) Value(key string) any {
	v, _ := o.Get(key)
	return v
}

// Has reports whether key is an own property of the object.
func (o *Object) Has(key string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.bindings[key]
	return ok
}

// IsLive reports whether key is backed by a getter rather than a stored value.
func (o *Object) IsLive(key string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.bindings[key].get != nil
}

// Keys returns the own keys in insertion order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len is the number of own keys.
func (o *Object) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.keys)
}

// MarkESModule sets the module marker flag (the __esModule convention).
func (o *Object) MarkESModule() {
	o.mu.Lock()
	o.esModule = true
	o.mu.Unlock()
}

// IsESModule reports whether the module marker flag is set.
func (o *Object) IsESModule() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.esModule
}

// Snapshot evaluates every binding into a plain map. Nested objects are
// snapshotted recursively; a namespace whose default points back at its
// source is cut off after one level.
func (o *Object) Snapshot() map[string]any {
	return o.snapshot(make(map[*Object]bool))
}

func (o *Object) snapshot(seen map[*Object]bool) map[string]any {
	seen[o] = true
	defer delete(seen, o)

	out := make(map[string]any, o.Len())
	for _, k := range o.Keys() {
		v := o.Value(k)
		if nested, ok := v.(*Object); ok {
			if seen[nested] {
				continue
			}
			out[k] = nested.snapshot(seen)
			continue
		}
		out[k] = v
	}
	return out
}
