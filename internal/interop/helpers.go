package interop

import (
	"sort"
	"sync"
)

// WrapDefault returns v unchanged when it is an ES-marked Object; anything
// else is wrapped as {default: v}.
func WrapDefault(v any) any {
	if o, ok := v.(*Object); ok && o != nil && o.IsESModule() {
		return o
	}
	wrapped := NewObject()
	wrapped.Set(DefaultKey, v)
	return wrapped
}

// ReExportAll copies every key of from onto to as a live binding, skipping
// "default" and keys already present on to. It returns from.
func ReExportAll(from, to *Object) *Object {
	for _, k := range from.Keys() {
		if k == DefaultKey || to.Has(k) {
			continue
		}
		key := k
		to.Define(key, func() any { return from.Value(key) })
	}
	return from
}

// Namespacer builds namespace objects for wildcard imports and remembers them
// by source identity, one cache per interop flavour, so that every import site
// of the same module sees the same namespace.
type Namespacer struct {
	mu    sync.Mutex
	babel map[*Object]*Object
	node  map[*Object]*Object
}

// NewNamespacer returns a Namespacer with empty caches.
func NewNamespacer() *Namespacer {
	return &Namespacer{
		babel: make(map[*Object]*Object),
		node:  make(map[*Object]*Object),
	}
}

// Wrap returns the namespace object for v. With preferNode unset an ES-marked
// object is returned as is. Values that are not Objects (primitives, funcs,
// nil) become {default: v} and are not cached.
func (n *Namespacer) Wrap(v any, preferNode bool) any {
	src, ok := v.(*Object)
	if !ok || src == nil {
		wrapped := NewObject()
		wrapped.Set(DefaultKey, v)
		return wrapped
	}
	if !preferNode && src.IsESModule() {
		return src
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	cache := n.babel
	if preferNode {
		cache = n.node
	}
	if ns, ok := cache[src]; ok {
		return ns
	}

	ns := NewObject()
	for _, k := range src.Keys() {
		if k == DefaultKey {
			continue
		}
		key := k
		ns.Define(key, func() any { return src.Value(key) })
	}
	ns.Set(DefaultKey, src)
	cache[src] = ns
	return ns
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
