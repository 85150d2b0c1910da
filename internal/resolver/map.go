package resolver

import (
	"fmt"
	"sort"
)

// ResourceType is the kind of a dynamic resource.
type ResourceType string

const (
	ScriptResource ResourceType = "script"
	CSSResource    ResourceType = "css"
)

// Resource is one loadable chunk. Path doubles as the resource pot id.
type Resource struct {
	Path string
	Type ResourceType
}

// Map is the static table from module id to the resources it needs.
type Map struct {
	resources []Resource
	modules   map[string][]int
}

// NewMap validates and copies the compiler-provided tables.
func NewMap(resources []Resource, moduleResources map[string][]int) (*Map, error) {
	m := &Map{
		resources: make([]Resource, len(resources)),
		modules:   make(map[string][]int, len(moduleResources)),
	}
	for i, r := range resources {
		if r.Path == "" {
			return nil, fmt.Errorf("dynamic resource %d has an empty path", i)
		}
		switch r.Type {
		case "":
			r.Type = ScriptResource
		case ScriptResource, CSSResource:
		default:
			return nil, fmt.Errorf("dynamic resource '%s' has unknown type '%s'", r.Path, r.Type)
		}
		m.resources[i] = r
	}
	for id, indices := range moduleResources {
		for _, idx := range indices {
			if idx < 0 || idx >= len(resources) {
				return nil, fmt.Errorf("module '%s' references resource index %d, but only %d resources exist", id, idx, len(resources))
			}
		}
		m.modules[id] = append([]int(nil), indices...)
	}
	return m, nil
}

// EmptyMap is a map with no dynamic modules.
func EmptyMap() *Map {
	return &Map{modules: map[string][]int{}}
}

// ResourcesFor returns the resources id needs, in load order. It is empty for
// modules that were part of the initial bundle.
func (m *Map) ResourcesFor(id string) []Resource {
	if m == nil {
		return nil
	}
	indices := m.modules[id]
	out := make([]Resource, 0, len(indices))
	for _, idx := range indices {
		out = append(out, m.resources[idx])
	}
	return out
}

// PotIDs is ResourcesFor reduced to pot ids.
func (m *Map) PotIDs(id string) []string {
	resources := m.ResourcesFor(id)
	ids := make([]string, len(resources))
	for i, r := range resources {
		ids[i] = r.Path
	}
	return ids
}

// Modules lists the module ids with dynamic resources, sorted.
func (m *Map) Modules() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, 0, len(m.modules))
	for id := range m.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resources returns a copy of the resource list.
func (m *Map) Resources() []Resource {
	if m == nil {
		return nil
	}
	return append([]Resource(nil), m.resources...)
}
