package chunk

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/modrt/internal/interop"
	"github.com/specialistvlad/modrt/internal/module"
	"github.com/specialistvlad/modrt/internal/resourcepot"
)

// Build turns a manifest into a pot, resolving factory references in table.
func Build(m *Manifest, table *Table) (*resourcepot.Pot, error) {
	pot := resourcepot.NewPot(m.ID)
	for _, spec := range m.Modules {
		factory, err := factoryFor(spec, table)
		if err != nil {
			return nil, fmt.Errorf("resource pot '%s': %w", m.ID, err)
		}
		pot.Add(spec.ID, factory)
	}
	return pot, nil
}

func factoryFor(spec ModuleSpec, table *Table) (module.Factory, error) {
	if spec.Factory == "" {
		return DataFactory(spec.Data, spec.ESModule), nil
	}
	if table == nil {
		return nil, fmt.Errorf("module '%s' references factory '%s' but no factory table is configured", spec.ID, spec.Factory)
	}
	construct, ok := table.Lookup(spec.Factory)
	if !ok {
		return nil, fmt.Errorf("module '%s' references unknown factory '%s'", spec.ID, spec.Factory)
	}
	factory, err := construct(spec.Options)
	if err != nil {
		return nil, fmt.Errorf("module '%s': building factory '%s': %w", spec.ID, spec.Factory, err)
	}
	return factory, nil
}

// DataFactory returns a factory whose exports are data. Maps become exports
// objects (nested maps included); any other value replaces module.exports.
func DataFactory(data any, esModule bool) module.Factory {
	return func(m *module.Module, exports *interop.Object, _, _ module.RequireFunc) module.Result {
		if esModule {
			exports.MarkESModule()
		}
		values, ok := normalize(data).(map[string]any)
		if !ok {
			if data != nil {
				m.SetExports(normalize(data))
			}
			return module.Done()
		}
		for _, k := range sortedKeys(values) {
			exports.Set(k, toObject(values[k]))
		}
		return module.Done()
	}
}

func toObject(v any) any {
	if nested, ok := v.(map[string]any); ok {
		o := interop.NewObject()
		for _, k := range sortedKeys(nested) {
			o.Set(k, toObject(nested[k]))
		}
		return o
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = toObject(item)
		}
		return out
	}
	return v
}

// normalize folds decoder-specific shapes into map[string]any, []any and
// plain scalars. json.Number becomes int64 when integral, float64 otherwise.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case int:
		return int64(val)
	default:
		return v
	}
}
