package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// decodeDynamicModules reads the dynamic_modules attribute. Each module maps to
// a list whose items are either resource indices or resource paths; the
// returned items are int or string accordingly.
func decodeDynamicModules(expr hcl.Expression) (map[string][]any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate dynamic_modules: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() || !(val.Type().IsObjectType() || val.Type().IsMapType()) {
		return nil, fmt.Errorf("dynamic_modules must be an object of lists, got %s", val.Type().FriendlyName())
	}

	out := make(map[string][]any, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		key, list := it.Element()
		id := key.AsString()
		items, err := decodeResourceRefs(list)
		if err != nil {
			return nil, fmt.Errorf("dynamic module '%s': %w", id, err)
		}
		out[id] = items
	}
	return out, nil
}

func decodeResourceRefs(list cty.Value) ([]any, error) {
	if list.IsNull() || !list.CanIterateElements() || list.Type().IsMapType() || list.Type().IsObjectType() {
		return nil, fmt.Errorf("expected a list of resource indices or paths, got %s", list.Type().FriendlyName())
	}

	var items []any
	for it := list.ElementIterator(); it.Next(); {
		_, el := it.Element()
		if el.IsNull() {
			return nil, fmt.Errorf("resource reference must not be null")
		}
		switch el.Type() {
		case cty.Number:
			var idx int
			if err := gocty.FromCtyValue(el, &idx); err != nil {
				return nil, fmt.Errorf("resource index: %w", err)
			}
			items = append(items, idx)
		default:
			str, err := convert.Convert(el, cty.String)
			if err != nil {
				return nil, fmt.Errorf("resource reference must be a number or a string, got %s", el.Type().FriendlyName())
			}
			items = append(items, str.AsString())
		}
	}
	return items, nil
}
