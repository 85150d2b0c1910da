// Package env_vars provides the "env_vars" factory: a module whose exports are
// the process environment variables, optionally filtered by prefix.
package env_vars

import (
	"os"
	"sort"
	"strings"

	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/internal/interop"
	"github.com/specialistvlad/modrt/internal/module"
)

// Module implements the chunk.Provider interface for this package.
type Module struct{}

// Options:
//
//	prefix       only variables starting with it are exported
//	trim_prefix  strip prefix from the exported keys
func newFactory(options map[string]any) (module.Factory, error) {
	opts := chunk.Options(options)
	prefix, err := opts.String("prefix", "")
	if err != nil {
		return nil, err
	}
	trim, err := opts.String("trim_prefix", "")
	if err != nil {
		return nil, err
	}

	return func(_ *module.Module, exports *interop.Object, _, _ module.RequireFunc) module.Result {
		for _, kv := range Lookup(prefix) {
			exports.Set(strings.TrimPrefix(kv[0], trim), kv[1])
		}
		return module.Done()
	}, nil
}

// Lookup returns name/value pairs of the environment variables starting with
// prefix, sorted by name.
func Lookup(prefix string) [][2]string {
	var out [][2]string
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 && strings.HasPrefix(pair[0], prefix) {
			out = append(out, [2]string{pair[0], pair[1]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Register registers the factory with the table.
func (m *Module) Register(t *chunk.Table) {
	t.Register("env_vars", newFactory)
}
