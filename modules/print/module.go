// Package print provides the "print" factory: a module that requires other
// modules and writes their exports out once they are all ready.
package print

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/interop"
	"github.com/specialistvlad/modrt/internal/module"
)

// Module implements the chunk.Provider interface for this package.
type Module struct {
	// Out receives the printed lines; os.Stdout when nil.
	Out io.Writer
}

// Register registers the factory with the table.
func (p *Module) Register(t *chunk.Table) {
	t.Register("print", p.newFactory)
}

func (p *Module) writer() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

// Options:
//
//	require  module ids to print, in order
//	label    prefix for every printed line
func (p *Module) newFactory(options map[string]any) (module.Factory, error) {
	opts := chunk.Options(options)
	ids, err := opts.Strings("require")
	if err != nil {
		return nil, err
	}
	label, err := opts.String("label", "")
	if err != nil {
		return nil, err
	}

	return func(m *module.Module, exports *interop.Object, require, _ module.RequireFunc) module.Result {
		results := make([]module.Result, len(ids))
		pending := false
		for i, id := range ids {
			results[i] = require(id)
			pending = pending || results[i].IsPending()
		}

		emit := func(ctx context.Context) error {
			logger := ctxlog.FromContext(ctx)
			for i, res := range results {
				v, err := res.Await(ctx)
				if err != nil {
					return fmt.Errorf("print '%s': %w", ids[i], err)
				}
				line, err := json.Marshal(Plain(v))
				if err != nil {
					return fmt.Errorf("print '%s': %w", ids[i], err)
				}
				logger.Info("Printing module exports.", "target", ids[i])
				fmt.Fprintf(p.writer(), "%s%s = %s\n", label, ids[i], line)
			}
			exports.Set("printed", append([]string(nil), ids...))
			return nil
		}

		if !pending {
			if err := emit(m.Context()); err != nil {
				return module.Failure(err)
			}
			return module.Done()
		}
		return m.Async(emit)
	}, nil
}

// Plain turns exports objects into maps so they can be serialized.
func Plain(v any) any {
	if obj, ok := v.(*interop.Object); ok {
		return obj.Snapshot()
	}
	return v
}
