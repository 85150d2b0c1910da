// Package delay provides the "delay" factory: an asynchronous module that
// waits before attaching its exports, the Go form of a module using top-level
// await.
package delay

import (
	"context"
	"time"

	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/interop"
	"github.com/specialistvlad/modrt/internal/module"
)

// Module implements the chunk.Provider interface for this package.
type Module struct{}

func newFactory(options map[string]any) (module.Factory, error) {
	opts := chunk.Options(options)
	wait, err := opts.Duration("ms", 0)
	if err != nil {
		return nil, err
	}
	value := opts.Value("value")

	return func(m *module.Module, exports *interop.Object, _, _ module.RequireFunc) module.Result {
		return m.Async(func(ctx context.Context) error {
			ctxlog.FromContext(ctx).Debug("Delaying module exports.", "delay", wait)
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
			exports.Set("value", value)
			exports.Set("waited_ms", wait.Milliseconds())
			return nil
		})
	}, nil
}

// Register registers the factory with the table.
func (m *Module) Register(t *chunk.Table) {
	t.Register("delay", newFactory)
}
