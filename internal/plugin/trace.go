package plugin

import (
	"context"

	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/module"
)

// Trace logs every hook at debug level. It never fails.
type Trace struct{}

// NewTrace returns the trace plugin.
func NewTrace() *Trace { return &Trace{} }

func (*Trace) Name() string { return "trace" }

func (*Trace) Bootstrap(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("trace: bootstrap")
	return nil
}

func (*Trace) ModuleCreated(ctx context.Context, m *module.Module) error {
	ctxlog.FromContext(ctx).Debug("trace: module created", "module", m.ID, "resource_pot", m.ResourcePot)
	return nil
}

func (*Trace) ModuleInitialized(ctx context.Context, m *module.Module) error {
	ctxlog.FromContext(ctx).Debug("trace: module initialized", "module", m.ID)
	return nil
}

func (*Trace) ResourceLoaded(ctx context.Context, potID string) error {
	ctxlog.FromContext(ctx).Debug("trace: resource loaded", "resource_pot", potID)
	return nil
}

// ByName returns the built-in plugin with the given name.
func ByName(name string) (Plugin, bool) {
	switch name {
	case "trace":
		return NewTrace(), true
	default:
		return nil, false
	}
}
