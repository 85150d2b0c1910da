package app

import (
	"io"

	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/modules/delay"
	"github.com/specialistvlad/modrt/modules/env_vars"
	"github.com/specialistvlad/modrt/modules/print"
)

// coreModules is the definitive list of factories compiled into the modrt
// binary. print writes to outW.
func coreModules(outW io.Writer) []chunk.Provider {
	return []chunk.Provider{
		&env_vars.Module{},
		&delay.Module{},
		&print.Module{Out: outW},
	}
}
