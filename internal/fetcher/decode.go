package fetcher

import (
	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/internal/resolver"
	"github.com/specialistvlad/modrt/internal/resourcepot"
)

// decodePot turns fetched bytes into a pot. Stylesheets carry no modules.
func decodePot(r resolver.Resource, data []byte, table *chunk.Table) (*resourcepot.Pot, error) {
	if r.Type == resolver.CSSResource {
		return resourcepot.NewPot(r.Path), nil
	}
	m, err := chunk.DecodeFile(r.Path, data)
	if err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = r.Path
	}
	return chunk.Build(m, table)
}
