package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/modrt/internal/resolver"
	"github.com/specialistvlad/modrt/internal/resourcepot"
)

// Catalog serves pots that are already in memory, keyed by resource path.
type Catalog struct {
	mu   sync.RWMutex
	pots map[string]*resourcepot.Pot
}

// NewCatalog builds a catalog from pots, keyed by their ids.
func NewCatalog(pots ...*resourcepot.Pot) *Catalog {
	c := &Catalog{pots: make(map[string]*resourcepot.Pot, len(pots))}
	for _, p := range pots {
		c.Add(p)
	}
	return c
}

// Add makes pot available under its id.
func (c *Catalog) Add(pot *resourcepot.Pot) {
	c.mu.Lock()
	c.pots[pot.ID] = pot
	c.mu.Unlock()
}

// Fetch implements resolver.Fetcher.
func (c *Catalog) Fetch(ctx context.Context, r resolver.Resource) (*resourcepot.Pot, error) {
	c.mu.RLock()
	pot, ok := c.pots[r.Path]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("resource '%s' is not in the catalog", r.Path)
	}
	return pot, nil
}
