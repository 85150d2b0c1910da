package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/modrt/internal/resolver"
)

// Manifest is the merged runtime manifest.
type Manifest struct {
	Namespace        string
	InitialResources []string
	Entries          []string
	// Resources is the dynamic resource list; DynamicModules indexes into it.
	Resources      []resolver.Resource
	DynamicModules map[string][]int
	Fetcher        *Fetcher
	Plugins        []string
}

// Fetcher says where chunks come from. Exactly one of Root and BaseURL is set.
type Fetcher struct {
	Root    string
	BaseURL string
	Timeout time.Duration
}

// Validate checks the manifest for internal consistency.
func (m *Manifest) Validate() error {
	if m.Fetcher != nil {
		if (m.Fetcher.Root == "") == (m.Fetcher.BaseURL == "") {
			return errors.New("fetcher must set exactly one of 'root' and 'base_url'")
		}
		if m.Fetcher.Timeout < 0 {
			return errors.New("fetcher timeout must not be negative")
		}
	}
	if _, err := resolver.NewMap(m.Resources, m.DynamicModules); err != nil {
		return fmt.Errorf("invalid dynamic_modules: %w", err)
	}
	seen := make(map[string]bool, len(m.Entries))
	for _, id := range m.Entries {
		if id == "" {
			return errors.New("entries must not contain an empty module id")
		}
		if seen[id] {
			return fmt.Errorf("entry '%s' is listed twice", id)
		}
		seen[id] = true
	}
	return nil
}
