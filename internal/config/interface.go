package config

import "context"

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Load reads and merges the manifest files found under paths.
	Load(ctx context.Context, paths ...string) (*Manifest, error)
}
