package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/resolver"
	"github.com/specialistvlad/modrt/internal/resourcepot"
)

// Dir reads manifests from files under a root directory.
type Dir struct {
	root  string
	table *chunk.Table
}

// NewDir returns a fetcher rooted at root.
func NewDir(root string, table *chunk.Table) *Dir {
	return &Dir{root: root, table: table}
}

// Fetch implements resolver.Fetcher.
func (d *Dir) Fetch(ctx context.Context, r resolver.Resource) (*resourcepot.Pot, error) {
	p, err := d.resolve(r.Path)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Reading resource pot from disk.", "file", p)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return decodePot(r, data, d.table)
}

// resolve keeps resource paths inside root.
func (d *Dir) resolve(resourcePath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(resourcePath, "/")))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("resource '%s' escapes the resource root", resourcePath)
	}
	return filepath.Join(d.root, clean), nil
}
