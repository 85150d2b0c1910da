package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/modrt/internal/config"
	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/fsutil"
	"github.com/specialistvlad/modrt/internal/resolver"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// pendingRefs holds dynamic_modules entries that name resources by path; they
// are resolved once every file's resource blocks are known.
type pendingRefs map[string][]any

// Load parses every .hcl file under paths and merges them into one manifest.
// Later files override namespace; list attributes and blocks accumulate.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl manifest files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	manifest := &config.Manifest{DynamicModules: make(map[string][]int)}
	refs := pendingRefs{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if err := merge(manifest, refs, file, &root); err != nil {
			return nil, fmt.Errorf("manifest file %s: %w", file, err)
		}
	}

	if err := refs.resolve(manifest); err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.",
		"namespace", manifest.Namespace,
		"initial_resources", len(manifest.InitialResources),
		"entries", len(manifest.Entries),
		"resources", len(manifest.Resources),
		"dynamic_modules", len(manifest.DynamicModules),
	)
	return manifest, nil
}

func merge(m *config.Manifest, refs pendingRefs, file string, root *fileRoot) error {
	if root.Namespace != nil {
		m.Namespace = *root.Namespace
	}
	m.InitialResources = append(m.InitialResources, root.InitialResources...)
	m.Entries = append(m.Entries, root.Entries...)
	m.Plugins = append(m.Plugins, root.Plugins...)

	for _, r := range root.Resources {
		res := resolver.Resource{Path: r.Path}
		if r.Type != nil {
			res.Type = resolver.ResourceType(*r.Type)
		}
		m.Resources = append(m.Resources, res)
	}

	for _, f := range root.Fetchers {
		if m.Fetcher != nil {
			return errors.New("only one fetcher block is allowed")
		}
		m.Fetcher = translateFetcher(file, f)
	}

	modules, err := decodeDynamicModules(root.DynamicModules)
	if err != nil {
		return err
	}
	for id, items := range modules {
		if _, ok := refs[id]; ok {
			return fmt.Errorf("dynamic module '%s' is declared twice", id)
		}
		refs[id] = items
	}
	return nil
}

// translateFetcher resolves a relative root against the directory of the file
// declaring it.
func translateFetcher(file string, f *fetcherBlock) *config.Fetcher {
	out := &config.Fetcher{}
	if f.Root != nil && *f.Root != "" {
		out.Root = *f.Root
		if !filepath.IsAbs(out.Root) {
			out.Root = filepath.Join(filepath.Dir(file), out.Root)
		}
	}
	if f.BaseURL != nil {
		out.BaseURL = *f.BaseURL
	}
	if f.TimeoutMS != nil {
		out.Timeout = time.Duration(*f.TimeoutMS) * time.Millisecond
	}
	return out
}

// resolve turns every reference into an index of the merged resource list.
func (refs pendingRefs) resolve(m *config.Manifest) error {
	byPath := make(map[string]int, len(m.Resources))
	for i, r := range m.Resources {
		if _, ok := byPath[r.Path]; !ok {
			byPath[r.Path] = i
		}
	}
	for id, items := range refs {
		indices := make([]int, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case int:
				indices = append(indices, v)
			case string:
				idx, ok := byPath[v]
				if !ok {
					return fmt.Errorf("dynamic module '%s' references unknown resource '%s'", id, v)
				}
				indices = append(indices, idx)
			}
		}
		m.DynamicModules[id] = indices
	}
	return nil
}
