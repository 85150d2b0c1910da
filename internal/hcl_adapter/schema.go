package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes the top level of any manifest file. Unknown attributes and
// blocks are decode errors, so a misspelt name never goes unnoticed.
type fileRoot struct {
	Namespace        *string          `hcl:"namespace,optional"`
	InitialResources []string         `hcl:"initial_resources,optional"`
	Entries          []string         `hcl:"entries,optional"`
	Plugins          []string         `hcl:"plugins,optional"`
	DynamicModules   hcl.Expression   `hcl:"dynamic_modules,optional"`
	Resources        []*resourceBlock `hcl:"resource,block"`
	Fetchers         []*fetcherBlock  `hcl:"fetcher,block"`
}

type resourceBlock struct {
	Path string  `hcl:"path"`
	Type *string `hcl:"type,optional"`
}

type fetcherBlock struct {
	Root      *string `hcl:"root,optional"`
	BaseURL   *string `hcl:"base_url,optional"`
	TimeoutMS *int64  `hcl:"timeout_ms,optional"`
}
