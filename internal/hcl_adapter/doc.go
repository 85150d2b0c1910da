// Package hcl_adapter loads runtime manifests written in HCL into the
// format-agnostic config.Manifest.
//
// A manifest may be split across several files; they are merged in path
// order:
//
//	namespace         = "app"
//	initial_resources = ["index.json"]
//	entries           = ["main"]
//	plugins           = ["trace"]
//
//	resource {
//	  path = "chunk-1.yaml"
//	}
//
//	dynamic_modules = {
//	  lazy = [0]              # index into the merged resource list
//	  page = ["chunk-1.yaml"] # or the resource path
//	}
//
//	fetcher {
//	  root = "./dist"
//	}
package hcl_adapter
