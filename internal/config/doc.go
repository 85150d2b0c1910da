// Package config defines the format-agnostic runtime manifest: which chunks
// the host embeds up front, which chunks code-split modules need, the entry
// modules to bootstrap, where chunks are fetched from and which plugins run.
//
// Concrete loaders, such as the HCL one, live in separate packages.
package config
