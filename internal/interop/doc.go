// Package interop adapts between CommonJS-style and ES-module-style export
// shapes at module boundaries.
//
// The central type is Object, the exports object every factory populates. A
// key on an Object holds either a plain value or a live binding (a Getter)
// that is evaluated on every read, which is how star re-exports and namespace
// objects stay in sync with the module they were built from.
package interop
