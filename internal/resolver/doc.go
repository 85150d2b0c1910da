// Package resolver decides which resource pots must be loaded before a
// not-yet-registered module can be required, and loads them.
//
// The decision comes from a Map supplied once by the compiler: an ordered
// resource list plus, per module id, indices into that list. Loading is
// delegated to a host-specific Fetcher; concurrent loads of the same pot are
// coalesced so every waiter shares one fetch.
package resolver
