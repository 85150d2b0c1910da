// Package fetcher holds the host-specific ways of retrieving resource pots:
// an in-memory catalog of pots compiled into the binary, a directory of
// manifest files, and an HTTP origin.
package fetcher
