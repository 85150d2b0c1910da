// Package registry maps module ids to their registered factories and the
// records produced by executing them.
//
// A record is created by Register and never removed. Its state moves from
// Unregistered to Loading when the loader begins execution and from Loading to
// Ready or Failed when execution settles. Only the loader drives those
// transitions; everything else reads records through View.
package registry
