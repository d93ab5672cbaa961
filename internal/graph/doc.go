// Package graph builds the module dependency graph: starting from a single
// entry path, it resolves every reachable module through a
// transform.Transformer and returns the ordered Asset sequence the emitter
// consumes. Discovery is a strictly ordered breadth-first walk, so two builds
// over identical inputs assign identical ids.
package graph
