// Package transform lowers one module's source text to runnable
// CommonJS-style code and extracts the ordered list of import specifiers it
// references. The graph builder consumes it as a black box through the
// Transformer interface; New returns the built-in implementation.
package transform
