// Package config defines the format-agnostic bundle profile model and the
// Loader interface format-specific loaders implement. The rest of the
// application works only against this model, never against a concrete
// configuration syntax.
package config
