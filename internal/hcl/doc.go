// Package hcl is the HCL implementation of config.Loader. Profiles are
// declared as `bundle "<name>" { ... }` blocks; a path argument may be a
// single .hcl file or a directory searched recursively.
package hcl
