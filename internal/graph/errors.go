package graph

import "fmt"

// ResolutionError reports that an import specifier could not be resolved to
// a readable module. It carries enough context to locate the offending
// import statement.
type ResolutionError struct {
	// Specifier is the import string exactly as written in the source.
	Specifier string
	// ImporterPath is the module containing the import. Empty when the entry
	// path itself failed to resolve.
	ImporterPath string
	// AttemptedPath is the absolute path the specifier was joined into.
	AttemptedPath string
	// Err is the underlying failure, typically a filesystem error.
	Err error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.ImporterPath == "" {
		return fmt.Sprintf("cannot resolve entry module %q (tried %s): %v", e.Specifier, e.AttemptedPath, e.Err)
	}
	return fmt.Sprintf("cannot resolve %q imported from %s (tried %s): %v", e.Specifier, e.ImporterPath, e.AttemptedPath, e.Err)
}

// Unwrap exposes the underlying failure to errors.Is/As.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// CycleError reports that an import chain leads back to a module already on
// that same chain. Without this check the breadth-first walk would expand
// the cycle forever.
type CycleError struct {
	// Path is the module appearing twice on the import chain.
	Path string
	// ImporterPath is the module whose import closed the cycle.
	ImporterPath string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle detected: %s is imported, via a chain of imports, from itself (closed by %s)", e.Path, e.ImporterPath)
}
