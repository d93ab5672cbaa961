package transform

import "fmt"

// Error reports that a module's source text could not be processed. It
// carries the offending path so the user can locate the broken module.
type Error struct {
	Path    string
	Line    int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("transform %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("transform %s: %s", e.Path, e.Message)
}
