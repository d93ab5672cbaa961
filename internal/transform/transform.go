package transform

import (
	"context"
	"os"

	"github.com/specialistvlad/bundlego/internal/ctxlog"
)

// Result is the output of transforming a single module.
type Result struct {
	// Code is the lowered, CommonJS-style source text.
	Code string
	// Specifiers lists every import specifier referenced by the source, in
	// declaration order, duplicates preserved.
	Specifiers []string
}

// Transformer turns one module's source, addressed by absolute path, into a
// Result. Implementations must be pure functions of the file contents: the
// builder relies on that for deterministic graphs, and caching decorators
// rely on it for correctness.
type Transformer interface {
	Transform(ctx context.Context, absPath string) (*Result, error)
}

// Option configures the built-in transformer.
type Option func(*ESMTransformer)

// WithDefines substitutes every free occurrence of each key identifier with
// the given replacement text. Replacements must already be valid expression
// source (the app serializes profile define values to JSON literals).
func WithDefines(defines map[string]string) Option {
	return func(t *ESMTransformer) {
		for k, v := range defines {
			t.defines[k] = v
		}
	}
}

// ESMTransformer is the built-in Transformer. It lowers the supported ESM
// subset (import declarations, export declarations) to require/exports form
// and records specifiers from both import declarations and literal require
// calls, so already-CommonJS sources pass through with their dependencies
// still discovered.
type ESMTransformer struct {
	defines map[string]string
}

// New creates the built-in transformer.
func New(opts ...Option) *ESMTransformer {
	t := &ESMTransformer{defines: make(map[string]string)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform reads the module at absPath and lowers it. A file read failure
// is returned as-is (the builder classifies it as a resolution failure); a
// malformed source fails with *Error.
func (t *ESMTransformer) Transform(ctx context.Context, absPath string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	s := newScanner(absPath, string(src), t.defines)
	result, err := s.run()
	if err != nil {
		return nil, err
	}
	logger.Debug("Module transformed.", "path", absPath, "specifiers", len(result.Specifiers))
	return result, nil
}

// TransformSource lowers raw source text directly, without touching the
// filesystem. The path is used only for diagnostics.
func (t *ESMTransformer) TransformSource(path, src string) (*Result, error) {
	return newScanner(path, src, t.defines).run()
}
