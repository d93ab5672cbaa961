package graph

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/specialistvlad/bundlego/internal/ctxlog"
	"github.com/specialistvlad/bundlego/internal/transform"
)

// Builder resolves the full dependency graph reachable from an entry module.
type Builder struct {
	transformer transform.Transformer
	dedupe      bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithDedupe makes the builder keep an absolute-path memo: a module imported
// from several places is resolved once and its id reused, turning the walk
// into a proper graph traversal. Off by default, where every resolution
// produces a fresh asset and a fresh id.
func WithDedupe(dedupe bool) Option {
	return func(b *Builder) {
		b.dedupe = dedupe
	}
}

// NewBuilder creates a Builder on top of the given transformer.
func NewBuilder(transformer transform.Transformer, opts ...Option) *Builder {
	b := &Builder{transformer: transformer}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build resolves entryPath and every module transitively reachable from it,
// breadth-first. The returned slice is ordered by discovery: the entry is
// always id 0 and ids are dense. Any failure aborts the whole build with a
// nil graph; there is no partial result.
//
// Specifiers are resolved in declaration order against the importing
// module's directory, which makes id assignment deterministic for fixed
// inputs. The queue grows while it is being iterated; iteration ends when no
// asset was appended after the one being processed.
func (b *Builder) Build(ctx context.Context, entryPath string) ([]*Asset, error) {
	logger := ctxlog.FromContext(ctx)

	absEntry, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, &ResolutionError{Specifier: entryPath, AttemptedPath: entryPath, Err: err}
	}

	entry, err := b.resolve(ctx, absEntry)
	if err != nil {
		return nil, classify(err, entryPath, "", absEntry)
	}
	entry.ID = 0
	logger.Debug("Entry module resolved.", "path", absEntry, "specifiers", len(entry.Specifiers))

	queue := []*Asset{entry}
	parents := []int{-1}
	var seen map[string]int
	if b.dedupe {
		seen = map[string]int{absEntry: 0}
	}

	for i := 0; i < len(queue); i++ {
		asset := queue[i]
		dir := filepath.Dir(asset.AbsolutePath)
		asset.Mapping = make(map[string]int, len(asset.Specifiers))

		for _, spec := range asset.Specifiers {
			target := joinSpecifier(dir, spec)

			// An import chain leading back to an ancestor would otherwise
			// expand forever.
			for j := i; j >= 0; j = parents[j] {
				if queue[j].AbsolutePath == target {
					return nil, &CycleError{Path: target, ImporterPath: asset.AbsolutePath}
				}
			}

			if b.dedupe {
				if id, ok := seen[target]; ok {
					asset.Mapping[spec] = id
					logger.Debug("Specifier resolved from memo.", "specifier", spec, "id", id)
					continue
				}
			}

			child, err := b.resolve(ctx, target)
			if err != nil {
				return nil, classify(err, spec, asset.AbsolutePath, target)
			}
			child.ID = len(queue)
			asset.Mapping[spec] = child.ID
			parents = append(parents, i)
			queue = append(queue, child)
			if b.dedupe {
				seen[target] = child.ID
			}
			logger.Debug("Specifier resolved.", "specifier", spec, "path", target, "id", child.ID)
		}
	}

	if b.dedupe {
		// The ancestry walk only sees the chain a module was first
		// discovered through. A memo hit can close a cycle through a
		// sibling branch without touching that chain, so the finished
		// mapping edges need a full traversal.
		if cerr := findCycle(queue); cerr != nil {
			return nil, cerr
		}
	}

	logger.Debug("Graph complete.", "asset_count", len(queue))
	return queue, nil
}

// findCycle runs a depth-first search over the mapping edges, tracking
// in-progress nodes separately from finished ones. An edge into an
// in-progress node closes a cycle. Edges follow specifier declaration order
// so the reported cycle is deterministic.
func findCycle(assets []*Asset) *CycleError {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make([]int, len(assets))

	var walk func(id int) *CycleError
	walk = func(id int) *CycleError {
		state[id] = visiting
		asset := assets[id]
		for _, spec := range asset.Specifiers {
			child := asset.Mapping[spec]
			switch state[child] {
			case visiting:
				return &CycleError{Path: assets[child].AbsolutePath, ImporterPath: asset.AbsolutePath}
			case unvisited:
				if cerr := walk(child); cerr != nil {
					return cerr
				}
			}
		}
		state[id] = visited
		return nil
	}
	return walk(0)
}

// resolve transforms one module into an Asset. The id and mapping are filled
// in by the caller.
func (b *Builder) resolve(ctx context.Context, absPath string) (*Asset, error) {
	result, err := b.transformer.Transform(ctx, absPath)
	if err != nil {
		return nil, err
	}
	return &Asset{
		AbsolutePath: absPath,
		Code:         result.Code,
		Specifiers:   result.Specifiers,
	}, nil
}

// classify separates transformer diagnostics from resolution failures. A
// *transform.Error already names the offending module; everything else (file
// missing, permission denied) becomes a ResolutionError with import context.
func classify(err error, spec, importer, attempted string) error {
	var terr *transform.Error
	if errors.As(err, &terr) {
		return err
	}
	return &ResolutionError{
		Specifier:     spec,
		ImporterPath:  importer,
		AttemptedPath: attempted,
		Err:           err,
	}
}

// joinSpecifier forms the absolute path a specifier refers to, relative to
// the importing module's directory. Standard join semantics: "." segments
// collapse and ".." ascends; symlinks are not resolved.
func joinSpecifier(dir, spec string) string {
	if filepath.IsAbs(spec) {
		return filepath.Clean(spec)
	}
	return filepath.Join(dir, spec)
}
