package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/specialistvlad/bundlego/internal/config"
	"github.com/specialistvlad/bundlego/internal/ctxlog"
	"github.com/specialistvlad/bundlego/internal/emit"
	"github.com/specialistvlad/bundlego/internal/graph"
	"github.com/specialistvlad/bundlego/internal/transform"
	"github.com/specialistvlad/bundlego/internal/transformcache"
)

// pipeline is the build chain of one bundle profile: transformer (with the
// profile's defines), transform cache, and graph builder. It is kept alive
// across watch-mode rebuilds so unchanged modules are not re-transformed.
// The cache is per-profile because defines differ between profiles.
type pipeline struct {
	bundle  *config.Bundle
	cache   *transformcache.Cache
	builder *graph.Builder

	// assets is the last successfully built graph, used to register watch
	// paths. It survives a failed rebuild.
	assets []*graph.Asset
}

// newPipeline assembles the build chain for one profile.
func (a *App) newPipeline(b *config.Bundle) (*pipeline, error) {
	defines, err := encodeDefines(b.Defines)
	if err != nil {
		return nil, fmt.Errorf("bundle %q: %w", b.Name, err)
	}

	cache, err := transformcache.New(transform.New(transform.WithDefines(defines)), a.config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("bundle %q: failed to create transform cache: %w", b.Name, err)
	}

	return &pipeline{
		bundle:  b,
		cache:   cache,
		builder: graph.NewBuilder(cache, graph.WithDedupe(b.Dedupe)),
	}, nil
}

// build resolves the graph and emits the bundle text.
func (p *pipeline) build(ctx context.Context) (string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building dependency graph.", "bundle", p.bundle.Name, "entry", p.bundle.Entry)

	assets, err := p.builder.Build(ctx, p.bundle.Entry)
	if err != nil {
		return "", fmt.Errorf("bundle %q: %w", p.bundle.Name, err)
	}
	p.assets = assets
	logger.Debug("Dependency graph built.", "bundle", p.bundle.Name, "asset_count", len(assets))

	text, err := emit.Bundle(assets)
	if err != nil {
		return "", fmt.Errorf("bundle %q: %w", p.bundle.Name, err)
	}
	return text, nil
}

// write delivers the bundle text to the profile's outfile, or to the app's
// output writer when no outfile is configured.
func (a *App) write(ctx context.Context, p *pipeline, text string) error {
	logger := ctxlog.FromContext(ctx)
	if p.bundle.Outfile == "" {
		if _, err := fmt.Fprint(a.outW, text); err != nil {
			return fmt.Errorf("bundle %q: failed to stream output: %w", p.bundle.Name, err)
		}
		logger.Debug("Bundle streamed to output writer.", "bundle", p.bundle.Name, "bytes", len(text))
		return nil
	}

	if dir := filepath.Dir(p.bundle.Outfile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("bundle %q: failed to create output directory: %w", p.bundle.Name, err)
		}
	}
	if err := os.WriteFile(p.bundle.Outfile, []byte(text), 0644); err != nil {
		return fmt.Errorf("bundle %q: failed to write output: %w", p.bundle.Name, err)
	}
	logger.Info("Bundle written.", "bundle", p.bundle.Name, "outfile", p.bundle.Outfile, "bytes", len(text))
	return nil
}

// watchedFiles lists every source file of the last successful graph.
func (p *pipeline) watchedFiles() []string {
	files := make([]string, 0, len(p.assets))
	for _, asset := range p.assets {
		files = append(files, asset.AbsolutePath)
	}
	return files
}

// encodeDefines serializes profile define values into JS expression text.
// JSON is used because it is both unambiguous and a syntactic subset of JS.
func encodeDefines(defines map[string]cty.Value) (map[string]string, error) {
	if len(defines) == 0 {
		return nil, nil
	}
	encoded := make(map[string]string, len(defines))
	for name, val := range defines {
		out, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return nil, fmt.Errorf("define %q cannot be serialized: %w", name, err)
		}
		encoded[name] = string(out)
	}
	return encoded, nil
}
