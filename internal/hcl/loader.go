package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/bundlego/internal/config"
	"github.com/specialistvlad/bundlego/internal/ctxlog"
	"github.com/specialistvlad/bundlego/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every profile file reachable from the given paths and merges
// the discovered bundle blocks into a single model. Relative entry and
// outfile paths resolve against the directory of the file declaring them.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findProfileFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered profile files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse profile file %s: %s", file, diags.Error())
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode profile file %s: %s", file, diags.Error())
		}

		baseDir := filepath.Dir(file)
		for _, block := range root.Bundles {
			bundle, err := l.translateBundle(block, baseDir)
			if err != nil {
				return nil, fmt.Errorf("invalid bundle %q in %s: %w", block.Name, file, err)
			}
			model.Bundles = append(model.Bundles, bundle)
			logger.Debug("Bundle profile loaded.", "name", bundle.Name, "entry", bundle.Entry)
		}
	}

	return model, nil
}

// translateBundle converts the HCL-specific block into the agnostic model.
func (l *Loader) translateBundle(block *bundleBlock, baseDir string) (*config.Bundle, error) {
	bundle := &config.Bundle{
		Name:    block.Name,
		Entry:   resolveAgainst(baseDir, block.Entry),
		Outfile: resolveAgainst(baseDir, block.Outfile),
		Dedupe:  block.Dedupe,
	}

	if block.Define != nil {
		attrs, diags := block.Define.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid define block: %s", diags.Error())
		}
		bundle.Defines = make(map[string]cty.Value, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("define %q does not evaluate to a constant: %s", name, diags.Error())
			}
			bundle.Defines[name] = val
		}
	}

	return bundle, nil
}

// findProfileFiles expands each path into the list of .hcl files it names:
// the path itself for a file, or every .hcl file under it for a directory.
func (l *Loader) findProfileFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access profile path %s: %w", path, err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("failed to scan profile directory %s: %w", path, err)
			}
			files = append(files, found...)
		} else {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no profile files found in %v", paths)
	}
	return files, nil
}

// resolveAgainst joins a possibly relative profile path with the directory
// of the file that declared it. Empty stays empty (stdout sentinel for
// outfile).
func resolveAgainst(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
