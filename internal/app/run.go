package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/bundlego/internal/ctxlog"
	"github.com/specialistvlad/bundlego/internal/devserver"
)

// Run executes the bundling lifecycle: one build pass per profile, then,
// when enabled, the watch/serve loop. The initial pass is fail-fast — any
// error aborts the run with no partial artifacts. Watch mode reports rebuild
// errors and keeps going, leaving the previous artifact in place.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	pipelines := make([]*pipeline, 0, len(a.model.Bundles))
	for _, bundle := range a.model.Bundles {
		p, err := a.newPipeline(bundle)
		if err != nil {
			return err
		}
		pipelines = append(pipelines, p)
	}

	for _, p := range pipelines {
		text, err := p.build(ctx)
		if err != nil {
			return err
		}
		if err := a.write(ctx, p, text); err != nil {
			return err
		}
	}
	a.logger.Debug("Initial build pass complete.", "bundle_count", len(pipelines))

	if !a.config.Watch && a.config.ServePort == 0 {
		a.logger.Debug("App.Run method finished.")
		return nil
	}
	return a.serveLoop(ctx, pipelines)
}

// serveLoop runs the dev server and/or the watch-rebuild loop until the
// context is canceled.
func (a *App) serveLoop(ctx context.Context, pipelines []*pipeline) error {
	var server *devserver.Server
	if a.config.ServePort > 0 {
		dir, err := serveDir(pipelines)
		if err != nil {
			return err
		}
		server = devserver.New(dir, a.config.ServePort)
		server.Start(ctx)
		defer server.Shutdown(context.Background())
	}

	if !a.config.Watch {
		<-ctx.Done()
		return nil
	}

	watcher, err := devserver.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	go watcher.Run(ctx)

	if err := a.registerWatchPaths(ctx, watcher, pipelines); err != nil {
		return err
	}
	a.logger.Info("Watching for changes.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-watcher.Changes():
			a.logger.Info("Rebuilding.", "changed", changed)
			for _, p := range pipelines {
				for _, path := range changed {
					p.cache.Invalidate(path)
				}
			}
			if err := a.rebuild(ctx, pipelines); err != nil {
				// The previous artifact stays in place; keep watching.
				a.logger.Error("Rebuild failed.", "error", err)
				continue
			}
			if err := a.registerWatchPaths(ctx, watcher, pipelines); err != nil {
				return err
			}
			if server != nil {
				server.Broadcast(ctx, "reload")
			}
		}
	}
}

// rebuild runs one build pass over every pipeline.
func (a *App) rebuild(ctx context.Context, pipelines []*pipeline) error {
	for _, p := range pipelines {
		text, err := p.build(ctx)
		if err != nil {
			return err
		}
		if err := a.write(ctx, p, text); err != nil {
			return err
		}
	}
	return nil
}

// registerWatchPaths points the watcher at the source files of every
// pipeline's current graph.
func (a *App) registerWatchPaths(ctx context.Context, watcher *devserver.Watcher, pipelines []*pipeline) error {
	var files []string
	for _, p := range pipelines {
		files = append(files, p.watchedFiles()...)
	}
	if err := watcher.SetFiles(ctx, files); err != nil {
		return fmt.Errorf("failed to register watch paths: %w", err)
	}
	return nil
}

// serveDir picks the directory the dev server exposes: the output directory
// of the first profile that writes a file.
func serveDir(pipelines []*pipeline) (string, error) {
	for _, p := range pipelines {
		if p.bundle.Outfile != "" {
			return filepath.Dir(p.bundle.Outfile), nil
		}
	}
	return "", fmt.Errorf("dev server requires at least one bundle profile with an outfile")
}
