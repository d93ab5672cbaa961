package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/bundlego/internal/config"
	"github.com/specialistvlad/bundlego/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	// outW receives bundle text for profiles without an outfile. Logs go to
	// logW so a bundle streamed to stdout stays machine-readable.
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config
	model  *config.Model
}

// New is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and a validated
// profile model. A configuration that cannot be loaded is a fatal startup
// error and panics; the CLI entrypoint recovers it into a clean exit.
func New(outW, logW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loadModel(ctx, appConfig, loader)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Profile model loaded.", "bundle_count", len(model.Bundles))

	if err := model.Validate(); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}
	logger.Debug("Profile model validation passed.")

	return &App{
		outW:   outW,
		logW:   logW,
		logger: logger,
		config: appConfig,
		model:  model,
	}
}

// Model returns the loaded profile model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// loadModel either delegates to the profile loader or synthesizes a
// single-bundle model from a bare entry path.
func loadModel(ctx context.Context, appConfig *Config, loader config.Loader) (*config.Model, error) {
	if appConfig.ConfigPath != "" {
		return loader.Load(ctx, appConfig.ConfigPath)
	}
	return &config.Model{
		Bundles: []*config.Bundle{{
			Name:    "default",
			Entry:   appConfig.EntryPath,
			Outfile: appConfig.OutFile,
			Dedupe:  appConfig.Dedupe,
		}},
	}, nil
}
