package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath points at a profile file or directory. Mutually exclusive
	// with EntryPath.
	ConfigPath string
	// EntryPath names an entry module to bundle with a synthesized default
	// profile.
	EntryPath string
	// OutFile is the output path of the default profile. Empty streams the
	// bundle to the app's output writer.
	OutFile string
	// Dedupe applies to the default profile only; HCL profiles carry their
	// own flag.
	Dedupe bool

	Watch     bool
	ServePort int
	CacheSize int

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && cfg.EntryPath == "" {
		return nil, errors.New("either ConfigPath or EntryPath is required")
	}
	if cfg.ConfigPath != "" && cfg.EntryPath != "" {
		return nil, errors.New("ConfigPath and EntryPath are mutually exclusive")
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	return &cfg, nil
}
