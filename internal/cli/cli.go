package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/bundlego/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("bundlego", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
bundlego - bundles a module graph into a single executable artifact.

Usage:
  bundlego [options] [PATH]

Arguments:
  PATH
    Either a bundle profile (.hcl file or directory of .hcl files), or the
    entry module itself.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to a profile file or directory.")
	cFlag := flagSet.String("c", "", "Path to a profile file or directory (shorthand).")
	entryFlag := flagSet.String("entry", "", "Path to the entry module; bundles it with a default profile.")
	eFlag := flagSet.String("e", "", "Path to the entry module (shorthand).")
	outFlag := flagSet.String("o", "", "Output file for a default profile. Empty writes to stdout.")
	dedupeFlag := flagSet.Bool("dedupe", false, "Resolve each file once and reuse its id on repeated imports.")
	watchFlag := flagSet.Bool("watch", false, "Rebuild whenever a source file of the graph changes.")
	servePortFlag := flagSet.Int("serve-port", 0, "Port for the dev server with live reload. 0 is disabled.")
	cacheSizeFlag := flagSet.Int("cache-size", 1024, "Max entries in the transform cache.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	configPath := firstNonEmpty(*configFlag, *cFlag)
	entryPath := firstNonEmpty(*entryFlag, *eFlag)

	if positional := flagSet.Arg(0); positional != "" && configPath == "" && entryPath == "" {
		// A .hcl path is a profile; anything else is treated as the entry
		// module of a default profile.
		if strings.HasSuffix(positional, ".hcl") {
			configPath = positional
		} else {
			entryPath = positional
		}
	}
	slog.Debug("Input path determined.", "config", configPath, "entry", entryPath)

	if configPath == "" && entryPath == "" {
		slog.Debug("No input path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if configPath != "" && entryPath != "" {
		return nil, false, &ExitError{Code: 2, Message: "pass either a profile path or an entry module, not both"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *servePortFlag < 0 || *servePortFlag > 65535 {
		return nil, false, &ExitError{Code: 2, Message: "invalid serve-port: must be between 0 and 65535"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath: configPath,
		EntryPath:  entryPath,
		OutFile:    *outFlag,
		Dedupe:     *dedupeFlag,
		Watch:      *watchFlag,
		ServePort:  *servePortFlag,
		CacheSize:  *cacheSizeFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
