// Package testutil provides the shared harness for integration tests: it
// materializes a source tree in a temp directory, runs the app against it,
// and captures logs and output.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/bundlego/internal/app"
	"github.com/specialistvlad/bundlego/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Root is the temp directory the source files were written into.
	Root string
	// Output is everything streamed to the app's output writer (bundle text
	// for profiles without an outfile).
	Output string
	// LogOutput is the captured log stream.
	LogOutput string
	// Err is the run error, including a recovered startup panic.
	Err error
}

// WriteTree materializes the given relative-path to content mapping under a
// fresh temp directory and returns its root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// RunApp builds the app for the given config and runs it to completion,
// recovering the startup panic the app reserves for broken configuration.
func RunApp(t *testing.T, appConfig *app.Config) *HarnessResult {
	t.Helper()

	appConfig.LogLevel = "debug"
	appConfig.LogFormat = "text"
	if appConfig.CacheSize <= 0 {
		appConfig.CacheSize = 1024
	}

	outBuffer := &SafeBuffer{}
	logBuffer := &SafeBuffer{}
	result := &HarnessResult{}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		testApp := app.New(outBuffer, logBuffer, appConfig, hcl.NewLoader())
		result.Err = testApp.Run(context.Background())
	}()

	result.Output = outBuffer.String()
	result.LogOutput = logBuffer.String()

	if os.Getenv("BUNDLEGO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
	}
	return result
}

// RunProject writes the source tree and runs the app against the given
// path inside it (a profile file or an entry module).
func RunProject(t *testing.T, files map[string]string, path string) *HarnessResult {
	t.Helper()

	root := WriteTree(t, files)
	appConfig := &app.Config{}
	if filepath.Ext(path) == ".hcl" {
		appConfig.ConfigPath = filepath.Join(root, path)
	} else {
		appConfig.EntryPath = filepath.Join(root, path)
	}

	result := RunApp(t, appConfig)
	result.Root = root
	return result
}
