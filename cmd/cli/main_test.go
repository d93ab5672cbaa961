package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/bundlego/internal/cli"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// An HCL file with a syntax error is guaranteed to panic during the
	// loading phase inside app.New().
	invalidHCL := `
		bundle "web" {
			entry =
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "bundle.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	out := &bytes.Buffer{}
	log := &bytes.Buffer{}
	runErr := run(out, log, []string{filePath})

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	assert.Contains(t, runErr.Error(), "application startup panicked", "the error message should indicate that a panic was recovered")
	assert.Contains(t, runErr.Error(), "failed to parse", "the error message should contain the underlying reason for the panic")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" flag should cause cli.Parse to return shouldExit=true.
	out := &bytes.Buffer{}
	log := &bytes.Buffer{}
	err := run(out, log, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, log.String(), "Usage:", "expected help text on the log writer")
	assert.Empty(t, out.String(), "help must not pollute the bundle stream")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	log := &bytes.Buffer{}
	err := run(out, log, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")

	exitErr, ok := err.(*cli.ExitError)
	require.True(t, ok, "parse failures should carry an exit code")
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_BundlesEntryToStdout(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	entry := filepath.Join(tempDir, "main.js")
	require.NoError(t, os.WriteFile(entry, []byte(`console.log("hi");`), 0644))

	out := &bytes.Buffer{}
	log := &bytes.Buffer{}
	err := run(out, log, []string{entry})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "require(0);")
	assert.Contains(t, out.String(), `console.log("hi");`)
}

func TestRun_BuildErrorIsNotAPanic(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	entry := filepath.Join(tempDir, "main.js")
	require.NoError(t, os.WriteFile(entry, []byte(`import x from "./missing.js";`), 0644))

	out := &bytes.Buffer{}
	log := &bytes.Buffer{}
	err := run(out, log, []string{entry})

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "panicked")
	assert.Contains(t, err.Error(), "cannot resolve")
}
