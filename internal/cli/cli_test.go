package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_HelpExitsCleanly(t *testing.T) {
	out := &bytes.Buffer{}
	config, shouldExit, err := Parse([]string{"-h"}, out)
	assert.Nil(t, config)
	assert.True(t, shouldExit)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_NoArgsPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	config, shouldExit, err := Parse(nil, out)
	assert.Nil(t, config)
	assert.True(t, shouldExit)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_PositionalDispatch(t *testing.T) {
	t.Run("hcl path becomes the profile path", func(t *testing.T) {
		config, shouldExit, err := Parse([]string{"build.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, "build.hcl", config.ConfigPath)
		assert.Empty(t, config.EntryPath)
	})

	t.Run("anything else becomes the entry module", func(t *testing.T) {
		config, shouldExit, err := Parse([]string{"src/main.js"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, "src/main.js", config.EntryPath)
		assert.Empty(t, config.ConfigPath)
	})
}

func TestParse_Flags(t *testing.T) {
	config, shouldExit, err := Parse([]string{
		"-entry", "src/main.js",
		"-o", "dist/app.js",
		"-dedupe",
		"-watch",
		"-serve-port", "8080",
		"-log-level", "debug",
		"-log-format", "json",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, "src/main.js", config.EntryPath)
	assert.Equal(t, "dist/app.js", config.OutFile)
	assert.True(t, config.Dedupe)
	assert.True(t, config.Watch)
	assert.Equal(t, 8080, config.ServePort)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "json", config.LogFormat)
}

func TestParse_Shorthands(t *testing.T) {
	config, _, err := Parse([]string{"-c", "profiles/"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "profiles/", config.ConfigPath)

	config, _, err = Parse([]string{"-e", "main.js"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "main.js", config.EntryPath)
}

func TestParse_Defaults(t *testing.T) {
	config, _, err := Parse([]string{"main.js"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 1024, config.CacheSize)
	assert.False(t, config.Watch)
	assert.Zero(t, config.ServePort)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		message string
	}{
		{"config and entry together", []string{"-c", "b.hcl", "-e", "main.js"}, "not both"},
		{"invalid log format", []string{"-log-format", "xml", "main.js"}, "invalid log-format"},
		{"invalid log level", []string{"-log-level", "loud", "main.js"}, "invalid log-level"},
		{"invalid serve port", []string{"-serve-port", "70000", "main.js"}, "invalid serve-port"},
		{"unknown flag", []string{"-frobnicate"}, "flag provided but not defined"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config, shouldExit, err := Parse(tc.args, &bytes.Buffer{})
			assert.Nil(t, config)
			assert.False(t, shouldExit)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.message)
		})
	}
}
