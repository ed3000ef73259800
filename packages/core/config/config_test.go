package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "auto", c.Display)
	assert.Equal(t, []string{"./..."}, c.Packages)
	assert.Equal(t, "go", c.GoTool)
	assert.False(t, c.GetRace())
	assert.False(t, c.GetSubtests())
	assert.False(t, c.GetNoColor())
}

func TestGetters_NilDefaults(t *testing.T) {
	c := &Config{}
	assert.False(t, c.GetRace())
	assert.False(t, c.GetShort())
	assert.False(t, c.GetVerbose())

	c.Short = BoolPtr(true)
	assert.True(t, c.GetShort())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".nbtest.yaml", `
display: notebook
packages: [./calc/..., ./fmt]
run: TestAdd
tags: [integration]
timeout: 90s
count: 1
race: true
env:
  CALC_MODE: strict
maxUpdatesPerSecond: 20
timings: 5
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "notebook", c.Display)
	assert.Equal(t, []string{"./calc/...", "./fmt"}, c.Packages)
	assert.Equal(t, "TestAdd", c.Run)
	assert.Equal(t, []string{"integration"}, c.Tags)
	assert.Equal(t, 1, c.Count)
	assert.True(t, c.GetRace())
	assert.Equal(t, "strict", c.Env["CALC_MODE"])
	assert.Equal(t, 20.0, c.MaxUpdatesPerSecond)
	assert.Equal(t, 5, c.Timings)
	assert.Equal(t, "go", c.GoTool, "defaults survive")

	d, err := c.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".nbtest.json", `{"display": "console", "subtests": true, "goTool": "go1.24"}`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "console", c.Display)
	assert.True(t, c.GetSubtests())
	assert.Equal(t, "go1.24", c.GoTool)
}

func TestLoadConfig_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".nbtest.toml", `
display = "rich"
short = true
count = 3

[env]
GOFLAGS = "-mod=mod"
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "rich", c.Display)
	assert.True(t, c.GetShort())
	assert.Equal(t, 3, c.Count)
	assert.Equal(t, "-mod=mod", c.Env["GOFLAGS"])
}

func TestLoadConfig_EmptyYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".nbtest.yaml", "")

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errText string
	}{
		{"unknown field", ".nbtest.yaml", "colour: red\n", "colour"},
		{"bad display", ".nbtest.yaml", "display: gui\n", "display"},
		{"negative count", ".nbtest.json", `{"count": -1}`, "count"},
		{"wrong type", ".nbtest.json", `{"race": "yes"}`, "race"},
		{"bad timeout", ".nbtest.yaml", "timeout: soon\n", "invalid timeout"},
		{"syntax error", ".nbtest.json", `{"display":`, "parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadConfig_ValidationErrorType(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".nbtest.json", `{"count": -1, "bogus": 1}`)
	_, err := LoadConfig(path)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 2)
}

func TestLoadConfig_UnknownFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "nbtest.ini", "display=console")
	_, err := LoadConfig(path)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no file returns defaults", func(t *testing.T) {
		c, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), c)
	})

	t.Run("search order", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ".nbtest.toml", `display = "console"`)
		writeFile(t, dir, ".nbtest.yml", "display: notebook\n")

		c, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "notebook", c.Display)
	})
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Env = map[string]string{"A": "1", "B": "2"}

	merged := base.Merge(&Config{
		Display: "console",
		Run:     "TestX",
		Count:   2,
		Race:    BoolPtr(true),
		Env:     map[string]string{"B": "3"},
	})

	assert.Equal(t, "console", merged.Display)
	assert.Equal(t, "TestX", merged.Run)
	assert.Equal(t, 2, merged.Count)
	assert.True(t, merged.GetRace())
	assert.False(t, merged.GetShort())
	assert.Equal(t, map[string]string{"A": "1", "B": "3"}, merged.Env)
	assert.Equal(t, "go", merged.GoTool)

	// the receiver is untouched
	assert.Equal(t, "auto", base.Display)
	assert.Equal(t, "2", base.Env["B"])

	assert.Same(t, base, base.Merge(nil))
}
