package tracelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSettingsFile writes content to name in a temp directory
func writeSettingsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSettingsTOML(t *testing.T) {
	path := writeSettingsFile(t, "trace.toml", `
[tracelog]
filename = "/var/log/app/trace.log"
max_file_size = "10kb"
log_size_over_action = "Rename"
max_renamed_files = 3
auto_flush = true
cleanup_older_than = "2h"
line_prefix = "[${PID}]"
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/app/trace.log", s.Filename)
	assert.Equal(t, 10*sizeKB, s.MaxFileSize)
	assert.Equal(t, ActionRename, s.SizeOverAction)
	assert.Equal(t, 3, s.MaxRenamedFiles)
	assert.Equal(t, defaultSavedPercent, s.SavedPercent)
	assert.True(t, s.AutoFlush)
	assert.Equal(t, 2*time.Hour, s.CleanupOlderThan)
	assert.Equal(t, "[${PID}]", s.LinePrefix)
}

func TestLoadSettingsYAML(t *testing.T) {
	path := writeSettingsFile(t, "trace.yaml", `
tracelog:
  init: "base.log;MaxFileSize=1kb;AutoFlush=true"
  max_file_size: 4096
  LogSizeOverAction: ResetSize
  saved_log_percents: 25
  time_rotation_filename_pattern: "%Y"
  time_route_filename_pattern: "%H"
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "base.log", s.Filename, "init provides the base")
	assert.Equal(t, int64(4096), s.MaxFileSize, "keys override the base")
	assert.True(t, s.AutoFlush)
	assert.Equal(t, ActionResetSize, s.SizeOverAction)
	assert.Equal(t, 25, s.SavedPercent)
	assert.Equal(t, "%Y", s.TimeRoutePattern, "legacy alias wins")
}

func TestLoadSettingsJSON(t *testing.T) {
	t.Run("top level", func(t *testing.T) {
		path := writeSettingsFile(t, "trace.json", `{
			"filename": "app.log",
			"max_file_size": 2048,
			"auto_flush": true,
			"cleanup_older_than": 30,
			"encoding": "latin1"
		}`)

		s, err := LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, "app.log", s.Filename)
		assert.Equal(t, int64(2048), s.MaxFileSize)
		assert.True(t, s.AutoFlush)
		assert.Equal(t, 30*time.Minute, s.CleanupOlderThan)
		assert.Equal(t, "latin1", s.Encoding)
	})

	t.Run("section", func(t *testing.T) {
		path := writeSettingsFile(t, "trace.json", `{"tracelog": {"filename": "nested.log", "bogus": "x"}}`)

		s, err := LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, "nested.log", s.Filename, "unknown keys are skipped")
	})

	t.Run("syntax error", func(t *testing.T) {
		path := writeSettingsFile(t, "trace.json", `{"filename": `)
		_, err := LoadSettings(path)
		assert.Error(t, err)
	})

	t.Run("unsupported value", func(t *testing.T) {
		path := writeSettingsFile(t, "trace.json", `{"filename": ["a", "b"]}`)
		_, err := LoadSettings(path)
		assert.Error(t, err)
	})
}

func TestLoadSettingsRaw(t *testing.T) {
	path := writeSettingsFile(t, "trace.conf", "  app.log;MaxFileSize=1mb;AutoFlush=true\n")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "app.log", s.Filename)
	assert.Equal(t, sizeMB, s.MaxFileSize)
	assert.True(t, s.AutoFlush)
}

func TestLoadSettingsMissing(t *testing.T) {
	for _, name := range []string{"missing.toml", "missing.yaml", "missing.json", "missing.conf"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadSettings(filepath.Join(t.TempDir(), name))
			assert.Error(t, err)
			assert.Equal(t, DefaultSettings(), s)
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{nil, ""},
		{"text", "text"},
		{true, "true"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint64(9), "9"},
		{float64(1024), "1024"},
		{1.5, "1.5"},
		{time.Minute, "1m0s"},
	}

	for _, tt := range tests {
		got, err := stringify(tt.input)
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}

	_, err := stringify(map[string]any{})
	assert.Error(t, err)
}
