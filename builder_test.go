package tracelog

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	l, err := NewBuilder().
		Filename(filepath.Join(dir, "${AppName}.log")).
		MaxSizeKB(64).
		SizeOverAction(ActionRename).
		MaxRenamedFiles(4).
		SavedPercent(20).
		LinePrefix("> ").
		AutoFlush(true).
		CleanupOlderThan(time.Hour).
		AppName("builder").
		Clock(func() time.Time { return now }).
		Build()
	require.NoError(t, err)
	defer l.Close()

	s := l.Settings()
	assert.Equal(t, 64*sizeKB, s.MaxFileSize)
	assert.Equal(t, ActionRename, s.SizeOverAction)
	assert.Equal(t, 4, s.MaxRenamedFiles)
	assert.Equal(t, 20, s.SavedPercent)
	assert.Equal(t, time.Hour, s.CleanupOlderThan)

	l.WriteLine("built")
	assert.Equal(t, filepath.Join(dir, "builder.log"), l.Filename())
}

func TestBuilderStringSetters(t *testing.T) {
	b := NewBuilder().
		Filename("a.log").
		MaxFileSizeString("2mb").
		SizeOverActionString("ResetSize").
		Set("CleanupOlderThan", "3d").
		Set("time_route_filename_pattern", "%Y")

	s := b.Settings()
	assert.Equal(t, 2*sizeMB, s.MaxFileSize)
	assert.Equal(t, ActionResetSize, s.SizeOverAction)
	assert.Equal(t, 72*time.Hour, s.CleanupOlderThan)
	assert.Equal(t, "%Y", s.TimeRoutePattern)
}

func TestBuilderErrors(t *testing.T) {
	t.Run("no filename", func(t *testing.T) {
		_, err := NewBuilder().Build()
		assert.ErrorIs(t, err, ErrNoFilename)
	})

	t.Run("first error wins", func(t *testing.T) {
		_, err := NewBuilder().
			Filename("a.log").
			SizeOverActionString("Explode").
			MaxFileSizeString("huge").
			Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Explode")
		assert.NotContains(t, err.Error(), "huge")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := NewBuilder().Filename("a.log").Set("Colour", "blue").Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown key")
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := NewBuilder().Filename("a.log").SavedPercent(120).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "saved percent")
	})

	t.Run("from init", func(t *testing.T) {
		_, err := FromInit("a.log;MaxFileSize=big").Build()
		assert.Error(t, err)
	})
}

func TestFromInit(t *testing.T) {
	dir := t.TempDir()
	var diag bytes.Buffer

	l, err := FromInit(filepath.Join(dir, "trace.log")+";AutoFlush=true").
		LinePrefix("+").
		Diagnostics(zerolog.New(&diag)).
		HomePath(dir).
		Build()
	require.NoError(t, err)
	defer l.Close()

	assert.True(t, l.Settings().AutoFlush)
	l.WriteLine("x")
	assert.Contains(t, diag.String(), "opened trace file", "builder options reach the listener")
	assert.NotContains(t, diag.String(), `"level":"warn"`)
}

func TestBuilderMaxSizeMB(t *testing.T) {
	s := NewBuilder().Filename("a.log").MaxSizeMB(3).MaxFileSize(0).MaxSizeMB(2).Settings()
	assert.Equal(t, 2*sizeMB, s.MaxFileSize)

	s = NewBuilder().Encoding("utf-8").TimeRoutePattern("%H").TimeStampFormat("%M").DiagnosticLog("stderr").Settings()
	assert.Equal(t, "utf-8", s.Encoding)
	assert.Equal(t, "%H", s.TimeRoutePattern)
	assert.Equal(t, "%M", s.TimeStampFormat)
	assert.Equal(t, "stderr", s.DiagnosticLog)
}
