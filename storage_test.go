package tracelog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeRotationResetSize(t *testing.T) {
	l, dir := createTestListener(t, ";MaxFileSize=100;LogSizeOverAction=ResetSize;SavedLogPercents=40;AutoFlush=true")
	path := filepath.Join(dir, "trace.log")

	i := 0
	for {
		l.WriteLine(fmt.Sprintf("line-%03d", i))
		i++
		if fileSize(t, path) > 100 {
			break
		}
	}
	before := []byte(readFile(t, path))
	require.Equal(t, uint64(0), l.Stats().Resets, "threshold crossing alone does not rotate")

	l.WriteLine("after")

	stats := l.Stats()
	assert.Equal(t, uint64(1), stats.Resets, "exactly one rotation before the next write completes")
	assert.Equal(t, uint64(1), stats.Rotations)
	assert.Equal(t, uint64(1), stats.Opens, "ResetSize keeps the same handle")

	keep := len(before) * 40 / 100
	expected := string(before[len(before)-keep:]) + "after\n"
	assert.Equal(t, expected, readFile(t, path))
}

func TestResetSizeContent(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		percent int
	}{
		{"small", 1000, 33},
		{"zero percent", 1000, 0},
		{"ninety nine", 997, 99},
		{"larger than copy chunk", 3*resetCopyChunk + 17, 50},
		{"empty file", 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, dir := createTestListener(t, fmt.Sprintf(";SavedLogPercents=%d;AutoFlush=true", tt.percent))
			path := filepath.Join(dir, "trace.log")

			content := make([]byte, tt.length)
			for i := range content {
				content[i] = byte('a' + i%26)
			}
			l.WriteDirect(string(content))

			l.Rotate(ActionResetSize)

			keep := tt.length * tt.percent / 100
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, keep, len(data))
			assert.True(t, bytes.Equal(content[tt.length-keep:], data), "retained bytes are the tail of the file")
			assert.Equal(t, uint64(1), l.Stats().Resets)

			l.WriteDirect("z")
			assert.Equal(t, keep+1, int(fileSize(t, path)), "writes continue at the new end")
		})
	}
}

func TestRenameNumbering(t *testing.T) {
	l, dir := createTestListener(t, ";LogSizeOverAction=Rename;MaxRenamedFiles=3;AutoFlush=true")
	path := filepath.Join(dir, "trace.log")
	slot := func(n int) string { return fmt.Sprintf("%s.L%02d", path, n) }

	for gen := 1; gen <= 3; gen++ {
		l.WriteLine(fmt.Sprintf("gen%d", gen))
		l.Rotate(ActionRename)
		assert.Equal(t, fmt.Sprintf("gen%d\n", gen), readFile(t, slot(gen)))
		assert.Equal(t, "", readFile(t, path), "a fresh file is opened at the original path")
	}

	// Fourth rotation drops .L01 and shifts the rest down
	l.WriteLine("gen4")
	l.Rotate(ActionRename)

	assert.Equal(t, "gen2\n", readFile(t, slot(1)))
	assert.Equal(t, "gen3\n", readFile(t, slot(2)))
	assert.Equal(t, "gen4\n", readFile(t, slot(3)))
	_, err := os.Stat(slot(4))
	assert.True(t, os.IsNotExist(err))

	stats := l.Stats()
	assert.Equal(t, uint64(4), stats.Renames)
	assert.Equal(t, uint64(5), stats.Opens)
}

func TestSizeRotationRename(t *testing.T) {
	l, dir := createTestListener(t, ";MaxFileSize=1kb;LogSizeOverAction=Rename;AutoFlush=true")
	path := filepath.Join(dir, "trace.log")
	line := strings.Repeat("x", 99)

	for i := 0; i < 11; i++ {
		l.WriteLine(line)
	}
	// 1100 bytes written, the 11th write saw 1000 bytes and did not rotate
	assert.Equal(t, uint64(0), l.Stats().Renames)

	l.WriteLine("fresh")
	assert.Equal(t, uint64(1), l.Stats().Renames)
	assert.Equal(t, int64(1100), fileSize(t, path+".L01"))
	assert.Equal(t, "fresh\n", readFile(t, path))
}

func TestSizeRotationBuffered(t *testing.T) {
	l, dir := createTestListener(t, ";MaxFileSize=50;LogSizeOverAction=Rename")
	path := filepath.Join(dir, "trace.log")

	// Buffered bytes count toward the size
	l.WriteLine(strings.Repeat("b", 60))
	l.WriteLine("next")
	require.NoError(t, l.Close())

	assert.Equal(t, strings.Repeat("b", 60)+"\n", readFile(t, path+".L01"))
	assert.Equal(t, "next\n", readFile(t, path))
}

func TestNextRenameTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	target, err := nextRenameTarget(path, 2)
	require.NoError(t, err)
	assert.Equal(t, path+".L01", target)

	// A gap is filled before the top slot
	require.NoError(t, os.WriteFile(path+".L02", []byte("two"), 0644))
	target, err = nextRenameTarget(path, 2)
	require.NoError(t, err)
	assert.Equal(t, path+".L01", target)

	require.NoError(t, os.WriteFile(path+".L01", []byte("one"), 0644))
	target, err = nextRenameTarget(path, 2)
	require.NoError(t, err)
	assert.Equal(t, path+".L02", target)
	assert.Equal(t, "two", readFile(t, path+".L01"))

	// A single slot is recycled in place
	target, err = nextRenameTarget(path, 1)
	require.NoError(t, err)
	assert.Equal(t, path+".L01", target)
	_, err = os.Stat(path + ".L01")
	assert.True(t, os.IsNotExist(err))
}

func TestTimeRouteBoundary(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		first    string
		second   string
	}{
		{"implicit suffix", "trace.log", "trace2026101910.log", "trace2026101911.log"},
		{"explicit macro", "trace-${TimeRoute}.log", "trace-2026101910.log", "trace-2026101911.log"},
		{"legacy macro", "trace-$(TimeRotation).log", "trace-2026101910.log", "trace-2026101911.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			now := time.Date(2026, 10, 19, 10, 59, 0, 0, time.UTC)
			clock := func() time.Time { return now }

			init := filepath.Join(dir, tt.filename) +
				";TimeRouteFilenamePattern=%Y%m%d%H;MaxFileSize=1mb;LogSizeOverAction=Rename;AutoFlush=true"
			l := New(init, WithClock(clock), WithDefaults(LoggingDefaults{}))
			defer l.Close()

			l.WriteLine("before boundary")
			assert.Equal(t, filepath.Join(dir, tt.first), l.Filename())

			now = now.Add(2 * time.Minute)
			l.WriteLine("after boundary")
			assert.Equal(t, filepath.Join(dir, tt.second), l.Filename())

			assert.Equal(t, "before boundary\n", readFile(t, filepath.Join(dir, tt.first)))
			assert.Equal(t, "after boundary\n", readFile(t, filepath.Join(dir, tt.second)))

			stats := l.Stats()
			assert.Equal(t, uint64(1), stats.Rotations)
			assert.Equal(t, uint64(0), stats.Renames, "route changes never rename")
			assert.Equal(t, uint64(0), stats.Resets, "route changes never trim")

			renamed, err := filepath.Glob(filepath.Join(dir, "*.L*"))
			require.NoError(t, err)
			assert.Empty(t, renamed)
		})
	}
}

func TestTimeRouteLegacyPrecedence(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	init := filepath.Join(dir, "trace.log") + ";TimeRotationFilenamePattern=^%Y^;TimeRouteFilenamePattern=%H"

	l := New(init, WithClock(func() time.Time { return now }), WithDefaults(LoggingDefaults{}))
	defer l.Close()

	assert.Equal(t, filepath.Join(dir, "trace2026.log"), l.Filename())
}

func TestOpenFailureRecovers(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "logs")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))
	path := filepath.Join(blocker, "trace.log")

	l := New(path+";AutoFlush=true", WithDefaults(LoggingDefaults{}))
	defer l.Close()

	assert.NotPanics(t, func() {
		l.WriteLine("lost")
		l.Write("lost")
		l.WriteDirect("lost")
		l.Flush()
	})
	assert.Equal(t, uint64(3), l.Stats().OpenFailures, "each write retries the open")

	require.NoError(t, os.Remove(blocker))
	l.WriteLine("resumed")
	assert.Equal(t, "resumed\n", readFile(t, path))
}

func TestWriteFailureRecovers(t *testing.T) {
	l, dir := createTestListener(t, ";AutoFlush=true")
	path := filepath.Join(dir, "trace.log")

	l.WriteLine("first")
	// Close the handle behind the listener's back
	require.NoError(t, l.file.Close())

	assert.NotPanics(t, func() { l.WriteLine("lost") })
	assert.Equal(t, uint64(1), l.Stats().WriteFailures)

	l.WriteLine("resumed")
	assert.Equal(t, "first\nresumed\n", readFile(t, path))
	assert.Equal(t, uint64(2), l.Stats().Opens)
}

func TestDirectoryRemovedDuringRotation(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "logs")
	path := filepath.Join(dir, "trace.log")

	l := New(path+";LogSizeOverAction=Rename;AutoFlush=true", WithDefaults(LoggingDefaults{}))
	defer l.Close()

	l.WriteLine("before")
	require.NoError(t, os.RemoveAll(dir))

	assert.NotPanics(t, func() { l.Rotate(ActionRename) })
	assert.Nil(t, l.file, "failed rotation drops the handle")
	assert.Equal(t, uint64(0), l.Stats().Rotations)

	l.WriteLine("after")
	assert.Equal(t, "after\n", readFile(t, path))
}

func TestExternalAppend(t *testing.T) {
	l, dir := createTestListener(t, ";AutoFlush=true")
	path := filepath.Join(dir, "trace.log")

	l.WriteLine("ours")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("theirs\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l.WriteLine("ours again")
	assert.Equal(t, "ours\ntheirs\nours again\n", readFile(t, path))
}

func TestRelativePathRootedAtHome(t *testing.T) {
	home := t.TempDir()
	l := New(`logs\sub/trace.log;AutoFlush=true`, WithHomePath(home), WithDefaults(LoggingDefaults{}))
	defer l.Close()

	l.WriteLine("rooted")
	assert.Equal(t, "rooted\n", readFile(t, filepath.Join(home, "logs", "sub", "trace.log")))
}

func TestHomeMacroPath(t *testing.T) {
	home := t.TempDir()
	l := New("~/out/${AppName}.log;AutoFlush=true", WithHomePath(home), WithAppName("svc"), WithDefaults(LoggingDefaults{}))
	defer l.Close()

	l.WriteLine("home")
	assert.Equal(t, filepath.Join(home, "out", "svc.log"), l.Filename())
	assert.Equal(t, "home\n", readFile(t, filepath.Join(home, "out", "svc.log")))
}

func TestNoFilename(t *testing.T) {
	l := New("", WithDefaults(LoggingDefaults{}))
	defer l.Close()

	assert.NotPanics(t, func() { l.WriteLine("nowhere") })
	assert.Equal(t, "", l.Filename())
	assert.Equal(t, uint64(1), l.Stats().OpenFailures)
}
