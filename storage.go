package tracelog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// eofWriter positions the file at its end before every physical write so
// lines appended by other writers to the same path are not overwritten
type eofWriter struct {
	f *os.File
}

func (w eofWriter) Write(p []byte) (int, error) {
	if _, err := w.f.Seek(0, io.SeekEnd); err != nil {
		return 0, err
	}
	return w.f.Write(p)
}

// ensureOpen opens the trace file if no handle is open
func (l *Listener) ensureOpen(now time.Time) error {
	if l.file != nil {
		return nil
	}
	if err := l.open(now); err != nil {
		l.state.OpenFailures.Add(1)
		l.internalLog(err, "failed to open trace file")
		return err
	}
	return nil
}

// open resolves the file name at now and opens it positioned at its end
func (l *Listener) open(now time.Time) error {
	if strings.TrimSpace(l.settings.Filename) == "" {
		return ErrNoFilename
	}

	path := l.resolvePath(l.settings.Filename, now)
	if err := os.MkdirAll(filepath.Dir(path), logDirMode); err != nil {
		return fmtErrorf("failed to create directory for '%s': %w", path, err)
	}

	// No O_APPEND, ResetSize rewrites the file through the same handle
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, logFileMode)
	if err != nil {
		return fmtErrorf("failed to open '%s': %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = f.Close()
		return fmtErrorf("failed to seek to end of '%s': %w", path, err)
	}

	l.file = f
	l.out = bufio.NewWriterSize(eofWriter{f: f}, defaultBufferSize)
	l.resolvedFilename = path
	l.routeValue = l.resolver.TimeRoute(now)
	l.state.Opens.Add(1)
	l.diag.Debug().Str("file", path).Msg("opened trace file")
	return nil
}

// resolvePath expands a template and roots relative results at the home path
func (l *Listener) resolvePath(template string, now time.Time) string {
	return l.rootPath(l.resolver.ResolvePath(template, now))
}

// rootPath normalizes separators and roots a relative path at the home path
func (l *Listener) rootPath(path string) string {
	sep := string(filepath.Separator)
	path = strings.NewReplacer(`\`, sep, "/", sep).Replace(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.resolver.HomePath(), path)
	}
	return filepath.Clean(path)
}

// currentSize returns the file length including bytes still buffered
func (l *Listener) currentSize() (int64, error) {
	if l.file == nil {
		return 0, ErrNotOpen
	}
	info, err := l.file.Stat()
	if err != nil {
		return 0, fmtErrorf("failed to stat '%s': %w", l.resolvedFilename, err)
	}
	return info.Size() + int64(l.out.Buffered()), nil
}

// closeHandle flushes and closes the open file
func (l *Listener) closeHandle() error {
	if l.file == nil {
		return nil
	}

	var err error
	if l.out != nil {
		if ferr := l.out.Flush(); ferr != nil {
			err = fmtErrorf("failed to flush '%s': %w", l.resolvedFilename, ferr)
		}
	}
	if cerr := l.file.Close(); cerr != nil {
		err = combineErrors(err, fmtErrorf("failed to close '%s': %w", l.resolvedFilename, cerr))
	}
	l.file = nil
	l.out = nil
	return err
}

// dropHandle discards the open file, the next write opens it again
func (l *Listener) dropHandle() {
	if l.file == nil {
		return
	}
	_ = l.file.Close()
	l.file = nil
	l.out = nil
}

// rotate applies action to the open file. Any failure leaves no open handle.
func (l *Listener) rotate(action RotationAction, now time.Time) {
	var err error
	switch action {
	case ActionResetSize:
		err = l.resetSize()
	case ActionRename:
		err = l.rename(now)
	default:
		err = l.reopen(now)
	}
	if err != nil {
		l.internalLog(err, fmt.Sprintf("rotation '%s' failed, dropping file handle", action))
		l.dropHandle()
		return
	}
	l.state.Rotations.Add(1)
	l.diag.Debug().Str("action", action.String()).Str("file", l.resolvedFilename).Msg("rotated trace file")
}

// reopen closes the file and opens the name resolved at now
func (l *Listener) reopen(now time.Time) error {
	if err := l.closeHandle(); err != nil {
		l.internalLog(err, "error closing file before reopen")
	}
	return l.open(now)
}

// resetSize keeps the last SavedPercent of the file in place, on the same handle
func (l *Listener) resetSize() error {
	if l.file == nil {
		return ErrNotOpen
	}
	if err := l.out.Flush(); err != nil {
		return fmtErrorf("failed to flush before reset: %w", err)
	}

	info, err := l.file.Stat()
	if err != nil {
		return fmtErrorf("failed to stat before reset: %w", err)
	}
	length := info.Size()
	keep := length * int64(l.settings.SavedPercent) / 100

	// Move the tail to the start in chunks, reads stay ahead of writes
	if keep > 0 {
		buf := make([]byte, min(keep, int64(resetCopyChunk)))
		start := length - keep
		for done := int64(0); done < keep; {
			chunk := buf[:min(int64(len(buf)), keep-done)]
			n, err := l.file.ReadAt(chunk, start+done)
			if n == 0 && err != nil {
				return fmtErrorf("failed to read retained bytes: %w", err)
			}
			if _, err := l.file.WriteAt(chunk[:n], done); err != nil {
				return fmtErrorf("failed to move retained bytes: %w", err)
			}
			done += int64(n)
		}
	}

	if err := l.file.Truncate(keep); err != nil {
		return fmtErrorf("failed to truncate to %d bytes: %w", keep, err)
	}
	if _, err := l.file.Seek(0, io.SeekEnd); err != nil {
		return fmtErrorf("failed to seek after reset: %w", err)
	}
	l.state.Resets.Add(1)
	return nil
}

// rename moves the file to the next .LNN name and opens a fresh file
func (l *Listener) rename(now time.Time) error {
	path := l.resolvedFilename
	if err := l.closeHandle(); err != nil {
		return err
	}

	target, err := nextRenameTarget(path, l.settings.MaxRenamedFiles)
	if err != nil {
		return err
	}
	if err := os.Rename(path, target); err != nil {
		return fmtErrorf("failed to rename '%s' to '%s': %w", path, target, err)
	}
	l.state.Renames.Add(1)
	return l.open(now)
}

// renamedName returns the name of rename slot n for path
func renamedName(path string, n int) string {
	return fmt.Sprintf(renameSuffixFormat, path, n)
}

// nextRenameTarget returns the lowest free slot. When every slot up to limit
// is taken, slot 1 is removed, the rest shift down and the top slot is returned.
func nextRenameTarget(path string, limit int) (string, error) {
	limit = clampRenamed(limit)
	for n := 1; n <= limit; n++ {
		candidate := renamedName(path, n)
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
	}

	oldest := renamedName(path, 1)
	if err := os.Remove(oldest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmtErrorf("failed to remove '%s': %w", oldest, err)
	}
	for n := 2; n <= limit; n++ {
		if err := os.Rename(renamedName(path, n), renamedName(path, n-1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmtErrorf("failed to shift '%s': %w", renamedName(path, n), err)
		}
	}
	return renamedName(path, limit), nil
}
