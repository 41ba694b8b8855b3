package tracelog

import (
	"os"
	"path/filepath"
	"time"
)

// cleanup deletes files produced by the filename template whose modification
// time is older than CleanupOlderThan. The open file is never deleted and
// failures are skipped.
func (l *Listener) cleanup(now time.Time) {
	pattern := l.rootPath(l.resolver.GlobPattern(l.settings.Filename, now))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		l.internalLog(err, "invalid cleanup pattern "+pattern)
		return
	}

	cutoff := now.Add(-l.settings.CleanupOlderThan)
	var deleted int
	for _, path := range matches {
		if l.file != nil && path == l.resolvedFilename {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			l.internalLog(err, "failed to delete old trace file")
			continue
		}
		deleted++
		l.state.Deletions.Add(1)
	}

	if deleted > 0 {
		l.diag.Debug().Int("deleted", deleted).Str("pattern", pattern).Msg("cleanup sweep")
	}
}
