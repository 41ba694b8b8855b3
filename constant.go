package tracelog

import (
	"os"
	"time"
)

// Size multipliers for MaxFileSize suffixes
const (
	sizeKB int64 = 1024
	sizeMB       = 1024 * sizeKB
	sizeGB       = 1024 * sizeMB
)

// Rotation
const (
	// Renamed files carry a two-digit .LNN suffix
	renameSuffixFormat = "%s.L%02d"
	maxRenameSlots     = 99
	// Chunk used to move retained bytes during ResetSize
	resetCopyChunk = 64 * 1024
)

// Defaults for values missing from the initialization string
const (
	defaultSavedPercent    = 50
	defaultMaxRenamedFiles = 10
	defaultBufferSize      = 4096
)

// Timers
const (
	// Minimum spacing between two cleanup sweeps
	cleanupInterval = time.Minute
	// Debounce for settings file change events
	defaultWatchDebounce = 100 * time.Millisecond
)

// File modes
const (
	logFileMode os.FileMode = 0644
	logDirMode  os.FileMode = 0755
)
