package tracelog

import (
	"time"

	"github.com/rs/zerolog"
)

// Builder provides a fluent API for building listener settings.
// Errors are accumulated and reported by Build.
type Builder struct {
	settings Settings
	opts     []Option
	err      error
}

// NewBuilder creates a new builder with default settings.
func NewBuilder() *Builder {
	return &Builder{
		settings: DefaultSettings(),
	}
}

// FromInit starts a builder from an initialization string. Invalid tokens
// are reported by Build.
func FromInit(init string) *Builder {
	s, err := parseSettings(init)
	return &Builder{settings: s, err: err}
}

// Build validates the settings and creates a Listener.
func (b *Builder) Build() (*Listener, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.settings.Validate(); err != nil {
		return nil, err
	}
	return NewWithSettings(b.settings, b.opts...), nil
}

// Settings returns the settings built so far.
func (b *Builder) Settings() Settings {
	return b.settings.Clone()
}

// Filename sets the file name template.
func (b *Builder) Filename(name string) *Builder {
	b.settings.Filename = name
	return b
}

// MaxFileSize sets the size that triggers rotation, in bytes.
func (b *Builder) MaxFileSize(size int64) *Builder {
	b.settings.MaxFileSize = size
	return b
}

// MaxFileSizeString sets the rotation size from a string such as "10mb".
func (b *Builder) MaxFileSizeString(size string) *Builder {
	b.apply("MaxFileSize", size)
	return b
}

// MaxSizeKB sets the rotation size in KB. Convenience.
func (b *Builder) MaxSizeKB(size int64) *Builder {
	b.settings.MaxFileSize = size * sizeKB
	return b
}

// MaxSizeMB sets the rotation size in MB. Convenience.
func (b *Builder) MaxSizeMB(size int64) *Builder {
	b.settings.MaxFileSize = size * sizeMB
	return b
}

// SizeOverAction sets the rotation action.
func (b *Builder) SizeOverAction(action RotationAction) *Builder {
	b.settings.SizeOverAction = action
	return b
}

// SizeOverActionString sets the rotation action by name.
func (b *Builder) SizeOverActionString(action string) *Builder {
	b.apply("LogSizeOverAction", action)
	return b
}

// SavedPercent sets the share of the file kept by ResetSize.
func (b *Builder) SavedPercent(percent int) *Builder {
	b.settings.SavedPercent = percent
	return b
}

// MaxRenamedFiles sets the number of .LNN slots used by Rename.
func (b *Builder) MaxRenamedFiles(n int) *Builder {
	b.settings.MaxRenamedFiles = n
	return b
}

// Encoding sets the file character set.
func (b *Builder) Encoding(name string) *Builder {
	b.settings.Encoding = name
	return b
}

// LinePrefix sets the line prefix template.
func (b *Builder) LinePrefix(prefix string) *Builder {
	b.settings.LinePrefix = prefix
	return b
}

// TimeRoutePattern sets the time-route pattern.
func (b *Builder) TimeRoutePattern(pattern string) *Builder {
	b.settings.TimeRoutePattern = pattern
	return b
}

// TimeStampFormat sets the timestamp format.
func (b *Builder) TimeStampFormat(format string) *Builder {
	b.settings.TimeStampFormat = format
	return b
}

// AutoFlush sets whether every write is flushed.
func (b *Builder) AutoFlush(enable bool) *Builder {
	b.settings.AutoFlush = enable
	return b
}

// CleanupOlderThan sets the cleanup retention, zero disables cleanup.
func (b *Builder) CleanupOlderThan(d time.Duration) *Builder {
	b.settings.CleanupOlderThan = d
	return b
}

// DiagnosticLog sets the internal diagnostics target.
func (b *Builder) DiagnosticLog(target string) *Builder {
	b.settings.DiagnosticLog = target
	return b
}

// Diagnostics routes internal diagnostics to logger.
func (b *Builder) Diagnostics(logger zerolog.Logger) *Builder {
	b.opts = append(b.opts, WithDiagnostics(logger))
	return b
}

// Clock sets the listener time source.
func (b *Builder) Clock(now func() time.Time) *Builder {
	b.opts = append(b.opts, WithClock(now))
	return b
}

// HomePath sets the directory relative file names are rooted at.
func (b *Builder) HomePath(path string) *Builder {
	b.opts = append(b.opts, WithHomePath(path))
	return b
}

// AppName sets the value of ${AppName}.
func (b *Builder) AppName(name string) *Builder {
	b.opts = append(b.opts, WithAppName(name))
	return b
}

// Defaults overrides the process logging defaults for this listener.
func (b *Builder) Defaults(d LoggingDefaults) *Builder {
	b.opts = append(b.opts, WithDefaults(d))
	return b
}

// Set applies a key=value pair using initialization string key names.
func (b *Builder) Set(key, value string) *Builder {
	b.apply(key, value)
	return b
}

// apply records the first error and ignores later changes
func (b *Builder) apply(key, value string) {
	if b.err != nil {
		return
	}
	if err := applySetting(&b.settings, key, value); err != nil {
		b.err = err
	}
}
